// Package metrics provides Prometheus metrics for the outwit scoring service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values shared by callers.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultInvalid = "invalid"

	ScopeAll     = "all"
	ScopeEpisode = "episode"
)

// Manager owns every metric of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Scoring
	recomputeRuns     *prometheus.CounterVec
	recomputeDuration prometheus.Histogram
	playersScored     prometheus.Gauge

	// Season operations
	submissions        *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	episodesFinalized  prometheus.Counter
	eventsLogged       prometheus.Counter
	prophecyResolved   prometheus.Counter

	// Jobs
	jobsEnqueued   *prometheus.CounterVec
	jobsDuplicate  prometheus.Counter
	jobsProcessed  *prometheus.CounterVec
	jobLatency     prometheus.Histogram
	queueSize      prometheus.Gauge
	queueCapacity  prometheus.Gauge
	queueRejected  *prometheus.CounterVec
	workerCount    prometheus.Gauge
	dedupeKeysSize prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager. Without WithPrometheusRegistry the
// metrics land on the default registerer.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "outwit",
		subsystem:        "scoring",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels}
}

func (m *Manager) gauge(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels}
}

func (m *Manager) histogram(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.recomputeRuns = auto.NewCounterVec(m.counter("recompute_runs_total", "Recompute runs by scope and result"), []string{"scope", "result"})
	m.recomputeDuration = auto.NewHistogram(m.histogram("recompute_duration_seconds", "Duration of recompute runs"))
	m.playersScored = auto.NewGauge(m.gauge("players_scored", "Players in the score cache after the last recompute"))

	m.submissions = auto.NewCounterVec(m.counter("submissions_total", "Pick submissions by result"), []string{"result"})
	m.validationFailures = auto.NewCounterVec(m.counter("validation_failures_total", "Rejected submissions by violated rule"), []string{"rule"})
	m.episodesFinalized = auto.NewCounter(m.counter("episodes_finalized_total", "Episodes finalized"))
	m.eventsLogged = auto.NewCounter(m.counter("events_logged_total", "Castaway events written by finalize"))
	m.prophecyResolved = auto.NewCounter(m.counter("prophecy_resolutions_total", "Prophecy outcomes set or cleared"))

	m.jobsEnqueued = auto.NewCounterVec(m.counter("jobs_enqueued_total", "Jobs accepted onto the queue by kind"), []string{"kind"})
	m.jobsDuplicate = auto.NewCounter(m.counter("jobs_duplicate_total", "Jobs dropped because their request id was already seen"))
	m.jobsProcessed = auto.NewCounterVec(m.counter("jobs_processed_total", "Jobs processed by kind and result"), []string{"kind", "result"})
	m.jobLatency = auto.NewHistogram(m.histogram("job_latency_seconds", "Time from dequeue to job completion"))
	m.queueSize = auto.NewGauge(m.gauge("queue_size", "Jobs waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gauge("queue_capacity", "Maximum queue capacity"))
	m.queueRejected = auto.NewCounterVec(m.counter("queue_rejected_total", "Enqueue attempts refused by reason"), []string{"reason"})
	m.workerCount = auto.NewGauge(m.gauge("worker_count", "Running workers"))
	m.dedupeKeysSize = auto.NewGauge(m.gauge("dedupe_keys", "Request ids remembered for deduplication"))

	m.httpRequests = auto.NewCounterVec(m.counter("http_requests_total", "HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogram("http_request_duration_seconds", "HTTP request duration"), []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counter("errors_total", "Errors by component and type"), []string{"component", "error_type"})
}

// RecordRecompute records one recompute run.
func RecordRecompute(scope, result string, took time.Duration) {
	globalManager.recomputeRuns.WithLabelValues(scope, result).Inc()
	globalManager.recomputeDuration.Observe(took.Seconds())
}

// UpdatePlayersScored sets the size of the score cache.
func UpdatePlayersScored(n int) {
	globalManager.playersScored.Set(float64(n))
}

// RecordSubmission counts a pick submission.
func RecordSubmission(result string) {
	globalManager.submissions.WithLabelValues(result).Inc()
}

// RecordValidationFailure counts a rejected submission by rule.
func RecordValidationFailure(rule string) {
	globalManager.validationFailures.WithLabelValues(rule).Inc()
}

// RecordEpisodeFinalized counts a finalized episode and its events.
func RecordEpisodeFinalized(events int) {
	globalManager.episodesFinalized.Inc()
	globalManager.eventsLogged.Add(float64(events))
}

// RecordProphecyResolved counts an outcome change.
func RecordProphecyResolved() {
	globalManager.prophecyResolved.Inc()
}

// RecordJobEnqueued counts an accepted job.
func RecordJobEnqueued(kind string) {
	globalManager.jobsEnqueued.WithLabelValues(kind).Inc()
}

// RecordJobDuplicate counts a job dropped by request-id dedupe.
func RecordJobDuplicate() {
	globalManager.jobsDuplicate.Inc()
}

// RecordJobProcessed records a finished job.
func RecordJobProcessed(kind, result string, took time.Duration) {
	globalManager.jobsProcessed.WithLabelValues(kind, result).Inc()
	globalManager.jobLatency.Observe(took.Seconds())
}

// UpdateQueueSize sets the queue depth.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueRejected counts a refused enqueue.
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateDedupeSize sets how many request ids are remembered.
func UpdateDedupeSize(size int64) {
	globalManager.dedupeKeysSize.Set(float64(size))
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(endpoint, method, statusCode string, took time.Duration) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(took.Seconds())
}

// RecordErrorByComponent counts an error.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the registry /healthz exposes.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
