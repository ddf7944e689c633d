// Package service wires the scoring engine to storage and the job queue and
// implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/okian/outwit/internal/adapters/mq/queue"
	workerpool "github.com/okian/outwit/internal/adapters/mq/worker"
	"github.com/okian/outwit/internal/adapters/repository"
	"github.com/okian/outwit/internal/domain/dedupe"
	"github.com/okian/outwit/internal/domain/model"
	"github.com/okian/outwit/internal/domain/scoring"
	"github.com/okian/outwit/pkg/logger"
	"github.com/okian/outwit/pkg/metrics"
)

const (
	defaultQueueSize        = 1024
	defaultDedupeSize       = 50_000
	defaultMaxLeaderboard   = 1000
	defaultRecomputeTimeout = 30 * time.Second
)

// Service implements the API dependencies for the scoring system.
type Service struct {
	mu sync.RWMutex

	store      repository.Store
	calculator *scoring.Calculator
	deduper    dedupe.Deduper
	jobQueue   jobqueue.Queue
	workerPool *workerpool.Pool

	// Recompute runs never overlap.
	recomputeMu sync.Mutex
	lastRun     atomic.Pointer[RecomputeResult]

	jobsProcessed atomic.Int64
	jobsFailed    atomic.Int64

	workerCount      int
	queueSize        int
	dedupeSize       int
	maxLeaderboard   int
	recomputeTimeout time.Duration
	now              func() time.Time

	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the persistence backend. The default is a MemoryStore.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithCalculator replaces the standard scoring calculator.
func WithCalculator(c *scoring.Calculator) Option {
	return func(s *Service) {
		if c != nil {
			s.calculator = c
		}
	}
}

// WithWorkerCount sets the number of job workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of waiting jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many request ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxLeaderboardLimit caps the number of rows one leaderboard read returns.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLeaderboard = n
		}
	}
}

// WithRecomputeTimeout bounds a single recompute run. Zero disables the bound.
func WithRecomputeTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.recomputeTimeout = d
		}
	}
}

// WithClock sets the time source used for resolution timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Start must be called before jobs are accepted;
// synchronous operations work immediately.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:      runtime.NumCPU(),
		queueSize:        defaultQueueSize,
		dedupeSize:       defaultDedupeSize,
		maxLeaderboard:   defaultMaxLeaderboard,
		recomputeTimeout: defaultRecomputeTimeout,
		now:              time.Now,
		logger:           logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.calculator == nil {
		s.calculator = scoring.NewCalculator()
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start creates the job queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting scoring service...")

	s.jobQueue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, s, s.logger,
		workerpool.WithJobTimeout(s.jobTimeout()),
	)
	s.workerPool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
	)
	return nil
}

// jobTimeout leaves room for a finalize write ahead of its recompute.
func (s *Service) jobTimeout() time.Duration {
	if s.recomputeTimeout == 0 {
		return 0
	}
	return 2 * s.recomputeTimeout
}

// Stop stops accepting jobs, drains the queue and waits for the workers.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping scoring service...")
	var err error
	if s.workerPool != nil {
		err = s.workerPool.Shutdown(ctx)
	}
	s.started = false
	s.logger.Info(ctx, "scoring service stopped")
	return err
}

// SeenAndRecord atomically checks if a request id was seen and records it if not.
// Returns true if the request was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordJobDuplicate()
	}
	metrics.UpdateDedupeSize(s.deduper.Size())
	return seen
}

// Unrecord forgets a request id so the caller can retry it.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
	metrics.UpdateDedupeSize(s.deduper.Size())
}

// Enqueue submits a job for asynchronous processing. A full queue returns
// ErrBackpressure.
func (s *Service) Enqueue(ctx context.Context, job model.Job) error { //nolint:gocritic // hugeParam
	s.mu.RLock()
	q, started := s.jobQueue, s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}

	if err := validateJob(job); err != nil {
		return err
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = s.now()
	}

	if err := q.Enqueue(ctx, job); err != nil {
		if errors.Is(err, jobqueue.ErrFull) || errors.Is(err, jobqueue.ErrClosed) {
			return fmt.Errorf("%w: %v", ErrBackpressure, err)
		}
		return err
	}
	s.logger.Debug(ctx, "job enqueued",
		logger.String("job_id", job.ID),
		logger.String("kind", string(job.Kind)),
	)
	return nil
}

func validateJob(job model.Job) error { //nolint:gocritic // hugeParam
	switch job.Kind {
	case model.JobFinalize:
		if job.EpisodeID == nil {
			return fmt.Errorf("%w: finalize needs an episode", ErrInvalidJob)
		}
	case model.JobRecompute:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidJob, job.Kind)
	}
	return nil
}

// Process runs one queued job. It implements the worker Processor.
func (s *Service) Process(ctx context.Context, job model.Job) error { //nolint:gocritic // hugeParam
	err := validateJob(job)
	switch {
	case err != nil:
	case job.Kind == model.JobFinalize:
		_, err = s.FinalizeEpisode(ctx, FinalizeRequest{
			EpisodeID:    *job.EpisodeID,
			Events:       job.Events,
			Eliminations: job.Eliminations,
		})
	default:
		_, err = s.Recompute(ctx, Scope{EpisodeID: job.EpisodeID})
	}

	if err != nil {
		s.jobsFailed.Add(1)
		return err
	}
	s.jobsProcessed.Add(1)
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":        s.started,
		"worker_count":   s.workerCount,
		"queue_capacity": s.queueSize,
		"dedupe_size":    s.deduper.Size(),
		"jobs_processed": s.jobsProcessed.Load(),
		"jobs_failed":    s.jobsFailed.Load(),
	}
	if s.started {
		stats["queue_length"] = s.jobQueue.Len(ctx)
	}
	if run := s.lastRun.Load(); run != nil {
		stats["last_recompute"] = map[string]any{
			"run_id":      run.RunID.String(),
			"players":     run.Players,
			"duration_ms": run.Duration.Milliseconds(),
			"finished_at": run.FinishedAt,
		}
	}
	return stats
}
