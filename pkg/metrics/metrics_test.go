package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry and custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_ns"),
				WithSubsystem("test_sub"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.recomputeRuns.WithLabelValues(ScopeAll, ResultSuccess).Inc()

			Convey("Then metrics are registered under the configured names", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var names []string
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_ns_test_sub_recompute_runs_total")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
			})
		})

		Convey("When empty options are given", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "outwit")
				So(manager.subsystem, ShouldEqual, "scoring")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording recompute runs", func() {
			before := value(globalManager.recomputeRuns.WithLabelValues(ScopeEpisode, ResultFailure))
			RecordRecompute(ScopeEpisode, ResultFailure, 20*time.Millisecond)
			UpdatePlayersScored(12)

			Convey("Then the counter and gauge move", func() {
				So(value(globalManager.recomputeRuns.WithLabelValues(ScopeEpisode, ResultFailure)), ShouldEqual, before+1)
				So(value(globalManager.playersScored), ShouldEqual, float64(12))
			})
		})

		Convey("When recording season operations", func() {
			beforeRule := value(globalManager.validationFailures.WithLabelValues("icky_in_trio"))
			beforeEvents := value(globalManager.eventsLogged)
			RecordSubmission(ResultInvalid)
			RecordValidationFailure("icky_in_trio")
			RecordEpisodeFinalized(4)
			RecordProphecyResolved()

			Convey("Then each metric reflects it", func() {
				So(value(globalManager.validationFailures.WithLabelValues("icky_in_trio")), ShouldEqual, beforeRule+1)
				So(value(globalManager.eventsLogged), ShouldEqual, beforeEvents+4)
			})
		})

		Convey("When recording job and queue activity", func() {
			beforeDup := value(globalManager.jobsDuplicate)
			RecordJobEnqueued("finalize")
			RecordJobDuplicate()
			RecordJobProcessed("finalize", ResultSuccess, time.Millisecond)
			UpdateQueueSize(3)
			UpdateQueueCapacity(10)
			RecordQueueRejected("full")
			UpdateWorkerCount(2)
			UpdateDedupeSize(5)

			Convey("Then gauges hold the latest values", func() {
				So(value(globalManager.jobsDuplicate), ShouldEqual, beforeDup+1)
				So(value(globalManager.queueSize), ShouldEqual, float64(3))
				So(value(globalManager.queueCapacity), ShouldEqual, float64(10))
				So(value(globalManager.workerCount), ShouldEqual, float64(2))
				So(value(globalManager.dedupeKeysSize), ShouldEqual, float64(5))
			})
		})

		Convey("When recording HTTP requests and errors", func() {
			RecordHTTPRequest("/leaderboard", "GET", "200", 5*time.Millisecond)
			RecordErrorByComponent("store", "replace_failed")

			Convey("Then the custom registry exposes them", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if strings.HasSuffix(f.GetName(), "http_requests_total") {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func value(c prometheus.Metric) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return -1
	}
	switch {
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	default:
		return 0
	}
}
