package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should use the service namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "trendrank")
				So(manager.subsystem, ShouldEqual, "engine")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.workerErrors.Inc()

			Convey("Then metrics should carry the custom names and labels", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var found bool
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_worker_errors_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When options are empty", func() {
			manager := NewManager(
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithConstLabels(nil),
				WithPrometheusRegistry(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "trendrank")
				So(manager.histogramBuckets, ShouldNotBeEmpty)
				So(manager.constLabels, ShouldBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording ranking passes", func() {
			before := testutil.ToFloat64(globalManager.rankingPasses.WithLabelValues("poll"))
			RecordRankingPass("poll", 12.5, 42)
			UpdateLastPass(1_700_000_000)
			UpdateSnapshotSize(300, 25)

			Convey("Then the counters and gauges should move", func() {
				So(testutil.ToFloat64(globalManager.rankingPasses.WithLabelValues("poll")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.topicsRanked), ShouldEqual, 42)
				So(testutil.ToFloat64(globalManager.rankingLastPassUnix), ShouldEqual, 1_700_000_000)
				So(testutil.ToFloat64(globalManager.postsLoaded), ShouldEqual, 300)
				So(testutil.ToFloat64(globalManager.authorsLoaded), ShouldEqual, 25)
			})
		})

		Convey("When recording refresh errors", func() {
			before := testutil.ToFloat64(globalManager.refreshErrors.WithLabelValues(StageLoad))
			RecordRefreshError(StageLoad)

			Convey("Then the stage counter should increase", func() {
				So(testutil.ToFloat64(globalManager.refreshErrors.WithLabelValues(StageLoad)), ShouldEqual, before+1)
			})
		})

		Convey("When recording board publishes", func() {
			fresh := testutil.ToFloat64(globalManager.boardPublishes.WithLabelValues("memory"))
			stale := testutil.ToFloat64(globalManager.boardStalePublishes)
			RecordBoardPublish("memory", false)
			RecordBoardPublish("memory", true)

			Convey("Then fresh and stale publishes are counted apart", func() {
				So(testutil.ToFloat64(globalManager.boardPublishes.WithLabelValues("memory")), ShouldEqual, fresh+1)
				So(testutil.ToFloat64(globalManager.boardStalePublishes), ShouldEqual, stale+1)
			})
		})

		Convey("When recording queue activity", func() {
			dropped := testutil.ToFloat64(globalManager.triggersDropped.WithLabelValues("notify"))
			RecordTriggerEnqueued("notify")
			RecordTriggerDropped("notify")
			UpdateQueueSize(1)
			UpdateQueueCapacity(4)
			UpdateQueueUtilization(0.25)

			Convey("Then queue metrics reflect it", func() {
				So(testutil.ToFloat64(globalManager.triggersDropped.WithLabelValues("notify")), ShouldEqual, dropped+1)
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.queueUtilization), ShouldEqual, 0.25)
			})
		})

		Convey("When recording the remaining metrics", func() {
			Convey("Then nothing should panic", func() {
				So(func() {
					RecordSourceLoadLatency(3)
					RecordNotification()
					RecordBoardQueryLatency(0.4)
					UpdateWorkerCount(2)
					UpdateWorkerActiveCount(1)
					RecordWorkerProcessingLatency(20)
					RecordWorkerError()
					RecordHTTPRequest("/board", "GET", "200")
					RecordHTTPRequestDuration("/board", "GET", "200", 1.2)
					RecordErrorByComponent("worker", "load")
					RecordSystemStats()
				}, ShouldNotPanic)
			})
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		RecordNotification()

		Convey("Then it should expose the service metrics only", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(families, ShouldNotBeEmpty)
			for _, f := range families {
				So(strings.HasPrefix(f.GetName(), "trendrank_"), ShouldBeTrue)
			}
		})
	})
}
