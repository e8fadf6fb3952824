package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created and enabled", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Enabled(), ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithMetricPrefix("prefix"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(false),
				WithRefreshInterval(5*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.eventsReceived.Add(3)

			Convey("Then collectors carry the configured names", func() {
				So(manager.Enabled(), ShouldBeFalse)
				So(manager.RefreshInterval(), ShouldEqual, 5*time.Second)
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				found := false
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_prefix_events_received_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestPipelineMetrics(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When filter decisions are recorded", func() {
			before := testutil.ToFloat64(globalManager.filterDecisions.WithLabelValues(DecisionRerouted))
			RecordFilterDecision(DecisionRerouted)
			RecordFilterDecision(DecisionRerouted)

			Convey("Then the labelled counter grows", func() {
				after := testutil.ToFloat64(globalManager.filterDecisions.WithLabelValues(DecisionRerouted))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When received events are recorded", func() {
			before := testutil.ToFloat64(globalManager.eventsReceived)
			RecordEventsReceived(5)
			RecordEventsReceived(0)
			RecordEventsReceived(-1)

			Convey("Then only positive batches count", func() {
				So(testutil.ToFloat64(globalManager.eventsReceived)-before, ShouldEqual, 5)
			})
		})

		Convey("When gauges are updated", func() {
			UpdateSessionsActive(7)
			UpdateStoreEvents(42)

			Convey("Then they reflect the last value", func() {
				So(testutil.ToFloat64(globalManager.sessionsActive), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.storeEvents), ShouldEqual, 42)
			})
		})

		Convey("When the remaining recorders are called", func() {
			Convey("Then none of them panic", func() {
				So(func() {
					RecordFilterRejection("promotion", "blacklist")
					RecordCategory("ADD_TO_CART", 0.9)
					RecordWindowEvictions(3)
					RecordReportLatency(1.5)
					RecordHTTPRequest("report", "GET", "200")
					RecordHTTPRequestDuration("report", "GET", "200", 2)
					UpdateQueueSize(1)
					UpdateQueueCapacity(10)
					UpdateQueueUtilization(0.1)
					RecordQueueEnqueue()
					RecordQueueDequeue()
					RecordQueueEnqueueError()
					RecordQueueProcessingLatency(0.2)
					UpdateWorkerCount(4)
					RecordWorkerProcessingLatency(3)
					RecordWorkerError()
					RecordErrorByComponent("queue", "full")
					RecordErrorByType("rate_limit", "medium")
					RecordErrorByEndpoint("events", "POST", "rate_limit")
					RecordErrorLatency("http", "client_error", 1)
					UpdateSystemMemoryUsage(1024)
					UpdateSystemGoroutineCount(12)
					RecordSystemGCPauseTime(0.3)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording is switched off", func() {
			SetEnabled(false)
			defer SetEnabled(true)
			before := testutil.ToFloat64(globalManager.eventsReceived)
			RecordEventsReceived(4)
			UpdateSessionsActive(99)

			Convey("Then the helpers record nothing", func() {
				So(Enabled(), ShouldBeFalse)
				So(testutil.ToFloat64(globalManager.eventsReceived), ShouldEqual, before)
				So(testutil.ToFloat64(globalManager.sessionsActive), ShouldNotEqual, 99)
			})
		})

		Convey("When the refresh interval is set", func() {
			prev := RefreshInterval()
			SetRefreshInterval(time.Second)
			SetRefreshInterval(0)
			defer SetRefreshInterval(prev)

			Convey("Then non-positive values are ignored", func() {
				So(RefreshInterval(), ShouldEqual, time.Second)
			})
		})

		Convey("Then the custom registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
