package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the collectors are registered there", func() {
				So(manager, ShouldNotBeNil)
				manager.documentsRead.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)

				var found bool
				for _, f := range families {
					if f.GetName() == "test_unit_documents_read_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording a join", func() {
			before := testutil.ToFloat64(globalManager.unresolvedRows)
			RecordJoin(10, 3, 1)

			Convey("Then the counters and the missing rate move", func() {
				So(testutil.ToFloat64(globalManager.unresolvedRows)-before, ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.joinMissingRate), ShouldAlmostEqual, 0.3)
			})
		})

		Convey("When recording an empty join", func() {
			RecordJoin(0, 0, 0)

			Convey("Then the missing rate is zero", func() {
				So(testutil.ToFloat64(globalManager.joinMissingRate), ShouldEqual, 0)
			})
		})

		Convey("When recording a resolved slot", func() {
			before := testutil.ToFloat64(globalManager.intervalsEmitted)
			RecordSlotResolved(2, 1)

			Convey("Then intervals are counted", func() {
				So(testutil.ToFloat64(globalManager.intervalsEmitted)-before, ShouldEqual, 2)
			})
		})

		Convey("When recording the remaining collectors", func() {
			So(func() {
				RecordDocumentRead()
				RecordExtractionMiss()
				UpdateSnapshotRows(5)
				RecordSnapshotDuplicates(1)
				RecordSnapshotUnmatched(2)
				RecordVoidRacesDropped(1)
				RecordSectionsBuilt(4)
				UpdateFeatureRows(4)
				RecordStage("resolve", "ok", 12.5)
				RecordGroupProcessed("resolve")
				UpdateQueueDepth(3)
				UpdateWorkerCount(2)
				RecordHTTPRequest("/healthz", "GET", "200")
				RecordHTTPRequestDuration("/healthz", "GET", "200", 0.4)
			}, ShouldNotPanic)
			So(GetRegistry(), ShouldNotBeNil)
			So(Handler(), ShouldNotBeNil)
		})
	})
}

func TestWriteTextfile(t *testing.T) {
	Convey("Given a textfile path", t, func() {
		path := filepath.Join(t.TempDir(), "motorgen.prom")
		RecordStage("extract", "ok", 3)

		Convey("When the registry is written", func() {
			err := WriteTextfile(path)

			Convey("Then the file holds the exposition format", func() {
				So(err, ShouldBeNil)
				data, readErr := os.ReadFile(path)
				So(readErr, ShouldBeNil)
				So(strings.Contains(string(data), "motorgen_pipeline_stage_runs_total"), ShouldBeTrue)
			})
		})

		Convey("When no path is configured", func() {
			So(WriteTextfile(""), ShouldBeNil)
		})
	})
}
