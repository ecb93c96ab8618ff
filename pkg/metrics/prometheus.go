// Package metrics provides Prometheus metrics for the motorgen pipeline.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every Prometheus collector the pipeline reports to.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Extraction
	documentsRead      prometheus.Counter
	extractionMisses   prometheus.Counter
	snapshotRows       prometheus.Gauge
	snapshotDuplicates prometheus.Counter

	// Resolution
	slotsResolved     prometheus.Counter
	intervalsEmitted  prometheus.Counter
	candidatesGapDrop prometheus.Counter

	// Join
	raceRowsJoined     prometheus.Counter
	unresolvedRows     prometheus.Counter
	ambiguousMatches   prometheus.Counter
	voidRacesDropped   prometheus.Counter
	joinMissingRate    prometheus.Gauge
	snapshotMissedRows prometheus.Counter

	// Sections
	sectionsBuilt prometheus.Counter
	featureRows   prometheus.Gauge

	// Execution
	stageDuration   *prometheus.HistogramVec
	stageRuns       *prometheus.CounterVec
	groupsProcessed *prometheus.CounterVec
	queueDepth      prometheus.Gauge
	workerCount     prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "motorgen",
		subsystem:        "pipeline",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.documentsRead = m.counter("documents_read_total", "Ranking documents read from the archive")
	m.extractionMisses = m.counter("extraction_misses_total", "Ranking documents that yielded no usable rows")
	m.snapshotRows = m.gauge("snapshot_rows", "Rows in the last extracted snapshot table")
	m.snapshotDuplicates = m.counter("snapshot_duplicates_total", "Snapshot rows overwritten by a later document")

	m.slotsResolved = m.counter("slots_resolved_total", "Motor slots processed by the identity resolver")
	m.intervalsEmitted = m.counter("intervals_emitted_total", "Identity intervals emitted by the resolver")
	m.candidatesGapDrop = m.counter("candidates_gap_rejected_total", "Replacement candidates rejected by the minimum gap")

	m.raceRowsJoined = m.counter("race_rows_joined_total", "Race rows passed through the interval join")
	m.unresolvedRows = m.counter("unresolved_rows_total", "Race rows left without a motor identity")
	m.ambiguousMatches = m.counter("ambiguous_matches_total", "Race rows whose date matched more than one interval")
	m.voidRacesDropped = m.counter("void_races_dropped_total", "Races removed because of a void finish token")
	m.joinMissingRate = m.gauge("join_missing_rate", "Share of race rows without a motor identity in the last join")
	m.snapshotMissedRows = m.counter("snapshot_unmatched_rows_total", "Race rows without a same-day snapshot")

	m.sectionsBuilt = m.counter("sections_built_total", "Section base rows aggregated from joined races")
	m.featureRows = m.gauge("feature_rows", "Rows in the last section feature table")

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stage_duration_milliseconds",
		Help:        "Wall time of each pipeline stage in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"stage"})

	m.stageRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stage_runs_total",
		Help:        "Pipeline stage executions by outcome",
		ConstLabels: m.constLabels,
	}, []string{"stage", "status"})

	m.groupsProcessed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "worker_groups_processed_total",
		Help:        "Independent groups processed by the worker pool",
		ConstLabels: m.constLabels,
	}, []string{"stage"})

	m.queueDepth = m.gauge("queue_depth", "Jobs waiting in the group queue")
	m.workerCount = m.gauge("worker_count", "Workers in the active pool")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "requests_total",
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordDocumentRead increments the documents read counter.
func RecordDocumentRead() { globalManager.documentsRead.Inc() }

// RecordExtractionMiss increments the extraction miss counter.
func RecordExtractionMiss() { globalManager.extractionMisses.Inc() }

// UpdateSnapshotRows sets the size of the last snapshot table.
func UpdateSnapshotRows(n int) { globalManager.snapshotRows.Set(float64(n)) }

// RecordSnapshotDuplicates adds overwritten snapshot rows.
func RecordSnapshotDuplicates(n int) { globalManager.snapshotDuplicates.Add(float64(n)) }

// RecordSlotResolved records one resolved slot and the intervals it produced.
func RecordSlotResolved(intervals, gapRejected int) {
	globalManager.slotsResolved.Inc()
	globalManager.intervalsEmitted.Add(float64(intervals))
	globalManager.candidatesGapDrop.Add(float64(gapRejected))
}

// RecordJoin records the outcome of one interval join.
func RecordJoin(rows, unresolved, ambiguous int) {
	globalManager.raceRowsJoined.Add(float64(rows))
	globalManager.unresolvedRows.Add(float64(unresolved))
	globalManager.ambiguousMatches.Add(float64(ambiguous))
	if rows > 0 {
		globalManager.joinMissingRate.Set(float64(unresolved) / float64(rows))
	} else {
		globalManager.joinMissingRate.Set(0)
	}
}

// RecordSnapshotUnmatched adds race rows without a same-day snapshot.
func RecordSnapshotUnmatched(n int) { globalManager.snapshotMissedRows.Add(float64(n)) }

// RecordVoidRacesDropped adds races removed before the join.
func RecordVoidRacesDropped(n int) { globalManager.voidRacesDropped.Add(float64(n)) }

// RecordSectionsBuilt adds aggregated section rows.
func RecordSectionsBuilt(n int) { globalManager.sectionsBuilt.Add(float64(n)) }

// UpdateFeatureRows sets the size of the last feature table.
func UpdateFeatureRows(n int) { globalManager.featureRows.Set(float64(n)) }

// RecordStage records a stage execution with its duration and status.
func RecordStage(stage, status string, durationMs float64) {
	globalManager.stageDuration.WithLabelValues(stage).Observe(durationMs)
	globalManager.stageRuns.WithLabelValues(stage, status).Inc()
}

// RecordGroupProcessed increments the processed group counter for a stage.
func RecordGroupProcessed(stage string) { globalManager.groupsProcessed.WithLabelValues(stage).Inc() }

// UpdateQueueDepth sets the number of queued jobs.
func UpdateQueueDepth(n int) { globalManager.queueDepth.Set(float64(n)) }

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(n int) { globalManager.workerCount.Set(float64(n)) }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Handler exposes the custom registry over HTTP.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the registry in the node-exporter textfile format.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteTextfile, err)
	}
	return nil
}
