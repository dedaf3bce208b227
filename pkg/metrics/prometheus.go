// Package metrics provides Prometheus metrics for the trend ranking service.
package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Refresh pipeline stages used as the "stage" label.
const (
	StageLoad    = "load"
	StageRank    = "rank"
	StagePublish = "publish"
)

// Manager manages all Prometheus metrics for the trend ranking service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Ranking pass metrics
	rankingPasses       *prometheus.CounterVec
	rankingPassDuration prometheus.Histogram
	rankingLastPassUnix prometheus.Gauge
	topicsRanked        prometheus.Gauge
	postsLoaded         prometheus.Gauge
	authorsLoaded       prometheus.Gauge
	refreshErrors       *prometheus.CounterVec

	// Source and board metrics
	sourceLoadLatency   prometheus.Histogram
	notificationsTotal  prometheus.Counter
	boardPublishes      *prometheus.CounterVec
	boardStalePublishes prometheus.Counter
	boardQueryLatency   prometheus.Histogram

	// Trigger queue metrics
	triggersEnqueued *prometheus.CounterVec
	triggersDropped  *prometheus.CounterVec
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge

	// Worker metrics
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry without the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "trendrank",
		subsystem:        "engine",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.rankingPasses = m.counterVec("ranking_passes_total", "Completed ranking passes by trigger reason", "reason")
	m.rankingPassDuration = m.histogram("ranking_pass_duration_milliseconds", "Duration of a full load, rank and publish pass", m.histogramBuckets)
	m.rankingLastPassUnix = m.gauge("ranking_last_pass_unix", "Unix timestamp of the last published ranking")
	m.topicsRanked = m.gauge("topics_ranked", "Topics in the last published ranking")
	m.postsLoaded = m.gauge("posts_loaded", "Posts in the last loaded snapshot")
	m.authorsLoaded = m.gauge("authors_loaded", "Authors in the last loaded snapshot")
	m.refreshErrors = m.counterVec("refresh_errors_total", "Failed refresh passes by stage", "stage")

	m.sourceLoadLatency = m.histogram("source_load_latency_milliseconds", "Snapshot load latency", m.histogramBuckets)
	m.notificationsTotal = m.counter("source_notifications_total", "Change notifications received from the source")
	m.boardPublishes = m.counterVec("board_publishes_total", "Boards published by backend", "backend")
	m.boardStalePublishes = m.counter("board_stale_publishes_total", "Publishes ignored because a newer board was present")
	m.boardQueryLatency = m.histogram("board_query_latency_milliseconds", "Board read latency", m.histogramBuckets)

	m.triggersEnqueued = m.counterVec("triggers_enqueued_total", "Refresh triggers accepted by the queue", "reason")
	m.triggersDropped = m.counterVec("triggers_dropped_total", "Refresh triggers dropped because a refresh was already pending", "reason")
	m.queueSize = m.gauge("queue_size", "Pending refresh triggers")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum pending refresh triggers")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)")

	m.workerCount = m.gauge("worker_count", "Configured refresh workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Refresh workers currently running a pass")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Time a worker spends on one trigger", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Triggers that ended in an error")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Most recent GC pause",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordRankingPass records a successful pass for a trigger reason.
func RecordRankingPass(reason string, durationMs float64, topics int) {
	globalManager.rankingPasses.WithLabelValues(reason).Inc()
	globalManager.rankingPassDuration.Observe(durationMs)
	globalManager.topicsRanked.Set(float64(topics))
}

// UpdateLastPass sets the timestamp of the last published ranking.
func UpdateLastPass(unix int64) {
	globalManager.rankingLastPassUnix.Set(float64(unix))
}

// UpdateSnapshotSize sets the post and author counts of the last snapshot.
func UpdateSnapshotSize(posts, authors int) {
	globalManager.postsLoaded.Set(float64(posts))
	globalManager.authorsLoaded.Set(float64(authors))
}

// RecordRefreshError increments the refresh error counter for a stage.
func RecordRefreshError(stage string) {
	globalManager.refreshErrors.WithLabelValues(stage).Inc()
}

// RecordSourceLoadLatency records snapshot load latency in milliseconds.
func RecordSourceLoadLatency(latencyMs float64) {
	globalManager.sourceLoadLatency.Observe(latencyMs)
}

// RecordNotification increments the change notification counter.
func RecordNotification() {
	globalManager.notificationsTotal.Inc()
}

// RecordBoardPublish counts a published board. stale marks a publish that was
// ignored because the board already held a newer pass.
func RecordBoardPublish(backend string, stale bool) {
	if stale {
		globalManager.boardStalePublishes.Inc()
		return
	}
	globalManager.boardPublishes.WithLabelValues(backend).Inc()
}

// RecordBoardQueryLatency records a board read latency in milliseconds.
func RecordBoardQueryLatency(latencyMs float64) {
	globalManager.boardQueryLatency.Observe(latencyMs)
}

// RecordTriggerEnqueued counts an accepted refresh trigger.
func RecordTriggerEnqueued(reason string) {
	globalManager.triggersEnqueued.WithLabelValues(reason).Inc()
}

// RecordTriggerDropped counts a refresh trigger dropped on a full queue.
func RecordTriggerDropped(reason string) {
	globalManager.triggersDropped.WithLabelValues(reason).Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordSystemStats samples the Go runtime into the system gauges.
func RecordSystemStats() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	globalManager.systemMemoryUsage.Set(float64(ms.HeapAlloc))
	globalManager.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))
	if ms.NumGC > 0 {
		last := ms.PauseNs[(ms.NumGC+255)%256]
		globalManager.systemGCPauseTime.Observe(float64(last) / 1e6)
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
