// Package metrics provides Prometheus metrics for the swish shot-model service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// scoreBuckets cover cross-validated accuracy in [0,1].
var scoreBuckets = []float64{0.3, 0.4, 0.45, 0.5, 0.55, 0.6, 0.65, 0.7, 0.8, 0.9, 1.0} //nolint:gochecknoglobals // fixed bucket layout

// Manager manages all Prometheus metrics for the swish service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Capacity search
	searchEvaluations prometheus.Counter
	searchScores      prometheus.Histogram
	searchDuration    prometheus.Histogram
	searchErrors      *prometheus.CounterVec

	// Training
	trainings         prometheus.Counter
	trainingErrors    *prometheus.CounterVec
	trainingDuration  prometheus.Histogram
	modelAccuracy     *prometheus.GaugeVec
	modelsTotal       prometheus.Gauge
	capacityCacheHits *prometheus.CounterVec

	// Data
	shotsIngested prometheus.Counter
	shotsDropped  prometheus.Counter
	shotsTotal    prometheus.Gauge
	playersTotal  prometheus.Gauge

	// Jobs
	jobsQueued    prometheus.Counter
	jobsDuplicate prometheus.Counter

	// Queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "swish",
		subsystem:        "shots",
		histogramBuckets: prometheus.DefBuckets,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	return m.metricPrefix + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.customLabels)

	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: constLabels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: constLabels,
		})
	}
	histogram := func(name, help string, buckets []float64) prometheus.Histogram {
		return auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, Buckets: buckets, ConstLabels: constLabels,
		})
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: constLabels,
		}, labels)
	}

	// Capacity search
	m.searchEvaluations = counter("search_evaluations_total", "Total number of cross-validated candidate evaluations")
	m.searchScores = histogram("search_candidate_score", "Cross-validated accuracy of evaluated candidates", scoreBuckets)
	m.searchDuration = histogram("search_duration_milliseconds", "Capacity search duration in milliseconds",
		[]float64{100, 500, 1000, 5000, 10000, 30000, 60000, 120000, 300000})
	m.searchErrors = counterVec("search_errors_total", "Capacity searches aborted by an error", "kind")

	// Training
	m.trainings = counter("trainings_total", "Total number of completed player trainings")
	m.trainingErrors = counterVec("training_errors_total", "Failed player trainings by kind", "kind")
	m.trainingDuration = histogram("training_duration_milliseconds", "End-to-end training duration in milliseconds",
		[]float64{100, 500, 1000, 5000, 10000, 30000, 60000, 120000, 300000, 600000})
	m.modelAccuracy = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("model_holdout_accuracy"),
		Help: "Holdout accuracy of the latest model per player", ConstLabels: constLabels,
	}, []string{"player"})
	m.modelsTotal = gauge("models_total", "Number of trained player models in the registry")
	m.capacityCacheHits = counterVec("capacity_cache_lookups_total", "Capacity cache lookups by result", "result")

	// Data
	m.shotsIngested = counter("shots_ingested_total", "Total number of shot rows kept after cleaning")
	m.shotsDropped = counter("shots_dropped_total", "Total number of shot rows dropped by cleaning")
	m.shotsTotal = gauge("shots_loaded", "Number of shots currently held in memory")
	m.playersTotal = gauge("players_loaded", "Number of distinct players currently held in memory")

	// Jobs
	m.jobsQueued = counter("jobs_queued_total", "Total number of training jobs accepted")
	m.jobsDuplicate = counter("jobs_duplicate_total", "Training requests rejected because the player was already queued")

	// Queue
	m.queueSize = gauge("queue_size", "Current size of the training job queue")
	m.queueCapacity = gauge("queue_capacity", "Maximum queue capacity")
	m.queueUtilization = gauge("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)")
	m.queueEnqueueRate = counter("queue_enqueue_total", "Total number of jobs enqueued")
	m.queueDequeueRate = counter("queue_dequeue_total", "Total number of jobs dequeued")
	m.queueEnqueueErrors = counter("queue_enqueue_errors_total", "Total number of enqueue errors")
	m.queueProcessingLatency = histogram("queue_processing_latency_milliseconds", "Queue enqueue latency in milliseconds", m.histogramBuckets)

	// Workers
	m.workerCount = gauge("worker_count", "Configured number of training workers")
	m.workerActiveCount = gauge("worker_active_count", "Number of workers currently training")
	m.workerProcessingLatency = histogram("worker_processing_latency_milliseconds", "Worker job latency in milliseconds",
		[]float64{100, 1000, 10000, 60000, 300000, 600000})
	m.workerErrorRate = counter("worker_errors_total", "Total number of worker errors")

	// HTTP
	m.httpRequests = counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("http_request_duration_milliseconds"),
		Help: "HTTP request duration in milliseconds", Buckets: m.histogramBuckets, ConstLabels: constLabels,
	}, []string{"endpoint", "method", "status_code"})

	// Errors
	m.errorRateByComponent = counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")
	m.errorRateByType = counterVec("errors_by_type_total", "Total number of errors by type", "error_type", "severity")
	m.errorRateByEndpoint = counterVec("errors_by_endpoint_total", "Total number of errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("error_latency_milliseconds"),
		Help: "Latency of operations that resulted in errors", Buckets: m.histogramBuckets, ConstLabels: constLabels,
	}, []string{"component", "error_type"})

	// System
	m.systemMemoryUsage = gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Capacity search.

// RecordSearchEvaluation records one cross-validated candidate evaluation.
func RecordSearchEvaluation(score float64) {
	globalManager.searchEvaluations.Inc()
	globalManager.searchScores.Observe(score)
}

// RecordSearchDuration records a completed search duration in milliseconds.
func RecordSearchDuration(durationMs float64) {
	globalManager.searchDuration.Observe(durationMs)
}

// RecordSearchError increments aborted searches by error kind.
func RecordSearchError(kind string) {
	globalManager.searchErrors.WithLabelValues(kind).Inc()
}

// Training.

// RecordTraining records a completed training and its duration.
func RecordTraining(durationMs float64) {
	globalManager.trainings.Inc()
	globalManager.trainingDuration.Observe(durationMs)
}

// RecordTrainingError increments failed trainings by error kind.
func RecordTrainingError(kind string) {
	globalManager.trainingErrors.WithLabelValues(kind).Inc()
}

// UpdateModelAccuracy sets the holdout accuracy of a player's latest model.
func UpdateModelAccuracy(player string, accuracy float64) {
	globalManager.modelAccuracy.WithLabelValues(player).Set(accuracy)
}

// UpdateModelsTotal sets the number of trained models.
func UpdateModelsTotal(count int) {
	globalManager.modelsTotal.Set(float64(count))
}

// RecordCapacityCacheLookup records a cache hit or miss.
func RecordCapacityCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	globalManager.capacityCacheHits.WithLabelValues(result).Inc()
}

// Data.

// RecordShotsIngested records rows kept and dropped by a cleaning pass.
func RecordShotsIngested(kept, dropped int) {
	globalManager.shotsIngested.Add(float64(kept))
	globalManager.shotsDropped.Add(float64(dropped))
}

// UpdateDatasetSize sets the number of shots and players held in memory.
func UpdateDatasetSize(shots, players int) {
	globalManager.shotsTotal.Set(float64(shots))
	globalManager.playersTotal.Set(float64(players))
}

// Jobs.

// RecordJobQueued increments accepted training jobs.
func RecordJobQueued() {
	globalManager.jobsQueued.Inc()
}

// RecordJobDuplicate increments rejected duplicate training requests.
func RecordJobDuplicate() {
	globalManager.jobsDuplicate.Inc()
}

// Queue.

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

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records queue processing latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Workers.

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// AddWorkerActive adjusts the number of workers currently training.
func AddWorkerActive(delta int) {
	globalManager.workerActiveCount.Add(float64(delta))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// RefreshInterval returns how often system gauges should be sampled.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
