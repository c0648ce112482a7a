// Package metrics provides Prometheus metrics for the teacher insights service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultRefreshInterval = 10 * time.Second

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Ingestion
	recordsReceived  *prometheus.CounterVec
	recordsRejected  *prometheus.CounterVec
	recordsDuplicate prometheus.Counter
	reloads          *prometheus.CounterVec

	// Snapshots
	snapshotsBuilt        prometheus.Counter
	snapshotBuildDuration prometheus.Histogram
	snapshotLastUnix      prometheus.Gauge
	snapshotEvents        prometheus.Gauge
	snapshotTeachers      prometheus.Gauge
	snapshotGrades        prometheus.Gauge
	snapshotDuplicates    prometheus.Gauge

	// Report cache
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheErrors prometheus.Counter

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueue       prometheus.Counter
	queueDequeue       prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // private registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegisterer(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "savra",
		subsystem:        "insights",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() {
	m.recordsReceived = m.counterVec("records_received_total", "Raw activity records received, by origin", "origin")
	m.recordsRejected = m.counterVec("records_rejected_total", "Raw activity records rejected by validation, by field", "field")
	m.recordsDuplicate = m.counter("records_duplicate_total", "Pushed records dropped as duplicates on acceptance")
	m.reloads = m.counterVec("reloads_total", "Record store reloads, by result", "result")

	m.snapshotsBuilt = m.counter("snapshots_built_total", "Snapshots published")
	m.snapshotBuildDuration = m.histogram("snapshot_build_duration_milliseconds", "Snapshot build latency in milliseconds")
	m.snapshotLastUnix = m.gauge("snapshot_last_unix", "Unix time of the last published snapshot")
	m.snapshotEvents = m.gauge("snapshot_events", "Normalized events in the current snapshot")
	m.snapshotTeachers = m.gauge("snapshot_teachers", "Distinct teachers in the current snapshot")
	m.snapshotGrades = m.gauge("snapshot_grades", "Distinct grades in the current snapshot")
	m.snapshotDuplicates = m.gauge("snapshot_duplicates", "Exact duplicates dropped while building the current snapshot")

	m.cacheHits = m.counterVec("report_cache_hits_total", "Report cache hits, by view", "view")
	m.cacheMisses = m.counterVec("report_cache_misses_total", "Report cache misses, by view", "view")
	m.cacheErrors = m.counter("report_cache_errors_total", "Report cache backend failures")

	m.queueSize = m.gauge("queue_size", "Records waiting in the ingest queue")
	m.queueCapacity = m.gauge("queue_capacity", "Ingest queue capacity")
	m.queueEnqueue = m.counter("queue_enqueue_total", "Records enqueued")
	m.queueDequeue = m.counter("queue_dequeue_total", "Records dequeued")
	m.queueEnqueueErrors = m.counterVec("queue_enqueue_errors_total", "Enqueue failures, by reason", "reason")

	m.workerCount = m.gauge("worker_count", "Ingest workers running")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Per-record worker latency in milliseconds")
	m.workerErrors = m.counter("worker_errors_total", "Worker failures")

	m.httpRequests = promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "http_requests_total",
		Help: "HTTP requests, by endpoint, method and status", ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "http_request_duration_milliseconds",
		Help: "HTTP request latency in milliseconds", ConstLabels: m.customLabels, Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors, by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Live goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause in milliseconds")
}

func (m *Manager) on() bool { return m != nil && m.enabled }

// RecordsReceived adds n raw records from origin ("push" or "reload").
func (m *Manager) RecordsReceived(origin string, n int) {
	if m.on() && n > 0 {
		m.recordsReceived.WithLabelValues(origin).Add(float64(n))
	}
}

// RecordRejected counts one validation rejection on field.
func (m *Manager) RecordRejected(field string) {
	if m.on() {
		m.recordsRejected.WithLabelValues(field).Inc()
	}
}

// RecordsDuplicate adds n dropped duplicates.
func (m *Manager) RecordsDuplicate(n int) {
	if m.on() && n > 0 {
		m.recordsDuplicate.Add(float64(n))
	}
}

// RecordReload counts a reload outcome.
func (m *Manager) RecordReload(result string) {
	if m.on() {
		m.reloads.WithLabelValues(result).Inc()
	}
}

// RecordSnapshot records a published snapshot and its shape.
func (m *Manager) RecordSnapshot(buildMs float64, events, teachers, grades int) {
	if !m.on() {
		return
	}
	m.snapshotsBuilt.Inc()
	m.snapshotBuildDuration.Observe(buildMs)
	m.snapshotLastUnix.Set(float64(time.Now().Unix()))
	m.snapshotEvents.Set(float64(events))
	m.snapshotTeachers.Set(float64(teachers))
	m.snapshotGrades.Set(float64(grades))
}

// RecordSnapshotDuplicates sets the duplicates dropped by the current
// snapshot build. Every build re-deduplicates the whole set, so this is a
// gauge rather than a counter.
func (m *Manager) RecordSnapshotDuplicates(n int) {
	if m.on() {
		m.snapshotDuplicates.Set(float64(n))
	}
}

// RecordCacheHit counts a report cache hit for view.
func (m *Manager) RecordCacheHit(view string) {
	if m.on() {
		m.cacheHits.WithLabelValues(view).Inc()
	}
}

// RecordCacheMiss counts a report cache miss for view.
func (m *Manager) RecordCacheMiss(view string) {
	if m.on() {
		m.cacheMisses.WithLabelValues(view).Inc()
	}
}

// RecordCacheError counts a cache backend failure.
func (m *Manager) RecordCacheError() {
	if m.on() {
		m.cacheErrors.Inc()
	}
}

// Global helpers delegate to the package-level manager.

func RecordsReceived(origin string, n int)   { globalManager.RecordsReceived(origin, n) }
func RecordRejected(field string)            { globalManager.RecordRejected(field) }
func RecordsDuplicate(n int)                 { globalManager.RecordsDuplicate(n) }
func RecordReload(result string)             { globalManager.RecordReload(result) }
func RecordCacheHit(view string)             { globalManager.RecordCacheHit(view) }
func RecordCacheMiss(view string)            { globalManager.RecordCacheMiss(view) }
func RecordCacheError()                      { globalManager.RecordCacheError() }
func RecordSnapshot(ms float64, e, t, g int) { globalManager.RecordSnapshot(ms, e, t, g) }
func RecordSnapshotDuplicates(n int)         { globalManager.RecordSnapshotDuplicates(n) }

func UpdateQueueSize(size int)         { globalManager.queueSize.Set(float64(size)) }
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }
func RecordQueueEnqueue()              { globalManager.queueEnqueue.Inc() }
func RecordQueueDequeue()              { globalManager.queueDequeue.Inc() }

// RecordQueueEnqueueError counts a refused enqueue.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerProcessingLatency observes per-record latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes HTTP latency.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent counts an error raised by component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

func UpdateSystemMemoryUsage(bytes uint64)    { globalManager.systemMemoryUsage.Set(float64(bytes)) }
func UpdateSystemGoroutineCount(count int)    { globalManager.systemGoroutineCount.Set(float64(count)) }
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// SystemRefresh returns how often runtime gauges should be sampled.
func SystemRefresh() time.Duration { return globalManager.refreshInterval }

// GetRegistry returns the private registry served on /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
