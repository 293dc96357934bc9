// Package metrics provides Prometheus metrics for the ladder service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values shared by operation counters.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Manager manages all Prometheus metrics for the ladder service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Challenge lifecycle - the part with real invariants
	challengeOperations       *prometheus.CounterVec
	challengeOperationLatency *prometheus.HistogramVec
	challengesByStatus        *prometheus.GaugeVec
	compensations             *prometheus.CounterVec
	orphanMatches             prometheus.Counter
	concurrencyConflicts      *prometheus.CounterVec

	// Roster (players and categories)
	rosterOperations *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Repository Metrics
	repositoryLatency *prometheus.HistogramVec
	repositoryErrors  *prometheus.CounterVec
	repositoryRecords *prometheus.GaugeVec

	// Error Metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System Performance Metrics
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
		namespace:        "ladder",
		subsystem:        "",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
		Buckets:     buckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every series
	auto := promauto.With(m.registry)

	m.challengeOperations = auto.NewCounterVec(
		m.counterOpts("challenge_operations_total", "Challenge lifecycle operations by operation and outcome"),
		[]string{"operation", "outcome"},
	)
	m.challengeOperationLatency = auto.NewHistogramVec(
		m.histogramOpts("challenge_operation_duration_milliseconds", "Challenge lifecycle operation latency in milliseconds", m.histogramBuckets),
		[]string{"operation"},
	)
	m.challengesByStatus = auto.NewGaugeVec(
		m.gaugeOpts("challenges", "Number of stored challenges by status"),
		[]string{"status"},
	)
	m.compensations = auto.NewCounterVec(
		m.counterOpts("match_compensations_total", "Compensating match deletions after a failed challenge update, by outcome"),
		[]string{"outcome"},
	)
	m.orphanMatches = auto.NewCounter(
		m.counterOpts("orphan_matches_total", "Matches left behind because their compensating delete failed"),
	)
	m.concurrencyConflicts = auto.NewCounterVec(
		m.counterOpts("challenge_conflicts_total", "Challenge replaces rejected by the optimistic version guard"),
		[]string{"operation"},
	)

	m.rosterOperations = auto.NewCounterVec(
		m.counterOpts("roster_operations_total", "Player and category operations by entity, operation and outcome"),
		[]string{"entity", "operation", "outcome"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.repositoryLatency = auto.NewHistogramVec(
		m.histogramOpts("repository_operation_duration_milliseconds", "Store operation latency in milliseconds", m.histogramBuckets),
		[]string{"store", "operation"},
	)
	m.repositoryErrors = auto.NewCounterVec(
		m.counterOpts("repository_errors_total", "Store operations that returned an error"),
		[]string{"store", "operation"},
	)
	m.repositoryRecords = auto.NewGaugeVec(
		m.gaugeOpts("repository_records", "Number of stored records by kind"),
		[]string{"kind"},
	)

	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that resulted in errors", m.histogramBuckets),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
}

// Challenge Lifecycle Functions.

// RecordChallengeOperation counts a lifecycle operation and observes its latency.
func RecordChallengeOperation(operation, outcome string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.challengeOperations.WithLabelValues(operation, outcome).Inc()
	globalManager.challengeOperationLatency.WithLabelValues(operation).Observe(latencyMs)
}

// UpdateChallengesByStatus sets the number of challenges in status.
func UpdateChallengesByStatus(status string, count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.challengesByStatus.WithLabelValues(status).Set(float64(count))
}

// RecordCompensation counts a compensating match deletion.
func RecordCompensation(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.compensations.WithLabelValues(outcome).Inc()
}

// RecordOrphanMatch counts a match that survived a failed compensation.
func RecordOrphanMatch() {
	if !globalManager.enabled {
		return
	}
	globalManager.orphanMatches.Inc()
}

// RecordConcurrencyConflict counts a replace rejected by the version guard.
func RecordConcurrencyConflict(operation string) {
	if !globalManager.enabled {
		return
	}
	globalManager.concurrencyConflicts.WithLabelValues(operation).Inc()
}

// RecordRosterOperation counts a player or category operation.
func RecordRosterOperation(entity, operation, outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.rosterOperations.WithLabelValues(entity, operation, outcome).Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Repository Metrics Functions.

// RecordRepositoryLatency records the latency of a store operation.
func RecordRepositoryLatency(store, operation string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.repositoryLatency.WithLabelValues(store, operation).Observe(latencyMs)
}

// RecordRepositoryError counts a failed store operation.
func RecordRepositoryError(store, operation string) {
	if !globalManager.enabled {
		return
	}
	globalManager.repositoryErrors.WithLabelValues(store, operation).Inc()
}

// UpdateRepositoryRecords sets the number of stored records of kind.
func UpdateRepositoryRecords(kind string, count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.repositoryRecords.WithLabelValues(kind).Set(float64(count))
}

// Error Metrics Functions.

// RecordErrorByType increments the error counter by type and severity.
func RecordErrorByType(errorType, severity string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint increments the error counter for a specific endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Performance Metrics Functions.

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

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
