// Package metrics provides Prometheus metrics for the accolade achievement pipeline.
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

// Manager manages all Prometheus metrics for the accolade service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Ingestion Metrics - Filter and queue admission
	eventsAdmitted    prometheus.Counter
	eventsBlocked     prometheus.Counter
	eventsRateLimited prometheus.Counter
	eventsDropped     prometheus.Counter

	// Queue Metrics - Ingestion queue health
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge

	// Batch Metrics - Drain/grouping performance
	batchesProcessed prometheus.Counter
	batchSize        prometheus.Histogram
	batchLatency     prometheus.Histogram

	// Progress Metrics - Tracker and completion detection
	progressUpdates prometheus.Counter
	completions     prometheus.Counter
	trackedRecords  prometheus.Gauge

	// Reward Metrics - Bundle computation
	rewardsComputed prometheus.Counter
	rewardBonuses   prometheus.Counter
	rewardErrors    prometheus.Counter
	rewardRetries   prometheus.Counter
	rewardLatency   prometheus.Histogram

	// Notification Metrics - Queue and active set
	notificationsEnqueued  prometheus.Counter
	notificationsDeduped   prometheus.Counter
	notificationsDropped   prometheus.Counter
	notificationsCompleted prometheus.Counter
	notificationsActive    prometheus.Gauge
	notificationsPending   prometheus.Gauge

	// Recognition Metrics - Profile updates
	badgesAwarded  prometheus.Counter
	tierPromotions prometheus.Counter

	// Orchestrator Metrics - Stage lifecycle and commands
	stageHealth       *prometheus.GaugeVec
	stageReinits      *prometheus.CounterVec
	healthChecks      prometheus.Counter
	commandsProcessed prometheus.Counter
	commandsDropped   prometheus.Counter
	commandQueueDepth prometheus.Gauge

	// Persistence Metrics - Save requests to the external collaborator
	savesRequested prometheus.Counter
	saveErrors     prometheus.Counter
	saveLatency    prometheus.Histogram

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Enhanced Error Metrics - Detailed error tracking
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "accolade",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Ingestion Metrics - Admission policy outcomes
	m.eventsAdmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_admitted_total",
		Help:      "Total number of events admitted into the ingestion queue",
	})

	m.eventsBlocked = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_blocked_total",
		Help:      "Total number of events rejected by the block-set filter",
	})

	m.eventsRateLimited = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_rate_limited_total",
		Help:      "Total number of events rejected by the per-type/player rate limiter",
	})

	m.eventsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_dropped_total",
		Help:      "Total number of events dropped because the ingestion queue was full",
	})

	// Queue Metrics - Backpressure signal
	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current size of the ingestion queue (backlog indicator)",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Configured capacity of the ingestion queue",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization",
		Help:      "Ingestion queue utilization ratio (0.0 to 1.0)",
	})

	// Batch Metrics - Drain performance
	m.batchesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batches_processed_total",
		Help:      "Total number of per-player batches handed to the progress tracker",
	})

	m.batchSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_size_events",
		Help:      "Histogram of events drained per tick",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250},
	})

	m.batchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_latency_milliseconds",
		Help:      "Histogram of per-tick batch processing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// Progress Metrics - Core business signal
	m.progressUpdates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "progress_updates_total",
		Help:      "Total number of achievement progress record updates",
	})

	m.completions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "completions_total",
		Help:      "Total number of achievement completions detected",
	})

	m.trackedRecords = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tracked_progress_records",
		Help:      "Current number of (player, achievement) progress records",
	})

	// Reward Metrics - Bundle computation outcomes
	m.rewardsComputed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rewards_computed_total",
		Help:      "Total number of reward bundles computed",
	})

	m.rewardBonuses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reward_bonuses_total",
		Help:      "Total number of reward bundles that won the bonus roll",
	})

	m.rewardErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reward_errors_total",
		Help:      "Total number of reward computation faults",
	})

	m.rewardRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reward_retries_total",
		Help:      "Total number of reward computations retried on a later tick",
	})

	m.rewardLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reward_latency_milliseconds",
		Help:      "Histogram of reward computation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// Notification Metrics - Queue, dedupe, active set
	m.notificationsEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_enqueued_total",
		Help:      "Total number of notifications accepted into the pending queue",
	})

	m.notificationsDeduped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_deduped_total",
		Help:      "Total number of notifications suppressed by the dedupe window",
	})

	m.notificationsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_dropped_total",
		Help:      "Total number of notifications dropped because the pending queue was full",
	})

	m.notificationsCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_completed_total",
		Help:      "Total number of notifications that finished displaying",
	})

	m.notificationsActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_active",
		Help:      "Current number of notifications in the active (displaying) set",
	})

	m.notificationsPending = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_pending",
		Help:      "Current number of notifications waiting in the pending queue",
	})

	// Recognition Metrics - Downstream profile updates
	m.badgesAwarded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "badges_awarded_total",
		Help:      "Total number of category badges awarded",
	})

	m.tierPromotions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tier_promotions_total",
		Help:      "Total number of player tier promotions",
	})

	// Orchestrator Metrics - Stage lifecycle
	m.stageHealth = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "stage_healthy",
			Help:      "Stage health by name (1 healthy, 0 otherwise)",
		},
		[]string{"stage"},
	)

	m.stageReinits = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "stage_reinits_total",
			Help:      "Total number of stage reinitialization attempts by stage",
		},
		[]string{"stage"},
	)

	m.healthChecks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "health_checks_total",
		Help:      "Total number of orchestrator health check sweeps",
	})

	m.commandsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "commands_processed_total",
		Help:      "Total number of orchestrator commands drained and executed",
	})

	m.commandsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "commands_dropped_total",
		Help:      "Total number of orchestrator commands rejected because the command queue was full",
	})

	m.commandQueueDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "command_queue_depth",
		Help:      "Current number of queued orchestrator commands",
	})

	// Persistence Metrics - External collaborator behavior
	m.savesRequested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "saves_requested_total",
		Help:      "Total number of progress save requests issued",
	})

	m.saveErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "save_errors_total",
		Help:      "Total number of failed progress save attempts",
	})

	m.saveLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "save_latency_milliseconds",
		Help:      "Histogram of save latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// HTTP Performance Metrics - User experience indicators
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds (user experience)",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Enhanced Error Metrics - Detailed error tracking
	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total errors by component and error type",
		},
		[]string{"component", "error_type"},
	)

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_type_total",
			Help:      "Total errors by type and severity",
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total errors by endpoint, method and error type",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "error_latency_milliseconds",
			Help:      "Latency of requests that ended in an error",
			Buckets:   m.histogramBuckets,
		},
		[]string{"component", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// Ingestion Metrics Functions.

// RecordEventAdmitted increments the admitted events counter.
func RecordEventAdmitted() {
	globalManager.eventsAdmitted.Inc()
}

// RecordEventBlocked increments the blocked events counter.
func RecordEventBlocked() {
	globalManager.eventsBlocked.Inc()
}

// RecordEventRateLimited increments the rate-limited events counter.
func RecordEventRateLimited() {
	globalManager.eventsRateLimited.Inc()
}

// RecordEventDropped increments the dropped events counter.
func RecordEventDropped() {
	globalManager.eventsDropped.Inc()
}

// UpdateQueueSize sets the current ingestion queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the configured queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// Batch Metrics Functions.

// RecordBatchProcessed increments the processed batches counter.
func RecordBatchProcessed() {
	globalManager.batchesProcessed.Inc()
}

// RecordBatchSize records the number of events drained in one tick.
func RecordBatchSize(events int) {
	globalManager.batchSize.Observe(float64(events))
}

// RecordBatchLatency records per-tick batch processing latency in milliseconds.
func RecordBatchLatency(latencyMs float64) {
	globalManager.batchLatency.Observe(latencyMs)
}

// Progress Metrics Functions.

// RecordProgressUpdate increments the progress updates counter.
func RecordProgressUpdate() {
	globalManager.progressUpdates.Inc()
}

// RecordCompletion increments the completions counter.
func RecordCompletion() {
	globalManager.completions.Inc()
}

// UpdateTrackedRecords sets the current number of progress records.
func UpdateTrackedRecords(count int) {
	globalManager.trackedRecords.Set(float64(count))
}

// Reward Metrics Functions.

// RecordRewardComputed increments the computed rewards counter.
func RecordRewardComputed() {
	globalManager.rewardsComputed.Inc()
}

// RecordRewardBonus increments the bonus rewards counter.
func RecordRewardBonus() {
	globalManager.rewardBonuses.Inc()
}

// RecordRewardError increments the reward errors counter.
func RecordRewardError() {
	globalManager.rewardErrors.Inc()
}

// RecordRewardRetry increments the reward retries counter.
func RecordRewardRetry() {
	globalManager.rewardRetries.Inc()
}

// RecordRewardLatency records reward computation latency in milliseconds.
func RecordRewardLatency(latencyMs float64) {
	globalManager.rewardLatency.Observe(latencyMs)
}

// Notification Metrics Functions.

// RecordNotificationEnqueued increments the enqueued notifications counter.
func RecordNotificationEnqueued() {
	globalManager.notificationsEnqueued.Inc()
}

// RecordNotificationDeduped increments the deduped notifications counter.
func RecordNotificationDeduped() {
	globalManager.notificationsDeduped.Inc()
}

// RecordNotificationDropped increments the dropped notifications counter.
func RecordNotificationDropped() {
	globalManager.notificationsDropped.Inc()
}

// RecordNotificationCompleted increments the completed notifications counter.
func RecordNotificationCompleted() {
	globalManager.notificationsCompleted.Inc()
}

// UpdateNotificationsActive sets the current active notification count.
func UpdateNotificationsActive(count int) {
	globalManager.notificationsActive.Set(float64(count))
}

// UpdateNotificationsPending sets the current pending notification count.
func UpdateNotificationsPending(count int) {
	globalManager.notificationsPending.Set(float64(count))
}

// Recognition Metrics Functions.

// RecordBadgeAwarded increments the badges awarded counter.
func RecordBadgeAwarded() {
	globalManager.badgesAwarded.Inc()
}

// RecordTierPromotion increments the tier promotions counter.
func RecordTierPromotion() {
	globalManager.tierPromotions.Inc()
}

// Orchestrator Metrics Functions.

// UpdateStageHealth sets the health gauge for a stage.
func UpdateStageHealth(stage string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1.0
	}
	globalManager.stageHealth.WithLabelValues(stage).Set(v)
}

// RecordStageReinit increments the reinitialization counter for a stage.
func RecordStageReinit(stage string) {
	globalManager.stageReinits.WithLabelValues(stage).Inc()
}

// RecordHealthCheck increments the health check sweeps counter.
func RecordHealthCheck() {
	globalManager.healthChecks.Inc()
}

// RecordCommandProcessed increments the processed commands counter.
func RecordCommandProcessed() {
	globalManager.commandsProcessed.Inc()
}

// RecordCommandDropped increments the dropped commands counter.
func RecordCommandDropped() {
	globalManager.commandsDropped.Inc()
}

// UpdateCommandQueueDepth sets the current command queue depth.
func UpdateCommandQueueDepth(depth int) {
	globalManager.commandQueueDepth.Set(float64(depth))
}

// Persistence Metrics Functions.

// RecordSaveRequested increments the save requests counter.
func RecordSaveRequested() {
	globalManager.savesRequested.Inc()
}

// RecordSaveError increments the save errors counter.
func RecordSaveError() {
	globalManager.saveErrors.Inc()
}

// RecordSaveLatency records save latency in milliseconds.
func RecordSaveLatency(latencyMs float64) {
	globalManager.saveLatency.Observe(latencyMs)
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error for a specific component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error for a specific endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of a failed operation.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Metrics Functions.

// UpdateSystemMemoryUsage sets current system memory usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the current goroutine count.
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
