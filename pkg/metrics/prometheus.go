// Package metrics provides Prometheus metrics for the Vibe Off voting service.
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

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Core Business Metrics - the vote pipeline
	votesProcessed  prometheus.Counter
	voteErrors      prometheus.Counter
	matchupsServed  prometheus.Counter
	eloUpdates      prometheus.Counter
	rateLimited     prometheus.Counter

	// Daily mode
	dailyVotes         prometheus.Counter
	dailyVoteRejected  prometheus.Counter
	dailyRotations     prometheus.Counter

	// Duos mode
	duoVotes    prometheus.Counter
	duosCreated prometheus.Counter
	duosDeleted prometheus.Counter

	// Selector
	weightRebuilds        prometheus.Counter
	weightRebuildDuration prometheus.Histogram
	pairQueueSize         prometheus.Gauge

	// Store
	storeOpLatency prometheus.Histogram
	storeKeys      prometheus.Gauge
	storeErrors    prometheus.Counter

	// Owner sync
	ownerSyncs      prometheus.Counter
	ownerSyncErrors prometheus.Counter

	// Operational health
	leaderboardSize prometheus.Gauge
	globalVotes     prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

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
		namespace:        "vibeoff",
		subsystem:        "game",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.votesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "votes_processed_total",
		Help:      "Total number of main-game votes successfully processed",
	})

	m.voteErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "vote_errors_total",
		Help:      "Total number of vote writes that failed part-way",
	})

	m.matchupsServed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matchups_served_total",
		Help:      "Total number of weighted matchup pairs served",
	})

	m.eloUpdates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "elo_updates_total",
		Help:      "Total number of Elo rating recomputations",
	})

	m.rateLimited = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the vote rate limiter",
	})

	m.dailyVotes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "daily_votes_total",
		Help:      "Total number of accepted daily-matchup votes",
	})

	m.dailyVoteRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "daily_votes_rejected_total",
		Help:      "Total number of daily votes rejected (already voted / invalid)",
	})

	m.dailyRotations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "daily_rotations_total",
		Help:      "Total number of daily matchup rotations performed",
	})

	m.duoVotes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duo_votes_total",
		Help:      "Total number of accepted Duo votes",
	})

	m.duosCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duos_created_total",
		Help:      "Total number of Duos submitted",
	})

	m.duosDeleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duos_deleted_total",
		Help:      "Total number of Duos deleted by their owners",
	})

	m.weightRebuilds = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "weight_table_rebuilds_total",
		Help:      "Total number of selector weight table rebuilds",
	})

	m.weightRebuildDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "weight_table_rebuild_duration_milliseconds",
		Help:      "Selector weight table rebuild duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.pairQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pair_queue_size",
		Help:      "Current number of precomputed matchup pairs in the queue",
	})

	m.storeOpLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_op_latency_milliseconds",
		Help:      "Key-value store operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeKeys = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_keys",
		Help:      "Current number of live keys in the store",
	})

	m.storeErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_errors_total",
		Help:      "Total number of store operation errors",
	})

	m.ownerSyncs = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "owner_syncs_total",
		Help:      "Total number of item owner records synced from the indexer",
	})

	m.ownerSyncErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "owner_sync_errors_total",
		Help:      "Total number of owner sync failures",
	})

	m.leaderboardSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_size",
		Help:      "Number of items currently present on the all-time leaderboard",
	})

	m.globalVotes = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "global_votes",
		Help:      "Global vote counter as last observed",
	})

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
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total errors by component and error type",
		},
		[]string{"component", "error_type"},
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

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current allocated heap memory in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_milliseconds",
		Help:      "Average GC pause time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// Package-level helpers operating on the global manager.

func RecordVoteProcessed() {
	globalManager.votesProcessed.Inc()
}

func RecordVoteError() {
	globalManager.voteErrors.Inc()
}

func RecordMatchupServed() {
	globalManager.matchupsServed.Inc()
}

func RecordEloUpdate() {
	globalManager.eloUpdates.Inc()
}

func RecordRateLimited() {
	globalManager.rateLimited.Inc()
}

func RecordDailyVote() {
	globalManager.dailyVotes.Inc()
}

func RecordDailyVoteRejected() {
	globalManager.dailyVoteRejected.Inc()
}

func RecordDailyRotation() {
	globalManager.dailyRotations.Inc()
}

func RecordDuoVote() {
	globalManager.duoVotes.Inc()
}

func RecordDuoCreated() {
	globalManager.duosCreated.Inc()
}

func RecordDuoDeleted() {
	globalManager.duosDeleted.Inc()
}

func RecordWeightRebuild() {
	globalManager.weightRebuilds.Inc()
}

func RecordWeightRebuildDuration(ms float64) {
	globalManager.weightRebuildDuration.Observe(ms)
}

func UpdatePairQueueSize(size int) {
	globalManager.pairQueueSize.Set(float64(size))
}

func RecordStoreOpLatency(ms float64) {
	globalManager.storeOpLatency.Observe(ms)
}

func UpdateStoreKeys(count int) {
	globalManager.storeKeys.Set(float64(count))
}

func RecordStoreError() {
	globalManager.storeErrors.Inc()
}

func RecordOwnerSync() {
	globalManager.ownerSyncs.Inc()
}

func RecordOwnerSyncError() {
	globalManager.ownerSyncErrors.Inc()
}

func UpdateLeaderboardSize(count int) {
	globalManager.leaderboardSize.Set(float64(count))
}

func UpdateGlobalVotes(count int64) {
	globalManager.globalVotes.Set(float64(count))
}

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
