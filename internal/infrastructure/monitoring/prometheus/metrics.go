package prometheus

import (
	"fmt"
	"time"

	"github.com/qiyas/continuity/internal/application/continuity"
)

// AppMetrics holds all engine metrics.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Matching layer
	MatchesResolvedTotal CounterVec
	MatchConfidence      HistogramVec
	MatchPoolSize        HistogramVec

	// Upload layer
	UploadBatchesTotal  CounterVec
	UploadRowsTotal     CounterVec
	UploadBatchDuration HistogramVec

	// Previous-context cache
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec

	// Infrastructure
	DBConnectionPoolSize   GaugeVec
	DBConnectionPoolActive GaugeVec

	// System health
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

// Default buckets
var (
	DefaultHTTPDurationBuckets   = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultUploadDurationBuckets = []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120}
	DefaultConfidenceBuckets     = []float64{.5, .6, .7, .75, .8, .85, .9, .95, .99, 1}
	DefaultPoolSizeBuckets       = []float64{1, 2, 5, 10, 25, 50, 100, 250, 500}
)

// NewAppMetrics registers all engine metrics on the collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method", "path")

	// Matching
	m.MatchesResolvedTotal = collector.RegisterCounter("matches_resolved_total", "Cross-cycle requirement match attempts", "outcome")
	m.MatchConfidence = collector.RegisterHistogram("match_confidence", "Similarity score of resolved matches", DefaultConfidenceBuckets, "outcome")
	m.MatchPoolSize = collector.RegisterHistogram("match_pool_size", "Candidate pool size per match attempt", DefaultPoolSizeBuckets)

	// Upload
	m.UploadBatchesTotal = collector.RegisterCounter("upload_batches_total", "Recommendation sheet batches processed", "index_type")
	m.UploadRowsTotal = collector.RegisterCounter("upload_rows_total", "Recommendation sheet rows by result", "index_type", "result")
	m.UploadBatchDuration = collector.RegisterHistogram("upload_batch_duration_seconds", "Recommendation batch processing duration", DefaultUploadDurationBuckets, "index_type")

	// Cache
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Previous-context cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Previous-context cache misses", "cache")

	// Infrastructure
	m.DBConnectionPoolSize = collector.RegisterGauge("db_pool_size", "Database connection pool size", "db")
	m.DBConnectionPoolActive = collector.RegisterGauge("db_pool_active", "Database active connections", "db")

	// System health
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_type")

	return m
}

// Helpers

func RecordHTTPRequest(metrics *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	status := fmt.Sprintf("%d", statusCode)
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordCacheAccess(metrics *AppMetrics, cache string, hit bool) {
	if hit {
		metrics.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordError(metrics *AppMetrics, component, errorType string) {
	metrics.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// ─────────────────────────────────────────────────────────────────────────────
// Engine observer
// ─────────────────────────────────────────────────────────────────────────────

// EngineObserver records matcher and upload telemetry. It satisfies the
// application layer's Observer contract.
type EngineObserver struct {
	metrics *AppMetrics
}

func NewEngineObserver(metrics *AppMetrics) *EngineObserver {
	return &EngineObserver{metrics: metrics}
}

// MatchResolved records one match attempt outcome.
func (o *EngineObserver) MatchResolved(outcome string, confidence float64, poolSize int) {
	o.metrics.MatchesResolvedTotal.WithLabelValues(outcome).Inc()
	if confidence > 0 {
		o.metrics.MatchConfidence.WithLabelValues(outcome).Observe(confidence)
	}
	o.metrics.MatchPoolSize.WithLabelValues().Observe(float64(poolSize))
}

// UploadBatch records one processed recommendation sheet.
func (o *EngineObserver) UploadBatch(indexType string, result *continuity.UploadResult, elapsed time.Duration) {
	if result == nil {
		return
	}
	o.metrics.UploadBatchesTotal.WithLabelValues(indexType).Inc()
	o.metrics.UploadRowsTotal.WithLabelValues(indexType, "matched").Add(float64(result.Matched))
	o.metrics.UploadRowsTotal.WithLabelValues(indexType, "unmatched").Add(float64(result.Unmatched))
	o.metrics.UploadBatchDuration.WithLabelValues(indexType).Observe(elapsed.Seconds())
}
