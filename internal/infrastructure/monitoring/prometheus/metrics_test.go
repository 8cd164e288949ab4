package prometheus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiyas/continuity/internal/application/continuity"
)

func newTestAppMetrics(t *testing.T) (*AppMetrics, MetricsCollector) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)
	return m, c
}

func TestNewAppMetrics_AllMetricsRegistered(t *testing.T) {
	m, _ := newTestAppMetrics(t)
	require.NotNil(t, m)

	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPRequestDuration)
	assert.NotNil(t, m.MatchesResolvedTotal)
	assert.NotNil(t, m.MatchConfidence)
	assert.NotNil(t, m.MatchPoolSize)
	assert.NotNil(t, m.UploadBatchesTotal)
	assert.NotNil(t, m.UploadRowsTotal)
	assert.NotNil(t, m.CacheHitsTotal)
	assert.NotNil(t, m.ErrorsTotal)
}

func TestRecordHTTPRequest(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordHTTPRequest(m, "GET", "/api/v1/indices", 200, 100*time.Millisecond)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_http_requests_total{method="GET",path="/api/v1/indices",status_code="200"} 1`)
	assert.Contains(t, output, `test_unit_http_request_duration_seconds_count{method="GET",path="/api/v1/indices"} 1`)
}

func TestRecordCacheAccess(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordCacheAccess(m, "prevctx", true)
	RecordCacheAccess(m, "prevctx", true)
	RecordCacheAccess(m, "prevctx", false)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_cache_hits_total{cache="prevctx"} 2`)
	assert.Contains(t, output, `test_unit_cache_misses_total{cache="prevctx"} 1`)
}

func TestEngineObserver_MatchResolved(t *testing.T) {
	m, c := newTestAppMetrics(t)
	obs := NewEngineObserver(m)

	obs.MatchResolved("matched", 0.95, 12)
	obs.MatchResolved("matched", 0.92, 8)
	obs.MatchResolved("unmatched", 0, 3)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_matches_resolved_total{outcome="matched"} 2`)
	assert.Contains(t, output, `test_unit_matches_resolved_total{outcome="unmatched"} 1`)
	assert.Contains(t, output, `test_unit_match_confidence_count{outcome="matched"} 2`)
	// Zero-confidence outcomes do not pollute the confidence histogram.
	assert.NotContains(t, output, `test_unit_match_confidence_count{outcome="unmatched"}`)
	assert.Contains(t, output, `test_unit_match_pool_size_count 3`)
}

func TestEngineObserver_UploadBatch(t *testing.T) {
	m, c := newTestAppMetrics(t)
	obs := NewEngineObserver(m)

	obs.UploadBatch("ETARI", &continuity.UploadResult{
		TotalRows: 10,
		Matched:   7,
		Unmatched: 3,
	}, 2*time.Second)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_upload_batches_total{index_type="ETARI"} 1`)
	assert.Contains(t, output, `test_unit_upload_rows_total{index_type="ETARI",result="matched"} 7`)
	assert.Contains(t, output, `test_unit_upload_rows_total{index_type="ETARI",result="unmatched"} 3`)
	assert.Contains(t, output, `test_unit_upload_batch_duration_seconds_count{index_type="ETARI"} 1`)
}

func TestEngineObserver_NilResult(t *testing.T) {
	m, _ := newTestAppMetrics(t)
	obs := NewEngineObserver(m)

	assert.NotPanics(t, func() { obs.UploadBatch("ETARI", nil, time.Second) })
}
