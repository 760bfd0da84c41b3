package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ignite/customer360/internal/analytics"
	"github.com/ignite/customer360/internal/cache"
	"github.com/ignite/customer360/internal/config"
	"github.com/ignite/customer360/internal/dashboard"
	"github.com/ignite/customer360/internal/insights"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticRecords struct {
	records []analytics.CommunicationRecord
	err     error
}

func (s *staticRecords) LoadCommunications(ctx context.Context) ([]analytics.CommunicationRecord, error) {
	return s.records, s.err
}

func at(d int) time.Time { return time.Date(2025, 6, d, 9, 0, 0, 0, time.UTC) }

func sampleRecords() []analytics.CommunicationRecord {
	return []analytics.CommunicationRecord{
		{ID: "E3", CustomerID: "C2", CustomerName: "Bo", Classification: "Compliment", SentimentCategory: analytics.SentimentPositive, SentimentScore: 0.8, Urgency: analytics.UrgencyLow, ReceivedAt: at(3)},
		{ID: "E2", CustomerID: "C1", CustomerName: "Ana", Classification: "Complaint", SentimentCategory: analytics.SentimentNegative, SentimentScore: -0.7, Escalation: true, Urgency: analytics.UrgencyImmediate, ReceivedAt: at(2), Summary: "Track snapped"},
		{ID: "E1", CustomerID: "C1", CustomerName: "Ana", Classification: "Complaint", SentimentCategory: analytics.SentimentNegative, SentimentScore: -0.5, Escalation: true, Urgency: analytics.UrgencyStandard, ReceivedAt: at(1)},
	}
}

func newTestServer(t *testing.T, records dashboard.RecordProvider, health *HealthChecker) http.Handler {
	t.Helper()
	summarizer := insights.NewService(nil, insights.ProviderStatic, nil, time.Second, "")
	svc := dashboard.New(records, nil, summarizer, nil, dashboard.DefaultOptions())
	srv := NewServer(config.ServerConfig{AllowedOrigins: []string{"*"}}, NewHandlers(svc, ""), health)
	return srv.Handler()
}

func get(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func TestGetDashboard(t *testing.T) {
	h := newTestServer(t, &staticRecords{records: sampleRecords()}, nil)

	rec, body := get(t, h, "/api/dashboard")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, false, body["empty"])
	assert.NotNil(t, body["summary"])
}

func TestGetDashboard_InvalidFilter(t *testing.T) {
	h := newTestServer(t, &staticRecords{records: sampleRecords()}, nil)

	rec, body := get(t, h, "/api/dashboard?from=yesterday")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", body["code"])
}

func TestGetDashboard_LoadFailure(t *testing.T) {
	h := newTestServer(t, &staticRecords{err: errors.New("warehouse suspended")}, nil)

	rec, body := get(t, h, "/api/dashboard")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, body["error"])
}

func TestGetSegments(t *testing.T) {
	h := newTestServer(t, &staticRecords{records: sampleRecords()}, nil)

	rec, body := get(t, h, "/api/segments")
	require.Equal(t, http.StatusOK, rec.Code)

	customers := body["customers"].([]interface{})
	require.Len(t, customers, 2)
	segs := map[string]string{}
	for _, c := range customers {
		m := c.(map[string]interface{})
		segs[m["customer_id"].(string)] = m["segment"].(string)
	}
	assert.Equal(t, string(analytics.SegmentHighRisk), segs["C1"])
	assert.Equal(t, string(analytics.SegmentChampion), segs["C2"])
}

func TestGetAtRisk(t *testing.T) {
	h := newTestServer(t, &staticRecords{records: sampleRecords()}, nil)

	rec, body := get(t, h, "/api/at-risk?order=severity&limit=3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "severity", body["order"])
	assert.Equal(t, float64(1), body["count"])

	rec, _ = get(t, h, "/api/at-risk?order=loudest")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = get(t, h, "/api/at-risk?limit=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetQuickFilter(t *testing.T) {
	h := newTestServer(t, &staticRecords{records: sampleRecords()}, nil)

	rec, body := get(t, h, "/api/quick-filters/escalations")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["count"])

	rec, _ = get(t, h, "/api/quick-filters/bogus")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCustomer(t *testing.T) {
	h := newTestServer(t, &staticRecords{records: sampleRecords()}, nil)

	rec, _ := get(t, h, "/api/customers/C1")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body := get(t, h, "/api/customers/C404")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", body["code"])
}

func TestGetInsights_FallbackWithoutProvider(t *testing.T) {
	h := newTestServer(t, &staticRecords{records: sampleRecords()}, nil)

	rec, body := get(t, h, "/api/insights")
	require.Equal(t, http.StatusOK, rec.Code)

	insight := body["insight"].(map[string]interface{})
	assert.Equal(t, true, insight["fallback"])
	assert.Equal(t, insights.DefaultFallback, insight["text"])
	assert.Len(t, body["at_risk"], 1)
}

func TestGetInsights_EmptyFilter(t *testing.T) {
	h := newTestServer(t, &staticRecords{records: sampleRecords()}, nil)

	rec, body := get(t, h, "/api/insights?sentiment=Neutral")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["empty"])
	assert.Nil(t, body["insight"])
}

func TestGetReport_ArchiveDisabled(t *testing.T) {
	h := newTestServer(t, &staticRecords{records: sampleRecords()}, nil)

	rec, body := get(t, h, "/api/reports/4a5d8c1e-0000-4000-8000-000000000000")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Equal(t, "archive_disabled", body["code"])
}

func TestRefreshCache(t *testing.T) {
	store := cache.NewMemoryStore()
	c := cache.NewWithStore(cache.Config{}, store)
	src := &countingSource{records: sampleRecords()}
	provider := cache.NewProvider(src, c)
	h := newTestServer(t, provider, nil)

	get(t, h, "/api/dashboard")
	get(t, h, "/api/dashboard")
	assert.Equal(t, 1, src.calls)

	req := httptest.NewRequest(http.MethodPost, "/api/cache/refresh", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	get(t, h, "/api/dashboard")
	assert.Equal(t, 2, src.calls)
}

type countingSource struct {
	records []analytics.CommunicationRecord
	calls   int
}

func (s *countingSource) LoadCommunications(ctx context.Context) ([]analytics.CommunicationRecord, error) {
	s.calls++
	return s.records, nil
}

func (s *countingSource) CommunicationsQuery() string { return "SELECT * FROM COMMUNICATIONS" }

func TestHealth(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	warehouseUp := PingerFunc(func(ctx context.Context) error { return nil })
	h := newTestServer(t, &staticRecords{records: sampleRecords()}, NewHealthChecker(warehouseUp, rdb, nil, nil))

	rec, body := get(t, h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "up", checks["redis"].(map[string]interface{})["status"])
	assert.Equal(t, "not configured", checks["archive"].(map[string]interface{})["message"])
}

func TestReadiness_WarehouseDown(t *testing.T) {
	warehouseDown := PingerFunc(func(ctx context.Context) error { return errors.New("390114: token expired") })
	h := newTestServer(t, &staticRecords{}, NewHealthChecker(warehouseDown, nil, nil, nil))

	rec, body := get(t, h, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, false, body["ready"])
	assert.Equal(t, "unhealthy", body["status"])
}

func TestDetermineOverallStatus(t *testing.T) {
	notConfigured := ComponentCheck{Status: "down", Message: "not configured"}
	up := ComponentCheck{Status: "up"}

	assert.Equal(t, "healthy", determineOverallStatus(map[string]ComponentCheck{"warehouse": up, "redis": notConfigured}))
	assert.Equal(t, "degraded", determineOverallStatus(map[string]ComponentCheck{"warehouse": up, "redis": {Status: "down", Message: "ping failed"}}))
	assert.Equal(t, "degraded", determineOverallStatus(map[string]ComponentCheck{"warehouse": {Status: "degraded"}}))
	assert.Equal(t, "unhealthy", determineOverallStatus(map[string]ComponentCheck{"warehouse": {Status: "down", Message: "ping failed"}}))
}
