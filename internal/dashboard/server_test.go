package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinScope/internal/analytics"
	"CoinScope/internal/config"
	"CoinScope/internal/metrics"
)

func newTestServer(f *fakeReader, m *metrics.Registry) *Server {
	cfg := config.ServerConfig{
		Host:           "127.0.0.1",
		Port:           8080,
		RequestTimeout: 5 * time.Second,
		DefaultDays:    90,
		MaxConcurrency: 4,
	}
	svc := NewService(f, analytics.NewEngine(analytics.DefaultPolicy()), cfg, m)
	return NewServer(svc, cfg, m)
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	f, _ := newFixture()
	s := newTestServer(f, nil)

	rec := get(t, s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "ok", decode(t, rec)["status"])

	f.pingErr = errDown
	rec = get(t, s, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", decode(t, rec)["status"])
}

func TestOverviewEndpoint(t *testing.T) {
	f, _ := newFixture()
	s := newTestServer(f, nil)

	rec := get(t, s, "/api/assets?sort=symbol&dir=asc&group=top15")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 2, body["count"])
	assets := body["assets"].([]any)
	assert.Equal(t, "BTC", assets[0].(map[string]any)["symbol"])
	assert.Equal(t, []string{"TOP15"}, f.lastQuery.GroupTags)

	rec = get(t, s, "/api/assets?group=TOP15,L1_BLUECHIP")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"TOP15", "L1_BLUECHIP"}, f.lastQuery.GroupTags)

	rec = get(t, s, "/api/assets?dir=sideways")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "dir")
}

func TestDetailEndpoint(t *testing.T) {
	f, _ := newFixture()
	s := newTestServer(f, nil)

	rec := get(t, s, "/api/assets/btc?days=30")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "BTC", body["symbol"])
	assert.EqualValues(t, 30, body["display_days"])
	assert.Len(t, body["chart"], 30)
	assert.Equal(t, "HIGH", body["forecast_confidence_label"])

	rec = get(t, s, "/api/assets/btc?days=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, s, "/api/assets/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "asset not found")
}

func TestJobAndGroupEndpoints(t *testing.T) {
	f, _ := newFixture()
	s := newTestServer(f, nil)

	rec := get(t, s, "/api/jobs/bulk_import")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", decode(t, rec)["last_status"])

	rec = get(t, s, "/api/jobs/group_selector")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, s, "/api/groups")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["groups"], 2)
}

func TestStoreFailureIs500(t *testing.T) {
	f, _ := newFixture()
	f.pricesErr = errDown
	rec := get(t, newTestServer(f, nil), "/api/assets")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decode(t, rec)["error"])
}

func TestNotFoundAndMetrics(t *testing.T) {
	f, _ := newFixture()
	m := metrics.New()
	s := newTestServer(f, m)

	rec := get(t, s, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	get(t, s, "/api/assets/btc")
	rec = get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/api/assets/{symbol}"`)
	assert.Contains(t, rec.Body.String(), "coinscope_analyses_total")
}
