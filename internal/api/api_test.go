package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geosafe-net/geosafe/internal/aggregator"
	"github.com/geosafe-net/geosafe/internal/api/handlers"
	"github.com/geosafe-net/geosafe/internal/api/models"
	"github.com/geosafe-net/geosafe/internal/breaker"
	"github.com/geosafe-net/geosafe/internal/cache"
	"github.com/geosafe-net/geosafe/internal/config"
	"github.com/geosafe-net/geosafe/internal/logging"
	"github.com/geosafe-net/geosafe/internal/pipeline"
	"github.com/geosafe-net/geosafe/internal/safezones"
	"github.com/geosafe-net/geosafe/internal/sources"
	"github.com/geosafe-net/geosafe/internal/stats"
)

type testAdapter struct {
	id     sources.ID
	events []sources.Event
	err    error
}

func (a *testAdapter) ID() sources.ID { return a.id }

func (a *testAdapter) Fetch(ctx context.Context, fetch sources.FetchFunc) ([]sources.Event, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.events, nil
}

func noopFetch(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Host: "127.0.0.1", Port: 0, ReadTimeout: "10s", WriteTimeout: "15s"},
		Sources: config.SourcesConfig{Enabled: []string{"USGS"}},
		Cache:   config.CacheConfig{TTL: "5m", StaleTTL: "30m"},
		Breaker: config.BreakerConfig{FailureThreshold: 5, OpenTimeout: "60s"},
		Retry:   config.RetryConfig{MaxAttempts: 3, BaseDelay: "1s", MaxDelay: "4s"},
		HTTP:    config.HTTPConfig{Timeout: "10s", UserAgent: "geosafe-test/1.0"},
		API:     config.APIConfig{MetricsEnabled: true, SafeZonesFile: ""},
	}
}

func buildTestServer(t *testing.T) *Server {
	t.Helper()

	adapter := &testAdapter{id: sources.USGS, events: []sources.Event{
		{SourceID: "eq-1", Type: sources.TypeEarthquake, Severity: 7, Lat: 10, Lng: 20, Radius: 1000, Timestamp: time.Now()},
	}}
	p := pipeline.New(adapter, cache.NewSourceSlot(cache.DefaultConfig), breaker.NewRegistry(breaker.DefaultConfig), noopFetch, stats.NewRegistry().For(sources.USGS), nil, nil)
	combined := cache.NewCombinedSlot(cache.DefaultConfig)
	agg := aggregator.New([]*pipeline.Pipeline{p}, combined, stats.NewRegistry(), nil, nil)

	logger := logging.Configure(logging.Config{Level: "ERROR"})
	h := handlers.New(agg, []safezones.Zone{{Name: "Zone A", Type: "shelter", Lat: 1, Lng: 2, Capacity: 10, Available: 5}}, testConfig(), logger, nil)
	return New(testConfig(), h, logger)
}

func doRequest(t *testing.T, srv *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv := buildTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpointServedWhenEnabled(t *testing.T) {
	srv := buildTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDisastersEndpointReturnsAggregate(t *testing.T) {
	srv := buildTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/disasters")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))

	var resp models.DisastersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Disasters, 1)
	assert.Equal(t, 1, resp.Meta.TotalSafeZones)
}

func TestEarthquakesEndpointFiltersByType(t *testing.T) {
	srv := buildTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/disasters/earthquakes")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.DisastersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Disasters, 1)
	assert.Equal(t, sources.TypeEarthquake, resp.Disasters[0].Type)
}

func TestWeatherEndpointExcludesEarthquakes(t *testing.T) {
	srv := buildTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/disasters/weather")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.DisastersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Disasters)
}

func TestSafeZonesEndpoint(t *testing.T) {
	srv := buildTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/safe-zones")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.SafeZonesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.SafeZones, 1)
	assert.Equal(t, "Zone A", resp.SafeZones[0].Name)
}

func TestSourcesEndpointListsFiveProviders(t *testing.T) {
	srv := buildTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/sources")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.SourcesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Sources, 5)
}

func TestCacheStatusEndpoint(t *testing.T) {
	srv := buildTestServer(t)
	_ = doRequest(t, srv, http.MethodGet, "/api/disasters")
	rec := doRequest(t, srv, http.MethodGet, "/api/cache/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.CacheStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Sources, 1)
	assert.True(t, resp.Sources[0].HasData)
}

func TestClearCacheOneUnknownAPIReturns400(t *testing.T) {
	srv := buildTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/api/cache/clear/bogus")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp models.ValidAPIsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ValidAPIs)
}

func TestClearCacheOneKnownAPI(t *testing.T) {
	srv := buildTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/api/cache/clear/usgs")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestResetCircuitBreakerEndpoints(t *testing.T) {
	srv := buildTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/api/circuit-breaker/reset")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/api/circuit-breaker/reset/usgs")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/api/circuit-breaker/reset/bogus")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotFoundRouteReturnsJSONError(t *testing.T) {
	srv := buildTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/does-not-exist")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Not found", resp.Error)
}
