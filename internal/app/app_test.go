package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront-search/internal/config"
	"github.com/utafrali/storefront-search/internal/domain"
	"github.com/utafrali/storefront-search/internal/event"
	"github.com/utafrali/storefront-search/pkg/database"
	"github.com/utafrali/storefront-search/pkg/logger"
	"github.com/utafrali/storefront-search/pkg/pagination"
	"github.com/utafrali/storefront-search/pkg/tracing"
)

func productService(t *testing.T, status int, products ...domain.Product) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		params := pagination.Clamp(1, len(products), 100)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(pagination.NewResult(products, len(products), params))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func loadConfig(t *testing.T, envs map[string]string) *config.Config {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := NewApp(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })
	return a
}

func TestNewApp_SeedsMemoryCatalog(t *testing.T) {
	svc := productService(t, http.StatusOK,
		domain.Product{ID: "dress-1", Name: "Summer Dress", Category: "dresses", Price: 4999, StockQuantity: 2, IsActive: true},
		domain.Product{ID: "shoe-1", Name: "Blue Shoes", Category: "shoes", Price: 7999, IsActive: true},
	)
	a := newTestApp(t, loadConfig(t, map[string]string{
		"CATALOG_SEED_ON_START": "true",
		"PRODUCT_SERVICE_URL":   svc.URL,
	}))

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=dress", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var result domain.SearchResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	require.NotEmpty(t, result.Data)
	assert.Equal(t, "dress-1", result.Data[0].ID)
}

func TestNewApp_SeedFailure(t *testing.T) {
	svc := productService(t, http.StatusNotFound)

	_, err := NewApp(context.Background(), loadConfig(t, map[string]string{
		"CATALOG_SEED_ON_START": "true",
		"PRODUCT_SERVICE_URL":   svc.URL,
	}), logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed catalog")
}

func TestNewApp_BadDictionaryPath(t *testing.T) {
	_, err := NewApp(context.Background(), loadConfig(t, map[string]string{
		"SEARCH_DICTIONARY_PATH": t.TempDir() + "/missing.yaml",
	}), logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load search dictionary")
}

func TestNewApp_FailureStopsTracer(t *testing.T) {
	var stopped int
	orig := initTracer
	initTracer = func(context.Context, tracing.Config) (func(context.Context) error, error) {
		return func(context.Context) error { stopped++; return nil }, nil
	}
	t.Cleanup(func() { initTracer = orig })

	_, err := NewApp(context.Background(), loadConfig(t, map[string]string{
		"SEARCH_DICTIONARY_PATH": t.TempDir() + "/missing.yaml",
	}), logger.Discard())
	require.Error(t, err)
	assert.Equal(t, 1, stopped)
}

func TestShutdown_StopsTracerOnce(t *testing.T) {
	var stopped int
	orig := initTracer
	initTracer = func(context.Context, tracing.Config) (func(context.Context) error, error) {
		return func(context.Context) error { stopped++; return nil }, nil
	}
	t.Cleanup(func() { initTracer = orig })

	a, err := NewApp(context.Background(), loadConfig(t, nil), logger.Discard())
	require.NoError(t, err)
	require.NoError(t, a.Shutdown())
	require.NoError(t, a.release(context.Background()))
	assert.Equal(t, 1, stopped)
}

func TestEnableSlowQueryLogging(t *testing.T) {
	var buf bytes.Buffer
	disable := enableSlowQueryLogging(time.Nanosecond, logger.NewWithWriter("search", "", "info", &buf))

	_, end := database.TraceQuery(context.Background(), "QueryProducts", "SELECT 1")
	time.Sleep(time.Millisecond)
	end(nil)
	assert.Contains(t, buf.String(), "slow query detected")

	require.NoError(t, disable())
	buf.Reset()
	_, end = database.TraceQuery(context.Background(), "QueryProducts", "SELECT 1")
	time.Sleep(time.Millisecond)
	end(nil)
	assert.Empty(t, buf.String())
}

func TestNewApp_RedisSignals(t *testing.T) {
	mr := miniredis.RunT(t)
	a := newTestApp(t, loadConfig(t, map[string]string{
		"SIGNAL_BACKEND": "redis",
		"REDIS_HOST":     mr.Host(),
		"REDIS_PORT":     mr.Port(),
	}))

	ready := httptest.NewRecorder()
	a.Handler().ServeHTTP(ready, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, ready.Code)

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=jacket", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Eventually(t, func() bool {
		return mr.Exists("search:popularity")
	}, time.Second, 10*time.Millisecond)
}

func TestNewApp_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port := mr.Host(), mr.Port()
	mr.Close()

	_, err := NewApp(context.Background(), loadConfig(t, map[string]string{
		"SIGNAL_BACKEND": "redis",
		"REDIS_HOST":     host,
		"REDIS_PORT":     port,
	}), logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init redis signal store")
}

func TestNewConsumers_SubscribesEveryTopic(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"KAFKA_ENABLED": "true"})
	a := newTestApp(t, cfg)

	consumers := newConsumers(cfg, a.service, nil, logger.Discard())
	require.Len(t, consumers, len(event.Topics()))
	for i, c := range consumers {
		assert.Equal(t, event.Topics()[i], c.Topic())
		assert.NoError(t, c.Close())
	}
}
