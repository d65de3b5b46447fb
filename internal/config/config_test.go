package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setEnvs sets multiple env vars for the duration of the test.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8010, cfg.HTTPPort)
	assert.Equal(t, CatalogMemory, cfg.CatalogBackend)
	assert.Equal(t, SignalMemory, cfg.SignalBackend)
	assert.Equal(t, 50, cfg.HistoryLimit)
	assert.Equal(t, 100_000, cfg.MaxInteractions)
	assert.Equal(t, 720*time.Hour, cfg.InteractionTTL)
	assert.Equal(t, 100, cfg.MaxPageSize)
	assert.Equal(t, 10, cfg.RecommendationLimit)
	assert.Equal(t, 64, cfg.TrackerPoolSize)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.False(t, cfg.KafkaEnabled)
	assert.False(t, cfg.OTelEnabled)
	assert.Equal(t, 200*time.Millisecond, cfg.PostgresSlowQuery)
}

func TestLoad_Overrides(t *testing.T) {
	setEnvs(t, map[string]string{
		"CATALOG_BACKEND":               "postgres",
		"SIGNAL_BACKEND":                "redis",
		"POSTGRES_HOST":                 "db",
		"POSTGRES_MAX_CONNS":            "8",
		"POSTGRES_SLOW_QUERY_THRESHOLD": "1s",
		"REDIS_HOST":                    "cache",
		"REDIS_PORT":                    "6380",
		"SIGNAL_INTERACTION_TTL":        "24h",
		"KAFKA_ENABLED":                 "true",
		"KAFKA_BROKERS":                 "k1:9092,k2:9092",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, CatalogPostgres, cfg.CatalogBackend)
	assert.Equal(t, 24*time.Hour, cfg.InteractionTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)

	pg := cfg.Postgres()
	assert.Equal(t, "db", pg.Host)
	assert.Equal(t, int32(8), pg.MaxConns)
	assert.True(t, pg.ReadOnly)
	assert.Equal(t, time.Second, cfg.PostgresSlowQuery)

	assert.Equal(t, "cache:6380", cfg.Redis().Addr())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		envs    map[string]string
		wantErr string
	}{
		{"port", map[string]string{"SEARCH_HTTP_PORT": "0"}, "invalid HTTP port"},
		{"catalog backend", map[string]string{"CATALOG_BACKEND": "solr"}, "invalid CATALOG_BACKEND"},
		{"signal backend", map[string]string{"SIGNAL_BACKEND": "memcached"}, "invalid SIGNAL_BACKEND"},
		{"history limit", map[string]string{"SIGNAL_HISTORY_LIMIT": "0"}, "SIGNAL_HISTORY_LIMIT"},
		{"slow query threshold", map[string]string{"POSTGRES_SLOW_QUERY_THRESHOLD": "-1s"}, "POSTGRES_SLOW_QUERY_THRESHOLD"},
		{"page size", map[string]string{"SEARCH_MAX_PAGE_SIZE": "-1"}, "SEARCH_MAX_PAGE_SIZE"},
		{"pool size", map[string]string{"TRACKER_POOL_SIZE": "0"}, "TRACKER_POOL_SIZE"},
		{"rate limit", map[string]string{"AUTOCOMPLETE_RPS": "0"}, "rate limit"},
		{"sample rate", map[string]string{"OTEL_SAMPLE_RATE": "1.5"}, "OTEL_SAMPLE_RATE"},
		{"seed needs memory", map[string]string{"CATALOG_SEED_ON_START": "true", "CATALOG_BACKEND": "elasticsearch"}, "CATALOG_SEED_ON_START"},
		{"unparseable", map[string]string{"SIGNAL_INTERACTION_TTL": "forever"}, "load search config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnvs(t, tt.envs)

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
