package config

import (
	"fmt"
	"slices"
	"time"

	pkgconfig "github.com/utafrali/storefront-search/pkg/config"
	"github.com/utafrali/storefront-search/pkg/database"
)

// Catalog backends.
const (
	CatalogMemory        = "memory"
	CatalogPostgres      = "postgres"
	CatalogElasticsearch = "elasticsearch"
)

// Signal backends.
const (
	SignalMemory = "memory"
	SignalRedis  = "redis"
)

// Config holds all configuration for the search service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort       int      `env:"SEARCH_HTTP_PORT" envDefault:"8010"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Catalog backend selection (memory, postgres or elasticsearch)
	CatalogBackend string `env:"CATALOG_BACKEND" envDefault:"memory"`

	// PostgreSQL
	PostgresHost      string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort      int           `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser      string        `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPassword  string        `env:"POSTGRES_PASSWORD" envDefault:""`
	PostgresDB        string        `env:"POSTGRES_DB" envDefault:"storefront"`
	PostgresSSLMode   string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	PostgresMaxConns  int32         `env:"POSTGRES_MAX_CONNS" envDefault:"20"`
	PostgresTable     string        `env:"POSTGRES_PRODUCTS_TABLE" envDefault:"products"`
	PostgresSlowQuery time.Duration `env:"POSTGRES_SLOW_QUERY_THRESHOLD" envDefault:"200ms"`

	// Elasticsearch
	ElasticsearchURL   string `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchIndex string `env:"ELASTICSEARCH_INDEX" envDefault:"storefront_products"`

	// Signal store selection (memory or redis)
	SignalBackend string `env:"SIGNAL_BACKEND" envDefault:"memory"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Behavior signals
	HistoryLimit    int           `env:"SIGNAL_HISTORY_LIMIT" envDefault:"50"`
	MaxInteractions int           `env:"SIGNAL_MAX_INTERACTIONS" envDefault:"100000"`
	InteractionTTL  time.Duration `env:"SIGNAL_INTERACTION_TTL" envDefault:"720h"`

	// Search tuning
	DictionaryPath      string `env:"SEARCH_DICTIONARY_PATH" envDefault:""`
	MaxPageSize         int    `env:"SEARCH_MAX_PAGE_SIZE" envDefault:"100"`
	RecommendationLimit int    `env:"RECOMMENDATION_LIMIT" envDefault:"10"`
	TrackerPoolSize     int    `env:"TRACKER_POOL_SIZE" envDefault:"64"`

	// Autocomplete rate limit per client IP
	AutocompleteRPS   float64 `env:"AUTOCOMPLETE_RPS" envDefault:"20"`
	AutocompleteBurst int     `env:"AUTOCOMPLETE_BURST" envDefault:"40"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"search-service"`

	// Product service used to seed the memory catalog
	ProductServiceURL  string `env:"PRODUCT_SERVICE_URL" envDefault:"http://localhost:8001"`
	CatalogSeedOnStart bool   `env:"CATALOG_SEED_ON_START" envDefault:"false"`

	// Tracing
	OTelEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTelSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load search config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if !slices.Contains([]string{CatalogMemory, CatalogPostgres, CatalogElasticsearch}, c.CatalogBackend) {
		return fmt.Errorf("invalid CATALOG_BACKEND %q", c.CatalogBackend)
	}
	if !slices.Contains([]string{SignalMemory, SignalRedis}, c.SignalBackend) {
		return fmt.Errorf("invalid SIGNAL_BACKEND %q", c.SignalBackend)
	}
	if c.HistoryLimit < 1 {
		return fmt.Errorf("SIGNAL_HISTORY_LIMIT must be positive, got %d", c.HistoryLimit)
	}
	if c.MaxInteractions < 1 {
		return fmt.Errorf("SIGNAL_MAX_INTERACTIONS must be positive, got %d", c.MaxInteractions)
	}
	if c.PostgresSlowQuery < 0 {
		return fmt.Errorf("POSTGRES_SLOW_QUERY_THRESHOLD must not be negative, got %s", c.PostgresSlowQuery)
	}
	if c.MaxPageSize < 1 {
		return fmt.Errorf("SEARCH_MAX_PAGE_SIZE must be positive, got %d", c.MaxPageSize)
	}
	if c.TrackerPoolSize < 1 {
		return fmt.Errorf("TRACKER_POOL_SIZE must be positive, got %d", c.TrackerPoolSize)
	}
	if c.AutocompleteRPS <= 0 || c.AutocompleteBurst < 1 {
		return fmt.Errorf("autocomplete rate limit must be positive")
	}
	if c.OTelSampleRate < 0 || c.OTelSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0 and 1, got %v", c.OTelSampleRate)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.CatalogSeedOnStart && c.CatalogBackend != CatalogMemory {
		return fmt.Errorf("CATALOG_SEED_ON_START requires CATALOG_BACKEND=%s", CatalogMemory)
	}
	return nil
}

// Postgres returns the connection settings for the catalog read pool.
func (c *Config) Postgres() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.PostgresHost
	pg.Port = c.PostgresPort
	pg.User = c.PostgresUser
	pg.Password = c.PostgresPassword
	pg.DBName = c.PostgresDB
	pg.SSLMode = c.PostgresSSLMode
	pg.MaxConns = c.PostgresMaxConns
	return pg
}

// Redis returns the connection settings for the signal store.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
		Timeout:  3 * time.Second,
	}
}
