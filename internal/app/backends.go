package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront-search/internal/catalog"
	escatalog "github.com/utafrali/storefront-search/internal/catalog/elasticsearch"
	"github.com/utafrali/storefront-search/internal/catalog/memory"
	pgcatalog "github.com/utafrali/storefront-search/internal/catalog/postgres"
	"github.com/utafrali/storefront-search/internal/catalog/productsvc"
	"github.com/utafrali/storefront-search/internal/config"
	"github.com/utafrali/storefront-search/internal/signal"
	signalmem "github.com/utafrali/storefront-search/internal/signal/memory"
	signalredis "github.com/utafrali/storefront-search/internal/signal/redis"
	"github.com/utafrali/storefront-search/pkg/database"
	"github.com/utafrali/storefront-search/pkg/health"
	"github.com/utafrali/storefront-search/pkg/httpclient"
)

// closer releases a backend during shutdown.
type closer func() error

// newCatalog builds the configured catalog backend behind a circuit breaker.
// The memory catalog is returned separately so it can be seeded.
func newCatalog(ctx context.Context, cfg *config.Config, hh *health.Handler, logger *slog.Logger) (catalog.Catalog, *memory.Catalog, []closer, error) {
	var (
		backend catalog.Catalog
		mem     *memory.Catalog
		closers []closer
	)

	switch cfg.CatalogBackend {
	case config.CatalogPostgres:
		pgCfg := cfg.Postgres()
		pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("init postgres catalog: %w", err)
		}
		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, "search"); err != nil {
			logger.WarnContext(ctx, "pool metrics not registered", slog.String("error", err.Error()))
		}
		hh.Register("postgres", pool.Ping)
		closers = append(closers,
			func() error { pool.Close(); return nil },
			enableSlowQueryLogging(cfg.PostgresSlowQuery, logger),
		)
		backend = pgcatalog.New(pool, cfg.PostgresTable)
		logger.InfoContext(ctx, "postgres catalog initialized",
			slog.String("host", cfg.PostgresHost),
			slog.String("table", cfg.PostgresTable),
		)
	case config.CatalogElasticsearch:
		es, err := escatalog.New(cfg.ElasticsearchURL, cfg.ElasticsearchIndex, logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("init elasticsearch catalog: %w", err)
		}
		hh.Register("elasticsearch", es.Ping)
		backend = es
		logger.InfoContext(ctx, "elasticsearch catalog initialized",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("index", cfg.ElasticsearchIndex),
		)
	default:
		mem = memory.New()
		backend = mem
		logger.InfoContext(ctx, "in-memory catalog initialized")
	}

	return catalog.NewBreaker(backend, catalog.DefaultBreakerConfig("catalog-"+cfg.CatalogBackend), logger), mem, closers, nil
}

// newSignalStore builds the configured behavior signal store. The redis
// client is returned so the event idempotency store can share it.
func newSignalStore(ctx context.Context, cfg *config.Config, hh *health.Handler, logger *slog.Logger) (signal.Store, *redis.Client, []closer, error) {
	if cfg.SignalBackend != config.SignalRedis {
		store, err := signalmem.New(cfg.HistoryLimit, cfg.MaxInteractions)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("init memory signal store: %w", err)
		}
		logger.InfoContext(ctx, "in-memory signal store initialized",
			slog.Int("history_limit", cfg.HistoryLimit),
			slog.Int("max_interactions", cfg.MaxInteractions),
		)
		return store, nil, nil, nil
	}

	client, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init redis signal store: %w", err)
	}
	store := signalredis.New(client, cfg.HistoryLimit, cfg.InteractionTTL)
	hh.Register("redis", store.Ping)
	logger.InfoContext(ctx, "redis signal store initialized",
		slog.String("addr", cfg.Redis().Addr()),
		slog.Duration("interaction_ttl", cfg.InteractionTTL),
	)
	return store, client, []closer{client.Close}, nil
}

// seedCatalog copies the product service's catalog into mem.
func seedCatalog(ctx context.Context, cfg *config.Config, mem *memory.Catalog, logger *slog.Logger) error {
	client := httpclient.NewBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultBreakerConfig("product-service"),
		logger,
	)
	loader := productsvc.NewLoader(client, cfg.ProductServiceURL, 0, logger)

	n, err := loader.Load(ctx, mem)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	logger.InfoContext(ctx, "catalog seeded from product service",
		slog.Int("products", n),
		slog.String("url", cfg.ProductServiceURL),
	)
	return nil
}

// enableSlowQueryLogging warns on catalog queries slower than threshold
// and returns the closer that switches it off.
func enableSlowQueryLogging(threshold time.Duration, logger *slog.Logger) closer {
	database.SetSlowQueryLogging(threshold, logger)
	return func() error {
		database.SetSlowQueryLogging(0, nil)
		return nil
	}
}
