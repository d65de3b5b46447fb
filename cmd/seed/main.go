// Command seed fills the Elasticsearch catalog index with a synthetic
// storefront catalog for local development.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	escatalog "github.com/utafrali/storefront-search/internal/catalog/elasticsearch"
	"github.com/utafrali/storefront-search/internal/catalog/synthetic"
	pkgconfig "github.com/utafrali/storefront-search/pkg/config"
	"github.com/utafrali/storefront-search/pkg/logger"
)

type seedConfig struct {
	ElasticsearchURL   string `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchIndex string `env:"ELASTICSEARCH_INDEX" envDefault:"storefront_products"`
	Products           int    `env:"SEED_PRODUCTS" envDefault:"10000"`
	BatchSize          int    `env:"SEED_BATCH_SIZE" envDefault:"500"`
	RandomSeed         uint64 `env:"SEED_RANDOM_SEED" envDefault:"1"`
	RecreateIndex      bool   `env:"SEED_RECREATE_INDEX" envDefault:"false"`
	LogLevel           string `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	if err := pkgconfig.LoadDotEnv(".env"); err != nil {
		slog.Error("failed to load .env", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var cfg seedConfig
	if err := pkgconfig.Load(&cfg); err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("search-seed", "development", cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg seedConfig, log *slog.Logger) error {
	if cfg.Products < 1 || cfg.BatchSize < 1 {
		return fmt.Errorf("SEED_PRODUCTS and SEED_BATCH_SIZE must be positive")
	}

	es, err := escatalog.New(cfg.ElasticsearchURL, cfg.ElasticsearchIndex, log)
	if err != nil {
		return err
	}
	if cfg.RecreateIndex {
		if err := es.DeleteIndex(ctx); err != nil {
			return err
		}
		// New creates the index with its mapping again.
		if es, err = escatalog.New(cfg.ElasticsearchURL, cfg.ElasticsearchIndex, log); err != nil {
			return err
		}
		log.InfoContext(ctx, "index recreated", slog.String("index", cfg.ElasticsearchIndex))
	}

	start := time.Now()
	products := synthetic.NewGenerator(cfg.RandomSeed, start).Generate(cfg.Products)
	for offset := 0; offset < len(products); offset += cfg.BatchSize {
		end := min(offset+cfg.BatchSize, len(products))
		if err := es.BulkIndex(ctx, products[offset:end]); err != nil {
			return fmt.Errorf("index products %d-%d: %w", offset, end, err)
		}
	}

	log.InfoContext(ctx, "catalog seeded",
		slog.Int("products", len(products)),
		slog.String("index", cfg.ElasticsearchIndex),
		slog.Duration("took", time.Since(start)),
	)
	return nil
}
