package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront-search/internal/config"
	"github.com/utafrali/storefront-search/internal/event"
	handler "github.com/utafrali/storefront-search/internal/handler/http"
	"github.com/utafrali/storefront-search/internal/query"
	"github.com/utafrali/storefront-search/internal/service"
	"github.com/utafrali/storefront-search/pkg/health"
	pkgkafka "github.com/utafrali/storefront-search/pkg/kafka"
	"github.com/utafrali/storefront-search/pkg/tracing"
)

const (
	serviceName      = "search-service"
	serviceVersion   = "1.0.0"
	shutdownTimeout  = 10 * time.Second
	eventIDRetention = 24 * time.Hour
)

// initTracer is replaced in tests.
var initTracer = tracing.InitTracer

// App wires together all dependencies and runs the search service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	service        *service.SearchService
	consumers      []*pkgkafka.Consumer
	httpServer     *http.Server
	closers        []closer
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
// ctx bounds startup work and the lifetime of background helpers.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}
	if err := a.init(ctx); err != nil {
		// Release whatever was opened before the failure.
		releaseCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = a.release(releaseCtx)
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	shutdown, err := initTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTelEndpoint,
		SampleRate:     cfg.OTelSampleRate,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	a.tracerShutdown = shutdown

	healthHandler := health.NewHandler()

	cat, mem, closers, err := newCatalog(ctx, cfg, healthHandler, logger)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, closers...)

	if cfg.CatalogSeedOnStart && mem != nil {
		if err := seedCatalog(ctx, cfg, mem, logger); err != nil {
			return err
		}
	}

	signals, redisClient, closers, err := newSignalStore(ctx, cfg, healthHandler, logger)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, closers...)

	dict := query.DefaultDictionary()
	if cfg.DictionaryPath != "" {
		if dict, err = query.LoadDictionary(cfg.DictionaryPath); err != nil {
			return fmt.Errorf("load search dictionary: %w", err)
		}
	}

	tracker, err := service.NewTracker(cfg.TrackerPoolSize, logger)
	if err != nil {
		return fmt.Errorf("init tracker pool: %w", err)
	}

	a.service = service.NewSearchService(cat, signals, query.NewEnhancer(dict), tracker, service.Config{
		MaxPageSize:         cfg.MaxPageSize,
		RecommendationLimit: cfg.RecommendationLimit,
	}, logger)

	if cfg.KafkaEnabled {
		a.consumers = newConsumers(cfg, a.service, redisClient, logger)
		healthHandler.Register("kafka", func(ctx context.Context) error {
			return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
		})
	}

	router := handler.NewRouter(ctx, a.service, healthHandler, handler.RouterConfig{
		AllowedOrigins:    cfg.AllowedOrigins,
		AutocompleteRPS:   cfg.AutocompleteRPS,
		AutocompleteBurst: cfg.AutocompleteBurst,
	}, logger)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return nil
}

// newConsumers subscribes to every behavior topic. Processed event IDs are
// shared through redis when it is available.
func newConsumers(cfg *config.Config, svc *service.SearchService, redisClient *redis.Client, logger *slog.Logger) []*pkgkafka.Consumer {
	var store pkgkafka.IdempotencyStore = pkgkafka.NewMemoryIdempotencyStore(eventIDRetention)
	if redisClient != nil {
		store = pkgkafka.NewRedisIdempotencyStore(redisClient, "search:events:", eventIDRetention)
	}
	handle := pkgkafka.IdempotentHandler(store, event.NewConsumer(svc, logger).Handle, logger)

	var consumers []*pkgkafka.Consumer
	for _, topic := range event.Topics() {
		consumers = append(consumers, pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  cfg.KafkaGroupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6, // 10 MB
		}, handle, logger))
	}
	logger.Info("kafka consumers initialized",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.Int("topic_count", len(consumers)),
	)
	return consumers
}

// Handler returns the HTTP handler serving the API.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and Kafka consumers, blocking until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(a.consumers))

	for _, c := range a.consumers {
		go func() {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer %s: %w", c.Topic(), err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	return errors.Join(runErr, a.Shutdown())
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.service.Close(shutdownTimeout / 2); err != nil {
		a.logger.Error("tracker drain error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	errs = append(errs, a.release(shutdownCtx))

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// release closes backends in reverse order of creation, then flushes and
// stops the tracer provider.
func (a *App) release(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
		a.tracerShutdown = nil
	}
	return errors.Join(errs...)
}
