package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront-search/internal/service"
	"github.com/utafrali/storefront-search/pkg/health"
	"github.com/utafrali/storefront-search/pkg/middleware"
)

const (
	requestTimeout = 30 * time.Second
	trendingMaxAge = 30
	metricsService = "search"
)

// RouterConfig holds the HTTP-level knobs of the router.
type RouterConfig struct {
	AllowedOrigins    []string
	AutocompleteRPS   float64
	AutocompleteBurst int
}

// NewRouter creates a chi router with all search service routes registered.
// ctx bounds the lifetime of the rate limiter's background cleanup.
func NewRouter(
	ctx context.Context,
	searchService *service.SearchService,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.AllowedOrigins}))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing())
	r.Use(middleware.Identity)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(metricsService))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	h := NewSearchHandler(searchService, logger)

	r.Route("/api/v1/search", func(r chi.Router) {
		r.Get("/", h.Search)
		r.With(middleware.RateLimit(ctx, cfg.AutocompleteRPS, cfg.AutocompleteBurst, logger)).
			Get("/autocomplete", h.Autocomplete)
		r.With(middleware.CacheControl(trendingMaxAge)).Get("/trending", h.Trending)
		r.Get("/recommendations", h.Recommendations)
		r.Post("/interactions", h.TrackInteraction)
	})

	return r
}
