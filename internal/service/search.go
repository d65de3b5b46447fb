package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/storefront-search/internal/autocomplete"
	"github.com/utafrali/storefront-search/internal/catalog"
	"github.com/utafrali/storefront-search/internal/domain"
	"github.com/utafrali/storefront-search/internal/facet"
	"github.com/utafrali/storefront-search/internal/query"
	"github.com/utafrali/storefront-search/internal/ranking"
	"github.com/utafrali/storefront-search/internal/recommend"
	"github.com/utafrali/storefront-search/internal/signal"
	apperrors "github.com/utafrali/storefront-search/pkg/errors"
	"github.com/utafrali/storefront-search/pkg/pagination"
	"github.com/utafrali/storefront-search/pkg/tracing"
)

const tracerName = "github.com/utafrali/storefront-search/internal/service"

// seedCandidates is how many matches are scored to pick a recommendation seed.
const seedCandidates = 20

// Config tunes the search service.
type Config struct {
	MaxPageSize         int
	RecommendationLimit int
	TrendingLimit       int
}

// DefaultConfig returns the standard limits.
func DefaultConfig() Config {
	return Config{
		MaxPageSize:         domain.MaxLimit,
		RecommendationLimit: recommend.DefaultLimit,
		TrendingLimit:       10,
	}
}

// SearchService orchestrates query enhancement, catalog lookup, ranking,
// recommendations and signal tracking.
type SearchService struct {
	catalog      catalog.Catalog
	signals      signal.Store
	enhancer     *query.Enhancer
	scorer       *ranking.Scorer
	recommender  *recommend.Generator
	autocomplete *autocomplete.Engine
	tracker      *Tracker
	cfg          Config
	logger       *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(
	c catalog.Catalog,
	signals signal.Store,
	enhancer *query.Enhancer,
	tracker *Tracker,
	cfg Config,
	logger *slog.Logger,
) *SearchService {
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = domain.MaxLimit
	}
	if cfg.RecommendationLimit <= 0 {
		cfg.RecommendationLimit = recommend.DefaultLimit
	}
	if cfg.TrendingLimit <= 0 {
		cfg.TrendingLimit = 10
	}
	return &SearchService{
		catalog:      c,
		signals:      signals,
		enhancer:     enhancer,
		scorer:       ranking.NewScorer(),
		recommender:  recommend.NewGenerator(c, signals, logger),
		autocomplete: autocomplete.NewEngine(c, signals, logger),
		tracker:      tracker,
		cfg:          cfg,
		logger:       logger,
	}
}

// Search runs a storefront search. Catalog failures are reported as an
// upstream failure; everything else degrades.
func (s *SearchService) Search(ctx context.Context, opts domain.SearchOptions) (*domain.SearchResult, error) {
	start := time.Now()
	defer func() { searchDuration.Observe(time.Since(start).Seconds()) }()

	ctx, span := tracing.Tracer(tracerName).Start(ctx, "SearchService.Search",
		trace.WithAttributes(
			attribute.String("search.query", opts.Query),
			attribute.String("search.sort", opts.Sort),
		),
	)
	defer span.End()

	params := pagination.Clamp(opts.Page, opts.Limit, s.cfg.MaxPageSize)
	filter := buildFilter(&opts)

	terms := []string{}
	if raw := strings.TrimSpace(opts.Query); raw != "" {
		enhanced := s.enhancer.Enhance(raw)
		if len(enhanced.Terms) > 0 {
			terms = enhanced.Terms
			filter.Text = &catalog.TextMatch{Terms: terms, Fields: catalog.SearchFields}
		}
		userID := opts.UserID
		s.tracker.Go(ctx, "search", func(ctx context.Context) error {
			return s.signals.TrackSearch(ctx, raw, userID)
		})
	}

	products, total, err := s.catalog.QueryProducts(ctx, filter, catalog.SortFor(opts.Sort), params.PerPage, params.Offset)
	if err != nil {
		searchesTotal.WithLabelValues("error").Inc()
		tracing.RecordError(span, err)
		s.logger.ErrorContext(ctx, "catalog query failed",
			slog.String("query", opts.Query),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.UpstreamFailure(err)
	}

	var ranked []domain.RankedProduct
	if len(terms) > 0 {
		ranked = s.scorer.Score(products, terms, s.interactions(ctx, opts.UserID, products))
	} else {
		ranked = make([]domain.RankedProduct, len(products))
		for i, p := range products {
			ranked[i] = domain.RankedProduct{Product: p}
		}
	}

	result := &domain.SearchResult{
		Success: true,
		Data:    ranked,
		Pagination: domain.Pagination{
			Page:  params.Page,
			Limit: params.PerPage,
			Total: total,
			Pages: params.TotalPages(total),
		},
		Metadata: domain.SearchMetadata{
			SearchTerms:      terms,
			AppliedFilters:   AppliedFilters(&opts),
			Recommendations:  s.recommender.Recommend(ctx, opts.UserID, products, s.cfg.RecommendationLimit),
			TrendingSearches: s.trendingOrEmpty(ctx, s.cfg.TrendingLimit),
			SuggestedFilters: facet.Summarize(products),
		},
		TookMs: time.Since(start).Milliseconds(),
	}

	searchesTotal.WithLabelValues("success").Inc()
	span.SetAttributes(attribute.Int("search.total", total))
	s.logger.DebugContext(ctx, "search executed",
		slog.String("query", opts.Query),
		slog.Int("terms", len(terms)),
		slog.Int("total", total),
		slog.Int64("took_ms", result.TookMs),
	)
	return result, nil
}

// Autocomplete returns suggestions for a partial query.
func (s *SearchService) Autocomplete(ctx context.Context, q string, limit int) []domain.Suggestion {
	return s.autocomplete.Suggest(ctx, q, s.clampLimit(limit, autocomplete.DefaultLimit))
}

// Trending returns the most searched queries.
func (s *SearchService) Trending(ctx context.Context, limit int) ([]domain.TrendingQuery, error) {
	trending, err := s.signals.Trending(ctx, s.clampLimit(limit, s.cfg.TrendingLimit))
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("trending: %w", err))
	}
	return trending, nil
}

// TrackInteraction validates the interaction and records it asynchronously.
func (s *SearchService) TrackInteraction(ctx context.Context, userID, productID, kind string) error {
	t, err := validateInteraction(userID, productID, kind)
	if err != nil {
		return err
	}
	s.tracker.Go(ctx, "interaction", func(ctx context.Context) error {
		return s.signals.TrackInteraction(ctx, userID, productID, t)
	})
	return nil
}

// RecordInteraction validates and records the interaction synchronously.
func (s *SearchService) RecordInteraction(ctx context.Context, userID, productID, kind string) error {
	t, err := validateInteraction(userID, productID, kind)
	if err != nil {
		return err
	}
	if err := s.signals.TrackInteraction(ctx, userID, productID, t); err != nil {
		trackingFailures.WithLabelValues("interaction").Inc()
		return fmt.Errorf("record interaction: %w", err)
	}
	return nil
}

// Recommend returns recommendations for a user outside a live search. When
// query is set, its best match seeds the similar-products branch.
func (s *SearchService) Recommend(ctx context.Context, q, userID string, limit int) []domain.RankedProduct {
	limit = s.clampLimit(limit, s.cfg.RecommendationLimit)

	var seed []domain.Product
	if enhanced := s.enhancer.Enhance(q); len(enhanced.Terms) > 0 {
		filter := catalog.Filter{
			Text:       &catalog.TextMatch{Terms: enhanced.Terms, Fields: catalog.SearchFields},
			ActiveOnly: true,
		}
		products, _, err := s.catalog.QueryProducts(ctx, filter, catalog.SortRelevance, seedCandidates, 0)
		if err != nil {
			s.logger.WarnContext(ctx, "recommendation seed lookup failed", slog.String("error", err.Error()))
		}
		if ranked := s.scorer.Score(products, enhanced.Terms, nil); len(ranked) > 0 {
			seed = []domain.Product{ranked[0].Product}
		}
	}
	return s.recommender.Recommend(ctx, userID, seed, limit)
}

// Close drains pending tracking tasks.
func (s *SearchService) Close(timeout time.Duration) error {
	return s.tracker.Close(timeout)
}

func (s *SearchService) interactions(ctx context.Context, userID string, products []domain.Product) map[string]domain.Interaction {
	if userID == "" || len(products) == 0 {
		return nil
	}
	ids := make([]string, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	recs, err := s.signals.Interactions(ctx, userID, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "interaction lookup failed, ranking without personalization",
			slog.String("error", err.Error()),
		)
		return nil
	}
	return recs
}

func (s *SearchService) trendingOrEmpty(ctx context.Context, limit int) []domain.TrendingQuery {
	trending, err := s.signals.Trending(ctx, limit)
	if err != nil {
		s.logger.WarnContext(ctx, "trending lookup failed", slog.String("error", err.Error()))
		return []domain.TrendingQuery{}
	}
	return trending
}

func (s *SearchService) clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return min(limit, s.cfg.MaxPageSize)
}

func validateInteraction(userID, productID, kind string) (domain.InteractionType, error) {
	if userID == "" {
		return "", apperrors.InvalidInput("user_id is required")
	}
	if productID == "" {
		return "", apperrors.InvalidInput("product_id is required")
	}
	t, err := domain.ParseInteractionType(kind)
	if err != nil {
		return "", apperrors.InvalidInput(err.Error())
	}
	return t, nil
}
