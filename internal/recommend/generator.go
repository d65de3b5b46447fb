package recommend

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"github.com/utafrali/storefront-search/internal/catalog"
	"github.com/utafrali/storefront-search/internal/domain"
	"github.com/utafrali/storefront-search/internal/signal"
)

// Defaults for recommendation sizes.
const (
	DefaultLimit   = 10
	BranchSize     = 5
	HistoryQueries = 5
)

const (
	branchHistory  = "history"
	branchContent  = "content"
	branchTrending = "trending"
)

var branchFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "search_recommendation_branch_failures_total",
		Help: "Recommendation branches that failed and were skipped",
	},
	[]string{"branch"},
)

// Generator builds recommendation lists from search history, category
// similarity and best sellers.
type Generator struct {
	catalog catalog.Catalog
	signals signal.Store
	logger  *slog.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(c catalog.Catalog, signals signal.Store, logger *slog.Logger) *Generator {
	return &Generator{catalog: c, signals: signals, logger: logger}
}

// Recommend returns up to limit products. History matches come first, then
// products similar to the first item of page, then best sellers. A product
// appears once, with the reason of its first occurrence. Failing branches are
// logged and skipped.
func (g *Generator) Recommend(ctx context.Context, userID string, page []domain.Product, limit int) []domain.RankedProduct {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var history, content, trending []domain.RankedProduct
	var eg errgroup.Group

	if userID != "" {
		eg.Go(func() error {
			history = g.fromHistory(ctx, userID)
			return nil
		})
	}
	if len(page) > 0 {
		eg.Go(func() error {
			content = g.similarTo(ctx, &page[0])
			return nil
		})
	}
	eg.Go(func() error {
		trending = g.trending(ctx)
		return nil
	})
	_ = eg.Wait()

	out := make([]domain.RankedProduct, 0, limit)
	seen := make(map[string]struct{})
	for _, branch := range [][]domain.RankedProduct{history, content, trending} {
		for _, p := range branch {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			out = append(out, p)
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}

func (g *Generator) fromHistory(ctx context.Context, userID string) []domain.RankedProduct {
	queries, err := g.signals.History(ctx, userID)
	if err != nil {
		g.degraded(ctx, branchHistory, err)
		return nil
	}
	if len(queries) == 0 {
		return nil
	}
	if len(queries) > HistoryQueries {
		queries = queries[len(queries)-HistoryQueries:]
	}

	filter := catalog.Filter{
		Text:       &catalog.TextMatch{Terms: queries, Fields: []catalog.Field{catalog.FieldName}},
		ActiveOnly: true,
	}
	return g.fetch(ctx, branchHistory, filter, domain.ReasonHistory)
}

func (g *Generator) similarTo(ctx context.Context, source *domain.Product) []domain.RankedProduct {
	if source.Category == "" {
		return nil
	}
	filter := catalog.Filter{
		Category:   source.Category,
		ActiveOnly: true,
		ExcludeIDs: []string{source.ID},
	}
	return g.fetch(ctx, branchContent, filter, domain.ReasonSimilarTo(source.Name))
}

func (g *Generator) trending(ctx context.Context) []domain.RankedProduct {
	return g.fetchSorted(ctx, branchTrending, catalog.Filter{ActiveOnly: true}, catalog.SortPopular, domain.ReasonTrending)
}

func (g *Generator) fetch(ctx context.Context, branch string, filter catalog.Filter, reason string) []domain.RankedProduct {
	return g.fetchSorted(ctx, branch, filter, catalog.SortTopRated, reason)
}

func (g *Generator) fetchSorted(ctx context.Context, branch string, filter catalog.Filter, sort catalog.Sort, reason string) []domain.RankedProduct {
	products, _, err := g.catalog.QueryProducts(ctx, filter, sort, BranchSize, 0)
	if err != nil {
		g.degraded(ctx, branch, err)
		return nil
	}
	out := make([]domain.RankedProduct, len(products))
	for i, p := range products {
		out[i] = domain.RankedProduct{Product: p, Reason: reason}
	}
	return out
}

func (g *Generator) degraded(ctx context.Context, branch string, err error) {
	branchFailures.WithLabelValues(branch).Inc()
	g.logger.WarnContext(ctx, "recommendation branch failed",
		slog.String("branch", branch),
		slog.String("error", err.Error()),
	)
}
