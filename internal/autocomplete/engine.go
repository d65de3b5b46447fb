package autocomplete

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/utafrali/storefront-search/internal/catalog"
	"github.com/utafrali/storefront-search/internal/domain"
	"github.com/utafrali/storefront-search/internal/signal"
)

// Suggestion tuning.
const (
	MinQueryLength = 2
	DefaultLimit   = 10
	TrendingPool   = 20
	MaxPopular     = 3
)

// Engine merges trending queries with catalog matches.
type Engine struct {
	catalog catalog.Catalog
	signals signal.Store
	logger  *slog.Logger
}

// NewEngine creates an autocomplete Engine.
func NewEngine(c catalog.Catalog, signals signal.Store, logger *slog.Logger) *Engine {
	return &Engine{catalog: c, signals: signals, logger: logger}
}

// Suggest returns popular queries containing q followed by best-selling
// products matching it, at most limit in total. Queries shorter than
// MinQueryLength return nothing. Lookup failures yield fewer suggestions,
// never an error.
func (e *Engine) Suggest(ctx context.Context, q string, limit int) []domain.Suggestion {
	q = signal.NormalizeQuery(q)
	if utf8.RuneCountInString(q) < MinQueryLength {
		return []domain.Suggestion{}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	out := make([]domain.Suggestion, 0, limit)
	out = append(out, e.popular(ctx, q)...)
	out = append(out, e.products(ctx, q, limit)...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (e *Engine) popular(ctx context.Context, q string) []domain.Suggestion {
	trending, err := e.signals.Trending(ctx, TrendingPool)
	if err != nil {
		e.logger.WarnContext(ctx, "autocomplete trending lookup failed", slog.String("error", err.Error()))
		return nil
	}

	var out []domain.Suggestion
	for _, t := range trending {
		if !strings.Contains(strings.ToLower(t.Query), q) {
			continue
		}
		out = append(out, domain.Suggestion{
			Type:  domain.SuggestionPopular,
			Text:  t.Query,
			Count: t.Count,
		})
		if len(out) == MaxPopular {
			break
		}
	}
	return out
}

func (e *Engine) products(ctx context.Context, q string, limit int) []domain.Suggestion {
	filter := catalog.Filter{
		Text: &catalog.TextMatch{
			Terms:  []string{q},
			Fields: []catalog.Field{catalog.FieldName, catalog.FieldCategory, catalog.FieldTag},
		},
		ActiveOnly: true,
	}
	products, _, err := e.catalog.QueryProducts(ctx, filter, catalog.SortBestSelling, limit, 0)
	if err != nil {
		e.logger.WarnContext(ctx, "autocomplete product lookup failed", slog.String("error", err.Error()))
		return nil
	}

	out := make([]domain.Suggestion, len(products))
	for i := range products {
		p := &products[i]
		price := p.Price
		out[i] = domain.Suggestion{
			Type:     domain.SuggestionProduct,
			Text:     p.Name,
			Category: p.Category,
			ImageURL: p.ImageURL,
			Price:    &price,
		}
	}
	return out
}
