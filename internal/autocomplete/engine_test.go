package autocomplete

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront-search/internal/catalog"
	"github.com/utafrali/storefront-search/internal/catalog/memory"
	"github.com/utafrali/storefront-search/internal/domain"
	signalmem "github.com/utafrali/storefront-search/internal/signal/memory"
	"github.com/utafrali/storefront-search/pkg/logger"
)

type countingCatalog struct {
	catalog.Catalog
	calls int
	err   error
}

func (c *countingCatalog) QueryProducts(ctx context.Context, filter catalog.Filter, sort catalog.Sort, limit, offset int) ([]domain.Product, int, error) {
	c.calls++
	if c.err != nil {
		return nil, 0, c.err
	}
	return c.Catalog.QueryProducts(ctx, filter, sort, limit, offset)
}

func setup(t *testing.T) (*Engine, *countingCatalog, *signalmem.Store) {
	t.Helper()
	inner := memory.New()
	inner.Load(
		domain.Product{ID: "1", Name: "Denim Jacket", Category: "outerwear", IsActive: true, SalesCount: 10, Price: 8999, ImageURL: "/img/1.jpg"},
		domain.Product{ID: "2", Name: "Slim Jeans", Category: "denim", IsActive: true, SalesCount: 30, Price: 4999},
		domain.Product{ID: "3", Name: "Canvas Tote", Category: "bags", Tags: []string{"denim"}, IsActive: true, SalesCount: 5},
		domain.Product{ID: "4", Name: "Denim Shorts", Category: "shorts", IsActive: false, SalesCount: 100},
		domain.Product{ID: "5", Name: "Wool Hat", Category: "hats", Tags: []string{"denimish"}, IsActive: true},
	)
	cat := &countingCatalog{Catalog: inner}

	signals, err := signalmem.New(0, 0)
	require.NoError(t, err)
	return NewEngine(cat, signals, logger.Discard()), cat, signals
}

func TestSuggest_ShortQuery(t *testing.T) {
	e, cat, _ := setup(t)

	for _, q := range []string{"", "a", "  d  "} {
		got := e.Suggest(context.Background(), q, 10)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
	assert.Zero(t, cat.calls)
}

func TestSuggest_ProductsBySales(t *testing.T) {
	e, _, _ := setup(t)

	got := e.Suggest(context.Background(), "Denim", 10)
	require.Len(t, got, 3)
	assert.Equal(t, "Slim Jeans", got[0].Text)
	assert.Equal(t, "Denim Jacket", got[1].Text)
	assert.Equal(t, "Canvas Tote", got[2].Text)

	assert.Equal(t, domain.SuggestionProduct, got[1].Type)
	assert.Equal(t, "outerwear", got[1].Category)
	assert.Equal(t, "/img/1.jpg", got[1].ImageURL)
	require.NotNil(t, got[1].Price)
	assert.Equal(t, int64(8999), *got[1].Price)
}

func TestSuggest_PopularFirst(t *testing.T) {
	e, _, signals := setup(t)
	ctx := context.Background()

	for _, q := range []string{"denim jacket", "denim jacket", "black denim", "raw denim", "selvedge denim", "hats"} {
		require.NoError(t, signals.TrackSearch(ctx, q, ""))
	}

	got := e.Suggest(ctx, "denim", 5)
	require.Len(t, got, 5)
	assert.Equal(t, domain.Suggestion{Type: domain.SuggestionPopular, Text: "denim jacket", Count: 2}, got[0])
	assert.Equal(t, "black denim", got[1].Text)
	assert.Equal(t, "raw denim", got[2].Text)
	assert.Equal(t, domain.SuggestionProduct, got[3].Type)
	assert.Equal(t, "Slim Jeans", got[3].Text)
	assert.Equal(t, "Denim Jacket", got[4].Text)
}

func TestSuggest_CatalogFailureDegrades(t *testing.T) {
	e, cat, signals := setup(t)
	cat.err = errors.New("connection refused")
	require.NoError(t, signals.TrackSearch(context.Background(), "denim jacket", ""))

	got := e.Suggest(context.Background(), "denim", 10)
	require.Len(t, got, 1)
	assert.Equal(t, domain.SuggestionPopular, got[0].Type)
}
