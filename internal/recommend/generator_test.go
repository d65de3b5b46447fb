package recommend

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront-search/internal/catalog"
	"github.com/utafrali/storefront-search/internal/catalog/memory"
	"github.com/utafrali/storefront-search/internal/domain"
	signalmem "github.com/utafrali/storefront-search/internal/signal/memory"
	"github.com/utafrali/storefront-search/pkg/logger"
)

func newSignals(t *testing.T) *signalmem.Store {
	t.Helper()
	s, err := signalmem.New(0, 0)
	require.NoError(t, err)
	return s
}

func ids(items []domain.RankedProduct) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestRecommend_TrendingOnly(t *testing.T) {
	c := memory.New()
	for i := 1; i <= 12; i++ {
		c.Load(domain.Product{
			ID:         fmt.Sprintf("p-%02d", i),
			Name:       fmt.Sprintf("Product %d", i),
			Category:   "misc",
			IsActive:   true,
			SalesCount: i % 6,
			ViewCount:  i,
		})
	}
	c.Load(domain.Product{ID: "inactive", SalesCount: 999, IsActive: false})

	g := NewGenerator(c, newSignals(t), logger.Discard())
	got := g.Recommend(context.Background(), "u-1", nil, 0)

	// Sales 5 (p-11, p-05), then sales 4 (p-10, p-04), then sales 3 by views (p-09).
	assert.Equal(t, []string{"p-11", "p-05", "p-10", "p-04", "p-09"}, ids(got))
	for _, r := range got {
		assert.Equal(t, domain.ReasonTrending, r.Reason)
	}
}

func TestRecommend_PriorityAndDedup(t *testing.T) {
	c := memory.New()
	c.Load(
		domain.Product{ID: "boots-1", Name: "Leather Boots", Category: "shoes", IsActive: true, AverageRating: 4.8, SalesCount: 1},
		domain.Product{ID: "boots-2", Name: "Rain Boots", Category: "shoes", IsActive: true, AverageRating: 4.1, SalesCount: 50},
		domain.Product{ID: "sandal", Name: "Sandal", Category: "shoes", IsActive: true, AverageRating: 3.0, SalesCount: 40},
		domain.Product{ID: "scarf", Name: "Scarf", Category: "accessories", IsActive: true, SalesCount: 30},
	)
	signals := newSignals(t)
	require.NoError(t, signals.TrackSearch(context.Background(), "boots", "u-1"))

	page := []domain.Product{{ID: "sandal", Name: "Sandal", Category: "shoes"}}
	got := NewGenerator(c, signals, logger.Discard()).Recommend(context.Background(), "u-1", page, 10)

	assert.Equal(t, []string{"boots-1", "boots-2", "sandal", "scarf"}, ids(got))
	assert.Equal(t, domain.ReasonHistory, got[0].Reason)
	assert.Equal(t, domain.ReasonHistory, got[1].Reason)
	assert.Equal(t, domain.ReasonTrending, got[2].Reason)
	assert.Equal(t, domain.ReasonTrending, got[3].Reason)
}

func TestRecommend_ContentBased(t *testing.T) {
	c := memory.New()
	c.Load(
		domain.Product{ID: "src", Name: "Wool Coat", Category: "coats", IsActive: true},
		domain.Product{ID: "c-1", Name: "Trench", Category: "coats", IsActive: true, AverageRating: 4},
		domain.Product{ID: "c-2", Name: "Parka", Category: "coats", IsActive: true, AverageRating: 5},
	)

	page := []domain.Product{{ID: "src", Name: "Wool Coat", Category: "coats"}}
	got := NewGenerator(c, newSignals(t), logger.Discard()).Recommend(context.Background(), "", page, 2)

	require.Len(t, got, 2)
	assert.Equal(t, []string{"c-2", "c-1"}, ids(got))
	assert.Equal(t, "Similar to Wool Coat", got[0].Reason)
}

type failingCatalog struct {
	catalog.Catalog
	failCategory bool
}

func (f *failingCatalog) QueryProducts(ctx context.Context, filter catalog.Filter, sort catalog.Sort, limit, offset int) ([]domain.Product, int, error) {
	if f.failCategory == (filter.Category != "") {
		return nil, 0, errors.New("catalog unavailable")
	}
	return f.Catalog.QueryProducts(ctx, filter, sort, limit, offset)
}

func TestRecommend_FailedBranchIsSkipped(t *testing.T) {
	inner := memory.New()
	inner.Load(
		domain.Product{ID: "a", Name: "A", Category: "x", IsActive: true, SalesCount: 2},
		domain.Product{ID: "b", Name: "B", Category: "x", IsActive: true, SalesCount: 1},
	)
	page := []domain.Product{{ID: "a", Name: "A", Category: "x"}}

	g := NewGenerator(&failingCatalog{Catalog: inner, failCategory: true}, newSignals(t), logger.Discard())
	got := g.Recommend(context.Background(), "", page, 10)
	assert.Equal(t, []string{"a", "b"}, ids(got))
	assert.Equal(t, domain.ReasonTrending, got[0].Reason)

	g = NewGenerator(&failingCatalog{Catalog: inner}, newSignals(t), logger.Discard())
	got = g.Recommend(context.Background(), "", page, 10)
	assert.Equal(t, []string{"b"}, ids(got))
	assert.Equal(t, "Similar to A", got[0].Reason)
}

func TestRecommend_EmptyCatalog(t *testing.T) {
	got := NewGenerator(memory.New(), newSignals(t), logger.Discard()).Recommend(context.Background(), "u-1", nil, 10)
	assert.Empty(t, got)
}
