package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront-search/internal/catalog"
	"github.com/utafrali/storefront-search/internal/catalog/memory"
	"github.com/utafrali/storefront-search/internal/domain"
	"github.com/utafrali/storefront-search/internal/query"
	signalmem "github.com/utafrali/storefront-search/internal/signal/memory"
	apperrors "github.com/utafrali/storefront-search/pkg/errors"
	"github.com/utafrali/storefront-search/pkg/logger"
)

type fixture struct {
	svc     *SearchService
	catalog *memory.Catalog
	signals *signalmem.Store
	tracker *Tracker
}

func newFixture(t *testing.T, c catalog.Catalog) *fixture {
	t.Helper()
	mem := memory.New()
	if c == nil {
		c = mem
	}
	signals, err := signalmem.New(0, 0)
	require.NoError(t, err)
	tracker, err := NewTracker(4, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tracker.Close(time.Second) })

	svc := NewSearchService(c, signals, query.NewEnhancer(nil), tracker, DefaultConfig(), logger.Discard())
	return &fixture{svc: svc, catalog: mem, signals: signals, tracker: tracker}
}

func seed(f *fixture) {
	created := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	f.catalog.Load(
		domain.Product{ID: "dress-1", Name: "Summer Dress", Category: "dresses", Price: 4999, StockQuantity: 3, IsActive: true, SalesCount: 12, AverageRating: 4.2, CreatedAt: created},
		domain.Product{ID: "gown-1", Name: "Evening Gown", Category: "dresses", Price: 19999, StockQuantity: 1, IsActive: true, SalesCount: 2, AverageRating: 4.9, CreatedAt: created},
		domain.Product{ID: "shoe-1", Name: "Blue Shoes", Category: "shoes", Price: 7999, StockQuantity: 5, IsActive: true, IsFeatured: true, SalesCount: 100, AverageRating: 4.5, CreatedAt: created},
		domain.Product{ID: "shoe-2", Name: "Blue Shoes Mini", Category: "shoes", Price: 5999, IsActive: true, CreatedAt: created},
		domain.Product{ID: "old-1", Name: "Retired Dress", Category: "dresses", Price: 999, IsActive: false, SalesCount: 500},
	)
}

func ids(items []domain.RankedProduct) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestSearch_TypoFindsProduct(t *testing.T) {
	f := newFixture(t, nil)
	f.catalog.Load(
		domain.Product{ID: "1", Name: "Summer Dress", IsActive: true},
		domain.Product{ID: "2", Name: "Wool Scarf", IsActive: true},
	)

	res, err := f.svc.Search(context.Background(), domain.SearchOptions{Query: "dres"})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Contains(t, res.Metadata.SearchTerms, "dress")
	assert.Equal(t, []string{"1"}, ids(res.Data))
	assert.Equal(t, 1, res.Pagination.Total)

	f.tracker.Wait()
	trending, err := f.svc.Trending(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []domain.TrendingQuery{{Query: "dres", Count: 1}}, trending)
}

func TestSearch_RanksByRelevance(t *testing.T) {
	f := newFixture(t, nil)
	seed(f)

	res, err := f.svc.Search(context.Background(), domain.SearchOptions{Query: "shoes", Sort: domain.SortPriceAsc})
	require.NoError(t, err)

	assert.Equal(t, []string{"shoe-1", "shoe-2"}, ids(res.Data))
	assert.Greater(t, res.Data[0].RelevanceScore, res.Data[1].RelevanceScore)
}

func TestSearch_NoQueryKeepsCatalogOrder(t *testing.T) {
	f := newFixture(t, nil)
	seed(f)

	res, err := f.svc.Search(context.Background(), domain.SearchOptions{})
	require.NoError(t, err)

	// Featured first, then by rating.
	assert.Equal(t, []string{"shoe-1", "gown-1", "dress-1", "shoe-2"}, ids(res.Data))
	assert.Empty(t, res.Metadata.SearchTerms)
	assert.Zero(t, res.Data[0].RelevanceScore)

	f.tracker.Wait()
	trending, _ := f.svc.Trending(context.Background(), 5)
	assert.Empty(t, trending)
}

func TestSearch_Deterministic(t *testing.T) {
	f := newFixture(t, nil)
	seed(f)
	opts := domain.SearchOptions{Query: "blue dress", Limit: 10}

	first, err := f.svc.Search(context.Background(), opts)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := f.svc.Search(context.Background(), opts)
		require.NoError(t, err)
		assert.Equal(t, ids(first.Data), ids(again.Data))
	}
}

func TestSearch_FiltersAndMetadata(t *testing.T) {
	f := newFixture(t, nil)
	seed(f)
	inStock := true
	maxPrice := int64(10000)

	res, err := f.svc.Search(context.Background(), domain.SearchOptions{
		Category: "dresses",
		MaxPrice: &maxPrice,
		InStock:  &inStock,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"dress-1"}, ids(res.Data))
	assert.Equal(t, []string{"category: dresses", "price: 0-10000", "in stock: true"}, res.Metadata.AppliedFilters)
	assert.Equal(t, []string{"dresses"}, res.Metadata.SuggestedFilters.Categories)
	require.Len(t, res.Metadata.SuggestedFilters.PriceRanges, 4)
	assert.Equal(t, 1, res.Metadata.SuggestedFilters.PriceRanges[0].Count)

	require.NotEmpty(t, res.Metadata.Recommendations)
	assert.Equal(t, "gown-1", res.Metadata.Recommendations[0].ID)
	assert.Equal(t, "Similar to Summer Dress", res.Metadata.Recommendations[0].Reason)
	for _, r := range res.Metadata.Recommendations {
		assert.NotEqual(t, "old-1", r.ID)
	}
}

func TestSearch_Pagination(t *testing.T) {
	f := newFixture(t, nil)
	for i := 0; i < 130; i++ {
		f.catalog.Load(domain.Product{ID: fmt.Sprintf("p-%03d", i), Name: "Tee", IsActive: true})
	}

	res, err := f.svc.Search(context.Background(), domain.SearchOptions{Page: -2, Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, domain.Pagination{Page: 1, Limit: 100, Total: 130, Pages: 2}, res.Pagination)
	assert.Len(t, res.Data, 100)

	res, err = f.svc.Search(context.Background(), domain.SearchOptions{Page: 2, Limit: 0})
	require.NoError(t, err)
	assert.Equal(t, domain.Pagination{Page: 2, Limit: 20, Total: 130, Pages: 7}, res.Pagination)
	assert.Equal(t, "p-020", res.Data[0].ID)

	res, err = f.svc.Search(context.Background(), domain.SearchOptions{Page: math.MaxInt / 10, Limit: 100})
	require.NoError(t, err)
	assert.Empty(t, res.Data)
	assert.Equal(t, math.MaxInt/100, res.Pagination.Page)
	assert.Equal(t, 2, res.Pagination.Pages)
	assert.Equal(t, 130, res.Pagination.Total)
}

func TestSearch_Personalized(t *testing.T) {
	f := newFixture(t, nil)
	f.catalog.Load(
		domain.Product{ID: "a", Name: "Cap", IsActive: true},
		domain.Product{ID: "b", Name: "Cap", IsActive: true},
	)
	require.NoError(t, f.svc.RecordInteraction(context.Background(), "u-1", "b", "click"))

	res, err := f.svc.Search(context.Background(), domain.SearchOptions{Query: "cap", UserID: "u-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(res.Data))

	res, err = f.svc.Search(context.Background(), domain.SearchOptions{Query: "cap"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(res.Data))
}

type brokenCatalog struct{}

func (brokenCatalog) QueryProducts(context.Context, catalog.Filter, catalog.Sort, int, int) ([]domain.Product, int, error) {
	return nil, 0, errors.New("connection reset by peer")
}

func (brokenCatalog) CountProducts(context.Context, catalog.Filter) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func TestSearch_CatalogFailure(t *testing.T) {
	f := newFixture(t, brokenCatalog{})

	res, err := f.svc.Search(context.Background(), domain.SearchOptions{Query: "boots"})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
	assert.Equal(t, http.StatusBadGateway, apperrors.HTTPStatus(err))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "search failed", appErr.Message)

	assert.Empty(t, f.svc.Autocomplete(context.Background(), "sandals", 5))
	assert.Empty(t, f.svc.Recommend(context.Background(), "boots", "u-1", 5))
}

func TestAutocomplete(t *testing.T) {
	f := newFixture(t, nil)
	seed(f)

	assert.Empty(t, f.svc.Autocomplete(context.Background(), "s", 5))

	got := f.svc.Autocomplete(context.Background(), "shoe", 0)
	require.Len(t, got, 2)
	assert.Equal(t, "Blue Shoes", got[0].Text)
}

func TestTrackInteraction(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	err := f.svc.TrackInteraction(ctx, "u-1", "p-1", "like")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.ErrorIs(t, f.svc.TrackInteraction(ctx, "", "p-1", "view"), apperrors.ErrInvalidInput)
	assert.ErrorIs(t, f.svc.TrackInteraction(ctx, "u-1", "", "view"), apperrors.ErrInvalidInput)

	canceled, cancel := context.WithCancel(ctx)
	require.NoError(t, f.svc.TrackInteraction(canceled, "u-1", "p-1", "view"))
	cancel()
	require.NoError(t, f.svc.TrackInteraction(ctx, "u-1", "p-1", "cart"))
	f.tracker.Wait()

	got, err := f.signals.Interactions(ctx, "u-1", []string{"p-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.Interaction{Views: 1, AddToCart: 1}, got["p-1"])
}

func TestRecommend_SeededByQuery(t *testing.T) {
	f := newFixture(t, nil)
	seed(f)

	got := f.svc.Recommend(context.Background(), "summer dress", "", 3)
	require.Len(t, got, 3)
	assert.Equal(t, "gown-1", got[0].ID)
	assert.Equal(t, "Similar to Summer Dress", got[0].Reason)
	assert.Equal(t, domain.ReasonTrending, got[1].Reason)

	got = f.svc.Recommend(context.Background(), "", "", 0)
	assert.Equal(t, []string{"shoe-1", "dress-1", "gown-1", "shoe-2"}, ids(got))
}
