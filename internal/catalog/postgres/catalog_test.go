package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront-search/internal/catalog"
	"github.com/utafrali/storefront-search/internal/domain"
	"github.com/utafrali/storefront-search/pkg/database"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return mock
}

func boolPtr(b bool) *bool    { return &b }
func int64Ptr(n int64) *int64 { return &n }

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

var columnsWithCount = []string{
	"id", "name", "description", "short_description", "category", "subcategory", "brand",
	"tags", "colors", "sizes", "materials", "gender", "age_group", "image_url",
	"price", "original_price", "currency", "stock_quantity",
	"is_active", "is_featured", "is_new", "is_sale",
	"average_rating", "total_reviews", "sales_count", "view_count", "created_at",
	"total_count",
}

func sampleProduct() domain.Product {
	return domain.Product{
		ID:            "prod-1",
		Name:          "Summer Dress",
		Description:   "Light cotton dress",
		Category:      "apparel",
		Brand:         "Acme",
		Tags:          []string{"summer"},
		Colors:        []string{"red"},
		Sizes:         []string{"m"},
		Materials:     []string{"cotton"},
		Price:         4999,
		OriginalPrice: int64Ptr(5999),
		Currency:      "USD",
		StockQuantity: 4,
		IsActive:      true,
		IsSale:        true,
		AverageRating: 4.5,
		TotalReviews:  12,
		SalesCount:    30,
		ViewCount:     200,
		CreatedAt:     now,
	}
}

func productRow(p domain.Product, total int) []any {
	return []any{
		p.ID, p.Name, p.Description, p.ShortDescription, p.Category, p.Subcategory, p.Brand,
		p.Tags, p.Colors, p.Sizes, p.Materials, p.Gender, p.AgeGroup, p.ImageURL,
		p.Price, p.OriginalPrice, p.Currency, p.StockQuantity,
		p.IsActive, p.IsFeatured, p.IsNew, p.IsSale,
		p.AverageRating, p.TotalReviews, p.SalesCount, p.ViewCount, p.CreatedAt,
		total,
	}
}

func TestQueryProducts_TextFilter(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	c := New(mock, "")
	p := sampleProduct()

	filter := catalog.Filter{
		ActiveOnly: true,
		Text: &catalog.TextMatch{
			Terms:  []string{"Dress"},
			Fields: []catalog.Field{catalog.FieldName, catalog.FieldBrand},
		},
	}

	mock.ExpectQuery(`SELECT .+ FROM catalog_products WHERE is_active = TRUE AND \(name ILIKE \$1 OR brand ILIKE \$1\) ORDER BY is_featured DESC, average_rating DESC, sales_count DESC, created_at DESC, id ASC LIMIT \$2 OFFSET \$3`).
		WithArgs("%dress%", 20, 0).
		WillReturnRows(pgxmock.NewRows(columnsWithCount).AddRow(productRow(p, 1)...))

	products, total, err := c.QueryProducts(context.Background(), filter, catalog.SortRelevance, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, p, products[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryProducts_StructuredFilters(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	c := New(mock, "")
	filter := catalog.Filter{
		Category:   "apparel",
		MinPrice:   int64Ptr(100),
		MaxPrice:   int64Ptr(9000),
		Colors:     []string{"red"},
		Brands:     []string{"Acme"},
		InStock:    boolPtr(true),
		IsSale:     boolPtr(true),
		ExcludeIDs: []string{"prod-9"},
	}

	mock.ExpectQuery(`WHERE category = \$1 AND price >= \$2 AND price <= \$3 AND colors && \$4 AND brand = ANY\(\$5\) AND stock_quantity > 0 AND is_sale = \$6 AND NOT \(id = ANY\(\$7\)\) ORDER BY price ASC, id ASC`).
		WithArgs("apparel", int64(100), int64(9000), []string{"red"}, []string{"Acme"}, true, []string{"prod-9"}, 10, 0).
		WillReturnRows(pgxmock.NewRows(columnsWithCount))

	products, total, err := c.QueryProducts(context.Background(), filter, catalog.SortFor(domain.SortPriceAsc), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryProducts_PastLastPageFallsBackToCount(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	c := New(mock, "")
	filter := catalog.Filter{ActiveOnly: true}

	mock.ExpectQuery(`SELECT .+ FROM catalog_products`).
		WithArgs(20, 100).
		WillReturnRows(pgxmock.NewRows(columnsWithCount))
	mock.ExpectQuery(`SELECT count\(\*\) FROM catalog_products WHERE is_active = TRUE`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(42))

	products, total, err := c.QueryProducts(context.Background(), filter, catalog.SortRelevance, 20, 100)
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Equal(t, 42, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryProducts_Error(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	c := New(mock, "")
	mock.ExpectQuery(`SELECT .+ FROM catalog_products`).
		WillReturnError(errors.New("connection refused"))

	_, _, err := c.QueryProducts(context.Background(), catalog.Filter{}, nil, 20, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query products")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountProducts_TagTerm(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	c := New(mock, "products_view")
	filter := catalog.Filter{
		Text: &catalog.TextMatch{
			Terms:  []string{"Summer"},
			Fields: []catalog.Field{catalog.FieldName, catalog.FieldTag},
		},
	}

	mock.ExpectQuery(`SELECT count\(\*\) FROM products_view WHERE \(name ILIKE \$1 OR EXISTS \(SELECT 1 FROM unnest\(tags\) AS t WHERE lower\(t\) = \$2\)\)`).
		WithArgs("%summer%", "summer").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	total, err := c.CountProducts(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now\\`, escapeLike(`50% off_now\`))
}
