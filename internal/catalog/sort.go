package catalog

import (
	"cmp"

	"github.com/utafrali/storefront-search/internal/domain"
)

// SortField names a sortable product column.
type SortField string

const (
	SortByPrice         SortField = "price"
	SortByCreatedAt     SortField = "created_at"
	SortByAverageRating SortField = "average_rating"
	SortByTotalReviews  SortField = "total_reviews"
	SortBySalesCount    SortField = "sales_count"
	SortByViewCount     SortField = "view_count"
	SortByIsFeatured    SortField = "is_featured"
)

// SortKey is a single ordering term.
type SortKey struct {
	Field SortField
	Desc  bool
}

// Sort is an ordered list of sort keys, most significant first.
type Sort []SortKey

// Orderings shared by the search, recommendation and autocomplete paths.
var (
	SortRelevance = Sort{
		{Field: SortByIsFeatured, Desc: true},
		{Field: SortByAverageRating, Desc: true},
		{Field: SortBySalesCount, Desc: true},
		{Field: SortByCreatedAt, Desc: true},
	}
	SortRating = Sort{
		{Field: SortByAverageRating, Desc: true},
		{Field: SortByTotalReviews, Desc: true},
	}
	SortPopular = Sort{
		{Field: SortBySalesCount, Desc: true},
		{Field: SortByViewCount, Desc: true},
	}
	SortBestSelling = Sort{{Field: SortBySalesCount, Desc: true}}
	SortTopRated    = Sort{{Field: SortByAverageRating, Desc: true}}
)

// SortFor maps a storefront sort mode to catalog sort keys. Unknown modes
// fall back to relevance ordering.
func SortFor(mode string) Sort {
	switch mode {
	case domain.SortPriceAsc:
		return Sort{{Field: SortByPrice}}
	case domain.SortPriceDesc:
		return Sort{{Field: SortByPrice, Desc: true}}
	case domain.SortNewest:
		return Sort{{Field: SortByCreatedAt, Desc: true}}
	case domain.SortRating:
		return SortRating
	case domain.SortPopular:
		return SortPopular
	default:
		return SortRelevance
	}
}

// Compare orders a before b (-1), after b (1), or reports a tie (0).
func (s Sort) Compare(a, b *domain.Product) int {
	for _, key := range s {
		c := compareField(a, b, key.Field)
		if key.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

func compareField(a, b *domain.Product, field SortField) int {
	switch field {
	case SortByPrice:
		return cmp.Compare(a.Price, b.Price)
	case SortByCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case SortByAverageRating:
		return cmp.Compare(a.AverageRating, b.AverageRating)
	case SortByTotalReviews:
		return cmp.Compare(a.TotalReviews, b.TotalReviews)
	case SortBySalesCount:
		return cmp.Compare(a.SalesCount, b.SalesCount)
	case SortByViewCount:
		return cmp.Compare(a.ViewCount, b.ViewCount)
	case SortByIsFeatured:
		return cmp.Compare(boolRank(a.IsFeatured), boolRank(b.IsFeatured))
	default:
		return 0
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
