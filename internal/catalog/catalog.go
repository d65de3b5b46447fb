package catalog

import (
	"context"

	"github.com/utafrali/storefront-search/internal/domain"
)

// Catalog is the read side of the product store consumed by the engine.
// Implementations may use PostgreSQL, Elasticsearch, in-memory storage, or
// other backends.
type Catalog interface {
	// QueryProducts returns one page of products matching filter, ordered by
	// sort, together with the total number of matches.
	QueryProducts(ctx context.Context, filter Filter, sort Sort, limit, offset int) ([]domain.Product, int, error)

	// CountProducts returns the number of products matching filter.
	CountProducts(ctx context.Context, filter Filter) (int, error)
}
