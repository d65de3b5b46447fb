package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/utafrali/storefront-search/internal/catalog"
	"github.com/utafrali/storefront-search/internal/domain"
)

// Catalog is an in-memory implementation of the catalog.Catalog interface.
// Products keep their load order, which is the final tiebreak when sort keys
// are equal. Thread-safe via sync.RWMutex.
type Catalog struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	order    []string
}

// New creates a new in-memory catalog.
func New() *Catalog {
	return &Catalog{
		products: make(map[string]domain.Product),
	}
}

// Load adds or replaces products. Replaced products keep their position.
func (c *Catalog) Load(products ...domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range products {
		p := products[i]
		if _, exists := c.products[p.ID]; !exists {
			c.order = append(c.order, p.ID)
		}
		c.products[p.ID] = p
	}
}

// BulkIndex loads products, satisfying the loader's index contract.
func (c *Catalog) BulkIndex(ctx context.Context, products []domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Load(products...)
	return nil
}

// Delete removes a product by its ID.
func (c *Catalog) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.products[id]; !exists {
		return
	}
	delete(c.products, id)
	c.order = slices.DeleteFunc(c.order, func(v string) bool { return v == id })
}

// Len returns the number of products held.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// QueryProducts filters, sorts and paginates the held products.
func (c *Catalog) QueryProducts(ctx context.Context, filter catalog.Filter, sort catalog.Sort, limit, offset int) ([]domain.Product, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	matched := c.match(&filter)
	slices.SortStableFunc(matched, func(a, b domain.Product) int {
		return sort.Compare(&a, &b)
	})

	total := len(matched)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	return matched[offset:end], total, nil
}

// CountProducts returns the number of products matching filter.
func (c *Catalog) CountProducts(ctx context.Context, filter catalog.Filter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return len(c.match(&filter)), nil
}

// match returns copies of the matching products in load order.
func (c *Catalog) match(filter *catalog.Filter) []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	matched := make([]domain.Product, 0)
	for _, id := range c.order {
		p := c.products[id]
		if filter.Matches(&p) {
			matched = append(matched, p)
		}
	}
	return matched
}
