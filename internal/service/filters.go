package service

import (
	"fmt"
	"strings"

	"github.com/utafrali/storefront-search/internal/catalog"
	"github.com/utafrali/storefront-search/internal/domain"
)

// buildFilter translates the structured part of opts into a catalog filter.
// Only active products are ever matched.
func buildFilter(opts *domain.SearchOptions) catalog.Filter {
	minPrice, maxPrice := opts.PriceBounds()
	return catalog.Filter{
		Category:    opts.Category,
		Subcategory: opts.Subcategory,
		MinPrice:    &minPrice,
		MaxPrice:    &maxPrice,
		Colors:      opts.Colors,
		Sizes:       opts.Sizes,
		Materials:   opts.Materials,
		Tags:        opts.Tags,
		Brands:      opts.Brands,
		Gender:      opts.Gender,
		AgeGroup:    opts.AgeGroup,
		InStock:     opts.InStock,
		IsNew:       opts.IsNew,
		IsSale:      opts.IsSale,
		IsFeatured:  opts.IsFeatured,
		ActiveOnly:  true,
	}
}

// AppliedFilters describes the filters the caller set, in a fixed order.
func AppliedFilters(opts *domain.SearchOptions) []string {
	out := []string{}
	add := func(name, value string) {
		if value != "" {
			out = append(out, name+": "+value)
		}
	}
	addList := func(name string, values []string) {
		add(name, strings.Join(values, ", "))
	}
	addBool := func(name string, v *bool) {
		if v != nil {
			add(name, fmt.Sprintf("%t", *v))
		}
	}

	add("category", opts.Category)
	add("subcategory", opts.Subcategory)
	if opts.MinPrice != nil || opts.MaxPrice != nil {
		lo, hi := opts.PriceBounds()
		add("price", fmt.Sprintf("%d-%d", lo, hi))
	}
	addList("colors", opts.Colors)
	addList("sizes", opts.Sizes)
	addList("materials", opts.Materials)
	addList("brands", opts.Brands)
	addList("tags", opts.Tags)
	add("gender", opts.Gender)
	add("age group", opts.AgeGroup)
	addBool("in stock", opts.InStock)
	addBool("new", opts.IsNew)
	addBool("on sale", opts.IsSale)
	addBool("featured", opts.IsFeatured)
	return out
}
