package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/utafrali/storefront-search/internal/domain"
	apperrors "github.com/utafrali/storefront-search/pkg/errors"
	"github.com/utafrali/storefront-search/pkg/middleware"
)

// parseSearchOptions reads SearchOptions from the query string. Values that
// cannot be parsed are rejected; out-of-range pagination is left for the
// service to clamp.
func parseSearchOptions(r *http.Request) (domain.SearchOptions, error) {
	q := r.URL.Query()
	opts := domain.SearchOptions{
		Query:       strings.TrimSpace(q.Get("q")),
		Category:    q.Get("category"),
		Subcategory: q.Get("subcategory"),
		Colors:      listParam(q, "colors"),
		Sizes:       listParam(q, "sizes"),
		Materials:   listParam(q, "materials"),
		Brands:      listParam(q, "brands"),
		Tags:        listParam(q, "tags"),
		Gender:      q.Get("gender"),
		AgeGroup:    q.Get("age_group"),
		Sort:        q.Get("sort"),
		UserID:      userID(r),
	}

	if opts.Sort == "" {
		opts.Sort = domain.SortRelevance
	}
	if !domain.IsValidSort(opts.Sort) {
		return opts, apperrors.InvalidParameter("sort", "must be one of: "+strings.Join(domain.ValidSortOptions(), ", "))
	}

	var err error
	if opts.MinPrice, err = priceParam(q, "min_price"); err != nil {
		return opts, err
	}
	if opts.MaxPrice, err = priceParam(q, "max_price"); err != nil {
		return opts, err
	}
	if opts.MinPrice != nil && opts.MaxPrice != nil && *opts.MinPrice > *opts.MaxPrice {
		return opts, apperrors.InvalidParameter("min_price", "must not exceed max_price")
	}

	for name, dst := range map[string]**bool{
		"in_stock":    &opts.InStock,
		"is_new":      &opts.IsNew,
		"is_sale":     &opts.IsSale,
		"is_featured": &opts.IsFeatured,
	} {
		if *dst, err = boolParam(q, name); err != nil {
			return opts, err
		}
	}

	if opts.Page, err = intParam(q, "page"); err != nil {
		return opts, err
	}
	if opts.Limit, err = intParam(q, "limit"); err != nil {
		return opts, err
	}
	return opts, nil
}

// userID prefers the X-User-ID header over the user_id query parameter.
func userID(r *http.Request) string {
	if id := middleware.UserIDFromContext(r.Context()); id != "" {
		return id
	}
	return strings.TrimSpace(r.URL.Query().Get("user_id"))
}

// intParam returns 0 when name is absent.
func intParam(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperrors.InvalidParameter(name, "must be a valid integer")
	}
	return n, nil
}

func priceParam(q url.Values, name string) (*int64, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, apperrors.InvalidParameter(name, "must be a valid number")
	}
	if n < 0 {
		return nil, apperrors.InvalidParameter(name, "must not be negative")
	}
	return &n, nil
}

func boolParam(q url.Values, name string) (*bool, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, apperrors.InvalidParameter(name, "must be true or false")
	}
	return &b, nil
}

// listParam accepts both repeated and comma-separated values.
func listParam(q url.Values, name string) []string {
	var out []string
	for _, raw := range q[name] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}
