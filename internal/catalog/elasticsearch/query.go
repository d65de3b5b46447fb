package elasticsearch

import (
	"strings"

	"github.com/utafrali/storefront-search/internal/catalog"
)

// maxResultWindow mirrors the index.max_result_window default. Pages
// beyond it only fetch the total.
const maxResultWindow = 10000

// buildSearchBody constructs the search request body as a map.
func buildSearchBody(filter *catalog.Filter, sort catalog.Sort, limit, offset int) map[string]any {
	if offset > maxResultWindow-limit {
		offset, limit = 0, 0
	}
	body := map[string]any{
		"query":            buildQuery(filter),
		"from":             offset,
		"size":             limit,
		"sort":             buildSort(sort),
		"track_total_hits": true,
	}
	return body
}

// buildQuery translates a catalog filter into a bool query.
func buildQuery(f *catalog.Filter) map[string]any {
	var filters []any

	if f.ActiveOnly {
		filters = append(filters, term("is_active", true))
	}

	if f.Text != nil && len(f.Text.Terms) > 0 {
		var should []any
		for _, t := range f.Text.Terms {
			t = strings.ToLower(t)
			for _, field := range f.Text.Fields {
				if field == catalog.FieldTag {
					should = append(should, map[string]any{
						"term": map[string]any{
							"tags": map[string]any{"value": t, "case_insensitive": true},
						},
					})
					continue
				}
				should = append(should, map[string]any{
					"wildcard": map[string]any{
						string(field): map[string]any{
							"value":            "*" + escapeWildcard(t) + "*",
							"case_insensitive": true,
						},
					},
				})
			}
		}
		filters = append(filters, map[string]any{
			"bool": map[string]any{
				"should":               should,
				"minimum_should_match": 1,
			},
		})
	}

	if f.Category != "" {
		filters = append(filters, term("category", f.Category))
	}
	if f.Subcategory != "" {
		filters = append(filters, term("subcategory", f.Subcategory))
	}

	if f.MinPrice != nil || f.MaxPrice != nil {
		rng := map[string]any{}
		if f.MinPrice != nil {
			rng["gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			rng["lte"] = *f.MaxPrice
		}
		filters = append(filters, map[string]any{
			"range": map[string]any{"price": rng},
		})
	}

	for _, set := range []struct {
		field  string
		values []string
	}{
		{"colors", f.Colors},
		{"sizes", f.Sizes},
		{"materials", f.Materials},
		{"tags", f.Tags},
		{"brand", f.Brands},
	} {
		if len(set.values) > 0 {
			filters = append(filters, map[string]any{
				"terms": map[string]any{set.field: set.values},
			})
		}
	}

	if f.Gender != "" {
		filters = append(filters, term("gender", f.Gender))
	}
	if f.AgeGroup != "" {
		filters = append(filters, term("age_group", f.AgeGroup))
	}
	if f.InStock != nil {
		if *f.InStock {
			filters = append(filters, map[string]any{
				"range": map[string]any{"stock_quantity": map[string]any{"gt": 0}},
			})
		} else {
			filters = append(filters, term("stock_quantity", 0))
		}
	}
	if f.IsNew != nil {
		filters = append(filters, term("is_new", *f.IsNew))
	}
	if f.IsSale != nil {
		filters = append(filters, term("is_sale", *f.IsSale))
	}
	if f.IsFeatured != nil {
		filters = append(filters, term("is_featured", *f.IsFeatured))
	}

	boolQuery := map[string]any{}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}
	if len(f.ExcludeIDs) > 0 {
		boolQuery["must_not"] = []any{
			map[string]any{"ids": map[string]any{"values": f.ExcludeIDs}},
		}
	}
	if len(boolQuery) == 0 {
		return map[string]any{"match_all": map[string]any{}}
	}

	return map[string]any{"bool": boolQuery}
}

// buildSort renders sort keys; id is appended so pages are deterministic.
func buildSort(sort catalog.Sort) []any {
	clauses := make([]any, 0, len(sort)+1)
	for _, key := range sort {
		order := "asc"
		if key.Desc {
			order = "desc"
		}
		clauses = append(clauses, map[string]any{string(key.Field): order})
	}
	return append(clauses, map[string]any{"id": "asc"})
}

func term(field string, value any) map[string]any {
	return map[string]any{
		"term": map[string]any{field: value},
	}
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func escapeWildcard(s string) string {
	return wildcardEscaper.Replace(s)
}
