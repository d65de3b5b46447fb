package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/utafrali/storefront-search/internal/catalog"
	"github.com/utafrali/storefront-search/internal/domain"
	"github.com/utafrali/storefront-search/pkg/database"
)

// DefaultTable is the read model the catalog queries against.
const DefaultTable = "catalog_products"

const productColumns = `id, name, description, short_description, category, subcategory, brand,
		tags, colors, sizes, materials, gender, age_group, image_url,
		price, original_price, currency, stock_quantity,
		is_active, is_featured, is_new, is_sale,
		average_rating, total_reviews, sales_count, view_count, created_at`

// Catalog implements catalog.Catalog using PostgreSQL.
type Catalog struct {
	pool  database.Querier
	table string
}

// New creates a new PostgreSQL-backed catalog reading from table.
// If table is empty, DefaultTable is used.
func New(pool database.Querier, table string) *Catalog {
	if table == "" {
		table = DefaultTable
	}
	return &Catalog{pool: pool, table: table}
}

// QueryProducts returns one page of matching products with the total count.
func (c *Catalog) QueryProducts(ctx context.Context, filter catalog.Filter, sort catalog.Sort, limit, offset int) (products []domain.Product, total int, err error) {
	w := buildWhere(&filter)
	limitArg := w.arg(limit)
	offsetArg := w.arg(offset)

	// count(*) OVER() yields the total in the same round trip.
	query := fmt.Sprintf(`
		SELECT %s,
			   count(*) OVER() AS total_count
		FROM %s
		%s
		ORDER BY %s
		LIMIT %s OFFSET %s`,
		productColumns, c.table, w.clause(), orderBy(sort), limitArg, offsetArg,
	)

	ctx, end := database.TraceQuery(ctx, "QueryProducts", query)
	defer func() { end(err) }()

	rows, err := c.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products = []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.ShortDescription,
			&p.Category, &p.Subcategory, &p.Brand,
			&p.Tags, &p.Colors, &p.Sizes, &p.Materials,
			&p.Gender, &p.AgeGroup, &p.ImageURL,
			&p.Price, &p.OriginalPrice, &p.Currency, &p.StockQuantity,
			&p.IsActive, &p.IsFeatured, &p.IsNew, &p.IsSale,
			&p.AverageRating, &p.TotalReviews, &p.SalesCount, &p.ViewCount,
			&p.CreatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	// A page past the end carries no window count.
	if len(products) == 0 && offset > 0 {
		total, err = c.CountProducts(ctx, filter)
		if err != nil {
			return nil, 0, err
		}
	}

	return products, total, nil
}

// CountProducts returns the number of products matching filter.
func (c *Catalog) CountProducts(ctx context.Context, filter catalog.Filter) (total int, err error) {
	w := buildWhere(&filter)
	query := fmt.Sprintf(`SELECT count(*) FROM %s %s`, c.table, w.clause())

	ctx, end := database.TraceQuery(ctx, "CountProducts", query)
	defer func() { end(err) }()

	if err := c.pool.QueryRow(ctx, query, w.args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return total, nil
}

// where accumulates SQL conditions and their positional arguments.
type where struct {
	conditions []string
	args       []any
}

func (w *where) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *where) add(cond string) {
	w.conditions = append(w.conditions, cond)
}

func (w *where) clause() string {
	if len(w.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conditions, " AND ")
}

func buildWhere(f *catalog.Filter) *where {
	w := &where{}

	if f.ActiveOnly {
		w.add("is_active = TRUE")
	}

	if f.Text != nil && len(f.Text.Terms) > 0 {
		var ors []string
		for _, term := range f.Text.Terms {
			pattern := w.arg("%" + escapeLike(strings.ToLower(term)) + "%")
			var exact string
			for _, field := range f.Text.Fields {
				if field == catalog.FieldTag {
					if exact == "" {
						exact = w.arg(strings.ToLower(term))
					}
					ors = append(ors, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(tags) AS t WHERE lower(t) = %s)", exact))
					continue
				}
				ors = append(ors, fmt.Sprintf("%s ILIKE %s", field, pattern))
			}
		}
		w.add("(" + strings.Join(ors, " OR ") + ")")
	}

	if f.Category != "" {
		w.add("category = " + w.arg(f.Category))
	}
	if f.Subcategory != "" {
		w.add("subcategory = " + w.arg(f.Subcategory))
	}
	if f.MinPrice != nil {
		w.add("price >= " + w.arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		w.add("price <= " + w.arg(*f.MaxPrice))
	}

	for _, set := range []struct {
		column string
		values []string
	}{
		{"colors", f.Colors},
		{"sizes", f.Sizes},
		{"materials", f.Materials},
		{"tags", f.Tags},
	} {
		if len(set.values) > 0 {
			w.add(set.column + " && " + w.arg(set.values))
		}
	}

	if len(f.Brands) > 0 {
		w.add("brand = ANY(" + w.arg(f.Brands) + ")")
	}
	if f.Gender != "" {
		w.add("gender = " + w.arg(f.Gender))
	}
	if f.AgeGroup != "" {
		w.add("age_group = " + w.arg(f.AgeGroup))
	}
	if f.InStock != nil {
		if *f.InStock {
			w.add("stock_quantity > 0")
		} else {
			w.add("stock_quantity = 0")
		}
	}
	if f.IsNew != nil {
		w.add("is_new = " + w.arg(*f.IsNew))
	}
	if f.IsSale != nil {
		w.add("is_sale = " + w.arg(*f.IsSale))
	}
	if f.IsFeatured != nil {
		w.add("is_featured = " + w.arg(*f.IsFeatured))
	}
	if len(f.ExcludeIDs) > 0 {
		w.add("NOT (id = ANY(" + w.arg(f.ExcludeIDs) + "))")
	}

	return w
}

// orderBy renders sort keys; id is appended so pages are deterministic.
func orderBy(sort catalog.Sort) string {
	parts := make([]string, 0, len(sort)+1)
	for _, key := range sort {
		dir := "ASC"
		if key.Desc {
			dir = "DESC"
		}
		parts = append(parts, string(key.Field)+" "+dir)
	}
	parts = append(parts, "id ASC")
	return strings.Join(parts, ", ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
