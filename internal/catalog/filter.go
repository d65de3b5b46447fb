package catalog

import (
	"strings"

	"github.com/utafrali/storefront-search/internal/domain"
)

// Field names a product field a free-text term can be matched against.
type Field string

// Text fields are matched as case-insensitive substrings. FieldTag matches a
// tag exactly, ignoring case.
const (
	FieldName             Field = "name"
	FieldDescription      Field = "description"
	FieldShortDescription Field = "short_description"
	FieldCategory         Field = "category"
	FieldSubcategory      Field = "subcategory"
	FieldBrand            Field = "brand"
	FieldTag              Field = "tags"
)

// SearchFields are the fields a storefront query is matched against.
var SearchFields = []Field{
	FieldName, FieldDescription, FieldShortDescription,
	FieldCategory, FieldSubcategory, FieldBrand,
}

// TextMatch is satisfied when any term matches any field.
type TextMatch struct {
	Terms  []string
	Fields []Field
}

// Filter is a conjunction of product predicates. Zero values are not applied.
type Filter struct {
	Text        *TextMatch
	Category    string
	Subcategory string
	MinPrice    *int64
	MaxPrice    *int64

	// Set filters match when the product's set intersects the requested one.
	Colors    []string
	Sizes     []string
	Materials []string
	Tags      []string

	Brands   []string
	Gender   string
	AgeGroup string

	InStock    *bool
	IsNew      *bool
	IsSale     *bool
	IsFeatured *bool

	ActiveOnly bool
	ExcludeIDs []string
}

// Matches evaluates the filter against a single product in memory.
func (f *Filter) Matches(p *domain.Product) bool {
	if f.ActiveOnly && !p.IsActive {
		return false
	}
	if f.Text != nil && !f.Text.matches(p) {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Subcategory != "" && p.Subcategory != f.Subcategory {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if !overlaps(p.Colors, f.Colors) || !overlaps(p.Sizes, f.Sizes) ||
		!overlaps(p.Materials, f.Materials) || !overlaps(p.Tags, f.Tags) {
		return false
	}
	if len(f.Brands) > 0 && !contains(f.Brands, p.Brand) {
		return false
	}
	if f.Gender != "" && p.Gender != f.Gender {
		return false
	}
	if f.AgeGroup != "" && p.AgeGroup != f.AgeGroup {
		return false
	}
	if f.InStock != nil && p.InStock() != *f.InStock {
		return false
	}
	if f.IsNew != nil && p.IsNew != *f.IsNew {
		return false
	}
	if f.IsSale != nil && p.IsSale != *f.IsSale {
		return false
	}
	if f.IsFeatured != nil && p.IsFeatured != *f.IsFeatured {
		return false
	}
	if len(f.ExcludeIDs) > 0 && contains(f.ExcludeIDs, p.ID) {
		return false
	}
	return true
}

func (t *TextMatch) matches(p *domain.Product) bool {
	if len(t.Terms) == 0 {
		return true
	}
	for _, term := range t.Terms {
		term = strings.ToLower(term)
		for _, field := range t.Fields {
			if field == FieldTag {
				for _, tag := range p.Tags {
					if strings.EqualFold(tag, term) {
						return true
					}
				}
				continue
			}
			if strings.Contains(strings.ToLower(FieldValue(p, field)), term) {
				return true
			}
		}
	}
	return false
}

// FieldValue returns the text value of a scalar field.
func FieldValue(p *domain.Product, field Field) string {
	switch field {
	case FieldName:
		return p.Name
	case FieldDescription:
		return p.Description
	case FieldShortDescription:
		return p.ShortDescription
	case FieldCategory:
		return p.Category
	case FieldSubcategory:
		return p.Subcategory
	case FieldBrand:
		return p.Brand
	default:
		return ""
	}
}

func overlaps(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	for _, w := range want {
		if contains(have, w) {
			return true
		}
	}
	return false
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
