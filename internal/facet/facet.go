package facet

import (
	"github.com/utafrali/storefront-search/internal/domain"
)

// PriceBuckets is the number of equal-width price ranges reported.
const PriceBuckets = 4

// Summarize derives the refinements available on a result page. Values keep
// first-seen order. Every product is counted in exactly one price range.
func Summarize(products []domain.Product) domain.Facets {
	f := domain.Facets{
		Categories:  []string{},
		Brands:      []string{},
		Colors:      []string{},
		Sizes:       []string{},
		PriceRanges: []domain.PriceRange{},
	}
	if len(products) == 0 {
		return f
	}

	categories := newSet()
	brands := newSet()
	colors := newSet()
	sizes := newSet()
	for i := range products {
		p := &products[i]
		categories.add(p.Category)
		brands.add(p.Brand)
		colors.add(p.Colors...)
		sizes.add(p.Sizes...)
	}
	f.Categories = categories.values
	f.Brands = brands.values
	f.Colors = colors.values
	f.Sizes = sizes.values
	f.PriceRanges = priceRanges(products)
	return f
}

func priceRanges(products []domain.Product) []domain.PriceRange {
	lo, hi := products[0].Price, products[0].Price
	for _, p := range products[1:] {
		lo = min(lo, p.Price)
		hi = max(hi, p.Price)
	}

	width := float64(hi-lo) / PriceBuckets
	ranges := make([]domain.PriceRange, PriceBuckets)
	for i := range ranges {
		ranges[i] = domain.PriceRange{
			Min: float64(lo) + float64(i)*width,
			Max: float64(lo) + float64(i+1)*width,
		}
	}
	ranges[PriceBuckets-1].Max = float64(hi)

	for _, p := range products {
		ranges[bucketOf(float64(p.Price), float64(lo), width)].Count++
	}
	return ranges
}

// bucketOf places price in [min, max) ranges, with the top price falling in
// the last one. A zero width puts everything in the first range.
func bucketOf(price, lo, width float64) int {
	if width == 0 {
		return 0
	}
	i := int((price - lo) / width)
	if i >= PriceBuckets {
		i = PriceBuckets - 1
	}
	return i
}

type set struct {
	seen   map[string]struct{}
	values []string
}

func newSet() *set {
	return &set{seen: make(map[string]struct{}), values: []string{}}
}

func (s *set) add(vals ...string) {
	for _, v := range vals {
		if v == "" {
			continue
		}
		if _, ok := s.seen[v]; ok {
			continue
		}
		s.seen[v] = struct{}{}
		s.values = append(s.values, v)
	}
}
