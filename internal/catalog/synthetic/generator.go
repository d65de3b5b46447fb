// Package synthetic generates realistic, reproducible storefront catalogs for
// local development and load testing.
package synthetic

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront-search/internal/domain"
	"github.com/utafrali/storefront-search/pkg/slug"
)

// ImageBaseURL prefixes generated product image URLs.
const ImageBaseURL = "https://cdn.storefront.local/products/"

// namespace keeps generated IDs stable across runs.
var namespace = uuid.MustParse("6f1c0c52-3c4e-4f8a-9d1b-2a7e5b8c9d10")

type subcategory struct {
	name  string
	nouns []string
	tags  []string
}

type category struct {
	name   string
	weight int
	subs   []subcategory
	sizes  []string
	gender string
}

var categories = []category{
	{"dresses", 20, []subcategory{
		{"maxi", []string{"Maxi Dress"}, []string{"summer", "floral"}},
		{"midi", []string{"Midi Dress", "Wrap Dress"}, []string{"office", "casual"}},
		{"evening", []string{"Evening Gown", "Cocktail Dress"}, []string{"party", "formal"}},
	}, []string{"XS", "S", "M", "L", "XL"}, "women"},
	{"tops", 20, []subcategory{
		{"shirts", []string{"Shirt", "Oxford Shirt"}, []string{"office", "classic"}},
		{"blouses", []string{"Blouse", "Tunic"}, []string{"casual", "office"}},
		{"tees", []string{"T-Shirt", "Tank Top"}, []string{"basic", "summer"}},
	}, []string{"XS", "S", "M", "L", "XL"}, ""},
	{"bottoms", 15, []subcategory{
		{"jeans", []string{"Jeans", "Denim Shorts"}, []string{"denim", "casual"}},
		{"trousers", []string{"Trousers", "Wide Leg Pants"}, []string{"office", "classic"}},
		{"skirts", []string{"Pleated Skirt", "Midi Skirt"}, []string{"casual", "summer"}},
	}, []string{"34", "36", "38", "40", "42"}, ""},
	{"outerwear", 15, []subcategory{
		{"jackets", []string{"Jacket", "Bomber Jacket", "Blazer"}, []string{"winter", "layering"}},
		{"coats", []string{"Trench Coat", "Wool Coat", "Parka"}, []string{"winter", "classic"}},
	}, []string{"S", "M", "L", "XL"}, ""},
	{"shoes", 15, []subcategory{
		{"sneakers", []string{"Sneakers", "Running Shoes"}, []string{"sport", "casual"}},
		{"boots", []string{"Ankle Boots", "Chelsea Boots"}, []string{"winter", "leather"}},
		{"heels", []string{"Pumps", "Sandals"}, []string{"party", "summer"}},
	}, []string{"36", "37", "38", "39", "40", "41", "42"}, ""},
	{"bags", 8, []subcategory{
		{"handbags", []string{"Handbag", "Tote Bag"}, []string{"leather", "office"}},
		{"backpacks", []string{"Backpack"}, []string{"travel", "casual"}},
	}, []string{"One Size"}, "women"},
	{"accessories", 7, []subcategory{
		{"scarves", []string{"Scarf", "Shawl"}, []string{"winter", "silk"}},
		{"belts", []string{"Belt"}, []string{"leather", "classic"}},
		{"jewelry", []string{"Necklace", "Earrings", "Bracelet"}, []string{"gift", "party"}},
	}, []string{"One Size"}, "women"},
}

var (
	brands     = []string{"Refka", "Benin", "Alia", "Tuva", "Nihan", "Armine", "Kayra", "Alvina", "Sefamerve", "Northline"}
	colors     = []string{"black", "white", "navy", "red", "beige", "green", "blue", "grey", "pink", "brown"}
	materials  = []string{"cotton", "linen", "wool", "silk", "denim", "leather", "polyester", "viscose"}
	adjectives = []string{"Classic", "Elegant", "Relaxed", "Slim", "Oversized", "Essential", "Vintage", "Modern", "Soft", "Everyday"}
	genders    = []string{"women", "women", "women", "men", "unisex"}
)

var totalWeight = func() int {
	total := 0
	for _, c := range categories {
		total += c.weight
	}
	return total
}()

// Generator produces products from a seeded random source. The same seed and
// clock always yield the same catalog.
type Generator struct {
	rng *rand.Rand
	now time.Time
}

// NewGenerator creates a generator. now anchors CreatedAt values.
func NewGenerator(seed uint64, now time.Time) *Generator {
	return &Generator{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), // #nosec G404 -- synthetic data
		now: now.UTC(),
	}
}

// Generate returns n products. IDs depend only on the position, so runs with
// a different seed overwrite the same documents.
func (g *Generator) Generate(n int) []domain.Product {
	products := make([]domain.Product, n)
	for i := range products {
		products[i] = g.product(i)
	}
	return products
}

func (g *Generator) product(i int) domain.Product {
	cat := g.pickCategory()
	sub := pick(g.rng, cat.subs)
	color := pick(g.rng, colors)
	material := pick(g.rng, materials)
	brand := pick(g.rng, brands)

	name := fmt.Sprintf("%s %s %s", pick(g.rng, adjectives), strings.ToUpper(color[:1])+color[1:], pick(g.rng, sub.nouns))
	gender := cat.gender
	if gender == "" {
		gender = pick(g.rng, genders)
	}
	ageGroup := "adult"
	if g.rng.IntN(20) == 0 {
		ageGroup = "kids"
	}

	price := int64(999 + g.rng.IntN(40)*250)
	p := domain.Product{
		ID:               uuid.NewSHA1(namespace, []byte(fmt.Sprintf("product:%d", i))).String(),
		Name:             name,
		ShortDescription: fmt.Sprintf("%s %s by %s", material, strings.ToLower(sub.nouns[0]), brand),
		Description: fmt.Sprintf("%s made from %s. Part of the %s %s collection by %s.",
			name, material, sub.name, cat.name, brand),
		Category:      cat.name,
		Subcategory:   sub.name,
		Brand:         brand,
		Tags:          append([]string{material}, sub.tags...),
		Colors:        g.colorsWith(color),
		Sizes:         g.sizes(cat.sizes),
		Materials:     []string{material},
		Gender:        gender,
		AgeGroup:      ageGroup,
		Price:         price,
		Currency:      "USD",
		StockQuantity: g.stock(),
		IsActive:      g.rng.IntN(20) != 0,
		IsFeatured:    g.rng.IntN(10) == 0,
		IsNew:         g.rng.IntN(6) == 0,
		IsSale:        g.rng.IntN(5) == 0,
		AverageRating: math.Round((1+g.rng.Float64()*4)*10) / 10,
		TotalReviews:  g.rng.IntN(500),
		SalesCount:    g.rng.IntN(2000),
		ViewCount:     g.rng.IntN(20000),
		CreatedAt:     g.now.Add(-time.Duration(g.rng.IntN(365*24)) * time.Hour),
	}
	if p.IsSale {
		original := price * int64(120+g.rng.IntN(40)) / 100
		p.OriginalPrice = &original
	}
	p.ImageURL = ImageBaseURL + slug.Make(name) + "-" + p.ID[:8] + ".jpg"
	return p
}

func (g *Generator) pickCategory() category {
	n := g.rng.IntN(totalWeight)
	for _, c := range categories {
		if n < c.weight {
			return c
		}
		n -= c.weight
	}
	return categories[len(categories)-1]
}

// colorsWith returns primary plus up to two other distinct colors.
func (g *Generator) colorsWith(primary string) []string {
	out := []string{primary}
	for _, c := range colors {
		if len(out) > 2 {
			break
		}
		if c != primary && g.rng.IntN(4) == 0 {
			out = append(out, c)
		}
	}
	return out
}

// sizes returns a contiguous run of the category's size chart.
func (g *Generator) sizes(chart []string) []string {
	start := g.rng.IntN(len(chart))
	end := start + 1 + g.rng.IntN(len(chart)-start)
	return append([]string(nil), chart[start:end]...)
}

func (g *Generator) stock() int {
	if g.rng.IntN(10) == 0 {
		return 0
	}
	return 1 + g.rng.IntN(200)
}

func pick[T any](rng *rand.Rand, items []T) T {
	return items[rng.IntN(len(items))]
}
