package ranking

import (
	"sort"
	"strings"

	"github.com/utafrali/storefront-search/internal/domain"
)

// Weights used by the Scorer.
const (
	NameMatchBonus        = 100
	DescriptionMatchBonus = 50
	CategoryMatchBonus    = 30
	TagMatchBonus         = 20

	RatingWeight  = 10
	ReviewsWeight = 2
	SalesWeight   = 5
	ViewsWeight   = 1

	InStockBonus  = 20
	FeaturedBonus = 30
	NewBonus      = 15
	SaleBonus     = 10

	UserViewWeight  = 5
	UserClickWeight = 10
)

// Scorer ranks a page of products against a set of search terms.
type Scorer struct{}

// NewScorer creates a Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score returns products ordered by descending relevance. Equal scores keep
// their input order. interactions is keyed by product ID and may be nil.
func (s *Scorer) Score(products []domain.Product, terms []string, interactions map[string]domain.Interaction) []domain.RankedProduct {
	lowered := make([]string, len(terms))
	for i, t := range terms {
		lowered[i] = strings.ToLower(t)
	}

	ranked := make([]domain.RankedProduct, len(products))
	for i := range products {
		ranked[i] = domain.RankedProduct{
			Product:        products[i],
			RelevanceScore: ScoreProduct(&products[i], lowered, interactions[products[i].ID]),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})
	return ranked
}

// ScoreProduct computes the relevance of a single product. terms must be
// lowercase. Each field bonus applies at most once.
func ScoreProduct(p *domain.Product, terms []string, rec domain.Interaction) float64 {
	var score float64

	if anyContains(p.Name, terms) {
		score += NameMatchBonus
	}
	if anyContains(p.Description, terms) {
		score += DescriptionMatchBonus
	}
	if anyContains(p.Category, terms) {
		score += CategoryMatchBonus
	}
	for _, tag := range p.Tags {
		if anyContains(tag, terms) {
			score += TagMatchBonus
			break
		}
	}

	score += p.AverageRating * RatingWeight
	score += float64(p.TotalReviews * ReviewsWeight)
	score += float64(p.SalesCount * SalesWeight)
	score += float64(p.ViewCount * ViewsWeight)

	if p.InStock() {
		score += InStockBonus
	}
	if p.IsFeatured {
		score += FeaturedBonus
	}
	if p.IsNew {
		score += NewBonus
	}
	if p.IsSale {
		score += SaleBonus
	}

	// Add-to-cart is recorded but not scored.
	score += float64(rec.Views*UserViewWeight + rec.Clicks*UserClickWeight)

	return score
}

func anyContains(field string, terms []string) bool {
	if field == "" {
		return false
	}
	field = strings.ToLower(field)
	for _, t := range terms {
		if t != "" && strings.Contains(field, t) {
			return true
		}
	}
	return false
}
