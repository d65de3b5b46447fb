package domain

import (
	"time"
)

// Product is the read-only catalog record the engine searches over.
// Prices are expressed in minor currency units.
type Product struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	ShortDescription string    `json:"short_description"`
	Category         string    `json:"category"`
	Subcategory      string    `json:"subcategory"`
	Brand            string    `json:"brand"`
	Tags             []string  `json:"tags"`
	Colors           []string  `json:"colors"`
	Sizes            []string  `json:"sizes"`
	Materials        []string  `json:"materials"`
	Gender           string    `json:"gender,omitempty"`
	AgeGroup         string    `json:"age_group,omitempty"`
	ImageURL         string    `json:"image_url,omitempty"`
	Price            int64     `json:"price"`
	OriginalPrice    *int64    `json:"original_price,omitempty"`
	Currency         string    `json:"currency"`
	StockQuantity    int       `json:"stock_quantity"`
	IsActive         bool      `json:"is_active"`
	IsFeatured       bool      `json:"is_featured"`
	IsNew            bool      `json:"is_new"`
	IsSale           bool      `json:"is_sale"`
	AverageRating    float64   `json:"average_rating"`
	TotalReviews     int       `json:"total_reviews"`
	SalesCount       int       `json:"sales_count"`
	ViewCount        int       `json:"view_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// InStock reports whether the product has any stock left.
func (p *Product) InStock() bool {
	return p.StockQuantity > 0
}

// RankedProduct is a product annotated with a relevance score and, for
// recommendation items, the reason it was picked.
type RankedProduct struct {
	Product
	RelevanceScore float64 `json:"relevance_score,omitempty"`
	Reason         string  `json:"reason,omitempty"`
}

// Recommendation reasons.
const (
	ReasonHistory  = "Based on your search history"
	ReasonTrending = "Trending now"
)

// ReasonSimilarTo returns the reason attached to content-based recommendations.
func ReasonSimilarTo(name string) string {
	return "Similar to " + name
}
