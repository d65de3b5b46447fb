package domain

import "fmt"

// InteractionType identifies a user action on a product.
type InteractionType string

const (
	InteractionView  InteractionType = "view"
	InteractionClick InteractionType = "click"
	InteractionCart  InteractionType = "cart"
)

// ParseInteractionType validates a raw interaction type.
func ParseInteractionType(s string) (InteractionType, error) {
	switch t := InteractionType(s); t {
	case InteractionView, InteractionClick, InteractionCart:
		return t, nil
	default:
		return "", fmt.Errorf("unknown interaction type %q", s)
	}
}

// Interaction holds the per-user, per-product behavior counters.
type Interaction struct {
	Views     int64 `json:"views"`
	Clicks    int64 `json:"clicks"`
	AddToCart int64 `json:"add_to_cart"`
}

// TrendingQuery is a tracked search string and how often it was searched.
type TrendingQuery struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}
