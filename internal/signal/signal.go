package signal

import (
	"context"
	"strings"

	"github.com/utafrali/storefront-search/internal/domain"
)

// Defaults for store bounds.
const (
	DefaultHistoryLimit    = 50
	DefaultMaxInteractions = 100_000
)

// Store holds per-user search history, global query popularity and
// per-(user, product) interaction counters. Implementations must be safe for
// concurrent use.
type Store interface {
	// TrackSearch counts the normalized query and, when userID is set,
	// appends the raw query to the user's history.
	TrackSearch(ctx context.Context, query, userID string) error

	// TrackInteraction increments one interaction counter. It is a no-op
	// without a user.
	TrackInteraction(ctx context.Context, userID, productID string, kind domain.InteractionType) error

	// Trending returns the most searched queries, highest count first.
	Trending(ctx context.Context, limit int) ([]domain.TrendingQuery, error)

	// History returns the user's recent queries, oldest first.
	History(ctx context.Context, userID string) ([]string, error)

	// Interactions returns the records that exist for the given products.
	Interactions(ctx context.Context, userID string, productIDs []string) (map[string]domain.Interaction, error)
}

// NormalizeQuery lowercases q, trims it and collapses internal whitespace.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// Apply adds one interaction of kind to rec.
func Apply(rec *domain.Interaction, kind domain.InteractionType) {
	switch kind {
	case domain.InteractionView:
		rec.Views++
	case domain.InteractionClick:
		rec.Clicks++
	case domain.InteractionCart:
		rec.AddToCart++
	}
}
