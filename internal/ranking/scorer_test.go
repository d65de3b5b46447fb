package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront-search/internal/domain"
)

func TestScore_PopularProductWins(t *testing.T) {
	products := []domain.Product{
		{ID: "mini", Name: "Blue Shoes Mini"},
		{ID: "main", Name: "Blue Shoes", SalesCount: 100, AverageRating: 4.5},
	}

	ranked := NewScorer().Score(products, []string{"shoes"}, nil)
	require.Len(t, ranked, 2)
	assert.Equal(t, "main", ranked[0].ID)
	assert.Equal(t, "mini", ranked[1].ID)
	assert.InDelta(t, 100+45+500, ranked[0].RelevanceScore, 1e-9)
	assert.InDelta(t, 100, ranked[1].RelevanceScore, 1e-9)
}

func TestScoreProduct_Components(t *testing.T) {
	p := domain.Product{
		Name:          "Linen Shirt",
		Description:   "Breathable linen shirt",
		Category:      "Shirts",
		Tags:          []string{"summer", "linen"},
		AverageRating: 4,
		TotalReviews:  3,
		SalesCount:    2,
		ViewCount:     7,
		StockQuantity: 1,
		IsFeatured:    true,
		IsNew:         true,
		IsSale:        true,
	}
	rec := domain.Interaction{Views: 2, Clicks: 1, AddToCart: 9}

	got := ScoreProduct(&p, []string{"linen", "shirt"}, rec)

	want := 100.0 + 50 + 30 + 20 + // field bonuses, once each
		40 + 6 + 10 + 7 + // rating, reviews, sales, views
		20 + 30 + 15 + 10 + // stock and flags
		10 + 10 // user views and clicks
	assert.InDelta(t, want, got, 1e-9)
}

func TestScoreProduct_FieldBonusOncePerField(t *testing.T) {
	p := domain.Product{Name: "Red Wool Scarf"}

	one := ScoreProduct(&p, []string{"red"}, domain.Interaction{})
	three := ScoreProduct(&p, []string{"red", "wool", "scarf"}, domain.Interaction{})
	assert.Equal(t, one, three)
}

func TestScoreProduct_NameMatchMonotonic(t *testing.T) {
	base := domain.Product{
		Description:   "cotton tee",
		AverageRating: 3.5,
		SalesCount:    4,
		StockQuantity: 2,
	}
	withName := base
	withName.Name = "Graphic Tee"
	withoutName := base
	withoutName.Name = "Graphic Top"

	terms := []string{"tee"}
	assert.GreaterOrEqual(t,
		ScoreProduct(&withName, terms, domain.Interaction{}),
		ScoreProduct(&withoutName, terms, domain.Interaction{}),
	)
	assert.InDelta(t, NameMatchBonus,
		ScoreProduct(&withName, terms, domain.Interaction{})-ScoreProduct(&withoutName, terms, domain.Interaction{}),
		1e-9)
}

func TestScoreProduct_CaseInsensitive(t *testing.T) {
	p := domain.Product{Name: "SUMMER DRESS"}
	assert.InDelta(t, NameMatchBonus, ScoreProduct(&p, []string{"dress"}, domain.Interaction{}), 1e-9)
}

func TestScore_StableOnTies(t *testing.T) {
	products := []domain.Product{
		{ID: "a", Name: "Hat"},
		{ID: "b", Name: "Hat"},
		{ID: "c", Name: "Hat"},
	}

	ranked := NewScorer().Score(products, []string{"hat"}, nil)
	ids := []string{ranked[0].ID, ranked[1].ID, ranked[2].ID}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestScore_Personalized(t *testing.T) {
	products := []domain.Product{
		{ID: "a", Name: "Cap"},
		{ID: "b", Name: "Cap"},
	}
	interactions := map[string]domain.Interaction{
		"b": {Clicks: 1},
		"a": {AddToCart: 50},
	}

	ranked := NewScorer().Score(products, []string{"cap"}, interactions)
	assert.Equal(t, "b", ranked[0].ID)
	assert.InDelta(t, 110, ranked[0].RelevanceScore, 1e-9)
	assert.InDelta(t, 100, ranked[1].RelevanceScore, 1e-9)
}

func TestScore_Empty(t *testing.T) {
	assert.Empty(t, NewScorer().Score(nil, []string{"x"}, nil))
}
