package domain

// Sort options for search results.
const (
	SortRelevance = "relevance"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNewest    = "newest"
	SortRating    = "rating"
	SortPopular   = "popular"
)

// Defaults applied to SearchOptions.
const (
	DefaultMinPrice int64 = 0
	DefaultMaxPrice int64 = 10_000_000
	DefaultPage           = 1
	DefaultLimit          = 20
	MaxLimit              = 100
)

// ValidSortOptions returns the list of valid sort options.
func ValidSortOptions() []string {
	return []string{SortRelevance, SortPriceAsc, SortPriceDesc, SortNewest, SortRating, SortPopular}
}

// IsValidSort checks whether the given sort string is a valid sort option.
func IsValidSort(sort string) bool {
	for _, s := range ValidSortOptions() {
		if s == sort {
			return true
		}
	}
	return false
}

// SearchOptions holds all parameters for a search request. Nil boolean
// filters are not applied; nil price bounds fall back to DefaultMinPrice and
// DefaultMaxPrice.
type SearchOptions struct {
	Query       string   `json:"query"`
	Category    string   `json:"category,omitempty"`
	Subcategory string   `json:"subcategory,omitempty"`
	MinPrice    *int64   `json:"min_price,omitempty"`
	MaxPrice    *int64   `json:"max_price,omitempty"`
	Colors      []string `json:"colors,omitempty"`
	Sizes       []string `json:"sizes,omitempty"`
	Materials   []string `json:"materials,omitempty"`
	Brands      []string `json:"brands,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Gender      string   `json:"gender,omitempty"`
	AgeGroup    string   `json:"age_group,omitempty"`
	InStock     *bool    `json:"in_stock,omitempty"`
	IsNew       *bool    `json:"is_new,omitempty"`
	IsSale      *bool    `json:"is_sale,omitempty"`
	IsFeatured  *bool    `json:"is_featured,omitempty"`
	Sort        string   `json:"sort"`
	Page        int      `json:"page"`
	Limit       int      `json:"limit"`
	UserID      string   `json:"user_id,omitempty"`
}

// PriceBounds returns the effective price range, applying defaults.
func (o *SearchOptions) PriceBounds() (int64, int64) {
	minPrice, maxPrice := DefaultMinPrice, DefaultMaxPrice
	if o.MinPrice != nil && *o.MinPrice >= 0 {
		minPrice = *o.MinPrice
	}
	if o.MaxPrice != nil && *o.MaxPrice >= 0 {
		maxPrice = *o.MaxPrice
	}
	return minPrice, maxPrice
}

// Pagination describes the page that was returned.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// SearchMetadata carries everything attached to a result page besides the
// products themselves.
type SearchMetadata struct {
	SearchTerms      []string        `json:"search_terms"`
	AppliedFilters   []string        `json:"applied_filters"`
	Recommendations  []RankedProduct `json:"recommendations"`
	TrendingSearches []TrendingQuery `json:"trending_searches"`
	SuggestedFilters Facets          `json:"suggested_filters"`
}

// SearchResult is the response of a search call.
type SearchResult struct {
	Success    bool            `json:"success"`
	Data       []RankedProduct `json:"data"`
	Pagination Pagination      `json:"pagination"`
	Metadata   SearchMetadata  `json:"metadata"`
	TookMs     int64           `json:"took_ms"`
}

// Suggestion types.
const (
	SuggestionProduct = "product"
	SuggestionPopular = "popular"
)

// Suggestion is a single autocomplete entry.
type Suggestion struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Category string `json:"category,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Price    *int64 `json:"price,omitempty"`
	Count    int64  `json:"count,omitempty"`
}

// PriceRange is one bucket of the price histogram.
type PriceRange struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Facets lists the refinements available for a result page.
type Facets struct {
	Categories  []string     `json:"categories"`
	Brands      []string     `json:"brands"`
	Colors      []string     `json:"colors"`
	Sizes       []string     `json:"sizes"`
	PriceRanges []PriceRange `json:"price_ranges"`
}
