package pagination

import "math"

// Params holds validated pagination parameters.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// Default page parameters.
const (
	DefaultPage    = 1
	DefaultPerPage = 20
)

// Clamp builds Params from raw values. A page below 1 becomes 1, a
// non-positive perPage becomes DefaultPerPage, and perPage is capped at
// maxPerPage. page is capped so Offset never overflows int.
func Clamp(page, perPage, maxPerPage int) Params {
	if page < 1 {
		page = DefaultPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if maxPerPage > 0 && perPage > maxPerPage {
		perPage = maxPerPage
	}
	if maxPage := math.MaxInt / perPage; page > maxPage {
		page = maxPage
	}
	return Params{
		Page:    page,
		PerPage: perPage,
		Offset:  (page - 1) * perPage,
	}
}

// TotalPages returns the number of pages needed for totalCount items.
func (p Params) TotalPages(totalCount int) int {
	if p.PerPage <= 0 || totalCount <= 0 {
		return 0
	}
	pages := totalCount / p.PerPage
	if totalCount%p.PerPage > 0 {
		pages++
	}
	return pages
}

// Result is the paginated list envelope served by platform services.
type Result[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NewResult creates a paginated result.
func NewResult[T any](data []T, totalCount int, params Params) Result[T] {
	if data == nil {
		data = []T{}
	}
	totalPages := params.TotalPages(totalCount)
	return Result[T]{
		Data:       data,
		TotalCount: totalCount,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
	}
}
