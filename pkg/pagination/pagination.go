// Package pagination pages through lists the API returns in full.
package pagination

// MaxPerPage caps the page size.
const MaxPerPage = 100

// Params selects one page.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// DefaultParams returns the first page of 20.
func DefaultParams() Params {
	return Params{Page: 1, PerPage: 20}
}

// Normalize replaces out-of-range values: pages start at 1 and page sizes
// fall back to 20 when not positive and are capped at MaxPerPage.
func (p Params) Normalize() Params {
	d := DefaultParams()
	if p.Page < 1 {
		p.Page = d.Page
	}
	if p.PerPage < 1 {
		p.PerPage = d.PerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

// Offset is the index of the first item on the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Result is one page of a list.
type Result[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// Paginate slices items down to the page p selects. A page past the end
// yields no data but still reports the totals.
func Paginate[T any](items []T, p Params) Result[T] {
	p = p.Normalize()
	total := len(items)

	totalPages := total / p.PerPage
	if total%p.PerPage > 0 {
		totalPages++
	}

	start := min(p.Offset(), total)
	end := min(start+p.PerPage, total)

	return Result[T]{
		Data:       items[start:end],
		TotalCount: total,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: totalPages,
		HasNext:    p.Page < totalPages,
		HasPrev:    p.Page > 1,
	}
}
