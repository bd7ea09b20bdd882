package view

// DefaultPageSize is the number of root tasks per page.
const DefaultPageSize = 25

// Pagination is the current page of the root sequence. Page is 1-based.
// Only root tasks count against PageSize; expanded children are extra rows.
type Pagination struct {
	Page     int
	PageSize int
}

// NewPagination starts at page 1. Sizes below 1 fall back to DefaultPageSize.
func NewPagination(pageSize int) Pagination {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return Pagination{Page: 1, PageSize: pageSize}
}

func (p Pagination) size() int {
	if p.PageSize < 1 {
		return DefaultPageSize
	}
	return p.PageSize
}

// TotalPages returns ceil(total / PageSize), never less than 1.
func (p Pagination) TotalPages(total int) int {
	size := p.size()
	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	return pages
}

// Bounds returns the [start, end) slice indices of the current page for a
// sequence of length total.
func (p Pagination) Bounds(total int) (start, end int) {
	size := p.size()
	page := p.Page
	if page < 1 {
		page = 1
	}
	start = (page - 1) * size
	if start > total {
		start = total
	}
	end = start + size
	if end > total {
		end = total
	}
	return start, end
}

// HasPrev reports whether a previous page exists.
func (p Pagination) HasPrev() bool {
	return p.Page > 1
}

// HasNext reports whether a next page exists for a sequence of length total.
func (p Pagination) HasNext(total int) bool {
	return p.Page < p.TotalPages(total)
}

// SetPage moves to page if it lies within [1, TotalPages(total)]. Out of
// range requests are refused and leave the page unchanged.
func (p *Pagination) SetPage(page, total int) bool {
	if page < 1 || page > p.TotalPages(total) {
		return false
	}
	p.Page = page
	return true
}

// Clamp pulls the current page back into range after the sequence shrank.
func (p *Pagination) Clamp(total int) {
	if p.Page < 1 {
		p.Page = 1
	}
	if last := p.TotalPages(total); p.Page > last {
		p.Page = last
	}
}

// Window returns the items of the current page.
func Window[T any](items []T, p Pagination) []T {
	start, end := p.Bounds(len(items))
	return items[start:end]
}
