// Package paging recovers page windows and approximate totals from stores
// that only support a row cap.
package paging

// MaxPageSize is the largest page a search returns.
const MaxPageSize = 100

// Window is a clamped page request.
type Window struct {
	Page     int
	PageSize int
}

// Clamp bounds pageSize to [1, MaxPageSize] and page to at least 1.
func Clamp(page, pageSize int) Window {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Window{Page: page, PageSize: pageSize}
}

// Offset is the index of the first row of the page.
func (w Window) Offset() int {
	return (w.Page - 1) * w.PageSize
}

// Top is the number of leading rows that must be fetched to cover the page.
func (w Window) Top() int {
	return w.Page * w.PageSize
}

// Slice returns rows[Offset, Top), truncated to what was fetched.
func Slice[T any](rows []T, w Window) []T {
	start := w.Offset()
	if start >= len(rows) {
		return []T{}
	}
	end := w.Top()
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// TotalPages is ceil(total/pageSize), never less than 1.
func TotalPages(total, pageSize int) int {
	if pageSize < 1 {
		pageSize = 1
	}
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// ClampPage bounds page to [1, totalPages].
func ClampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Capped reports whether a count reached the store ceiling, in which case
// the real total may be larger.
func Capped(count, ceiling int) bool {
	return ceiling > 0 && count >= ceiling
}
