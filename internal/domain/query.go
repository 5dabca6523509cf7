package domain

import "time"

// OrderBy enumerates the sortable ticket columns.
type OrderBy string

const (
	OrderByCreated  OrderBy = "Created"
	OrderByModified OrderBy = "Modified"
	OrderByDueDate  OrderBy = "DueDate"
)

// Valid reports whether o is a sortable column.
func (o OrderBy) Valid() bool {
	switch o {
	case OrderByCreated, OrderByModified, OrderByDueDate:
		return true
	}
	return false
}

// OrderDir is the sort direction.
type OrderDir string

const (
	OrderAsc  OrderDir = "asc"
	OrderDesc OrderDir = "desc"
)

// Valid reports whether d is asc or desc.
func (d OrderDir) Valid() bool {
	return d == OrderAsc || d == OrderDesc
}

// Flip returns the opposite direction.
func (d OrderDir) Flip() OrderDir {
	if d == OrderAsc {
		return OrderDesc
	}
	return OrderAsc
}

const (
	DefaultOrderBy  = OrderByCreated
	DefaultOrderDir = OrderDesc
	DefaultPage     = 1
	DefaultPageSize = 20
)

// AllowedPageSizes are the page sizes a caller may select.
var AllowedPageSizes = []int{10, 20, 50, 100}

// AllowedPageSize reports whether n is one of AllowedPageSizes.
func AllowedPageSize(n int) bool {
	for _, size := range AllowedPageSizes {
		if size == n {
			return true
		}
	}
	return false
}

// TicketQuery is the declarative ticket search. Zero-valued optional fields
// mean "filter not applied".
type TicketQuery struct {
	Text       string
	Status     TicketStatus
	CategoryID *int
	Priority   TicketPriority
	// DateFrom and DateTo bound the creation time; only the calendar day is used.
	DateFrom *time.Time
	DateTo   *time.Time

	OrderBy  OrderBy
	OrderDir OrderDir
	Page     int
	PageSize int
}

// Normalized returns a copy with every field defaulted. Invalid enum values
// become unset; invalid numbers become their default.
func (q TicketQuery) Normalized() TicketQuery {
	if !q.Status.Valid() {
		q.Status = ""
	}
	if !q.Priority.Valid() {
		q.Priority = ""
	}
	if q.CategoryID != nil && *q.CategoryID <= 0 {
		q.CategoryID = nil
	}
	if !q.OrderBy.Valid() {
		q.OrderBy = DefaultOrderBy
	}
	if !q.OrderDir.Valid() {
		q.OrderDir = DefaultOrderDir
	}
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if !AllowedPageSize(q.PageSize) {
		q.PageSize = DefaultPageSize
	}
	return q
}
