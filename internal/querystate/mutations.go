package querystate

import (
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// FilterPatch changes structured filters. Unset fields are left alone;
// fields set to nil are removed.
type FilterPatch struct {
	Status     domain.Optional[domain.TicketStatus]
	Priority   domain.Optional[domain.TicketPriority]
	CategoryID domain.Optional[int]
	DateFrom   domain.Optional[time.Time]
	DateTo     domain.Optional[time.Time]
	PageSize   domain.Optional[int]
}

func setOptional[T any](p Params, key string, o domain.Optional[T], format func(T) string) Params {
	if !o.Set {
		return p
	}
	if o.Value == nil {
		return p.Without(key)
	}
	return p.With(key, format(*o.Value))
}

// WithFilters applies f and resets the page to 1.
func WithFilters(p Params, f FilterPatch) Params {
	p = setOptional(p, KeyStatus, f.Status, func(s domain.TicketStatus) string { return string(s) })
	p = setOptional(p, KeyPriority, f.Priority, func(v domain.TicketPriority) string { return string(v) })
	p = setOptional(p, KeyCategory, f.CategoryID, func(id int) string {
		if id <= 0 {
			return ""
		}
		return strconv.Itoa(id)
	})
	p = setOptional(p, KeyFrom, f.DateFrom, func(t time.Time) string { return t.Format(DateLayout) })
	p = setOptional(p, KeyTo, f.DateTo, func(t time.Time) string { return t.Format(DateLayout) })
	p = setOptional(p, KeyPageSize, f.PageSize, strconv.Itoa)
	return p.With(KeyPage, "1")
}

// WithText commits free text, trimmed, and resets the page to 1.
func WithText(p Params, text string) Params {
	return p.With(KeyText, strings.TrimSpace(text)).With(KeyPage, "1")
}

// WithPage moves to page n, never below 1.
func WithPage(p Params, n int) Params {
	if n < 1 {
		n = 1
	}
	return p.With(KeyPage, strconv.Itoa(n))
}

// Sort reads the active sort of p. A missing column reads as unsorted.
func Sort(p Params) SortState {
	col := domain.OrderBy(p.Get(KeyOrderBy))
	if !col.Valid() {
		return SortState{}
	}
	dir := domain.OrderDir(p.Get(KeyOrderDir))
	if !dir.Valid() {
		dir = domain.DefaultOrderDir
	}
	return SortState{Column: col, Dir: dir}
}

// WithSort toggles the sort on column key and resets the page to 1. The
// parameters are returned unchanged when key is not sortable.
func WithSort(p Params, key string) (Params, bool) {
	current := Sort(p)
	if !current.Sorted() {
		// An absent column means the default ordering is in effect.
		current = SortState{Column: domain.DefaultOrderBy, Dir: domain.DefaultOrderDir}
	}
	next, changed := ToggleSort(current, key)
	if !changed {
		return p, false
	}
	return p.
		With(KeyOrderBy, string(next.Column)).
		With(KeyOrderDir, string(next.Dir)).
		With(KeyPage, "1"), true
}

// Touched bumps the refresh key so an unchanged query is fetched again.
func Touched(p Params, at time.Time) Params {
	return p.With(KeyRefresh, strconv.FormatInt(at.UnixMilli(), 10))
}

// Cleared returns the default parameters. Every other key is dropped.
func Cleared() Params {
	return Params{}.
		With(KeyOrderBy, string(domain.DefaultOrderBy)).
		With(KeyOrderDir, string(domain.DefaultOrderDir)).
		With(KeyPage, strconv.Itoa(domain.DefaultPage)).
		With(KeyPageSize, strconv.Itoa(domain.DefaultPageSize))
}
