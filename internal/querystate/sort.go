package querystate

import (
	"strings"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// SortState is the active sort. The zero value is unsorted.
type SortState struct {
	Column domain.OrderBy
	Dir    domain.OrderDir
}

// Sorted reports whether a column is active.
func (s SortState) Sorted() bool {
	return s.Column != ""
}

var sortableColumns = map[string]domain.OrderBy{
	"created":  domain.OrderByCreated,
	"modified": domain.OrderByModified,
	"duedate":  domain.OrderByDueDate,
}

// SortColumn resolves a column key, ignoring case. ok is false for
// columns that cannot be sorted.
func SortColumn(key string) (domain.OrderBy, bool) {
	col, ok := sortableColumns[strings.ToLower(strings.TrimSpace(key))]
	return col, ok
}

// ToggleSort returns the sort after a request on column key: the active
// column flips direction, any other sortable column starts ascending.
// changed is false when key is not sortable.
func ToggleSort(current SortState, key string) (next SortState, changed bool) {
	col, ok := SortColumn(key)
	if !ok {
		return current, false
	}
	if current.Sorted() && current.Column == col {
		dir := current.Dir
		if !dir.Valid() {
			dir = domain.DefaultOrderDir
		}
		return SortState{Column: col, Dir: dir.Flip()}, true
	}
	return SortState{Column: col, Dir: domain.OrderAsc}, true
}
