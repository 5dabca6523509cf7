// Package ticketquery compiles a TicketQuery into list-store filter clauses
// and an ordering.
package ticketquery

import (
	"strings"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/liststore"
)

// Compiled is the list-store form of a ticket query.
type Compiled struct {
	Filter liststore.Filter
	Order  liststore.Order
}

// Compile translates q. Absent fields produce no clause. Date bounds cover
// whole calendar days in loc; a nil loc means UTC.
func Compile(q domain.TicketQuery, loc *time.Location) Compiled {
	if loc == nil {
		loc = time.UTC
	}
	q = q.Normalized()

	var filter liststore.Filter
	if q.Status != "" {
		filter = append(filter, liststore.Eq(FieldStatus, string(q.Status)))
	}
	if q.Priority != "" {
		filter = append(filter, liststore.Eq(FieldPriority, string(q.Priority)))
	}
	if q.CategoryID != nil {
		filter = append(filter, liststore.Eq(LookupCategory+"/"+liststore.FieldID, *q.CategoryID))
	}
	if q.DateFrom != nil {
		filter = append(filter, liststore.Ge(liststore.FieldCreated, StartOfDay(*q.DateFrom, loc)))
	}
	if q.DateTo != nil {
		filter = append(filter, liststore.Le(liststore.FieldCreated, EndOfDay(*q.DateTo, loc)))
	}
	if text := strings.ToLower(strings.TrimSpace(q.Text)); text != "" {
		filter = append(filter, liststore.Or{
			liststore.Substring{Field: FieldTitle, Text: text},
			liststore.Substring{Field: FieldDescription, Text: text},
		})
	}

	return Compiled{
		Filter: filter,
		Order: liststore.Order{
			Field:     string(q.OrderBy),
			Ascending: q.OrderDir == domain.OrderAsc,
		},
	}
}

// StartOfDay returns 00:00:00.000 of t's calendar day in loc. The calendar
// day is read from t as given, so a date parsed in UTC keeps its day.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns 23:59:59.999 of t's calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
}
