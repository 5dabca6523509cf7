package ticketquery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/liststore"
)

func intPtr(v int) *int { return &v }

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name       string
		query      domain.TicketQuery
		wantFilter string
		wantOrder  liststore.Order
	}{
		{
			name:       "empty query has no clauses and default order",
			query:      domain.TicketQuery{},
			wantFilter: "",
			wantOrder:  liststore.Order{Field: "Created"},
		},
		{
			name: "status priority and category",
			query: domain.TicketQuery{
				Status:     domain.TicketStatusApproved,
				Priority:   domain.TicketPriorityHigh,
				CategoryID: intPtr(3),
				OrderBy:    domain.OrderByDueDate,
				OrderDir:   domain.OrderAsc,
			},
			wantFilter: "Status eq 'Approved' and Priority eq 'High' and Category/Id eq 3",
			wantOrder:  liststore.Order{Field: "DueDate", Ascending: true},
		},
		{
			name:       "text is trimmed and lowercased",
			query:      domain.TicketQuery{Text: "  roUter "},
			wantFilter: "(substringof('router',Title) or substringof('router',Description))",
			wantOrder:  liststore.Order{Field: "Created"},
		},
		{
			name:       "blank text is ignored",
			query:      domain.TicketQuery{Text: "   "},
			wantFilter: "",
			wantOrder:  liststore.Order{Field: "Created"},
		},
		{
			name:       "quotes are doubled",
			query:      domain.TicketQuery{Text: "it's"},
			wantFilter: "(substringof('it''s',Title) or substringof('it''s',Description))",
			wantOrder:  liststore.Order{Field: "Created"},
		},
		{
			name: "date range spans whole days",
			query: domain.TicketQuery{
				DateFrom: day(2024, 3, 1),
				DateTo:   day(2024, 3, 31),
				OrderBy:  domain.OrderByModified,
			},
			wantFilter: "Created ge datetime'2024-03-01T00:00:00.000Z' and Created le datetime'2024-03-31T23:59:59.999Z'",
			wantOrder:  liststore.Order{Field: "Modified"},
		},
		{
			name: "invalid values contribute nothing",
			query: domain.TicketQuery{
				Status:     "Bogus",
				Priority:   "Critical",
				CategoryID: intPtr(0),
				OrderBy:    "Title",
				OrderDir:   "sideways",
			},
			wantFilter: "",
			wantOrder:  liststore.Order{Field: "Created"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compile(tt.query, time.UTC)
			assert.Equal(t, tt.wantFilter, got.Filter.String())
			assert.Equal(t, tt.wantOrder, got.Order)
		})
	}
}

func TestCompile_DayBoundariesInLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	got := Compile(domain.TicketQuery{DateFrom: day(2024, 3, 1), DateTo: day(2024, 3, 1)}, loc)

	assert.Equal(t,
		"Created ge datetime'2024-02-29T22:00:00.000Z' and Created le datetime'2024-03-01T21:59:59.999Z'",
		got.Filter.String())
}

func TestCompile_OrderIndependentOfFilters(t *testing.T) {
	plain := Compile(domain.TicketQuery{}, nil)
	filtered := Compile(domain.TicketQuery{Text: "vpn", Status: domain.TicketStatusDraft}, nil)
	assert.Equal(t, plain.Order, filtered.Order)
}
