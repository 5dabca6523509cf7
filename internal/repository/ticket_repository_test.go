package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/liststore"
	"github.com/spec-kit/helpdesk/internal/liststore/memory"
	"github.com/spec-kit/helpdesk/internal/paging"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

type fixture struct {
	store   *memory.Store
	clock   *clockwork.FakeClock
	repo    TicketRepository
	userID  int
	otherID int
	netID   int
}

func newFixture(t *testing.T, opts TicketRepositoryOptions) *fixture {
	t.Helper()
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))
	store := memory.New(DefaultListTitles().Schema(), clock)

	userID, err := store.List("Users").Add(ctx, map[string]any{"Title": "Ana Ruiz", "EMail": "ana@example.com"})
	require.NoError(t, err)
	otherID, err := store.List("Users").Add(ctx, map[string]any{"Title": "Ben Ode", "EMail": "ben@example.com"})
	require.NoError(t, err)
	netID, err := store.List("Categories").Add(ctx, map[string]any{"Title": "Network"})
	require.NoError(t, err)

	return &fixture{
		store:   store,
		clock:   clock,
		repo:    NewTicketRepository(store, opts, zap.NewNop()),
		userID:  userID,
		otherID: otherID,
		netID:   netID,
	}
}

func (f *fixture) draft(t *testing.T, title string) int {
	t.Helper()
	id, err := f.repo.CreateDraft(context.Background(), domain.NewTicket{
		Title:       title,
		Description: "details for " + title,
		CategoryID:  f.netID,
		Priority:    domain.TicketPriorityMedium,
		RequesterID: f.userID,
	})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	return id
}

func TestTicketRepository_CreateDraftAndSubmit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, TicketRepositoryOptions{})

	due := time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC)
	number := "HD-0001"
	id, err := f.repo.CreateDraft(ctx, domain.NewTicket{
		Title:        "VPN drops",
		Description:  "Every 10 minutes",
		CategoryID:   f.netID,
		Priority:     domain.TicketPriorityHigh,
		RequesterID:  f.userID,
		ApproverID:   &f.otherID,
		DueDate:      &due,
		TicketNumber: &number,
	})
	require.NoError(t, err)

	drafted, err := f.repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusDraft, drafted.Status)

	f.clock.Advance(time.Hour)
	require.NoError(t, f.repo.Submit(ctx, id, nil))

	got, err := f.repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusSubmitted, got.Status)
	assert.Equal(t, "VPN drops", got.Title)
	assert.Equal(t, "Every 10 minutes", got.Description)
	assert.Equal(t, domain.TicketPriorityHigh, got.Priority)
	assert.Equal(t, f.netID, got.CategoryID)
	assert.Equal(t, "Network", got.CategoryTitle)
	assert.Equal(t, domain.PersonRef{ID: f.userID, Title: "Ana Ruiz", Email: "ana@example.com"}, got.Requester)
	require.NotNil(t, got.Approver)
	assert.Equal(t, "Ben Ode", got.Approver.Title)
	assert.Nil(t, got.AssignedTo)
	require.NotNil(t, got.DueDate)
	assert.True(t, due.Equal(*got.DueDate))
	assert.Equal(t, "HD-0001", got.DisplayNumber())
	assert.Equal(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), got.Created.UTC())
	assert.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), got.Modified.UTC())
}

func TestTicketRepository_SubmitWithPatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, TicketRepositoryOptions{})
	id := f.draft(t, "Printer")

	patch := &domain.TicketPatch{
		Title:  domain.Some("Printer on floor 2"),
		Status: domain.Some(domain.TicketStatusClosed),
	}
	require.NoError(t, f.repo.Submit(ctx, id, patch))

	got, err := f.repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Printer on floor 2", got.Title)
	assert.Equal(t, domain.TicketStatusSubmitted, got.Status)
	assert.Equal(t, domain.TicketStatusClosed, *patch.Status.Value, "caller patch is not modified")
}

func TestTicketRepository_UpdateAbsentVersusNull(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, TicketRepositoryOptions{})

	sla := 8.0
	id, err := f.repo.CreateDraft(ctx, domain.NewTicket{
		Title:        "Laptop",
		Description:  "Keyboard broken",
		CategoryID:   f.netID,
		Priority:     domain.TicketPriorityLow,
		RequesterID:  f.userID,
		AssignedToID: &f.otherID,
		SLAHours:     &sla,
	})
	require.NoError(t, err)

	require.NoError(t, f.repo.Update(ctx, id, domain.TicketPatch{
		AssignedToID:        domain.Clear[int](),
		Priority:            domain.Some(domain.TicketPriorityUrgent),
		LastApprovalOutcome: domain.Some(domain.ApprovalOutcomeApproved),
	}))

	got, err := f.repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got.AssignedTo)
	assert.Equal(t, domain.TicketPriorityUrgent, got.Priority)
	assert.Equal(t, "Keyboard broken", got.Description)
	require.NotNil(t, got.SLAHours)
	assert.Equal(t, 8.0, *got.SLAHours)
	require.NotNil(t, got.LastApprovalOutcome)
	assert.Equal(t, domain.ApprovalOutcomeApproved, *got.LastApprovalOutcome)
	assert.Equal(t, domain.TicketStatusDraft, got.Status)
}

func TestTicketRepository_Remove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, TicketRepositoryOptions{})
	id := f.draft(t, "Old")

	require.NoError(t, f.repo.Remove(ctx, id))

	_, err := f.repo.GetByID(ctx, id)
	require.Error(t, err)
	assert.ErrorIs(t, err, liststore.ErrNotFound)
	assert.Contains(t, err.Error(), fmt.Sprintf("error fetching ticket %d", id))

	err = f.repo.Remove(ctx, id)
	assert.ErrorIs(t, err, liststore.ErrNotFound)
	assert.Contains(t, err.Error(), fmt.Sprintf("error deleting ticket %d", id))
}

func TestTicketRepository_SearchPagination(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, TicketRepositoryOptions{})

	for i := 1; i <= 25; i++ {
		id := f.draft(t, fmt.Sprintf("Approved %02d", i))
		require.NoError(t, f.repo.Update(ctx, id, domain.TicketPatch{Status: domain.Some(domain.TicketStatusApproved)}))
	}
	for i := 1; i <= 4; i++ {
		f.draft(t, fmt.Sprintf("Draft %02d", i))
	}

	result, err := f.repo.Search(ctx, domain.TicketQuery{
		Status:   domain.TicketStatusApproved,
		OrderBy:  domain.OrderByCreated,
		OrderDir: domain.OrderAsc,
		Page:     2,
		PageSize: 10,
	})
	require.NoError(t, err)

	titles := make([]string, len(result.Items))
	for i, ticket := range result.Items {
		titles[i] = ticket.Title
	}
	want := make([]string, 0, 10)
	for i := 11; i <= 20; i++ {
		want = append(want, fmt.Sprintf("Approved %02d", i))
	}
	assert.Equal(t, want, titles)
	assert.Equal(t, 25, result.Total)
	assert.False(t, result.TotalCapped)

	newest, err := f.repo.Search(ctx, domain.TicketQuery{
		Status:   domain.TicketStatusApproved,
		OrderBy:  domain.OrderByCreated,
		OrderDir: domain.OrderDesc,
		Page:     2,
		PageSize: 10,
	})
	require.NoError(t, err)
	titles = titles[:0]
	for _, ticket := range newest.Items {
		titles = append(titles, ticket.Title)
	}
	want = want[:0]
	for i := 15; i >= 6; i-- {
		want = append(want, fmt.Sprintf("Approved %02d", i))
	}
	assert.Equal(t, want, titles)
	assert.Equal(t, 25, newest.Total)
	assert.Equal(t, 3, paging.TotalPages(newest.Total, 10))

	last, err := f.repo.Search(ctx, domain.TicketQuery{
		Status:   domain.TicketStatusApproved,
		OrderDir: domain.OrderAsc,
		Page:     3,
		PageSize: 10,
	})
	require.NoError(t, err)
	assert.Len(t, last.Items, 5)

	beyond, err := f.repo.Search(ctx, domain.TicketQuery{Status: domain.TicketStatusApproved, Page: 9, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
	assert.Equal(t, 25, beyond.Total)
}

func TestTicketRepository_SearchDefaultsAndTextFilter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, TicketRepositoryOptions{})
	f.draft(t, "Router reboot")
	f.draft(t, "Printer jam")
	id := f.draft(t, "Wifi")
	require.NoError(t, f.repo.Update(ctx, id, domain.TicketPatch{Description: domain.Some("blame the ROUTER")}))

	result, err := f.repo.Search(ctx, domain.TicketQuery{Text: "roUter"})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "Wifi", result.Items[0].Title, "default order is newest first")
	assert.Equal(t, "Router reboot", result.Items[1].Title)
	assert.Equal(t, 2, result.Total)

	none, err := f.repo.Search(ctx, domain.TicketQuery{Text: "nothing matches"})
	require.NoError(t, err)
	assert.Empty(t, none.Items)
	assert.NotNil(t, none.Items)
	assert.Equal(t, 0, none.Total)
}

func TestTicketRepository_SearchCappedCount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, TicketRepositoryOptions{CountCeiling: 10})
	for i := 0; i < 12; i++ {
		f.draft(t, fmt.Sprintf("T%d", i))
	}

	result, err := f.repo.Search(ctx, domain.TicketQuery{PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, result.Total)
	assert.True(t, result.TotalCapped)
}

func TestTicketRepository_SearchDateRangeUsesLocation(t *testing.T) {
	ctx := context.Background()
	loc := time.FixedZone("UTC-5", -5*60*60)
	f := newFixture(t, TicketRepositoryOptions{Location: loc})

	// 08:00 UTC on March 1 is 03:00 on March 1 in UTC-5.
	f.draft(t, "early")
	f.clock.Advance(20 * time.Hour)
	// 04:01 UTC on March 2 is still March 1 in UTC-5.
	f.draft(t, "late")
	f.clock.Advance(2 * time.Hour)
	f.draft(t, "next day")

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	result, err := f.repo.Search(ctx, domain.TicketQuery{DateFrom: &day, DateTo: &day, OrderDir: domain.OrderAsc})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "early", result.Items[0].Title)
	assert.Equal(t, "late", result.Items[1].Title)
}

func TestMapTicket_Fallbacks(t *testing.T) {
	t.Run("foreign keys without expansion", func(t *testing.T) {
		ticket, err := mapTicket(liststore.Item{
			"Id":          float64(9),
			"CategoryId":  float64(4),
			"RequesterId": float64(2),
			"ApproverId":  nil,
			"Created":     "2024-03-01T08:00:00Z",
		})
		require.NoError(t, err)
		assert.Equal(t, 9, ticket.ID)
		assert.Equal(t, 4, ticket.CategoryID)
		assert.Equal(t, domain.PersonRef{ID: 2}, ticket.Requester)
		assert.Nil(t, ticket.Approver)
		assert.Equal(t, domain.TicketPriorityLow, ticket.Priority)
		assert.Equal(t, domain.TicketStatusDraft, ticket.Status)
		assert.Equal(t, "#9", ticket.DisplayNumber())
	})

	t.Run("expanded lookups win", func(t *testing.T) {
		ticket, err := mapTicket(liststore.Item{
			"Id":         1,
			"CategoryId": 4,
			"Category":   liststore.Item{"Id": 5, "Title": "Hardware"},
			"Requester":  liststore.Item{"Id": 3, "Title": "Ana", "EMail": "ana@example.com"},
			"AssignedTo": liststore.Item{"Id": 7, "Title": "Ben"},
			"Status":     "Resolved",
		})
		require.NoError(t, err)
		assert.Equal(t, 5, ticket.CategoryID)
		assert.Equal(t, "Hardware", ticket.CategoryTitle)
		assert.Equal(t, 3, ticket.Requester.ID)
		require.NotNil(t, ticket.AssignedTo)
		assert.Equal(t, domain.PersonRef{ID: 7, Title: "Ben"}, *ticket.AssignedTo)
		assert.Equal(t, domain.TicketStatusResolved, ticket.Status)
	})

	t.Run("nothing set", func(t *testing.T) {
		ticket, err := mapTicket(liststore.Item{"Id": 1})
		require.NoError(t, err)
		assert.Equal(t, 0, ticket.CategoryID)
		assert.Equal(t, 0, ticket.Requester.ID)
		assert.True(t, ticket.Created.IsZero())
	})
}

func TestTicketPayload(t *testing.T) {
	payload := ticketPayload(domain.TicketPatch{
		Title:      domain.Some("x"),
		ApproverID: domain.Clear[int](),
		Priority:   domain.Some(domain.TicketPriorityHigh),
	})
	assert.Equal(t, map[string]any{
		"Title":      "x",
		"ApproverId": nil,
		"Priority":   "High",
	}, payload)
	assert.Empty(t, ticketPayload(domain.TicketPatch{}))
}

// failingStore hands out lists whose every operation fails.
type failingStore struct{ err error }

func (s failingStore) List(string) liststore.List { return failingList(s) }
func (s failingStore) Ping(context.Context) error { return s.err }

type failingList struct{ err error }

func (l failingList) Items(context.Context, liststore.Query) ([]liststore.Item, error) {
	return nil, l.err
}

func (l failingList) GetByID(context.Context, int, liststore.Projection) (liststore.Item, error) {
	return nil, l.err
}

func (l failingList) Add(context.Context, map[string]any) (int, error) { return 0, l.err }

func (l failingList) Update(context.Context, int, map[string]any) error { return l.err }

func (l failingList) Delete(context.Context, int) error { return l.err }

func TestTicketRepository_Errors(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("list unavailable")
	repo := NewTicketRepository(failingStore{err: cause}, TicketRepositoryOptions{}, nil)

	_, err := repo.CreateDraft(ctx, domain.NewTicket{Title: "x"})
	assert.EqualError(t, err, "error creating draft ticket: list unavailable")
	assert.EqualError(t, repo.Submit(ctx, 4, nil), "error submitting ticket 4: list unavailable")
	assert.EqualError(t, repo.Update(ctx, 4, domain.TicketPatch{}), "error updating ticket 4: list unavailable")
	assert.EqualError(t, repo.Remove(ctx, 4), "error deleting ticket 4: list unavailable")
	_, err = repo.GetByID(ctx, 4)
	assert.EqualError(t, err, "error fetching ticket 4: list unavailable")
	_, err = repo.Search(ctx, domain.TicketQuery{})
	assert.EqualError(t, err, "error searching tickets: list unavailable")

	assert.ErrorIs(t, err, cause)
	assert.True(t, apperrors.IsOperationError(err))
}
