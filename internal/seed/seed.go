// Package seed fills an empty list store with demo users, categories and
// tickets.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/liststore"
	"github.com/spec-kit/helpdesk/internal/repository"
	tq "github.com/spec-kit/helpdesk/internal/ticketquery"
)

// Users are created in this order, so the first one gets id 1.
var Users = []domain.User{
	{Name: "Ana Ruiz", Email: "ana.ruiz@example.com"},
	{Name: "Ben Ode", Email: "ben.ode@example.com"},
	{Name: "Chen Wu", Email: "chen.wu@example.com"},
	{Name: "Dana Pike", Email: "dana.pike@example.com"},
}

// Categories are the demo category titles.
var Categories = []string{"Hardware", "Software", "Network", "Access", "Facilities"}

var subjects = []string{
	"Laptop does not boot",
	"VPN drops every hour",
	"Printer on floor 2 jams",
	"Request access to finance share",
	"Outlook keeps asking for password",
	"New monitor for Chen",
	"Wifi slow in meeting room",
	"Install drawing software",
	"Badge does not open door",
	"Phone headset crackles",
	"Reset MFA device",
	"Projector cable missing",
}

// Summary reports what Run created.
type Summary struct {
	Users      int
	Categories int
	Tickets    int
	Skipped    bool
}

// Options configure a seed run.
type Options struct {
	Titles  repository.ListTitles
	Tickets int
	Clock   clockwork.Clock
	Logger  *zap.Logger
}

// Run seeds store unless its categories list already holds items. Tickets
// go through repo so they carry the same fields the service writes.
func Run(ctx context.Context, store liststore.Store, repo repository.TicketRepository, opts Options) (Summary, error) {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Tickets <= 0 {
		opts.Tickets = 60
	}

	existing, err := store.List(opts.Titles.Categories).Items(ctx, liststore.Query{
		Projection: liststore.Projection{Select: []string{liststore.FieldID}},
		Top:        1,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("checking categories: %w", err)
	}
	if len(existing) > 0 {
		opts.Logger.Info("list store already seeded")
		return Summary{Skipped: true}, nil
	}

	var summary Summary
	userIDs := make([]int, 0, len(Users))
	for _, u := range Users {
		id, err := store.List(opts.Titles.Users).Add(ctx, map[string]any{
			tq.FieldPersonTitle: u.Name,
			tq.FieldPersonEmail: u.Email,
		})
		if err != nil {
			return summary, fmt.Errorf("adding user %q: %w", u.Name, err)
		}
		userIDs = append(userIDs, id)
		summary.Users++
	}

	categoryIDs := make([]int, 0, len(Categories))
	for _, title := range Categories {
		id, err := store.List(opts.Titles.Categories).Add(ctx, map[string]any{tq.FieldTitle: title})
		if err != nil {
			return summary, fmt.Errorf("adding category %q: %w", title, err)
		}
		categoryIDs = append(categoryIDs, id)
		summary.Categories++
	}

	now := opts.Clock.Now()
	for i := 0; i < opts.Tickets; i++ {
		in, patch := demoTicket(i, now, userIDs, categoryIDs)
		id, err := repo.CreateDraft(ctx, in)
		if err != nil {
			return summary, err
		}
		if err := repo.Update(ctx, id, patch); err != nil {
			return summary, err
		}
		summary.Tickets++
		// Demo rows need distinct creation times under a fake clock.
		if fake, ok := opts.Clock.(*clockwork.FakeClock); ok {
			fake.Advance(time.Minute)
		}
	}

	opts.Logger.Info("seeded list store",
		zap.Int("users", summary.Users),
		zap.Int("categories", summary.Categories),
		zap.Int("tickets", summary.Tickets))
	return summary, nil
}

// demoTicket spreads statuses, priorities, people and due dates over i.
func demoTicket(i int, now time.Time, users, categories []int) (domain.NewTicket, domain.TicketPatch) {
	status := domain.TicketStatuses[i%len(domain.TicketStatuses)]
	priority := domain.TicketPriorities[(i/2)%len(domain.TicketPriorities)]
	number := fmt.Sprintf("HD-DEMO%04d", i+1)
	requester := users[i%len(users)]

	in := domain.NewTicket{
		Title:        fmt.Sprintf("%s (%d)", subjects[i%len(subjects)], i+1),
		Description:  "Seeded demo ticket.",
		CategoryID:   categories[i%len(categories)],
		Priority:     priority,
		RequesterID:  requester,
		TicketNumber: &number,
	}
	if i%3 != 0 {
		sla := float64(8 * (1 + i%4))
		in.SLAHours = &sla
		// Due dates run from four days overdue to a week out.
		due := now.Add(time.Duration(i%12-4) * 24 * time.Hour)
		in.DueDate = &due
	}
	if i%4 == 1 {
		approver := users[0]
		in.ApproverID = &approver
	}

	patch := domain.TicketPatch{Status: domain.Some(status)}
	switch status {
	case domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusClosed:
		patch.AssignedToID = domain.Some(users[(i+1)%len(users)])
	}
	switch status {
	case domain.TicketStatusResolved, domain.TicketStatusClosed:
		patch.ResolutionDate = domain.Some(now.Add(-time.Duration(i%5) * time.Hour))
		patch.LastApprovalOutcome = domain.Some(domain.ApprovalOutcomeApproved)
	case domain.TicketStatusRejected:
		patch.LastApprovalOutcome = domain.Some(domain.ApprovalOutcomeRejected)
	}
	return in, patch
}
