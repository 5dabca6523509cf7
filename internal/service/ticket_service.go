package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Clock      clockwork.Clock
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		clock:      deps.Clock,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// CreateDraft stores a new Draft ticket. The requester defaults to the
// caller and a ticket number is generated when none is given.
func (s *TicketService) CreateDraft(ctx context.Context, actor domain.User, in domain.NewTicket) (*domain.Ticket, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := validateNewTicket(in); err != nil {
		return nil, err
	}
	if in.Priority == "" {
		in.Priority = domain.TicketPriorityLow
	}
	if in.RequesterID <= 0 {
		in.RequesterID = actor.ID
	}
	if in.TicketNumber == nil || strings.TrimSpace(*in.TicketNumber) == "" {
		number := generateTicketNumber()
		in.TicketNumber = &number
	}

	id, err := s.tickets.CreateDraft(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDrafted,
		TicketID: id,
		Actor:    actorOf(actor),
		Payload: events.TicketDraftedPayload{
			Title:        in.Title,
			CategoryID:   in.CategoryID,
			Priority:     in.Priority,
			RequesterID:  in.RequesterID,
			TicketNumber: *in.TicketNumber,
		},
	})
	return s.tickets.GetByID(ctx, id)
}

// Submit moves a ticket to Submitted, writing patch in the same update.
func (s *TicketService) Submit(ctx context.Context, actor domain.User, id int, patch *domain.TicketPatch) (*domain.Ticket, error) {
	var fields []string
	if patch != nil {
		if err := validatePatch(*patch); err != nil {
			return nil, err
		}
		fields = patchFields(*patch)
	}
	if err := s.tickets.Submit(ctx, id, patch); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketSubmitted,
		TicketID: id,
		Actor:    actorOf(actor),
		Payload:  events.TicketSubmittedPayload{Fields: fields},
	})
	return s.tickets.GetByID(ctx, id)
}

// Update writes the fields set in patch. An empty patch is rejected.
func (s *TicketService) Update(ctx context.Context, actor domain.User, id int, patch domain.TicketPatch) (*domain.Ticket, error) {
	fields := patchFields(patch)
	if len(fields) == 0 {
		return nil, apperrors.NewValidationError("patch has no fields", nil)
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	if err := s.tickets.Update(ctx, id, patch); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: id,
		Actor:    actorOf(actor),
		Payload:  events.TicketUpdatedPayload{Fields: fields, NewStatus: patch.Status.Value},
	})
	return s.tickets.GetByID(ctx, id)
}

// Remove deletes a ticket.
func (s *TicketService) Remove(ctx context.Context, actor domain.User, id int) error {
	if err := s.tickets.Remove(ctx, id); err != nil {
		return err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: id,
		Actor:    actorOf(actor),
	})
	return nil
}

// Get fetches one ticket.
func (s *TicketService) Get(ctx context.Context, id int) (*domain.Ticket, error) {
	return s.tickets.GetByID(ctx, id)
}

// Search runs a ticket query.
func (s *TicketService) Search(ctx context.Context, q domain.TicketQuery) (*domain.TicketSearchResult, error) {
	result, err := s.tickets.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordSearch(result.TotalCapped)
	return result, nil
}

// Now is the service clock, used to classify due dates.
func (s *TicketService) Now() time.Time {
	return s.clock.Now()
}

// ActingAs binds the service to a caller for clients that search and
// delete on one user's behalf.
func (s *TicketService) ActingAs(actor domain.User) *ActorTickets {
	return &ActorTickets{svc: s, actor: actor}
}

// ActorTickets searches and removes tickets as one caller.
type ActorTickets struct {
	svc   *TicketService
	actor domain.User
}

func (a *ActorTickets) Search(ctx context.Context, q domain.TicketQuery) (*domain.TicketSearchResult, error) {
	return a.svc.Search(ctx, q)
}

func (a *ActorTickets) Remove(ctx context.Context, id int) error {
	return a.svc.Remove(ctx, a.actor, id)
}

func validateNewTicket(in domain.NewTicket) error {
	details := map[string]any{}
	if in.Title == "" {
		details["title"] = "required"
	}
	if in.CategoryID <= 0 {
		details["category_id"] = "must be positive"
	}
	if in.Priority != "" && !in.Priority.Valid() {
		details["priority"] = "unknown priority"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid ticket", details)
	}
	return nil
}

func validatePatch(p domain.TicketPatch) error {
	details := map[string]any{}
	if p.Title.Set && (p.Title.Value == nil || strings.TrimSpace(*p.Title.Value) == "") {
		details["title"] = "cannot be empty"
	}
	if p.Status.Set && (p.Status.Value == nil || !p.Status.Value.Valid()) {
		details["status"] = "unknown status"
	}
	if p.Priority.Set && (p.Priority.Value == nil || !p.Priority.Value.Valid()) {
		details["priority"] = "unknown priority"
	}
	if p.LastApprovalOutcome.Set && p.LastApprovalOutcome.Value != nil && !p.LastApprovalOutcome.Value.Valid() {
		details["last_approval_outcome"] = "unknown outcome"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid ticket patch", details)
	}
	return nil
}

// patchFields lists the json names of the fields set in p.
func patchFields(p domain.TicketPatch) []string {
	candidates := []struct {
		name string
		set  bool
	}{
		{"title", p.Title.Set},
		{"description", p.Description.Set},
		{"category_id", p.CategoryID.Set},
		{"priority", p.Priority.Set},
		{"status", p.Status.Set},
		{"requester_id", p.RequesterID.Set},
		{"approver_id", p.ApproverID.Set},
		{"assigned_to_id", p.AssignedToID.Set},
		{"sla_hours", p.SLAHours.Set},
		{"due_date", p.DueDate.Set},
		{"resolution_date", p.ResolutionDate.Set},
		{"last_approval_outcome", p.LastApprovalOutcome.Set},
		{"ticket_number", p.TicketNumber.Set},
	}
	var fields []string
	for _, c := range candidates {
		if c.set {
			fields = append(fields, c.name)
		}
	}
	return fields
}

func generateTicketNumber() string {
	return "HD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func actorOf(u domain.User) events.Actor {
	return events.Actor{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed",
			zap.String("event_type", string(event.Type)),
			zap.Int("ticket_id", event.TicketID),
			zap.Error(err))
	}
}
