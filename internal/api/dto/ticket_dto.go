package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTicketRequest payload. A missing requester defaults to the caller.
type CreateTicketRequest struct {
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	CategoryID   int                   `json:"category_id"`
	Priority     domain.TicketPriority `json:"priority"`
	RequesterID  *int                  `json:"requester_id"`
	ApproverID   *int                  `json:"approver_id"`
	AssignedToID *int                  `json:"assigned_to_id"`
	SLAHours     *float64              `json:"sla_hours"`
	DueDate      *time.Time            `json:"due_date"`
	TicketNumber *string               `json:"ticket_number"`
}

// NewTicket converts the request into the service input.
func (r CreateTicketRequest) NewTicket() domain.NewTicket {
	in := domain.NewTicket{
		Title:        r.Title,
		Description:  r.Description,
		CategoryID:   r.CategoryID,
		Priority:     r.Priority,
		ApproverID:   r.ApproverID,
		AssignedToID: r.AssignedToID,
		SLAHours:     r.SLAHours,
		DueDate:      r.DueDate,
		TicketNumber: r.TicketNumber,
	}
	if r.RequesterID != nil {
		in.RequesterID = *r.RequesterID
	}
	return in
}

// PersonResponse is a related person.
type PersonResponse struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// CategoryRef is the ticket's category.
type CategoryRef struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// TicketResponse is the API view of a ticket.
type TicketResponse struct {
	ID                  int                     `json:"id"`
	Number              string                  `json:"number"`
	Title               string                  `json:"title"`
	Description         string                  `json:"description"`
	Category            CategoryRef             `json:"category"`
	Priority            domain.TicketPriority   `json:"priority"`
	Status              domain.TicketStatus     `json:"status"`
	Requester           PersonResponse          `json:"requester"`
	Approver            *PersonResponse         `json:"approver"`
	AssignedTo          *PersonResponse         `json:"assigned_to"`
	SLAHours            *float64                `json:"sla_hours"`
	DueDate             *time.Time              `json:"due_date"`
	DueState            domain.DueState         `json:"due_state"`
	ResolutionDate      *time.Time              `json:"resolution_date"`
	LastApprovalOutcome *domain.ApprovalOutcome `json:"last_approval_outcome"`
	CreatedAt           time.Time               `json:"created_at"`
	ModifiedAt          time.Time               `json:"modified_at"`
}

// SearchMeta describes the page returned by a search. TotalCapped means
// Total stopped at the count ceiling. RequestedPage is set when the
// requested page was past the end and the last page was served instead.
type SearchMeta struct {
	Page          int  `json:"page"`
	PageSize      int  `json:"page_size"`
	Total         int  `json:"total"`
	TotalPages    int  `json:"total_pages"`
	TotalCapped   bool `json:"total_capped"`
	HasPrev       bool `json:"has_prev"`
	HasNext       bool `json:"has_next"`
	RequestedPage *int `json:"requested_page,omitempty"`
}

// SearchLinks are ready-made query strings for navigating the result.
type SearchLinks struct {
	Self  string            `json:"self"`
	First string            `json:"first"`
	Prev  string            `json:"prev,omitempty"`
	Next  string            `json:"next,omitempty"`
	Last  string            `json:"last"`
	Sort  map[string]string `json:"sort"`
	Clear string            `json:"clear"`
}

// CategoryOptionResponse is one picker entry.
type CategoryOptionResponse struct {
	Key      int    `json:"key"`
	Text     string `json:"text"`
	Disabled bool   `json:"disabled,omitempty"`
}

func person(p domain.PersonRef) PersonResponse {
	return PersonResponse{ID: p.ID, Name: p.Title, Email: p.Email}
}

func optionalPerson(p *domain.PersonRef) *PersonResponse {
	if p == nil {
		return nil
	}
	out := person(*p)
	return &out
}

// ToTicketResponse maps a ticket; now classifies the due date.
func ToTicketResponse(t *domain.Ticket, now time.Time) TicketResponse {
	return TicketResponse{
		ID:                  t.ID,
		Number:              t.DisplayNumber(),
		Title:               t.Title,
		Description:         t.Description,
		Category:            CategoryRef{ID: t.CategoryID, Title: t.CategoryTitle},
		Priority:            t.Priority,
		Status:              t.Status,
		Requester:           person(t.Requester),
		Approver:            optionalPerson(t.Approver),
		AssignedTo:          optionalPerson(t.AssignedTo),
		SLAHours:            t.SLAHours,
		DueDate:             t.DueDate,
		DueState:            t.DueState(now),
		ResolutionDate:      t.ResolutionDate,
		LastApprovalOutcome: t.LastApprovalOutcome,
		CreatedAt:           t.Created,
		ModifiedAt:          t.Modified,
	}
}

// ToTicketResponses maps a page of tickets.
func ToTicketResponses(tickets []domain.Ticket, now time.Time) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, ToTicketResponse(&tickets[i], now))
	}
	return out
}

// ToCategoryOptions maps picker entries.
func ToCategoryOptions(options []domain.CategoryOption) []CategoryOptionResponse {
	out := make([]CategoryOptionResponse, 0, len(options))
	for _, o := range options {
		out = append(out, CategoryOptionResponse{Key: o.Key, Text: o.Text, Disabled: o.Disabled})
	}
	return out
}
