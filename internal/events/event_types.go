package events

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketDrafted   EventType = "ticket_drafted"
	EventTicketSubmitted EventType = "ticket_submitted"
	EventTicketUpdated   EventType = "ticket_updated"
	EventTicketDeleted   EventType = "ticket_deleted"
)

// Actor is the authenticated caller behind an event.
type Actor struct {
	ID    int    `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  int       `json:"ticket_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// TicketDraftedPayload payload.
type TicketDraftedPayload struct {
	Title        string                `json:"title"`
	CategoryID   int                   `json:"category_id"`
	Priority     domain.TicketPriority `json:"priority"`
	RequesterID  int                   `json:"requester_id"`
	TicketNumber string                `json:"ticket_number"`
}

// TicketSubmittedPayload payload.
type TicketSubmittedPayload struct {
	// Fields lists the patch fields written along with the status change.
	Fields []string `json:"fields,omitempty"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	Fields    []string             `json:"fields"`
	NewStatus *domain.TicketStatus `json:"new_status,omitempty"`
}
