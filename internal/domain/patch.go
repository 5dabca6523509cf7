package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Optional distinguishes a field that is absent from a patch (Set false)
// from one explicitly set to a value or cleared (Set true, Value nil).
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some marks a field as set to v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Clear marks a field as explicitly cleared.
func Clear[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// UnmarshalJSON is only invoked for keys present in the document, so any
// call marks the field as set. A JSON null clears it.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// MarshalJSON writes the value or null.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// TicketPatch is a partial ticket update. Fields left unset are not written.
type TicketPatch struct {
	Title       Optional[string]         `json:"title"`
	Description Optional[string]         `json:"description"`
	CategoryID  Optional[int]            `json:"category_id"`
	Priority    Optional[TicketPriority] `json:"priority"`
	Status      Optional[TicketStatus]   `json:"status"`

	RequesterID  Optional[int] `json:"requester_id"`
	ApproverID   Optional[int] `json:"approver_id"`
	AssignedToID Optional[int] `json:"assigned_to_id"`

	SLAHours            Optional[float64]         `json:"sla_hours"`
	DueDate             Optional[time.Time]       `json:"due_date"`
	ResolutionDate      Optional[time.Time]       `json:"resolution_date"`
	LastApprovalOutcome Optional[ApprovalOutcome] `json:"last_approval_outcome"`
	TicketNumber        Optional[string]          `json:"ticket_number"`
}

// NewTicket carries the fields accepted when drafting a ticket.
type NewTicket struct {
	Title       string
	Description string
	CategoryID  int
	Priority    TicketPriority
	RequesterID int

	ApproverID   *int
	AssignedToID *int

	SLAHours     *float64
	DueDate      *time.Time
	TicketNumber *string
}
