package domain

import (
	"strconv"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusDraft           TicketStatus = "Draft"
	TicketStatusSubmitted       TicketStatus = "Submitted"
	TicketStatusPendingApproval TicketStatus = "PendingApproval"
	TicketStatusApproved        TicketStatus = "Approved"
	TicketStatusRejected        TicketStatus = "Rejected"
	TicketStatusInProgress      TicketStatus = "InProgress"
	TicketStatusResolved        TicketStatus = "Resolved"
	TicketStatusClosed          TicketStatus = "Closed"
)

// TicketStatuses lists every status in workflow order.
var TicketStatuses = []TicketStatus{
	TicketStatusDraft,
	TicketStatusSubmitted,
	TicketStatusPendingApproval,
	TicketStatusApproved,
	TicketStatusRejected,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Low"
	TicketPriorityMedium TicketPriority = "Medium"
	TicketPriorityHigh   TicketPriority = "High"
	TicketPriorityUrgent TicketPriority = "Urgent"
)

// TicketPriorities lists every priority from lowest to highest.
var TicketPriorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
	TicketPriorityUrgent,
}

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	for _, candidate := range TicketPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ApprovalOutcome records how the last approval round ended.
type ApprovalOutcome string

const (
	ApprovalOutcomeApproved  ApprovalOutcome = "Approved"
	ApprovalOutcomeRejected  ApprovalOutcome = "Rejected"
	ApprovalOutcomeCancelled ApprovalOutcome = "Cancelled"
)

// Valid reports whether o is a known outcome.
func (o ApprovalOutcome) Valid() bool {
	switch o {
	case ApprovalOutcomeApproved, ApprovalOutcomeRejected, ApprovalOutcomeCancelled:
		return true
	}
	return false
}

// PersonRef is a related person with display fields copied at read time.
type PersonRef struct {
	ID    int
	Title string
	Email string
}

// Ticket is the aggregate for helpdesk requests.
type Ticket struct {
	ID            int
	Title         string
	Description   string
	CategoryID    int
	CategoryTitle string

	Priority TicketPriority
	Status   TicketStatus

	Requester  PersonRef
	Approver   *PersonRef
	AssignedTo *PersonRef

	SLAHours            *float64
	DueDate             *time.Time
	ResolutionDate      *time.Time
	LastApprovalOutcome *ApprovalOutcome
	TicketNumber        *string

	Created  time.Time
	Modified time.Time
}

// DueState classifies how close a ticket is to its due date.
type DueState string

const (
	DueStateNone    DueState = "none"
	DueStateSoon    DueState = "soon"
	DueStateOverdue DueState = "overdue"
)

// dueSoonDays covers today, tomorrow and the day after.
const dueSoonDays = 2

// DueState compares calendar days of the due date and now in now's location.
func (t *Ticket) DueState(now time.Time) DueState {
	if t.DueDate == nil {
		return DueStateNone
	}
	loc := now.Location()
	due := t.DueDate.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	dueDay := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, loc)

	diffDays := int(dueDay.Sub(today).Round(24*time.Hour) / (24 * time.Hour))
	switch {
	case diffDays < 0:
		return DueStateOverdue
	case diffDays <= dueSoonDays:
		return DueStateSoon
	default:
		return DueStateNone
	}
}

// DisplayNumber returns the ticket number or a #id fallback.
func (t *Ticket) DisplayNumber() string {
	if t.TicketNumber != nil && *t.TicketNumber != "" {
		return *t.TicketNumber
	}
	return "#" + strconv.Itoa(t.ID)
}

// TicketSearchResult is one page of tickets plus the approximate total.
type TicketSearchResult struct {
	Items []Ticket
	Total int
	// TotalCapped is true when the count hit the store ceiling, meaning
	// Total (and any page count derived from it) may be undercounted.
	TotalCapped bool
}
