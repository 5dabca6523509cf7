package repository

import (
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/liststore"
	tq "github.com/spec-kit/helpdesk/internal/ticketquery"
)

// ticketProjection selects every ticket field plus the display fields of
// its lookups.
var ticketProjection = liststore.Projection{
	Select: []string{
		liststore.FieldID,
		tq.FieldTitle,
		tq.FieldDescription,
		tq.FieldCategoryID,
		tq.LookupCategory + "/" + liststore.FieldID,
		tq.LookupCategory + "/" + tq.FieldTitle,
		tq.FieldPriority,
		tq.FieldStatus,
		tq.FieldRequesterID,
		tq.LookupRequester + "/" + liststore.FieldID,
		tq.LookupRequester + "/" + tq.FieldPersonTitle,
		tq.LookupRequester + "/" + tq.FieldPersonEmail,
		tq.FieldApproverID,
		tq.LookupApprover + "/" + liststore.FieldID,
		tq.LookupApprover + "/" + tq.FieldPersonTitle,
		tq.LookupApprover + "/" + tq.FieldPersonEmail,
		tq.FieldAssignedToID,
		tq.LookupAssignedTo + "/" + liststore.FieldID,
		tq.LookupAssignedTo + "/" + tq.FieldPersonTitle,
		tq.LookupAssignedTo + "/" + tq.FieldPersonEmail,
		tq.FieldSLAHours,
		tq.FieldDueDate,
		tq.FieldResolutionDate,
		tq.FieldLastApprovalOutcome,
		tq.FieldTicketNumber,
		liststore.FieldCreated,
		liststore.FieldModified,
	},
	Expand: []string{tq.LookupCategory, tq.LookupRequester, tq.LookupApprover, tq.LookupAssignedTo},
}

// countProjection is the identity-only projection used for counting.
var countProjection = liststore.Projection{Select: []string{liststore.FieldID}}

type rawLookup struct {
	ID    *int   `mapstructure:"Id"`
	Title string `mapstructure:"Title"`
}

type rawPerson struct {
	ID    *int   `mapstructure:"Id"`
	Title string `mapstructure:"Title"`
	Email string `mapstructure:"EMail"`
}

type rawTicket struct {
	ID          int     `mapstructure:"Id"`
	Title       *string `mapstructure:"Title"`
	Description *string `mapstructure:"Description"`

	CategoryID *int       `mapstructure:"CategoryId"`
	Category   *rawLookup `mapstructure:"Category"`

	Priority *string `mapstructure:"Priority"`
	Status   *string `mapstructure:"Status"`

	RequesterID  *int       `mapstructure:"RequesterId"`
	Requester    *rawPerson `mapstructure:"Requester"`
	ApproverID   *int       `mapstructure:"ApproverId"`
	Approver     *rawPerson `mapstructure:"Approver"`
	AssignedToID *int       `mapstructure:"AssignedToId"`
	AssignedTo   *rawPerson `mapstructure:"AssignedTo"`

	SLAHours            *float64   `mapstructure:"SLAHours"`
	DueDate             *time.Time `mapstructure:"DueDate"`
	ResolutionDate      *time.Time `mapstructure:"ResolutionDate"`
	LastApprovalOutcome *string    `mapstructure:"LastApprovalOutcome"`
	TicketNumber        *string    `mapstructure:"TicketNumber"`

	Created  *time.Time `mapstructure:"Created"`
	Modified *time.Time `mapstructure:"Modified"`
}

func decodeItem(item liststore.Item, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339),
		Result:     out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(map[string]any(item))
}

// mapTicket converts a stored item. Each reference prefers the expanded
// lookup, then the raw foreign key, then a zero default.
func mapTicket(item liststore.Item) (domain.Ticket, error) {
	var raw rawTicket
	if err := decodeItem(item, &raw); err != nil {
		return domain.Ticket{}, err
	}

	ticket := domain.Ticket{
		ID:                  raw.ID,
		Title:               deref(raw.Title),
		Description:         deref(raw.Description),
		Priority:            domain.TicketPriorityLow,
		Status:              domain.TicketStatusDraft,
		SLAHours:            raw.SLAHours,
		DueDate:             raw.DueDate,
		ResolutionDate:      raw.ResolutionDate,
		TicketNumber:        raw.TicketNumber,
		LastApprovalOutcome: (*domain.ApprovalOutcome)(raw.LastApprovalOutcome),
	}
	if raw.Priority != nil && *raw.Priority != "" {
		ticket.Priority = domain.TicketPriority(*raw.Priority)
	}
	if raw.Status != nil && *raw.Status != "" {
		ticket.Status = domain.TicketStatus(*raw.Status)
	}

	if raw.Category != nil {
		ticket.CategoryTitle = raw.Category.Title
	}
	ticket.CategoryID = firstID(lookupID(raw.Category), raw.CategoryID)

	ticket.Requester = personRef(raw.Requester, raw.RequesterID)
	if raw.Approver != nil || raw.ApproverID != nil {
		ref := personRef(raw.Approver, raw.ApproverID)
		ticket.Approver = &ref
	}
	if raw.AssignedTo != nil || raw.AssignedToID != nil {
		ref := personRef(raw.AssignedTo, raw.AssignedToID)
		ticket.AssignedTo = &ref
	}

	if raw.Created != nil {
		ticket.Created = *raw.Created
	}
	if raw.Modified != nil {
		ticket.Modified = *raw.Modified
	}
	return ticket, nil
}

func personRef(p *rawPerson, fk *int) domain.PersonRef {
	if p == nil {
		return domain.PersonRef{ID: firstID(nil, fk)}
	}
	return domain.PersonRef{ID: firstID(p.ID, fk), Title: p.Title, Email: p.Email}
}

func lookupID(l *rawLookup) *int {
	if l == nil {
		return nil
	}
	return l.ID
}

func firstID(ids ...*int) int {
	for _, id := range ids {
		if id != nil {
			return *id
		}
	}
	return 0
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ticketPayload builds the write payload of a patch. Unset fields are
// omitted, cleared fields are written as null.
func ticketPayload(patch domain.TicketPatch) map[string]any {
	payload := map[string]any{}
	put(payload, tq.FieldTitle, patch.Title)
	put(payload, tq.FieldDescription, patch.Description)
	put(payload, tq.FieldCategoryID, patch.CategoryID)
	put(payload, tq.FieldPriority, patch.Priority)
	put(payload, tq.FieldStatus, patch.Status)
	put(payload, tq.FieldRequesterID, patch.RequesterID)
	put(payload, tq.FieldApproverID, patch.ApproverID)
	put(payload, tq.FieldAssignedToID, patch.AssignedToID)
	put(payload, tq.FieldSLAHours, patch.SLAHours)
	put(payload, tq.FieldDueDate, patch.DueDate)
	put(payload, tq.FieldResolutionDate, patch.ResolutionDate)
	put(payload, tq.FieldLastApprovalOutcome, patch.LastApprovalOutcome)
	put(payload, tq.FieldTicketNumber, patch.TicketNumber)
	return payload
}

func draftPayload(in domain.NewTicket) map[string]any {
	return map[string]any{
		tq.FieldTitle:        in.Title,
		tq.FieldDescription:  in.Description,
		tq.FieldCategoryID:   in.CategoryID,
		tq.FieldPriority:     string(in.Priority),
		tq.FieldStatus:       string(domain.TicketStatusDraft),
		tq.FieldRequesterID:  in.RequesterID,
		tq.FieldApproverID:   value(in.ApproverID),
		tq.FieldAssignedToID: value(in.AssignedToID),
		tq.FieldSLAHours:     value(in.SLAHours),
		tq.FieldDueDate:      value(in.DueDate),
		tq.FieldTicketNumber: value(in.TicketNumber),
	}
}

func put[T any](payload map[string]any, field string, o domain.Optional[T]) {
	if !o.Set {
		return
	}
	payload[field] = value(o.Value)
}

// value unwraps p into a plain store value; named string types are
// written as strings.
func value[T any](p *T) any {
	if p == nil {
		return nil
	}
	switch v := any(*p).(type) {
	case domain.TicketPriority:
		return string(v)
	case domain.TicketStatus:
		return string(v)
	case domain.ApprovalOutcome:
		return string(v)
	default:
		return v
	}
}
