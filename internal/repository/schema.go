package repository

import (
	"github.com/spec-kit/helpdesk/internal/liststore"
	tq "github.com/spec-kit/helpdesk/internal/ticketquery"
)

// ListTitles names the lists the helpdesk runs on.
type ListTitles struct {
	Tickets    string
	Categories string
	Users      string
}

// DefaultListTitles returns the stock list names.
func DefaultListTitles() ListTitles {
	return ListTitles{Tickets: "Tickets", Categories: "Categories", Users: "Users"}
}

// Schema declares the lookups of the tickets list.
func (t ListTitles) Schema() liststore.Schema {
	return liststore.Schema{
		t.Tickets: {
			tq.LookupCategory:   {List: t.Categories, Key: tq.FieldCategoryID},
			tq.LookupRequester:  {List: t.Users, Key: tq.FieldRequesterID},
			tq.LookupApprover:   {List: t.Users, Key: tq.FieldApproverID},
			tq.LookupAssignedTo: {List: t.Users, Key: tq.FieldAssignedToID},
		},
	}
}
