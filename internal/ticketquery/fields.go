package ticketquery

// Field names of the tickets list.
const (
	FieldTitle               = "Title"
	FieldDescription         = "Description"
	FieldCategoryID          = "CategoryId"
	FieldPriority            = "Priority"
	FieldStatus              = "Status"
	FieldRequesterID         = "RequesterId"
	FieldApproverID          = "ApproverId"
	FieldAssignedToID        = "AssignedToId"
	FieldSLAHours            = "SLAHours"
	FieldDueDate             = "DueDate"
	FieldResolutionDate      = "ResolutionDate"
	FieldLastApprovalOutcome = "LastApprovalOutcome"
	FieldTicketNumber        = "TicketNumber"
)

// Lookups of the tickets list.
const (
	LookupCategory   = "Category"
	LookupRequester  = "Requester"
	LookupApprover   = "Approver"
	LookupAssignedTo = "AssignedTo"
)

// Fields of the users and categories lists read through lookups.
const (
	FieldPersonTitle = "Title"
	FieldPersonEmail = "EMail"
)
