package handlers

import (
	"bytes"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/paging"
	"github.com/spec-kit/helpdesk/internal/querystate"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// sortLinkColumns are offered as sort toggles in search responses.
var sortLinkColumns = []string{"created", "modified", "duedate"}

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service  *service.TicketService
	location *time.Location
}

// NewTicketsHandler constructs handler. loc defines calendar days for the
// from and to parameters.
func NewTicketsHandler(ticketService *service.TicketService, loc *time.Location) *TicketsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TicketsHandler{service: ticketService, location: loc}
}

// Search GET /api/tickets. Parameters use the shareable list keys; a page
// past the end is answered with the last page.
func (h *TicketsHandler) Search(c *fiber.Ctx) error {
	ctx := c.UserContext()
	params := querystate.FromValues(queryValues(c))
	q := querystate.Decode(params, h.location)

	result, err := h.service.Search(ctx, q)
	if err != nil {
		return err
	}

	var requested *int
	if pages := paging.TotalPages(result.Total, q.PageSize); q.Page > pages {
		page := q.Page
		requested = &page
		q.Page = pages
		if result, err = h.service.Search(ctx, q); err != nil {
			return err
		}
	}

	canonical := querystate.Encode(q, params)
	pages := paging.TotalPages(result.Total, q.PageSize)
	meta := dto.SearchMeta{
		Page:          q.Page,
		PageSize:      q.PageSize,
		Total:         result.Total,
		TotalPages:    pages,
		TotalCapped:   result.TotalCapped,
		HasPrev:       q.Page > 1,
		HasNext:       q.Page < pages,
		RequestedPage: requested,
	}

	return c.JSON(fiber.Map{
		"data":  dto.ToTicketResponses(result.Items, h.service.Now()),
		"meta":  meta,
		"query": flatten(canonical.Values()),
		"links": searchLinks(c.Path(), canonical, meta),
	})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToTicketResponse(ticket, h.service.Now())})
}

// CreateTicket POST /api/tickets stores a draft.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.CreateDraft(c.UserContext(), principal.User, req.NewTicket())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.ToTicketResponse(ticket, h.service.Now())})
}

// SubmitTicket POST /api/tickets/:id/submit. The body is an optional patch.
func (h *TicketsHandler) SubmitTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	var patch *domain.TicketPatch
	if len(bytes.TrimSpace(c.Body())) > 0 {
		patch = &domain.TicketPatch{}
		if err := c.BodyParser(patch); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	ticket, err := h.service.Submit(c.UserContext(), principal.User, id, patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToTicketResponse(ticket, h.service.Now())})
}

// UpdateTicket PATCH /api/tickets/:id. Absent fields are kept; null clears.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	var patch domain.TicketPatch
	if err := c.BodyParser(&patch); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Update(c.UserContext(), principal.User, id, patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToTicketResponse(ticket, h.service.Now())})
}

// DeleteTicket DELETE /api/tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	if err := h.service.Remove(c.UserContext(), principal.User, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func requirePrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}

func ticketID(c *fiber.Ctx) (int, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

func queryValues(c *fiber.Ctx) url.Values {
	values := url.Values{}
	c.Request().URI().QueryArgs().VisitAll(func(key, value []byte) {
		values.Add(string(key), string(value))
	})
	return values
}

func flatten(values url.Values) map[string]string {
	out := make(map[string]string, len(values))
	for key := range values {
		out[key] = values.Get(key)
	}
	return out
}

func searchLinks(path string, p querystate.Params, meta dto.SearchMeta) dto.SearchLinks {
	link := func(p querystate.Params) string { return path + "?" + p.Encode() }
	links := dto.SearchLinks{
		Self:  link(p),
		First: link(querystate.WithPage(p, 1)),
		Last:  link(querystate.WithPage(p, meta.TotalPages)),
		Sort:  make(map[string]string, len(sortLinkColumns)),
		Clear: link(querystate.Cleared()),
	}
	if meta.HasPrev {
		links.Prev = link(querystate.WithPage(p, meta.Page-1))
	}
	if meta.HasNext {
		links.Next = link(querystate.WithPage(p, meta.Page+1))
	}
	for _, column := range sortLinkColumns {
		if next, ok := querystate.WithSort(p, column); ok {
			links.Sort[column] = link(next)
		}
	}
	return links
}
