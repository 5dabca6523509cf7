package repository

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/liststore"
	"github.com/spec-kit/helpdesk/internal/paging"
	"github.com/spec-kit/helpdesk/internal/ticketquery"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

const tracerName = "github.com/spec-kit/helpdesk/internal/repository"

// TicketRepository encapsulates ticket persistence on a list store.
type TicketRepository interface {
	CreateDraft(ctx context.Context, in domain.NewTicket) (int, error)
	Submit(ctx context.Context, id int, patch *domain.TicketPatch) error
	Update(ctx context.Context, id int, patch domain.TicketPatch) error
	Remove(ctx context.Context, id int) error
	GetByID(ctx context.Context, id int) (*domain.Ticket, error)
	Search(ctx context.Context, q domain.TicketQuery) (*domain.TicketSearchResult, error)
}

// TicketRepositoryOptions configures the tickets list binding.
type TicketRepositoryOptions struct {
	ListTitle string
	// CountCeiling caps the identity-only count fetch.
	CountCeiling int
	// Location defines calendar days for date filters.
	Location *time.Location
}

type ticketRepository struct {
	list   liststore.List
	opts   TicketRepositoryOptions
	tracer trace.Tracer
	logger *zap.Logger
}

// NewTicketRepository binds the repository to the tickets list of store.
func NewTicketRepository(store liststore.Store, opts TicketRepositoryOptions, logger *zap.Logger) TicketRepository {
	if opts.ListTitle == "" {
		opts.ListTitle = "Tickets"
	}
	if opts.CountCeiling <= 0 || opts.CountCeiling > liststore.MaxTop {
		opts.CountCeiling = liststore.MaxTop
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ticketRepository{
		list:   store.List(opts.ListTitle),
		opts:   opts,
		tracer: otel.Tracer(tracerName),
		logger: logger,
	}
}

func (r *ticketRepository) CreateDraft(ctx context.Context, in domain.NewTicket) (int, error) {
	ctx, span := r.tracer.Start(ctx, "repository.create_draft")
	defer span.End()

	id, err := r.list.Add(ctx, draftPayload(in))
	if err != nil {
		return 0, fail(span, "error creating draft ticket", err)
	}
	span.SetAttributes(attribute.Int("ticket.id", id))
	return id, nil
}

func (r *ticketRepository) Submit(ctx context.Context, id int, patch *domain.TicketPatch) error {
	ctx, span := r.tracer.Start(ctx, "repository.submit", trace.WithAttributes(attribute.Int("ticket.id", id)))
	defer span.End()

	var p domain.TicketPatch
	if patch != nil {
		p = *patch
	}
	p.Status = domain.Some(domain.TicketStatusSubmitted)
	if err := r.list.Update(ctx, id, ticketPayload(p)); err != nil {
		return fail(span, fmt.Sprintf("error submitting ticket %d", id), err)
	}
	return nil
}

func (r *ticketRepository) Update(ctx context.Context, id int, patch domain.TicketPatch) error {
	ctx, span := r.tracer.Start(ctx, "repository.update", trace.WithAttributes(attribute.Int("ticket.id", id)))
	defer span.End()

	if err := r.list.Update(ctx, id, ticketPayload(patch)); err != nil {
		return fail(span, fmt.Sprintf("error updating ticket %d", id), err)
	}
	return nil
}

func (r *ticketRepository) Remove(ctx context.Context, id int) error {
	ctx, span := r.tracer.Start(ctx, "repository.remove", trace.WithAttributes(attribute.Int("ticket.id", id)))
	defer span.End()

	if err := r.list.Delete(ctx, id); err != nil {
		return fail(span, fmt.Sprintf("error deleting ticket %d", id), err)
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int) (*domain.Ticket, error) {
	ctx, span := r.tracer.Start(ctx, "repository.get_by_id", trace.WithAttributes(attribute.Int("ticket.id", id)))
	defer span.End()

	msg := fmt.Sprintf("error fetching ticket %d", id)
	item, err := r.list.GetByID(ctx, id, ticketProjection)
	if err != nil {
		return nil, fail(span, msg, err)
	}
	ticket, err := mapTicket(item)
	if err != nil {
		return nil, fail(span, msg, err)
	}
	return &ticket, nil
}

// Search fetches the leading Page*PageSize rows and slices the page out of
// them, then counts matches with an identity-only fetch capped at the
// count ceiling.
func (r *ticketRepository) Search(ctx context.Context, q domain.TicketQuery) (*domain.TicketSearchResult, error) {
	ctx, span := r.tracer.Start(ctx, "repository.search")
	defer span.End()

	if q.Page == 0 {
		q.Page = domain.DefaultPage
	}
	if q.PageSize == 0 {
		q.PageSize = domain.DefaultPageSize
	}
	window := paging.Clamp(q.Page, q.PageSize)
	compiled := ticketquery.Compile(q, r.opts.Location)
	filterExpr := compiled.Filter.String()
	span.SetAttributes(
		attribute.String("liststore.filter", filterExpr),
		attribute.String("liststore.order", compiled.Order.Field),
		attribute.Int("page", window.Page),
		attribute.Int("page_size", window.PageSize),
	)

	const msg = "error searching tickets"
	order := compiled.Order
	rows, err := r.list.Items(ctx, liststore.Query{
		Projection: ticketProjection,
		Filter:     compiled.Filter,
		OrderBy:    &order,
		Top:        window.Top(),
	})
	if err != nil {
		return nil, fail(span, msg, err)
	}

	pageRows := paging.Slice(rows, window)
	items := make([]domain.Ticket, 0, len(pageRows))
	for _, row := range pageRows {
		ticket, err := mapTicket(row)
		if err != nil {
			return nil, fail(span, msg, err)
		}
		items = append(items, ticket)
	}

	ids, err := r.list.Items(ctx, liststore.Query{
		Projection: countProjection,
		Filter:     compiled.Filter,
		Top:        r.opts.CountCeiling,
	})
	if err != nil {
		return nil, fail(span, msg, err)
	}

	result := &domain.TicketSearchResult{
		Items:       items,
		Total:       len(ids),
		TotalCapped: paging.Capped(len(ids), r.opts.CountCeiling),
	}
	span.SetAttributes(attribute.Int("result.total", result.Total), attribute.Bool("result.total_capped", result.TotalCapped))
	r.logger.Debug("ticket search",
		zap.String("filter", filterExpr),
		zap.Int("page", window.Page),
		zap.Int("page_size", window.PageSize),
		zap.Int("total", result.Total),
		zap.Bool("total_capped", result.TotalCapped),
	)
	return result, nil
}

func fail(span trace.Span, msg string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	return apperrors.NewOperationError(msg, err)
}
