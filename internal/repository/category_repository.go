package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/liststore"
	tq "github.com/spec-kit/helpdesk/internal/ticketquery"
)

// CategoryLimit caps the number of categories offered for selection.
const CategoryLimit = 200

// CategoryRepository reads the categories list.
type CategoryRepository interface {
	List(ctx context.Context) ([]domain.Category, error)
}

type categoryRepository struct {
	list   liststore.List
	tracer trace.Tracer
}

// NewCategoryRepository binds the repository to the titled categories list.
func NewCategoryRepository(store liststore.Store, listTitle string) CategoryRepository {
	if listTitle == "" {
		listTitle = "Categories"
	}
	return &categoryRepository{list: store.List(listTitle), tracer: otel.Tracer(tracerName)}
}

type rawCategory struct {
	ID    int    `mapstructure:"Id"`
	Title string `mapstructure:"Title"`
}

// List returns categories ordered by title, at most CategoryLimit of them.
func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	ctx, span := r.tracer.Start(ctx, "repository.list_categories")
	defer span.End()

	const msg = "error loading categories"
	rows, err := r.list.Items(ctx, liststore.Query{
		Projection: liststore.Projection{Select: []string{liststore.FieldID, tq.FieldTitle}},
		OrderBy:    &liststore.Order{Field: tq.FieldTitle, Ascending: true},
		Top:        CategoryLimit,
	})
	if err != nil {
		return nil, fail(span, msg, err)
	}

	categories := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		var raw rawCategory
		if err := decodeItem(row, &raw); err != nil {
			return nil, fail(span, msg, err)
		}
		categories = append(categories, domain.Category{ID: raw.ID, Title: raw.Title})
	}
	span.SetAttributes(attribute.Int("result.count", len(categories)))
	return categories, nil
}
