package repository

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/liststore"
	tq "github.com/spec-kit/helpdesk/internal/ticketquery"
)

// UserRepository reads the users list.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (*domain.User, error)
}

type userRepository struct {
	list   liststore.List
	tracer trace.Tracer
}

// NewUserRepository binds the repository to the titled users list.
func NewUserRepository(store liststore.Store, listTitle string) UserRepository {
	if listTitle == "" {
		listTitle = "Users"
	}
	return &userRepository{list: store.List(listTitle), tracer: otel.Tracer(tracerName)}
}

var userProjection = liststore.Projection{
	Select: []string{liststore.FieldID, tq.FieldPersonTitle, tq.FieldPersonEmail},
}

func (r *userRepository) GetByID(ctx context.Context, id int) (*domain.User, error) {
	ctx, span := r.tracer.Start(ctx, "repository.get_user", trace.WithAttributes(attribute.Int("user.id", id)))
	defer span.End()

	msg := fmt.Sprintf("error fetching user %d", id)
	item, err := r.list.GetByID(ctx, id, userProjection)
	if err != nil {
		return nil, fail(span, msg, err)
	}
	var raw rawPerson
	if err := decodeItem(item, &raw); err != nil {
		return nil, fail(span, msg, err)
	}
	user := &domain.User{ID: id, Name: raw.Title, Email: raw.Email}
	if raw.ID != nil {
		user.ID = *raw.ID
	}
	return user, nil
}
