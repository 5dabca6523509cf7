// Package liststore defines the generic list-storage backend the helpdesk
// runs on: lists of loosely typed items supporting projection, expansion of
// lookup fields, conjunctive filters, a single ordering and a row cap.
// Stores have no offset and no total count.
package liststore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an item id does not exist in a list.
var ErrNotFound = errors.New("item not found")

// System fields maintained by every store.
const (
	FieldID       = "Id"
	FieldCreated  = "Created"
	FieldModified = "Modified"
)

// Item is one record. Scalar values are JSON-compatible (string, float64 or
// int, bool, nil); Created and Modified are RFC 3339 strings; expanded
// lookups are nested Items.
type Item map[string]any

// Order selects a single sort field.
type Order struct {
	Field     string
	Ascending bool
}

// Projection restricts returned fields. Select entries are either plain
// field names or "Lookup/Field" paths, which require the lookup in Expand.
// An empty Select returns every stored field plus expanded lookups.
type Projection struct {
	Select []string
	Expand []string
}

// Query describes an item listing.
type Query struct {
	Projection
	Filter  Filter
	OrderBy *Order
	// Top caps the number of rows returned. Zero means the store default.
	Top int
}

// List is a handle to one list of a store.
type List interface {
	Items(ctx context.Context, q Query) ([]Item, error)
	GetByID(ctx context.Context, id int, p Projection) (Item, error)
	Add(ctx context.Context, fields map[string]any) (int, error)
	Update(ctx context.Context, id int, fields map[string]any) error
	Delete(ctx context.Context, id int) error
}

// Store hands out list handles by title.
type Store interface {
	List(title string) List
	Ping(ctx context.Context) error
}

// DefaultTop is applied when Query.Top is zero.
const DefaultTop = 100

// MaxTop is the largest row cap a store honors.
const MaxTop = 5000

// EffectiveTop clamps a requested cap to [1, MaxTop], defaulting zero.
func EffectiveTop(top int) int {
	if top <= 0 {
		return DefaultTop
	}
	if top > MaxTop {
		return MaxTop
	}
	return top
}
