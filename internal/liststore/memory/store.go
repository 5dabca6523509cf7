// Package memory is an in-process list store. It evaluates filters, lookups
// and ordering the same way the hosted backend does and is used for local
// development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/spec-kit/helpdesk/internal/liststore"
)

// Store keeps every list in memory.
type Store struct {
	mu     sync.RWMutex
	clock  clockwork.Clock
	schema liststore.Schema
	lists  map[string]*list
}

type list struct {
	nextID  int
	records []*record
}

type record struct {
	id       int
	fields   liststore.Item
	created  time.Time
	modified time.Time
}

// New creates an empty store. A nil clock uses the real clock.
func New(schema liststore.Schema, clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		clock:  clock,
		schema: schema,
		lists:  make(map[string]*list),
	}
}

// List returns a handle to the titled list, creating it on first write.
func (s *Store) List(title string) liststore.List {
	return &listHandle{store: s, title: title}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

type listHandle struct {
	store *Store
	title string
}

func (h *listHandle) Items(ctx context.Context, q liststore.Query) ([]liststore.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()

	l := h.store.lists[h.title]
	if l == nil {
		return []liststore.Item{}, nil
	}

	matched := make([]*record, 0, len(l.records))
	for _, rec := range l.records {
		ok, err := h.matches(rec, q.Filter)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, rec)
		}
	}

	if q.OrderBy != nil {
		h.sortRecords(matched, *q.OrderBy)
	}

	top := liststore.EffectiveTop(q.Top)
	if len(matched) > top {
		matched = matched[:top]
	}

	out := make([]liststore.Item, 0, len(matched))
	for _, rec := range matched {
		item, err := h.project(rec, q.Projection)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (h *listHandle) GetByID(ctx context.Context, id int, p liststore.Projection) (liststore.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()

	rec := h.find(id)
	if rec == nil {
		return nil, fmt.Errorf("%s %d: %w", h.title, id, liststore.ErrNotFound)
	}
	return h.project(rec, p)
}

func (h *listHandle) Add(ctx context.Context, fields map[string]any) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	l := h.store.lists[h.title]
	if l == nil {
		l = &list{}
		h.store.lists[h.title] = l
	}
	l.nextID++
	now := h.store.clock.Now().UTC()
	rec := &record{
		id:       l.nextID,
		fields:   liststore.Item{},
		created:  now,
		modified: now,
	}
	writeFields(rec.fields, fields)
	l.records = append(l.records, rec)
	return rec.id, nil
}

func (h *listHandle) Update(ctx context.Context, id int, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	rec := h.find(id)
	if rec == nil {
		return fmt.Errorf("%s %d: %w", h.title, id, liststore.ErrNotFound)
	}
	writeFields(rec.fields, fields)
	rec.modified = h.store.clock.Now().UTC()
	return nil
}

func (h *listHandle) Delete(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	l := h.store.lists[h.title]
	if l != nil {
		for i, rec := range l.records {
			if rec.id == id {
				l.records = append(l.records[:i], l.records[i+1:]...)
				return nil
			}
		}
	}
	return fmt.Errorf("%s %d: %w", h.title, id, liststore.ErrNotFound)
}

// find must be called with the store lock held.
func (h *listHandle) find(id int) *record {
	l := h.store.lists[h.title]
	if l == nil {
		return nil
	}
	for _, rec := range l.records {
		if rec.id == id {
			return rec
		}
	}
	return nil
}

// writeFields ignores system fields; the store owns those.
func writeFields(dst liststore.Item, fields map[string]any) {
	for key, value := range fields {
		switch key {
		case liststore.FieldID, liststore.FieldCreated, liststore.FieldModified:
			continue
		}
		dst[key] = normalizeValue(value)
	}
}

// normalizeValue stores times the way they come back from the hosted store.
func normalizeValue(value any) any {
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if v == nil {
			return nil
		}
		return v.UTC().Format(time.RFC3339Nano)
	default:
		return value
	}
}

func (h *listHandle) baseItem(rec *record) liststore.Item {
	item := make(liststore.Item, len(rec.fields)+3)
	for key, value := range rec.fields {
		item[key] = value
	}
	item[liststore.FieldID] = rec.id
	item[liststore.FieldCreated] = rec.created.Format(time.RFC3339Nano)
	item[liststore.FieldModified] = rec.modified.Format(time.RFC3339Nano)
	return item
}

// related resolves a lookup of rec to the full related item, or nil when
// the foreign key is empty or dangling.
func (h *listHandle) related(rec *record, name string) (liststore.Item, error) {
	lookup, ok := h.store.schema.Lookup(h.title, name)
	if !ok {
		return nil, fmt.Errorf("list %s has no lookup %q", h.title, name)
	}
	id, ok := toInt(rec.fields[lookup.Key])
	if !ok {
		return nil, nil
	}
	target := (&listHandle{store: h.store, title: lookup.List}).find(int(id))
	if target == nil {
		return nil, nil
	}
	return (&listHandle{store: h.store, title: lookup.List}).baseItem(target), nil
}

func (h *listHandle) project(rec *record, p liststore.Projection) (liststore.Item, error) {
	related := make(map[string]liststore.Item, len(p.Expand))
	for _, name := range p.Expand {
		item, err := h.related(rec, name)
		if err != nil {
			return nil, err
		}
		related[name] = item
	}
	return liststore.Project(h.baseItem(rec), related, p.Select), nil
}

// fieldValue resolves a plain field or a "Lookup/Field" path.
func (h *listHandle) fieldValue(rec *record, path string) (any, error) {
	lookupName, field := liststore.SplitPath(path)
	if lookupName == "" {
		return h.baseItem(rec)[field], nil
	}
	if field == liststore.FieldID {
		lookup, ok := h.store.schema.Lookup(h.title, lookupName)
		if !ok {
			return nil, fmt.Errorf("list %s has no lookup %q", h.title, lookupName)
		}
		return rec.fields[lookup.Key], nil
	}
	item, err := h.related(rec, lookupName)
	if err != nil || item == nil {
		return nil, err
	}
	return item[field], nil
}

func (h *listHandle) matches(rec *record, filter liststore.Filter) (bool, error) {
	for _, clause := range filter {
		ok, err := h.matchClause(rec, clause)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (h *listHandle) matchClause(rec *record, clause liststore.Clause) (bool, error) {
	switch c := clause.(type) {
	case liststore.Comparison:
		value, err := h.fieldValue(rec, c.Field)
		if err != nil {
			return false, err
		}
		cmp, ok := compare(value, c.Value)
		if !ok {
			return false, nil
		}
		switch c.Op {
		case liststore.OpEq:
			return cmp == 0, nil
		case liststore.OpGe:
			return cmp >= 0, nil
		case liststore.OpLe:
			return cmp <= 0, nil
		default:
			return false, fmt.Errorf("unsupported operator %q", c.Op)
		}
	case liststore.Substring:
		value, err := h.fieldValue(rec, c.Field)
		if err != nil {
			return false, err
		}
		return containsFold(value, c.Text), nil
	case liststore.Or:
		for _, inner := range c {
			ok, err := h.matchClause(rec, inner)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("unsupported clause %T", clause)
	}
}

// sortRecords orders by the field; items without a value sort first when
// ascending. Ties keep insertion order.
func (h *listHandle) sortRecords(records []*record, order liststore.Order) {
	keys := make(map[*record]any, len(records))
	for _, rec := range records {
		value, _ := h.fieldValue(rec, order.Field)
		keys[rec] = value
	}
	sort.SliceStable(records, func(i, j int) bool {
		if order.Ascending {
			return lessValue(keys[records[i]], keys[records[j]])
		}
		return lessValue(keys[records[j]], keys[records[i]])
	})
}
