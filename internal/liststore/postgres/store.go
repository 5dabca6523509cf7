// Package postgres stores lists in a single JSONB-backed table. Every list
// item is one row keyed by (list_title, id); lookups are resolved with a
// LEFT JOIN per expanded lookup.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/helpdesk/internal/liststore"
)

const table = "list_items"

// Querier is satisfied by *pgxpool.Pool and pgxmock pools.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

var identifier = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Store is a list store over Postgres.
type Store struct {
	q      Querier
	schema liststore.Schema
}

// New wraps a querier.
func New(q Querier, schema liststore.Schema) *Store {
	return &Store{q: q, schema: schema}
}

// List returns a handle to the titled list.
func (s *Store) List(title string) liststore.List {
	return &list{store: s, title: title}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.q.Ping(ctx)
}

type list struct {
	store *Store
	title string
}

func (l *list) Items(ctx context.Context, q liststore.Query) ([]liststore.Item, error) {
	sel, joins, err := l.selectBuilder(q.Projection, q.Filter)
	if err != nil {
		return nil, err
	}
	if q.OrderBy != nil {
		expr, err := l.column(q.OrderBy.Field, nil)
		if err != nil {
			return nil, err
		}
		if q.OrderBy.Ascending {
			sel = sel.OrderBy(expr + " ASC NULLS FIRST")
		} else {
			sel = sel.OrderBy(expr + " DESC NULLS LAST")
		}
	}
	sel = sel.OrderBy("t.id ASC").Limit(uint64(liststore.EffectiveTop(q.Top)))
	return l.query(ctx, sel, joins, q.Projection)
}

func (l *list) GetByID(ctx context.Context, id int, p liststore.Projection) (liststore.Item, error) {
	sel, joins, err := l.selectBuilder(p, nil)
	if err != nil {
		return nil, err
	}
	sel = sel.Where(squirrel.Eq{"t.id": id}).Limit(1)
	items, err := l.query(ctx, sel, joins, p)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s %d: %w", l.title, id, liststore.ErrNotFound)
	}
	return items[0], nil
}

func (l *list) Add(ctx context.Context, fields map[string]any) (int, error) {
	payload, err := encodeFields(fields)
	if err != nil {
		return 0, err
	}
	query := builder().
		Insert(table).
		Columns("list_title", "fields").
		Values(l.title, squirrel.Expr("?::jsonb", payload)).
		Suffix("RETURNING id")

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}
	var id int64
	if err := l.store.q.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert into %s: %w", l.title, err)
	}
	return int(id), nil
}

func (l *list) Update(ctx context.Context, id int, fields map[string]any) error {
	payload, err := encodeFields(fields)
	if err != nil {
		return err
	}
	query := builder().
		Update(table).
		Set("fields", squirrel.Expr("fields || ?::jsonb", payload)).
		Set("modified_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"list_title": l.title, "id": id})

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}
	tag, err := l.store.q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s %d: %w", l.title, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %d: %w", l.title, id, liststore.ErrNotFound)
	}
	return nil
}

func (l *list) Delete(ctx context.Context, id int) error {
	query := builder().
		Delete(table).
		Where(squirrel.Eq{"list_title": l.title, "id": id})

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}
	tag, err := l.store.q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", l.title, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %d: %w", l.title, id, liststore.ErrNotFound)
	}
	return nil
}

// join is one expanded lookup, in select-column order.
type join struct {
	name   string
	lookup liststore.Lookup
}

func alias(lookup string) string {
	return "e_" + strings.ToLower(lookup)
}

// selectBuilder selects the base row plus one joined row per lookup that is
// expanded or referenced by the filter.
func (l *list) selectBuilder(p liststore.Projection, filter liststore.Filter) (squirrel.SelectBuilder, []join, error) {
	names := append([]string(nil), p.Expand...)
	for _, path := range filterPaths(filter) {
		lookup, field := liststore.SplitPath(path)
		if lookup != "" && field != liststore.FieldID {
			names = append(names, lookup)
		}
	}

	sel := builder().
		Select("t.id", "t.fields", "t.created_at", "t.modified_at").
		From(table + " t")

	var joins []join
	seen := map[string]bool{}
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		lookup, err := l.lookup(name)
		if err != nil {
			return sel, nil, err
		}
		a := alias(name)
		sel = sel.
			Columns(a+".id", a+".fields", a+".created_at", a+".modified_at").
			LeftJoin(fmt.Sprintf("%s %s ON %s.list_title = ? AND %s.id = (t.fields->>'%s')::bigint",
				table, a, a, a, lookup.Key), lookup.List)
		joins = append(joins, join{name: name, lookup: lookup})
	}

	sel = sel.Where(squirrel.Eq{"t.list_title": l.title})
	for _, clause := range filter {
		pred, err := l.predicate(clause)
		if err != nil {
			return sel, nil, err
		}
		sel = sel.Where(pred)
	}
	return sel, joins, nil
}

func (l *list) lookup(name string) (liststore.Lookup, error) {
	lookup, ok := l.store.schema.Lookup(l.title, name)
	if !ok {
		return liststore.Lookup{}, fmt.Errorf("list %s has no lookup %q", l.title, name)
	}
	if !identifier.MatchString(name) || !identifier.MatchString(lookup.Key) {
		return liststore.Lookup{}, fmt.Errorf("invalid lookup %q", name)
	}
	return lookup, nil
}

func filterPaths(filter liststore.Filter) []string {
	var paths []string
	var walk func(liststore.Clause)
	walk = func(c liststore.Clause) {
		switch v := c.(type) {
		case liststore.Comparison:
			paths = append(paths, v.Field)
		case liststore.Substring:
			paths = append(paths, v.Field)
		case liststore.Or:
			for _, inner := range v {
				walk(inner)
			}
		}
	}
	for _, clause := range filter {
		walk(clause)
	}
	return paths
}

// column renders the SQL expression for a field path. value picks the cast
// applied to JSON fields so comparisons use the value's type.
func (l *list) column(path string, value any) (string, error) {
	lookupName, field := liststore.SplitPath(path)
	if !identifier.MatchString(field) {
		return "", fmt.Errorf("invalid field %q", path)
	}
	if lookupName != "" {
		lookup, err := l.lookup(lookupName)
		if err != nil {
			return "", err
		}
		if field == liststore.FieldID {
			return fmt.Sprintf("(t.fields->>'%s')::bigint", lookup.Key), nil
		}
		return jsonColumn(alias(lookupName), field, value), nil
	}
	return jsonColumn("t", field, value), nil
}

func jsonColumn(a, field string, value any) string {
	switch field {
	case liststore.FieldID:
		return a + ".id"
	case liststore.FieldCreated:
		return a + ".created_at"
	case liststore.FieldModified:
		return a + ".modified_at"
	}
	expr := fmt.Sprintf("%s.fields->>'%s'", a, field)
	switch value.(type) {
	case int, int64:
		return "(" + expr + ")::bigint"
	case time.Time:
		return "(" + expr + ")::timestamptz"
	default:
		return "(" + expr + ")"
	}
}

var operators = map[liststore.Operator]string{
	liststore.OpEq: "=",
	liststore.OpGe: ">=",
	liststore.OpLe: "<=",
}

func (l *list) predicate(clause liststore.Clause) (squirrel.Sqlizer, error) {
	switch c := clause.(type) {
	case liststore.Comparison:
		op, ok := operators[c.Op]
		if !ok {
			return nil, fmt.Errorf("unsupported operator %q", c.Op)
		}
		col, err := l.column(c.Field, c.Value)
		if err != nil {
			return nil, err
		}
		return squirrel.Expr(fmt.Sprintf("%s %s ?", col, op), c.Value), nil
	case liststore.Substring:
		col, err := l.column(c.Field, nil)
		if err != nil {
			return nil, err
		}
		return squirrel.Expr(fmt.Sprintf("strpos(lower(%s), ?) > 0", col), strings.ToLower(c.Text)), nil
	case liststore.Or:
		or := squirrel.Or{}
		for _, inner := range c {
			pred, err := l.predicate(inner)
			if err != nil {
				return nil, err
			}
			or = append(or, pred)
		}
		return or, nil
	default:
		return nil, fmt.Errorf("unsupported clause %T", clause)
	}
}

func (l *list) query(ctx context.Context, sel squirrel.SelectBuilder, joins []join, p liststore.Projection) ([]liststore.Item, error) {
	sql, args, err := sel.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := l.store.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", l.title, err)
	}
	defer rows.Close()

	items := []liststore.Item{}
	for rows.Next() {
		base := scanned{}
		related := make([]scannedRelated, len(joins))
		dest := []any{&base.id, &base.fields, &base.created, &base.modified}
		for i := range related {
			dest = append(dest, &related[i].id, &related[i].fields, &related[i].created, &related[i].modified)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", l.title, err)
		}

		baseItem, err := base.item()
		if err != nil {
			return nil, err
		}
		expanded := make(map[string]liststore.Item, len(joins))
		for i, j := range joins {
			item, err := related[i].item()
			if err != nil {
				return nil, err
			}
			expanded[j.name] = item
		}
		items = append(items, liststore.Project(baseItem, onlyExpanded(expanded, p.Expand), p.Select))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", l.title, err)
	}
	return items, nil
}

// onlyExpanded drops lookups joined solely for filtering.
func onlyExpanded(related map[string]liststore.Item, expand []string) map[string]liststore.Item {
	out := make(map[string]liststore.Item, len(expand))
	for _, name := range expand {
		out[name] = related[name]
	}
	return out
}

type scanned struct {
	id       int64
	fields   []byte
	created  time.Time
	modified time.Time
}

func (s scanned) item() (liststore.Item, error) {
	item := liststore.Item{}
	if len(s.fields) > 0 {
		if err := json.Unmarshal(s.fields, &item); err != nil {
			return nil, fmt.Errorf("decode item %d: %w", s.id, err)
		}
	}
	item[liststore.FieldID] = int(s.id)
	item[liststore.FieldCreated] = s.created.UTC().Format(time.RFC3339Nano)
	item[liststore.FieldModified] = s.modified.UTC().Format(time.RFC3339Nano)
	return item, nil
}

type scannedRelated struct {
	id       *int64
	fields   []byte
	created  *time.Time
	modified *time.Time
}

func (s scannedRelated) item() (liststore.Item, error) {
	if s.id == nil {
		return nil, nil
	}
	base := scanned{id: *s.id, fields: s.fields}
	if s.created != nil {
		base.created = *s.created
	}
	if s.modified != nil {
		base.modified = *s.modified
	}
	return base.item()
}

// encodeFields serializes writable fields. System fields are owned by the
// table and dropped.
// storedTimeLayout is fixed width so that ordering on the JSON text of a
// time field is chronological.
const storedTimeLayout = "2006-01-02T15:04:05.000000Z07:00"

func encodeFields(fields map[string]any) (string, error) {
	clean := make(map[string]any, len(fields))
	for key, value := range fields {
		switch key {
		case liststore.FieldID, liststore.FieldCreated, liststore.FieldModified:
			continue
		}
		if !identifier.MatchString(key) {
			return "", fmt.Errorf("invalid field %q", key)
		}
		if t, ok := value.(time.Time); ok {
			value = t.UTC().Format(storedTimeLayout)
		}
		clean[key] = value
	}
	b, err := json.Marshal(clean)
	if err != nil {
		return "", fmt.Errorf("encode fields: %w", err)
	}
	return string(b), nil
}
