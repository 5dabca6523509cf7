package liststore

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Operator is a comparison operator.
type Operator string

const (
	OpEq Operator = "eq"
	OpGe Operator = "ge"
	OpLe Operator = "le"
)

// Clause is one predicate of a filter.
type Clause interface {
	// String renders the clause as a list-store filter expression.
	String() string
	isClause()
}

// Comparison compares a field with a typed value. Value is a string, an
// int or a time.Time. Field may be a "Lookup/Id" path.
type Comparison struct {
	Field string
	Op    Operator
	Value any
}

// Substring matches items whose field contains Text, ignoring case.
type Substring struct {
	Field string
	Text  string
}

// Or matches when any of its clauses matches.
type Or []Clause

// Filter is a conjunction of clauses. An empty filter matches everything.
type Filter []Clause

func (Comparison) isClause() {}
func (Substring) isClause()  {}
func (Or) isClause()         {}

// Eq builds an equality comparison.
func Eq(field string, value any) Comparison {
	return Comparison{Field: field, Op: OpEq, Value: value}
}

// Ge builds a greater-or-equal comparison.
func Ge(field string, value any) Comparison {
	return Comparison{Field: field, Op: OpGe, Value: value}
}

// Le builds a less-or-equal comparison.
func Le(field string, value any) Comparison {
	return Comparison{Field: field, Op: OpLe, Value: value}
}

func (c Comparison) String() string {
	return fmt.Sprintf("%s %s %s", c.Field, c.Op, Literal(c.Value))
}

func (s Substring) String() string {
	return fmt.Sprintf("substringof(%s,%s)", Quote(s.Text), s.Field)
}

func (o Or) String() string {
	parts := make([]string, len(o))
	for i, clause := range o {
		parts[i] = clause.String()
	}
	return "(" + strings.Join(parts, " or ") + ")"
}

// String joins the clauses with "and". An empty filter renders as "".
func (f Filter) String() string {
	parts := make([]string, len(f))
	for i, clause := range f {
		parts[i] = clause.String()
	}
	return strings.Join(parts, " and ")
}

// Quote renders s as a string literal, doubling embedded single quotes.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// TimestampLayout is the millisecond UTC layout used in datetime literals.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Literal renders a comparison value.
func Literal(v any) string {
	switch value := v.(type) {
	case string:
		return Quote(value)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case time.Time:
		return "datetime'" + value.UTC().Format(TimestampLayout) + "'"
	case nil:
		return "null"
	default:
		return Quote(fmt.Sprint(value))
	}
}

// SplitPath splits "Lookup/Field" into its parts. Plain fields return an
// empty lookup.
func SplitPath(path string) (lookup, field string) {
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i], path[i+1:]
	}
	return "", path
}
