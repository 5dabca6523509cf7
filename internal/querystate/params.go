// Package querystate keeps a ticket query and its flat URL parameter form
// in sync. Params is the shareable materialization; Decode never fails and
// Encode writes the canonical form back.
package querystate

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// URL parameter keys.
const (
	KeyText     = "q"
	KeyStatus   = "status"
	KeyPriority = "priority"
	KeyCategory = "cat"
	KeyFrom     = "from"
	KeyTo       = "to"
	KeyOrderBy  = "ob"
	KeyOrderDir = "od"
	KeyPage     = "p"
	KeyPageSize = "ps"
	// KeyRefresh is bumped to force a re-fetch of an unchanged query.
	KeyRefresh = "_r"
)

// DateLayout is how calendar days are written to parameters.
const DateLayout = "2006-01-02"

// Params is an immutable set of URL parameters. Keys the synchronizer does
// not know are carried along untouched.
type Params struct {
	values url.Values
}

// ParseParams reads a raw query string, with or without the leading "?".
// Malformed pairs are skipped.
func ParseParams(raw string) Params {
	raw = strings.TrimPrefix(raw, "?")
	values, _ := url.ParseQuery(raw)
	return FromValues(values)
}

// FromValues copies v into Params.
func FromValues(v url.Values) Params {
	out := make(url.Values, len(v))
	for key, vals := range v {
		if len(vals) > 0 {
			out[key] = []string{vals[0]}
		}
	}
	return Params{values: out}
}

// Get returns the value of key or "".
func (p Params) Get(key string) string {
	return p.values.Get(key)
}

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Values returns a copy of the parameters.
func (p Params) Values() url.Values {
	out := make(url.Values, len(p.values))
	for key, vals := range p.values {
		out[key] = append([]string(nil), vals...)
	}
	return out
}

// Encode renders the parameters as a sorted query string.
func (p Params) Encode() string {
	return p.values.Encode()
}

func (p Params) String() string {
	return p.Encode()
}

// With returns a copy with key set to value. An empty value deletes key.
func (p Params) With(key, value string) Params {
	out := p.Values()
	if value == "" {
		delete(out, key)
	} else {
		out.Set(key, value)
	}
	return Params{values: out}
}

// Without returns a copy without key.
func (p Params) Without(key string) Params {
	return p.With(key, "")
}

// Equal compares two parameter sets.
func (p Params) Equal(other Params) bool {
	return p.Encode() == other.Encode()
}

// Decode reads a TicketQuery from p. Every malformed or missing value falls
// back to its default; dates are read as calendar days in loc.
func Decode(p Params, loc *time.Location) domain.TicketQuery {
	if loc == nil {
		loc = time.UTC
	}
	q := domain.TicketQuery{
		Text:     p.Get(KeyText),
		Status:   domain.TicketStatus(p.Get(KeyStatus)),
		Priority: domain.TicketPriority(p.Get(KeyPriority)),
		OrderBy:  domain.OrderBy(p.Get(KeyOrderBy)),
		OrderDir: domain.OrderDir(p.Get(KeyOrderDir)),
		Page:     normalizePage(p.Get(KeyPage)),
		PageSize: normalizePageSize(p.Get(KeyPageSize)),
		DateFrom: parseDay(p.Get(KeyFrom), loc),
		DateTo:   parseDay(p.Get(KeyTo), loc),
	}
	if n, ok := parseNumber(p.Get(KeyCategory)); ok && n > 0 {
		id := int(n)
		q.CategoryID = &id
	}
	return q.Normalized()
}

// Encode writes q onto base. Order, page and page size are always written;
// unset filters are removed. Unknown keys of base are preserved.
func Encode(q domain.TicketQuery, base Params) Params {
	q = q.Normalized()
	out := base.Values()
	set := func(key, value string) {
		if value == "" {
			delete(out, key)
			return
		}
		out.Set(key, value)
	}
	set(KeyText, strings.TrimSpace(q.Text))
	set(KeyStatus, string(q.Status))
	set(KeyPriority, string(q.Priority))
	if q.CategoryID != nil {
		set(KeyCategory, strconv.Itoa(*q.CategoryID))
	} else {
		set(KeyCategory, "")
	}
	set(KeyFrom, formatDay(q.DateFrom))
	set(KeyTo, formatDay(q.DateTo))
	set(KeyOrderBy, string(q.OrderBy))
	set(KeyOrderDir, string(q.OrderDir))
	set(KeyPage, strconv.Itoa(q.Page))
	set(KeyPageSize, strconv.Itoa(q.PageSize))
	return Params{values: out}
}

// Canonical is Encode(Decode(p)) on top of p.
func Canonical(p Params, loc *time.Location) Params {
	return Encode(Decode(p, loc), p)
}

// parseNumber accepts any finite decimal and floors it.
func parseNumber(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Floor(f)
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int64(f), true
}

func normalizePage(s string) int {
	n, ok := parseNumber(s)
	if !ok || n < 1 {
		return domain.DefaultPage
	}
	return int(n)
}

func normalizePageSize(s string) int {
	n, ok := parseNumber(s)
	if !ok || !domain.AllowedPageSize(int(n)) {
		return domain.DefaultPageSize
	}
	return int(n)
}

// parseDay accepts a calendar day or an RFC 3339 timestamp, which is
// converted to loc before taking its day.
func parseDay(s string, loc *time.Location) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if t, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return &t
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			local := t.In(loc)
			day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
			return &day
		}
	}
	return nil
}

func formatDay(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}
