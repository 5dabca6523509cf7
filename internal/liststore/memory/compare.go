package memory

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// compare orders a stored value against a typed filter value. ok is false
// when the stored value is empty or of an incomparable type, in which case
// no comparison matches.
func compare(stored, want any) (cmp int, ok bool) {
	if stored == nil {
		return 0, false
	}
	switch w := want.(type) {
	case string:
		s, isString := stored.(string)
		if !isString {
			return 0, false
		}
		return strings.Compare(s, w), true
	case int:
		n, isInt := toInt(stored)
		if !isInt {
			return 0, false
		}
		return compareInt(n, int64(w)), true
	case int64:
		n, isInt := toInt(stored)
		if !isInt {
			return 0, false
		}
		return compareInt(n, w), true
	case time.Time:
		t, isTime := toTime(stored)
		if !isTime {
			return 0, false
		}
		return t.Compare(w), true
	default:
		return 0, false
	}
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// lessValue orders stored values for sorting: empty values first, then
// timestamps, numbers and strings by their natural order.
func lessValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b != nil
	}
	if ta, ok := toTime(a); ok {
		if tb, ok := toTime(b); ok {
			return ta.Before(tb)
		}
	}
	if na, ok := toInt(a); ok {
		if nb, ok := toInt(b); ok {
			return na < nb
		}
	}
	if fa, ok := a.(float64); ok {
		if fb, ok := b.(float64); ok {
			return fa < fb
		}
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func containsFold(stored any, text string) bool {
	s, ok := stored.(string)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(text))
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		parsed, err := n.Int64()
		return parsed, err == nil
	default:
		return 0, false
	}
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}
