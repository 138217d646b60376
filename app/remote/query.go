package remote

import (
	"sort"
	"strings"
	"time"
)

// Filter matches documents whose Field equals Value.
type Filter struct {
	Field string
	Value any
}

// Query selects and orders documents within a collection.
type Query struct {
	Where      []Filter
	OrderBy    string
	Descending bool
}

// Where builds a query with a single equality filter.
func Where(field string, value any) Query {
	return Query{Where: []Filter{{Field: field, Value: value}}}
}

// Matches reports whether fields satisfy every filter.
func (q Query) Matches(fields Fields) bool {
	for _, f := range q.Where {
		if !SameValue(fields[f.Field], f.Value) {
			return false
		}
	}
	return true
}

// Sort orders docs by q.OrderBy. Ties are broken by id in the same direction.
func (q Query) Sort(docs []*Document) {
	if q.OrderBy == "" {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		c := CompareValues(docs[i].Fields[q.OrderBy], docs[j].Fields[q.OrderBy])
		if c == 0 {
			c = strings.Compare(docs[i].ID, docs[j].ID)
		}
		if q.Descending {
			return c > 0
		}
		return c < 0
	})
}

// CompareValues orders field values: missing values first, then
// timestamps, numbers and strings by their natural order.
func CompareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if ta, ok := asTime(a); ok {
		if tb, ok := asTime(b); ok {
			return ta.Compare(tb)
		}
	}
	if na, ok := asNumber(a); ok {
		if nb, ok := asNumber(b); ok {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			}
			return 0
		}
	}
	sa, okA := a.(string)
	sb, okB := b.(string)
	if okA && okB {
		return strings.Compare(sa, sb)
	}
	return 0
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		return parsed, err == nil
	}
	return time.Time{}, false
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
