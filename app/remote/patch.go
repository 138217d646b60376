package remote

import (
	"bytes"
	"encoding/json"
	"reflect"
	"time"
)

type serverTimestamp struct{}

// ServerTimestamp is replaced by the store's clock when written.
var ServerTimestamp any = serverTimestamp{}

// ArrayOp is a set-style change to an array field.
type ArrayOp struct {
	Remove bool
	Values []any
}

// ArrayUnion adds each value not already present in the array field.
func ArrayUnion(values ...any) ArrayOp {
	return ArrayOp{Values: values}
}

// ArrayRemove removes every occurrence of each value from the array field.
func ArrayRemove(values ...any) ArrayOp {
	return ArrayOp{Remove: true, Values: values}
}

// Apply writes patch onto dst, resolving ServerTimestamp to now and
// ArrayOp values against the current content of the field.
func Apply(dst Fields, patch Fields, now time.Time) {
	for name, value := range patch {
		switch v := value.(type) {
		case serverTimestamp:
			dst[name] = now
		case ArrayOp:
			dst[name] = applyArrayOp(toSlice(dst[name]), v)
		default:
			dst[name] = value
		}
	}
}

// Resolve returns a copy of fields with ServerTimestamp and ArrayOp values
// applied to an empty document.
func Resolve(fields Fields, now time.Time) Fields {
	out := make(Fields, len(fields))
	Apply(out, fields, now)
	return out
}

func applyArrayOp(current []any, op ArrayOp) []any {
	out := make([]any, 0, len(current)+len(op.Values))
	if op.Remove {
		for _, elem := range current {
			if !containsValue(op.Values, elem) {
				out = append(out, elem)
			}
		}
		return out
	}
	out = append(out, current...)
	for _, v := range op.Values {
		if !containsValue(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func toSlice(v any) []any {
	if v == nil {
		return nil
	}
	if s, ok := v.([]any); ok {
		return s
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func containsValue(values []any, v any) bool {
	for _, candidate := range values {
		if SameValue(candidate, v) {
			return true
		}
	}
	return false
}

// SameValue compares two field values by their JSON encoding, so a value
// read back from storage equals the value that was written.
func SameValue(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}
