package reactive

import (
	"math"
	"reflect"
)

// sameValue reports whether a write of b over a is a no-op.
//
// The comparison is reference equality extended so that two NaN values count
// as unchanged. Records, sequences and functions compare by identity, never
// by contents: replacing a map with an equal-but-distinct map is a change.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return false
		}
		if math.IsNaN(av) && math.IsNaN(bv) {
			return true
		}
		return av == bv
	case float32:
		bv, ok := b.(float32)
		if !ok {
			return false
		}
		if math.IsNaN(float64(av)) && math.IsNaN(float64(bv)) {
			return true
		}
		return av == bv
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Type() != rb.Type() {
		return false
	}
	switch ra.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return ra.Pointer() == rb.Pointer()
	default:
		if ra.Comparable() {
			return a == b
		}
		// Uncomparable composites: treat every write as a change.
		return false
	}
}

// hasChanged is the notification predicate for Set paths.
func hasChanged(newValue, oldValue any) bool {
	return !sameValue(newValue, oldValue)
}
