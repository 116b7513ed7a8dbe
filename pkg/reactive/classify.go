package reactive

import (
	"reflect"
	"sync"
)

// targetKind is the trap family a raw value belongs to.
type targetKind uint8

const (
	// targetInvalid values are returned unwrapped by the factory.
	targetInvalid targetKind = iota

	// targetRecord covers keyed records (map[string]any).
	targetRecord

	// targetList covers sequences (*[]any).
	targetList

	// targetCollection covers *Map and *Set containers.
	targetCollection
)

// classify decides whether a raw value is observable at all and which trap
// family applies. It is a pure function of the value's runtime shape: skip
// marking is checked separately by the factory.
func classify(v any) targetKind {
	switch t := v.(type) {
	case map[string]any:
		// A nil map cannot acquire keys; treat it like a frozen object.
		if t == nil {
			return targetInvalid
		}
		return targetRecord
	case *[]any:
		if t == nil {
			return targetInvalid
		}
		return targetList
	case *Map:
		if t == nil {
			return targetInvalid
		}
		return targetCollection
	case *Set:
		if t == nil {
			return targetInvalid
		}
		return targetCollection
	default:
		return targetInvalid
	}
}

// identityOf returns a stable identity for an observable raw value or handle.
// Valid only while the value is reachable; callers that store the result must
// also keep the value (or a handle that keeps it) alive.
func identityOf(v any) uintptr {
	return reflect.ValueOf(v).Pointer()
}

// skipRegistry holds values permanently opted out of wrapping. Entries keep
// their value reachable: skip marking is forever, and pinning the value is
// what makes the recorded identity safe to compare against.
var (
	skipMu       sync.RWMutex
	skipRegistry = make(map[uintptr]any)
)

// MarkRaw permanently exempts a value from wrapping. After MarkRaw, the
// factory returns the value itself for every variant. The value is returned
// for call-site convenience:
//
//	obj := reactive.MarkRaw(map[string]any{"huge": blob}).(map[string]any)
func MarkRaw(v any) any {
	if classify(v) == targetInvalid {
		return v
	}
	skipMu.Lock()
	skipRegistry[identityOf(v)] = v
	skipMu.Unlock()
	return v
}

// isSkipped reports whether v has been opted out via MarkRaw.
func isSkipped(v any) bool {
	if classify(v) == targetInvalid {
		return false
	}
	skipMu.RLock()
	_, ok := skipRegistry[identityOf(v)]
	skipMu.RUnlock()
	return ok
}
