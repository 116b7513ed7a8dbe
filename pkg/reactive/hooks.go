package reactive

import (
	"sync"
	"time"
)

// TrackEvent describes a recorded dependency.
type TrackEvent struct {
	// Target is the raw value the dependency was recorded on.
	Target any

	// Op is the access kind (GET, HAS or ITERATE).
	Op TrackOp

	// Key is the property key, or a sentinel for iteration and length.
	Key any
}

// TriggerEvent describes a change notification.
type TriggerEvent struct {
	// Target is the raw value that changed.
	Target any

	// Op is the mutation kind (SET, ADD, DELETE or CLEAR).
	Op TriggerOp

	// Key is the property key, absent for CLEAR.
	Key any

	// NewValue and OldValue carry the values involved where the mutation
	// kind defines them.
	NewValue any
	OldValue any
}

// EffectRunEvent describes one completed effect execution.
type EffectRunEvent struct {
	// ID is the effect's unique identifier.
	ID uint64

	// Name is the effect's configured name, empty if unset.
	Name string

	// Duration is the wall time of the run.
	Duration time.Duration
}

// Hooks observes engine activity. Implementations must be fast and must not
// mutate reactive state: hooks run synchronously inside track/trigger.
type Hooks interface {
	OnTrack(TrackEvent)
	OnTrigger(TriggerEvent)
	OnEffectRun(EffectRunEvent)
}

var (
	hooksMu  sync.Mutex
	hooksSet []Hooks
)

// RegisterHooks adds an observer of engine activity and returns a function
// that removes it. Multiple observers may be registered; they are invoked in
// registration order.
func RegisterHooks(h Hooks) (remove func()) {
	hooksMu.Lock()
	next := make([]Hooks, len(hooksSet), len(hooksSet)+1)
	copy(next, hooksSet)
	next = append(next, h)
	hooksSet = next
	hooksMu.Unlock()

	return func() {
		hooksMu.Lock()
		defer hooksMu.Unlock()
		pruned := make([]Hooks, 0, len(hooksSet))
		for _, existing := range hooksSet {
			if existing != h {
				pruned = append(pruned, existing)
			}
		}
		hooksSet = pruned
	}
}

// currentHooks snapshots the registered observers.
func currentHooks() []Hooks {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	return hooksSet
}

func emitTrack(ev TrackEvent) {
	for _, h := range currentHooks() {
		h.OnTrack(ev)
	}
}

func emitTrigger(ev TriggerEvent) {
	for _, h := range currentHooks() {
		h.OnTrigger(ev)
	}
}

func emitEffectRun(ev EffectRunEvent) {
	for _, h := range currentHooks() {
		h.OnEffectRun(ev)
	}
}
