package reactive

import (
	"sync"
	"sync/atomic"
	"time"
)

// Effect is a side effect that re-runs when anything it read changes.
//
// The function runs immediately when the effect is created. Each run tracks
// its reads afresh, so dependencies follow the branches the function actually
// takes. A run may return a Cleanup that fires before the next run and when
// the effect is stopped.
type Effect struct {
	id uint64

	// fn is the effect body.
	fn func() Cleanup

	// cleanup is the cleanup from the last run.
	cleanup Cleanup

	// deps are the dependency buckets this effect appears in.
	deps   []*dep
	depsMu sync.Mutex

	// pending indicates the effect is scheduled to re-run.
	pending atomic.Bool

	// stopped indicates the effect was stopped and must never run again.
	stopped atomic.Bool

	// scheduler, when set, receives the re-run job instead of it running
	// synchronously inside the notifying write.
	scheduler func(run func())

	// name labels this effect in hooks and diagnostics.
	name string
}

// EffectOption configures an Effect.
type EffectOption interface {
	applyEffect(*Effect)
}

type effectOptionFunc func(*Effect)

func (f effectOptionFunc) applyEffect(e *Effect) { f(e) }

// EffectName labels the effect for hooks and diagnostics.
func EffectName(name string) EffectOption {
	return effectOptionFunc(func(e *Effect) {
		e.name = name
	})
}

// EffectScheduler defers re-runs to a custom scheduler instead of running
// them synchronously inside the write that invalidated the effect. The
// scheduler receives a job and decides when to call it.
func EffectScheduler(schedule func(run func())) EffectOption {
	return effectOptionFunc(func(e *Effect) {
		e.scheduler = schedule
	})
}

// NewEffect creates an effect and runs it immediately.
//
// Example:
//
//	e := reactive.NewEffect(func() reactive.Cleanup {
//	    fmt.Println("count is", state.Get("count"))
//	    return nil
//	})
//	defer e.Stop()
func NewEffect(fn func() Cleanup, opts ...EffectOption) *Effect {
	e := &Effect{
		id: nextID(),
		fn: fn,
	}
	for _, opt := range opts {
		opt.applyEffect(e)
	}
	e.run()
	return e
}

// ID returns the unique identifier for this effect.
// Implements the Listener interface.
func (e *Effect) ID() uint64 {
	return e.id
}

// MarkDirty schedules the effect to re-run.
// Implements the Listener interface.
func (e *Effect) MarkDirty() {
	if e.stopped.Load() {
		return
	}
	// CAS so an effect invalidated through several keys runs once.
	if !e.pending.CompareAndSwap(false, true) {
		return
	}
	if e.scheduler != nil {
		e.scheduler(e.run)
		return
	}
	e.run()
}

// Stop permanently disables the effect, runs its pending cleanup and removes
// it from every dependency bucket.
func (e *Effect) Stop() {
	if e.stopped.Swap(true) {
		return
	}
	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}
	e.clearDeps()
}

// addDep records a dependency bucket for later unsubscription.
// Implements depSink; called from track during this effect's runs.
func (e *Effect) addDep(d *dep) {
	e.depsMu.Lock()
	defer e.depsMu.Unlock()
	for _, existing := range e.deps {
		if existing == d {
			return
		}
	}
	e.deps = append(e.deps, d)
}

// clearDeps unsubscribes the effect from all buckets it appears in.
func (e *Effect) clearDeps() {
	e.depsMu.Lock()
	deps := e.deps
	e.deps = nil
	e.depsMu.Unlock()
	for _, d := range deps {
		releaseDep(d, e)
	}
}

// run executes the effect body under tracking.
func (e *Effect) run() {
	if e.stopped.Load() {
		return
	}
	e.pending.Store(false)

	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}

	// Dependencies are rebuilt from scratch on every run.
	e.clearDeps()

	// A notification may arrive from inside a paused region (sequence
	// mutators pause around their probes). The run itself must track.
	tc := currentTracking()
	paused := tc.pauseDepth
	tc.pauseDepth = 0

	old := setListener(e)
	start := time.Now()
	e.cleanup = e.fn()
	elapsed := time.Since(start)
	setListener(old)

	tc.pauseDepth = paused

	emitEffectRun(EffectRunEvent{ID: e.id, Name: e.name, Duration: elapsed})
}
