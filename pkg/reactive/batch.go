package reactive

// Batch groups writes into a single notification phase. All notifications
// raised inside fn are collected, deduplicated by listener, and delivered
// once when the outermost batch completes.
//
// Batches nest; only the outermost completion flushes.
//
// Example:
//
//	reactive.Batch(func() {
//	    user.Set("first", "John")
//	    user.Set("last", "Doe")
//	})
//	// Dependents of both keys re-run once.
func Batch(fn func()) {
	tc := currentTracking()
	tc.batchDepth++

	defer func() {
		tc.batchDepth--
		if tc.batchDepth == 0 {
			flushPending(tc)
		}
	}()

	fn()
}

// flushPending deduplicates and notifies all listeners queued during a batch.
func flushPending(tc *trackingContext) {
	pending := tc.pending
	tc.pending = nil
	if len(pending) == 0 {
		return
	}

	seen := make(map[uint64]bool, len(pending))
	for _, l := range pending {
		if seen[l.ID()] {
			continue
		}
		seen[l.ID()] = true
		l.MarkDirty()
	}
}

// Untracked runs fn without recording dependencies. Reads inside fn do not
// subscribe the active listener.
//
//	reactive.Untracked(func() {
//	    log.Println("current:", state.Get("count"))
//	})
func Untracked(fn func()) {
	pauseTracking()
	defer resumeTracking()
	fn()
}
