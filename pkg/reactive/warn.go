package reactive

import (
	"log/slog"
	"sync/atomic"
)

// DevMode enables development-time diagnostics. When true, degraded outcomes
// (wrapping an ineligible value, writing through a readonly handle, writing a
// readonly cell) are logged with context. When false, they are silent.
//
// The warning channel never raises: all degraded outcomes are local and
// recoverable by design.
//
// Set this at application startup:
//
//	func main() {
//	    reactive.DevMode = os.Getenv("VEIL_DEV") == "1"
//	    // ...
//	}
var DevMode = false

// warnLogger is the destination for development warnings.
var warnLogger atomic.Pointer[slog.Logger]

// SetLogger replaces the logger used for development warnings.
// Passing nil restores the process default.
func SetLogger(l *slog.Logger) {
	warnLogger.Store(l)
}

// warn emits a development-mode diagnostic. No-op in production builds.
func warn(msg string, args ...any) {
	if !DevMode {
		return
	}
	l := warnLogger.Load()
	if l == nil {
		l = slog.Default()
	}
	l.Warn(msg, args...)
}
