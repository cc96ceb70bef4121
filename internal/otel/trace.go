package otel

import (
	"os"
	"sync/atomic"
)

var traceEnabled atomic.Bool

func init() {
	traceEnabled.Store(os.Getenv("REELS_TRACE") != "")
}

// TraceEnabled reports whether REELS_TRACE was set at startup. When true
// the viewer emits a trace event for every message it handles.
func TraceEnabled() bool {
	return traceEnabled.Load()
}

func setTraceEnabled(v bool) {
	traceEnabled.Store(v)
}
