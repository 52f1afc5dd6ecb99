package wifitrack

import "sync/atomic"

// verboseLogging mirrors the platform's verbose-logging bit. It is
// read from any goroutine and written only by the worker on startup,
// per the design note that this is process-wide, read-mostly state.
var verboseLogging atomic.Bool

// SetVerboseLogging updates the process-wide verbose-logging flag.
// Typically called once from Tracker.Start when snapshotting platform
// state.
func SetVerboseLogging(v bool) {
	verboseLogging.Store(v)
}

// VerboseLogging reports the current value of the verbose-logging flag.
func VerboseLogging() bool {
	return verboseLogging.Load()
}
