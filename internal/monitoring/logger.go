// Package monitoring is the diagnostic log seam for the engine's library
// packages. The resolver, recipe registry, scene provider and ancillary
// loader all write through Logf so an embedding program can redirect or
// mute their output without touching the global stdlib logger.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf
// and may be replaced with SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op
// logger, silencing library diagnostics entirely.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
