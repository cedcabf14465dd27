// Package monitoring holds the diagnostic logger and the prometheus
// collectors for the capture engine.
package monitoring

import "log"

// Logf is the diagnostic logger used by the engine and its infrastructure.
// It defaults to log.Printf; SetLogger redirects or mutes it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
