// Package monitoring carries the process-wide diagnostic logger.
package monitoring

import "log"

// Logf is the diagnostic logger used across the ingestion pipeline. It
// defaults to log.Printf; SetLogger swaps it out (tests usually mute it).
var Logf func(format string, v ...interface{}) = log.Printf

// Debug enables verbose per-fix diagnostics (rejected fixes, gate decisions).
// Off by default: a dense GPS burst can produce many rejections per second.
var Debug bool

// SetLogger replaces the package logger. A nil argument installs a no-op
// logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Debugf logs only when Debug is set.
func Debugf(format string, v ...interface{}) {
	if Debug {
		Logf(format, v...)
	}
}
