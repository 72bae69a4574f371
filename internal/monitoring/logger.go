package monitoring

import "log"

// Logf is the package-level diagnostic logger used by the tracker. It
// defaults to log.Printf but may be replaced by SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Warnf logs a condition the run survives but the operator should see,
// such as a full candidate pool or a rejected non-finite fit.
func Warnf(format string, v ...interface{}) {
	Logf("WARN: "+format, v...)
}
