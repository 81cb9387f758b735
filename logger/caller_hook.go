package logger

import (
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// callerHook rewrites the caller logrus reports so log lines point at
// the real call site instead of a wrapper inside this package.
type callerHook struct{}

func (h *callerHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire walks the stack past the logrus dispatch chain and this
// package's wrappers and pins the first foreign frame as the caller.
func (h *callerHook) Fire(entry *logrus.Entry) error {
	pcs := make([]uintptr, 24)
	// The first frames belong to runtime.Callers, this hook and the
	// logrus internals that invoked it.
	depth := runtime.Callers(6, pcs)
	frames := runtime.CallersFrames(pcs[:depth])
	for {
		frame, more := frames.Next()
		if !wrapperFrame(frame.Function) {
			entry.Caller = &frame
			return nil
		}
		if !more {
			return nil
		}
	}
}

func wrapperFrame(fn string) bool {
	return strings.Contains(fn, "sirupsen/logrus") || strings.Contains(fn, "niftypulse/logger")
}
