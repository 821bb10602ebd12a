package safe

import (
	"CommLink/logger"
)

// SafeGo starts a new goroutine that recovers from panic,
// so that panics don't crash the entire program.
func SafeGo(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[SafeGo] panic recovered: %v", r)
			}
		}()
		f()
	}()
}

// Recovered runs f in the current goroutine and swallows a panic,
// logging it instead. Used inside per-connection event handlers where
// one bad frame must not take down the shared read loop.
func Recovered(tag string, f func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[%s] panic recovered: %v", tag, r)
		}
	}()
	f()
}
