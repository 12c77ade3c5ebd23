package util

import (
	"runtime/debug"

	"github.com/bridgeboard/bridgeboard/internal/logging"
)

// SafeGo runs fn on a new goroutine with panic recovery. A panic is logged
// with its stack trace instead of crashing the daemon.
func SafeGo(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.Error("goroutine panic recovered",
					"panic", r,
					"stack", string(debug.Stack()),
				)
			}
		}()
		fn()
	}()
}

// SafeGoWithName is SafeGo with a goroutine name attached to the panic log.
func SafeGoWithName(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.Error("goroutine panic recovered",
					"goroutine", name,
					"panic", r,
					"stack", string(debug.Stack()),
				)
			}
		}()
		fn()
	}()
}
