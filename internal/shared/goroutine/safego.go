// Package goroutine provides utilities for safely launching goroutines with panic recovery.
package goroutine

import (
	"fmt"
	"runtime/debug"

	"github.com/orris-inc/kanban/internal/shared/logger"
)

// SafeGo launches a goroutine with panic recovery. If the goroutine panics,
// the panic is caught and logged with stack trace instead of crashing the process.
func SafeGo(log logger.Interface, name string, fn func()) {
	go Recover(log, name, fn)
}

// Recover runs fn on the calling goroutine and logs a panic instead of
// propagating it. Used for listener callbacks owned by other packages.
func Recover(log logger.Interface, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("goroutine panicked",
				"goroutine", name,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}
