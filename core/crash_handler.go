package core

import (
	"runtime/debug"

	"github.com/lixenwraith/enginecore/log"
)

var crashLog = log.New("core.crash")

// Go runs fn in a new goroutine with panic recovery, so a single misbehaving
// fiber or background loop (scheduler, physics bridge) cannot take the whole
// process down. Recovered panics are logged, never re-raised.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}

// HandleCrash is the unified panic handler for goroutines launched via Go.
// Unlike a CLI front end, a library has no terminal to restore and no
// business calling os.Exit on the caller's behalf; it logs the stack trace
// and returns, leaving the decision to terminate with the host application.
func HandleCrash(r any) {
	if r == nil {
		return
	}
	crashLog.With("recovered", r).Errorf("panic recovered:\n%s", debug.Stack())
}
