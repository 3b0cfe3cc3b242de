package fiber

import (
	"runtime"
	"sync"

	"github.com/lixenwraith/enginecore/core"
	"github.com/lixenwraith/enginecore/event"
)

// ScriptFunc is a script body: it runs on its own goroutine, blocking on
// s.Yield whenever it needs to wait, and returns when the thread is done.
// A non-nil error is logged by the caller driving the fiber; it does not
// otherwise change the termination sequence (a fiber that returns an error
// still completes, it just completes noisily).
type ScriptFunc func(s *Script) error

// ResumeSignal is what a driver hands back into a parked fiber: either a
// delivered event, or nothing (a plain tick wake).
type ResumeSignal struct {
	Event    event.Opaque
	HasEvent bool
}

// Fiber is the goroutine-backed coroutine a ScriptFunc runs on. It is
// never resumed concurrently with itself — the scheduler that owns it
// guarantees a single in-flight Resume call at a time, the same
// single-threaded cooperative contract World.RunSafe enforces on the rest
// of the engine.
type Fiber struct {
	script *Script
	fn     ScriptFunc

	started bool
	err     error

	yieldCh    chan YieldValue
	resumeCh   chan ResumeSignal
	doneCh     chan struct{}
	cancelCh   chan struct{}
	cancelOnce sync.Once
}

// NewFiber constructs a Fiber bound to s, running fn once started. s.fiber
// is wired to the new Fiber so Script.Yield can reach its channels.
func NewFiber(s *Script, fn ScriptFunc) *Fiber {
	f := &Fiber{
		script:   s,
		fn:       fn,
		yieldCh:  make(chan YieldValue),
		resumeCh: make(chan ResumeSignal),
		doneCh:   make(chan struct{}),
		cancelCh: make(chan struct{}),
	}
	s.fiber = f
	return f
}

// Script returns the Script this fiber drives, for callers (the
// scheduler's spawn-fiber path) that received a *Fiber without having
// built it themselves.
func (f *Fiber) Script() *Script { return f.script }

// Err returns the error fn returned, once the fiber is done. Zero value
// while still running.
func (f *Fiber) Err() error { return f.err }

// Resume starts the fiber on first call, or delivers sig to its pending
// Yield call on subsequent ones, then blocks until the fiber yields again
// or finishes. The returned bool is false exactly when the fiber has
// completed (fn returned, or it yielded ControlFlowToken(Complete) and was
// cancelled) — the caller should stop driving it in that case.
func (f *Fiber) Resume(sig ResumeSignal) (YieldValue, bool) {
	if !f.started {
		f.started = true
		core.Go(func() {
			defer close(f.doneCh)
			f.err = f.fn(f.script)
		})
	} else {
		select {
		case f.resumeCh <- sig:
		case <-f.doneCh:
			return nil, false
		}
	}

	select {
	case v := <-f.yieldCh:
		return v, true
	case <-f.doneCh:
		return nil, false
	}
}

// Cancel terminates the fiber: a goroutine currently parked in Yield
// unwinds via runtime.Goexit, running its deferred cleanup without ever
// resuming into script code again. Idempotent.
func (f *Fiber) Cancel() {
	f.cancelOnce.Do(func() { close(f.cancelCh) })
}

// Done reports whether the fiber's goroutine has returned.
func (f *Fiber) Done() bool {
	select {
	case <-f.doneCh:
		return true
	default:
		return false
	}
}

// yield is the fiber-goroutine side of the rendezvous: hand v to whoever
// is resuming us and block for the next ResumeSignal, or unwind if
// cancelled while waiting either way.
func (f *Fiber) yield(v YieldValue) (event.Opaque, bool) {
	select {
	case f.yieldCh <- v:
	case <-f.cancelCh:
		runtime.Goexit()
	}

	select {
	case sig := <-f.resumeCh:
		return sig.Event, sig.HasEvent
	case <-f.cancelCh:
		runtime.Goexit()
	}
	panic("unreachable")
}
