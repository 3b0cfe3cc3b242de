package fiber

import (
	"errors"
	"testing"
	"time"

	"github.com/lixenwraith/enginecore/engine"
	"github.com/lixenwraith/enginecore/event"
)

func newTestScript() *Script {
	w := engine.NewWorld()
	e := w.CreateEntity()
	return NewScript(w, e)
}

func TestFiberResumeRunsUntilFirstYield(t *testing.T) {
	s := newTestScript()
	reached := make(chan struct{})
	f := NewFiber(s, func(s *Script) error {
		close(reached)
		s.Yield(NextUpdate)
		return nil
	})

	v, alive := f.Resume(ResumeSignal{})
	if !alive {
		t.Fatal("fiber should still be alive after its first yield")
	}
	if _, ok := v.(ControlFlowToken); !ok {
		t.Fatalf("expected ControlFlowToken, got %T", v)
	}
	select {
	case <-reached:
	default:
		t.Fatal("script body never ran")
	}
}

func TestFiberResumeReportsCompletionWhenFnReturns(t *testing.T) {
	s := newTestScript()
	f := NewFiber(s, func(s *Script) error {
		return nil
	})

	_, alive := f.Resume(ResumeSignal{})
	if alive {
		t.Fatal("fiber that returns immediately should report not-alive")
	}
	if !f.Done() {
		t.Fatal("Done should be true once the fiber has returned")
	}
}

func TestFiberPropagatesScriptFuncError(t *testing.T) {
	s := newTestScript()
	sentinel := errors.New("boom")
	f := NewFiber(s, func(s *Script) error {
		return sentinel
	})
	f.Resume(ResumeSignal{})
	if f.Err() != sentinel {
		t.Fatalf("expected %v, got %v", sentinel, f.Err())
	}
}

func TestFiberMultipleYieldsRoundTripResumeSignal(t *testing.T) {
	s := newTestScript()
	type tick struct{ N int }
	var seen []int

	f := NewFiber(s, func(s *Script) error {
		for i := 0; i < 3; i++ {
			ev, ok := s.Yield(NextUpdate)
			if ok {
				if tk, ok := ev.Payload.(tick); ok {
					seen = append(seen, tk.N)
				}
			}
		}
		return nil
	})

	f.Resume(ResumeSignal{})
	f.Resume(ResumeSignal{Event: event.Opaque{Payload: tick{N: 1}}, HasEvent: true})
	f.Resume(ResumeSignal{Event: event.Opaque{Payload: tick{N: 2}}, HasEvent: true})
	_, alive := f.Resume(ResumeSignal{})
	if alive {
		t.Fatal("fiber should have completed after its third yield resumes")
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("unexpected captured sequence: %v", seen)
	}
}

func TestFiberCancelUnwindsParkedGoroutineAndRunsDefer(t *testing.T) {
	s := newTestScript()
	cleaned := make(chan struct{})

	f := NewFiber(s, func(s *Script) error {
		defer close(cleaned)
		s.Yield(UntilWake)
		t.Fatal("should never resume past Yield once cancelled")
		return nil
	})

	f.Resume(ResumeSignal{})
	f.Cancel()

	select {
	case <-cleaned:
	case <-time.After(time.Second):
		t.Fatal("cancelled fiber never ran its deferred cleanup")
	}
	if !f.Done() {
		t.Fatal("a cancelled fiber's goroutine should have exited")
	}
}

func TestFiberCancelIsIdempotent(t *testing.T) {
	s := newTestScript()
	f := NewFiber(s, func(s *Script) error {
		s.Yield(UntilWake)
		return nil
	})
	f.Resume(ResumeSignal{})
	f.Cancel()
	f.Cancel() // must not panic on double-close
}
