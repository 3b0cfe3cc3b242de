// This file is the script-authoring surface: the functions a ScriptFunc
// body actually calls. Each wraps a YieldValue construction and a
// Script.Yield/Await pair so script code reads as a sequence of blocking
// calls rather than exposing the yield vocabulary directly.
package fiber

import (
	"time"

	"github.com/lixenwraith/enginecore/engine"
	"github.com/lixenwraith/enginecore/event"
)

// Until suspends the calling script until an event of type T is
// delivered, and returns its payload.
func Until[T any](s *Script) (T, bool) {
	req := EventYieldRequest{Type: event.TypeIDFor[T]()}
	return Await[T](s, req)
}

// UntilPredicate suspends until an event of type T is delivered for which
// predicate returns true. predicate may take any of the forms
// WrapPredicate accepts, including payload-typed ones such as
// func(T) bool. The predicate is also polled on each tick with no event; a
// form that takes no event can wake the script that way, and the bool
// result is then false.
func UntilPredicate[T any](s *Script, predicate any) (T, bool) {
	req := ConditionalYieldRequest{
		Underlying: EventYieldRequest{Type: event.TypeIDFor[T]()},
		Predicate:  WrapPredicate(predicate),
	}
	return Await[T](s, req)
}

// UntilEventValue suspends until an event of type T is delivered whose
// payload equals value exactly.
func UntilEventValue[T comparable](s *Script, value T) (T, bool) {
	req := ConditionalYieldRequest{
		Underlying: EventYieldRequest{Type: event.TypeIDFor[T]()},
		Predicate: func(_ *Script, ev event.Opaque, hasEvent bool) bool {
			if !hasEvent {
				return false
			}
			payload, ok := ev.Payload.(T)
			return ok && payload == value
		},
	}
	return Await[T](s, req)
}

// Pause suspends the calling script until Scheduler.WakeThread is called
// on it; neither a tick nor any event wakes it on their own.
func Pause(s *Script) {
	s.Yield(UntilWake)
}

// PauseIf suspends until predicate returns true, polled once per tick.
// predicate accepts func() bool or func(*Script) bool (it has no event to
// offer, since this is a tick-only wait).
func PauseIf(s *Script, predicate any) {
	s.Yield(ConditionalYieldRequest{Underlying: UntilWake, Predicate: WrapPredicate(predicate)})
}

// WaitUntil suspends until timer.Completed() reports true, polled once
// per tick; the timer reads its own TimeProvider clock.
func WaitUntil(s *Script, timer *engine.Timer) {
	s.Yield(WaitUntilValue{Timer: timer})
}

// WaitFor suspends for d, measured from the tick it is yielded.
func WaitFor(s *Script, d time.Duration) {
	s.Yield(WaitForValue(d))
}

// StateChange requests a state transition on the calling script's entity.
// If the calling thread itself is bound to the entity's current state, the
// scheduler terminates it as part of applying the transition and this call
// never returns (the goroutine unwinds via Fiber.Cancel); otherwise it
// returns normally on the following tick.
func StateChange(s *Script, hash EntityStateHash) {
	s.Yield(hash)
}

// Event queues payload onto the world's bus for delivery on the next
// Update pass, then suspends until that same event type is actually
// dispatched, returning the delivered payload. This differs from the
// variadic multi-argument event-raising form scripts in other engines
// use: Go's type system already gives QueueEvent a single typed payload,
// so raising a multi-field event is just constructing the struct first.
func Event[T any](s *Script, payload T) (T, bool) {
	event.QueueEvent(s.World.Bus, payload)
	return Until[T](s)
}

// SpawnChild builds a fiber running body on the calling script's own
// entity and hands it to the scheduler as an inline child thread named
// id. When inheritState is true the child is bound to whatever state the
// calling thread is itself bound to, so it terminates alongside its
// parent's siblings when that state ends.
func SpawnChild(s *Script, id ThreadID, inheritState bool, body ScriptFunc) {
	childScript := NewScript(s.World, s.Entity)
	childFiber := NewFiber(childScript, body)
	s.Yield(EntityInstruction{
		Kind:         InstructionAdoptFiber,
		ThreadID:     id,
		Fiber:        childFiber,
		InheritState: inheritState,
	})
}
