// Package fiber implements the script fiber runtime: a cooperative,
// goroutine-backed coroutine that a script function runs on, yielding
// control back to its owning scheduler through a small closed vocabulary
// of wait conditions instead of returning.
//
// A script body looks like a synchronous function that occasionally
// blocks — WaitFor(2 * time.Second), UntilEventValue(s, target) — but
// every blocking call is really a channel handoff to whatever goroutine is
// driving the fiber, so the caller's own goroutine (the scheduler's tick
// loop) is never occupied while a thousand scripts sleep.
package fiber

import (
	"time"

	"github.com/lixenwraith/enginecore/engine"
	"github.com/lixenwraith/enginecore/event"
)

// ThreadID names a script template an EntityThreadSpawnCommand can spawn
// and an EntityState's thread list can reference.
type ThreadID string

// EntityStateHash identifies an entity-state binding: the name a
// StateChangeCommand transitions to and an EntityThreadSpawnCommand can
// bind a spawned thread against.
type EntityStateHash string

// YieldValue is the union every value passed to Script.Yield (and
// returned by a ScriptFunc's yields) must satisfy. Go has no sum type, so
// this is the usual closed-set-of-implementers substitute: every concrete
// yield kind implements the unexported marker method, so only this
// package's own types can satisfy it.
type YieldValue interface {
	isYieldValue()
}

// ControlFlowToken is the plain, payload-free yield vocabulary.
type ControlFlowToken uint8

const (
	// NextUpdate suspends the fiber until the very next tick, unconditionally.
	NextUpdate ControlFlowToken = iota
	// UntilWake suspends the fiber until something external calls
	// Scheduler.WakeThread on it; ticks and events never wake it on their
	// own unless wrapped in a ConditionalYieldRequest with a predicate.
	UntilWake
	// Complete declares the fiber done without returning from its
	// ScriptFunc; the scheduler cancels it and emits OnThreadComplete.
	Complete
)

func (ControlFlowToken) isYieldValue() {}

// EventYieldRequest suspends the fiber until an event of Type (or any
// type, if Type is event.AnyTypeID) is delivered through the scheduler's
// bus subscription. Used bare this only wakes on delivery, never on a
// plain tick; wrap it in a ConditionalYieldRequest to also filter by a
// predicate over the event's payload.
type EventYieldRequest struct {
	Type event.TypeID
}

func (EventYieldRequest) isYieldValue() {}

// ConditionalYieldRequest wraps another YieldValue with a Predicate that
// gates the wake: the predicate must return true. For timer, duration and
// next-tick waits the underlying condition must also hold; for event and
// explicit-wake waits the predicate is additionally polled on each tick
// with no event, and a true result there wakes the fiber on its own.
type ConditionalYieldRequest struct {
	Underlying YieldValue
	Predicate  Predicate
}

func (ConditionalYieldRequest) isYieldValue() {}

// WaitUntilValue suspends the fiber until Timer.Completed() reports true,
// polled once per tick.
type WaitUntilValue struct {
	Timer *engine.Timer
}

func (WaitUntilValue) isYieldValue() {}

// WaitForValue suspends the fiber for a fixed duration measured from the
// tick it was yielded, resolved against the scheduler's published clock
// resource rather than wall-clock time.
type WaitForValue time.Duration

func (WaitForValue) isYieldValue() {}

func (EntityStateHash) isYieldValue() {}

// InstructionKind discriminates the declarative commands an
// EntityInstruction carries.
type InstructionKind uint8

const (
	InstructionSpawnThread InstructionKind = iota
	InstructionAdoptFiber
)

// EntityInstruction is a declarative command a script yields for the
// scheduler to enact (spawn a sibling thread, adopt an already-built
// fiber) without itself suspending beyond the next tick.
type EntityInstruction struct {
	Kind            InstructionKind
	ThreadID        ThreadID
	RestartExisting bool
	HasStateIndex   bool
	StateIndex      int
	Fiber           *Fiber // set only for InstructionAdoptFiber
	InheritState    bool   // InstructionAdoptFiber only: bind the child to the yielding thread's own state
}

func (EntityInstruction) isYieldValue() {}
