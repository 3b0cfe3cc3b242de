// Package scheduler implements the entity-state and thread scheduler: the
// System that drives every entity's script fibers, dispatches ticks and
// bus events into whichever threads are waiting on them, and applies
// entity-state transitions (terminating the threads bound to the state
// being left, spawning the threads templated by the state being entered).
package scheduler

import (
	"github.com/lixenwraith/enginecore/engine"
	"github.com/lixenwraith/enginecore/fiber"
)

// ThreadHandle identifies one running entity thread: the entity it is
// bound to, the thread template it was spawned from, and which instance
// this is when the same ThreadID is spawned on the same entity more than
// once (RestartExisting: false).
type ThreadHandle struct {
	Entity   engine.Entity
	ThreadID fiber.ThreadID
	Instance int
}

// SpawnFlags modifies how EntityThreadFiberSpawnCommand adopts a fiber.
type SpawnFlags uint8

const (
	// FlagInheritState binds the adopted thread to SourceStateIndex, the
	// same state the spawning thread was itself bound to, so a child
	// script spawned mid-state is torn down alongside its parent's
	// siblings when that state ends.
	FlagInheritState SpawnFlags = 1 << iota
)

// EntityThreadSpawnCommand spawns a new thread on Target from the script
// template registered under ThreadID.
type EntityThreadSpawnCommand struct {
	Target          engine.Entity
	ThreadID        fiber.ThreadID
	RestartExisting bool // terminate and replace an existing thread of the same ThreadID on Target
	HasStateIndex   bool
	StateIndex      int // binds the spawned thread to a registered state, so ChangeState can terminate it
}

// EntityThreadFiberSpawnCommand adopts an already-constructed fiber as a
// new thread, rather than building one from a registered template. This
// is how a running script spawns an inline child script: the parent
// builds the *fiber.Fiber itself (its body is a closure over the parent's
// own locals) and hands it to the scheduler to drive.
type EntityThreadFiberSpawnCommand struct {
	Target           engine.Entity
	Fiber            *fiber.Fiber
	SourceStateIndex int
	SourceThreadName fiber.ThreadID
	NewThreadName    fiber.ThreadID
	Flags            SpawnFlags
	ScriptHandle     any // opaque, caller-defined identity for tracing the spawn back to its origin
}

// StateChangeCommand transitions Entity to NewState: every thread
// currently bound to Entity's prior state is terminated, then every
// thread template registered for NewState (via Scheduler.RegisterState)
// is spawned and bound to it.
type StateChangeCommand struct {
	Entity   engine.Entity
	NewState fiber.EntityStateHash
}

// OnThreadComplete is emitted exactly once for every thread that stops
// running, whatever the reason: its ScriptFunc returned, it yielded
// ControlFlowToken(Complete), or it was terminated by a state change.
type OnThreadComplete struct {
	Entity   engine.Entity
	ThreadID fiber.ThreadID
	Instance int
}

// waitKind normalizes the yield vocabulary into the handful of ways the
// scheduler actually decides whether to resume a suspended thread.
type waitKind uint8

const (
	waitNextUpdate waitKind = iota
	waitExplicit            // ControlFlowToken(UntilWake): only WakeThread (or a satisfied predicate) resumes it
	waitEvent               // EventYieldRequest: only a matching delivered event (or a satisfied predicate) resumes it
	waitTimer
	waitDuration
)
