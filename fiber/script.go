package fiber

import (
	"github.com/lixenwraith/enginecore/engine"
	"github.com/lixenwraith/enginecore/event"
)

// Script is the per-fiber handle a ScriptFunc runs against: the entity it
// is bound to, the World it can read and mutate, and the captured event
// (if its last wake was event-driven) a script body can inspect without
// the scheduler threading it through every call.
type Script struct {
	Entity engine.Entity
	World  *engine.World

	fiber       *Fiber
	captured    event.Opaque
	hasCaptured bool
}

// NewScript constructs a Script bound to e, ready to be handed to NewFiber.
func NewScript(w *engine.World, e engine.Entity) *Script {
	return &Script{World: w, Entity: e}
}

// Self returns the entity this script is bound to.
func (s *Script) Self() engine.Entity { return s.Entity }

// CapturedEvent returns the event that woke this script, if its last
// resume was event-driven rather than a plain tick or timer completion.
func (s *Script) CapturedEvent() (event.Opaque, bool) {
	return s.captured, s.hasCaptured
}

// Parent returns the entity's parent in the relationship tree, or
// engine.NullEntity if it has none.
func (s *Script) Parent() engine.Entity {
	if rel, ok := engine.Get(s.World.Relationships, s.Entity); ok {
		return rel.Parent
	}
	return engine.NullEntity
}

// Children returns the entity's direct children in the relationship tree.
func (s *Script) Children() []engine.Entity {
	return s.World.Children(s.Entity)
}

// Yield hands v to whatever is driving this fiber (the scheduler's tick
// loop) and blocks until it is resumed, returning the event that woke it
// (if any) and whether one was captured. The rendezvous is strictly 1:1:
// call Yield only from the script body; it does not check which goroutine
// is calling.
func (s *Script) Yield(v YieldValue) (event.Opaque, bool) {
	ev, hasEvent := s.fiber.yield(v)
	s.captured = ev
	s.hasCaptured = hasEvent
	return ev, hasEvent
}
