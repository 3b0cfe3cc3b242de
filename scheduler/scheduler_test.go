package scheduler

import (
	"testing"
	"time"

	"github.com/lixenwraith/enginecore/engine"
	"github.com/lixenwraith/enginecore/event"
	"github.com/lixenwraith/enginecore/fiber"
)

type damageEvent struct {
	Target engine.Entity
	Amount int
}

func newTestWorld(t0 time.Time) *engine.World {
	w := engine.NewWorld()
	engine.AddResource(w.ResourceStore, engine.TimeResource{GameTime: t0})
	return w
}

func advance(w *engine.World, t time.Time) {
	engine.AddResource(w.ResourceStore, engine.TimeResource{GameTime: t})
}

// Scenario 1: sleep-wake. A thread yields WaitFor(d); it must not resume
// before game time reaches t0+d, and must resume on the first tick where
// it does.
func TestSleepWake(t *testing.T) {
	t0 := time.Unix(1000, 0)
	w := newTestWorld(t0)
	sch := New(w)

	woke := make(chan struct{}, 1)
	sch.RegisterThread("sleeper", func(s *fiber.Script) error {
		fiber.WaitFor(s, 2*time.Second)
		woke <- struct{}{}
		return nil
	})

	e := w.CreateEntity()
	sch.Spawn(EntityThreadSpawnCommand{Target: e, ThreadID: "sleeper"})

	sch.Tick() // first resume: runs until WaitFor yields
	select {
	case <-woke:
		t.Fatal("should not have woken on the spawning tick")
	default:
	}

	advance(w, t0.Add(time.Second))
	sch.Tick()
	select {
	case <-woke:
		t.Fatal("should not wake before the duration elapses")
	default:
	}

	advance(w, t0.Add(3*time.Second))
	sch.Tick()
	select {
	case <-woke:
	default:
		t.Fatal("should have woken once game time passed t0+2s")
	}
}

// Scenario 2: state termination. Every thread bound to a state is
// terminated, with exactly one OnThreadComplete each, the moment the
// entity leaves that state — and never resumed afterward.
func TestStateTermination(t *testing.T) {
	w := newTestWorld(time.Unix(0, 0))
	sch := New(w)
	w.AddSystem(sch)
	sch.Init()

	resumedAfterTermination := false
	sch.RegisterThread("guard", func(s *fiber.Script) error {
		for {
			fiber.Pause(s)
			resumedAfterTermination = true
		}
	})
	sch.RegisterState("alert", []fiber.ThreadID{"guard"})
	sch.RegisterState("idle", nil)

	var completions []OnThreadComplete
	event.Subscribe(w.Bus, nil, func(c OnThreadComplete) {
		completions = append(completions, c)
	})

	e := w.CreateEntity()
	sch.ChangeState(StateChangeCommand{Entity: e, NewState: "alert"})
	sch.Tick() // guard thread runs to its first Pause

	handle, ok := sch.findByThreadID(e, "guard")
	if !ok {
		t.Fatal("expected a running guard thread bound to state alert")
	}
	if !handle.boundState || handle.state != "alert" {
		t.Fatalf("expected thread bound to state %q, got bound=%v state=%q", "alert", handle.boundState, handle.state)
	}

	sch.ChangeState(StateChangeCommand{Entity: e, NewState: "idle"})

	if len(completions) != 1 {
		t.Fatalf("expected exactly one OnThreadComplete, got %d", len(completions))
	}
	if completions[0].ThreadID != "guard" || completions[0].Entity != e {
		t.Fatalf("unexpected completion record: %+v", completions[0])
	}

	if _, ok := sch.threads[ThreadHandle{Entity: e, ThreadID: "guard", Instance: 0}]; ok {
		t.Fatal("guard thread should have been removed")
	}

	// Further ticks must never resume the terminated fiber.
	for i := 0; i < 3; i++ {
		sch.Tick()
	}
	if resumedAfterTermination {
		t.Fatal("a thread terminated by a state change must not run again")
	}
	if len(completions) != 1 {
		t.Fatal("OnThreadComplete must be emitted exactly once, not on every later tick")
	}
}

// Scenario 5: event-predicate filtering. A thread awaiting an event of a
// type gated by a predicate must not wake for non-matching deliveries and
// must wake (with the event captured) for a matching one.
func TestEventPredicateFiltering(t *testing.T) {
	w := newTestWorld(time.Unix(0, 0))
	sch := New(w)
	w.AddSystem(sch)
	sch.Init()

	target := w.CreateEntity()
	other := w.CreateEntity()

	var capturedAmount int
	done := make(chan struct{})
	sch.RegisterThread("victim", func(s *fiber.Script) error {
		dmg, _ := fiber.UntilPredicate[damageEvent](s, func(ev damageEvent) bool {
			return ev.Target == target
		})
		capturedAmount = dmg.Amount
		close(done)
		return nil
	})

	sch.Spawn(EntityThreadSpawnCommand{Target: target, ThreadID: "victim"})
	sch.Tick()

	event.Emit(w.Bus, damageEvent{Target: other, Amount: 5})
	select {
	case <-done:
		t.Fatal("should not wake for an event targeting a different entity")
	default:
	}

	event.Emit(w.Bus, damageEvent{Target: target, Amount: 12})
	select {
	case <-done:
	default:
		t.Fatal("should have woken for the matching event")
	}
	if capturedAmount != 12 {
		t.Fatalf("expected captured amount 12, got %d", capturedAmount)
	}
}

// Scenario 6: child script inheritance. A thread spawns an inline child
// fiber bound to its own state; when that state ends, the child
// terminates alongside its parent's siblings.
func TestChildScriptInheritsParentState(t *testing.T) {
	w := newTestWorld(time.Unix(0, 0))
	sch := New(w)
	w.AddSystem(sch)
	sch.Init()

	var childCompleted, parentCompleted bool
	event.Subscribe(w.Bus, nil, func(c OnThreadComplete) {
		switch c.ThreadID {
		case "child":
			childCompleted = true
		case "parent":
			parentCompleted = true
		}
	})

	sch.RegisterThread("parent", func(s *fiber.Script) error {
		fiber.SpawnChild(s, "child", true, func(cs *fiber.Script) error {
			fiber.Pause(cs)
			return nil
		})
		fiber.Pause(s)
		return nil
	})
	sch.RegisterState("active", []fiber.ThreadID{"parent"})
	sch.RegisterState("done", nil)

	e := w.CreateEntity()
	sch.ChangeState(StateChangeCommand{Entity: e, NewState: "active"})
	sch.Tick() // parent runs and yields the spawn, which registers the child; the child does not run this tick

	if _, ok := sch.threads[ThreadHandle{Entity: e, ThreadID: "parent", Instance: 0}]; !ok {
		t.Fatal("expected the parent thread to still be running")
	}
	childTh, ok := sch.threads[ThreadHandle{Entity: e, ThreadID: "child", Instance: 0}]
	if !ok {
		t.Fatal("expected the adopted child thread to be registered")
	}
	if !childTh.boundState || childTh.state != "active" {
		t.Fatalf("expected the child to inherit state %q, got bound=%v state=%q", "active", childTh.boundState, childTh.state)
	}

	sch.ChangeState(StateChangeCommand{Entity: e, NewState: "done"})

	if !parentCompleted {
		t.Fatal("the parent thread itself was bound to state active and should have terminated")
	}
	if !childCompleted {
		t.Fatal("child thread inheriting its parent's state binding should terminate when that state ends")
	}
	if _, ok := sch.threads[ThreadHandle{Entity: e, ThreadID: "child", Instance: 0}]; ok {
		t.Fatal("inherited child thread should have been removed on state change")
	}
}
