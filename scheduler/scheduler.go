package scheduler

import (
	"time"

	channerics "github.com/niceyeti/channerics/channels"

	"github.com/lixenwraith/enginecore/engine"
	"github.com/lixenwraith/enginecore/event"
	"github.com/lixenwraith/enginecore/fiber"
	"github.com/lixenwraith/enginecore/log"
)

var schedLog = log.New("scheduler.threads")

type wait struct {
	kind      waitKind
	typeID    event.TypeID
	predicate fiber.Predicate
	timer     *engine.Timer
	deadline  time.Time
}

type entityThread struct {
	handle ThreadHandle
	fiber  *fiber.Fiber
	script *fiber.Script

	wait      wait
	suspended bool

	boundState bool
	state      fiber.EntityStateHash

	completeCh chan ThreadHandle
}

// Scheduler is the Entity-State & Thread Scheduler System: it owns every
// entity thread's fiber, dispatches ticks and bus events into the threads
// waiting on them in deterministic spawn order, and applies state
// transitions. Register it with World.AddSystem after the physics bridge
// so a tick's kinematic results are visible to scripts resuming the same
// tick (see Bridge.Priority's doc comment for the full tick order).
type Scheduler struct {
	engine.SystemBase

	templates      map[fiber.ThreadID]fiber.ScriptFunc
	stateTemplates map[fiber.EntityStateHash][]fiber.ThreadID
	stateIndexOf   map[fiber.EntityStateHash]int
	stateByIndex   map[int]fiber.EntityStateHash
	stateOrder     []fiber.EntityStateHash

	entityState map[engine.Entity]fiber.EntityStateHash

	threads  map[ThreadHandle]*entityThread
	order    []ThreadHandle
	instance map[engine.Entity]map[fiber.ThreadID]int

	clock uint64
}

// New constructs a Scheduler bound to w. Call RegisterThread/RegisterState
// before the first Spawn/ChangeState that needs them, and AddSystem(s) to
// have World drive it every Update.
func New(w *engine.World) *Scheduler {
	return &Scheduler{
		SystemBase:     engine.NewSystemBase(w),
		templates:      make(map[fiber.ThreadID]fiber.ScriptFunc),
		stateTemplates: make(map[fiber.EntityStateHash][]fiber.ThreadID),
		stateIndexOf:   make(map[fiber.EntityStateHash]int),
		stateByIndex:   make(map[int]fiber.EntityStateHash),
		entityState:    make(map[engine.Entity]fiber.EntityStateHash),
		threads:        make(map[ThreadHandle]*entityThread),
		instance:       make(map[engine.Entity]map[fiber.ThreadID]int),
	}
}

// Name identifies this System for logging and service-dependency wiring.
func (sch *Scheduler) Name() string { return "scheduler.threads" }

// Priority runs the scheduler after the physics bridge, per the per-update
// control flow: event drain, then physics bridge, then scheduler tick.
func (sch *Scheduler) Priority() int { return 1 }

// Init subscribes the scheduler to every event the bus dispatches, so
// Update's event-dispatch phase can match pending threads against
// whichever event just arrived without the bus knowing anything about
// threads or predicates.
func (sch *Scheduler) Init() {
	sch.World.Bus.SubscribeAny(sch, sch.onAnyEvent)
}

// Update runs one tick dispatch pass over every suspended thread.
func (sch *Scheduler) Update() { sch.Tick() }

// RegisterThread names a script template so EntityThreadSpawnCommand and
// state thread-lists can spawn it by ThreadID: one map entry per callable.
func (sch *Scheduler) RegisterThread(id fiber.ThreadID, fn fiber.ScriptFunc) {
	sch.templates[id] = fn
}

// RegisterState names the set of threads an entity-state spawns on entry,
// and returns a stable integer index for that state (for
// EntityThreadSpawnCommand.StateIndex callers that only have an index on
// hand). Calling it again for an already-registered hash replaces its
// thread list without reassigning its index.
func (sch *Scheduler) RegisterState(hash fiber.EntityStateHash, threadIDs []fiber.ThreadID) int {
	sch.stateTemplates[hash] = threadIDs
	if idx, ok := sch.stateIndexOf[hash]; ok {
		return idx
	}
	idx := len(sch.stateOrder)
	sch.stateIndexOf[hash] = idx
	sch.stateByIndex[idx] = hash
	sch.stateOrder = append(sch.stateOrder, hash)
	return idx
}

func (sch *Scheduler) now() time.Time {
	if tr, ok := engine.GetResource[engine.TimeResource](sch.World.ResourceStore); ok {
		return tr.GameTime
	}
	return time.Time{}
}

func (sch *Scheduler) nextInstance(e engine.Entity, id fiber.ThreadID) int {
	byID, ok := sch.instance[e]
	if !ok {
		byID = make(map[fiber.ThreadID]int)
		sch.instance[e] = byID
	}
	n := byID[id]
	byID[id] = n + 1
	return n
}

func (sch *Scheduler) findByThreadID(e engine.Entity, id fiber.ThreadID) (*entityThread, bool) {
	for _, h := range sch.order {
		if h.Entity == e && h.ThreadID == id {
			if th, ok := sch.threads[h]; ok {
				return th, true
			}
		}
	}
	return nil, false
}

// Spawn enacts cmd, returning the new thread's handle (the zero
// ThreadHandle if Target is invalid or ThreadID has no registered
// template).
func (sch *Scheduler) Spawn(cmd EntityThreadSpawnCommand) ThreadHandle {
	if !cmd.Target.Valid() {
		return ThreadHandle{}
	}
	fn, ok := sch.templates[cmd.ThreadID]
	if !ok {
		schedLog.With("thread_id", cmd.ThreadID).Warnf("spawn requested for an unregistered thread template")
		return ThreadHandle{}
	}

	if cmd.RestartExisting {
		if existing, ok := sch.findByThreadID(cmd.Target, cmd.ThreadID); ok {
			sch.terminate(existing)
		}
	}

	instance := sch.nextInstance(cmd.Target, cmd.ThreadID)
	handle := ThreadHandle{Entity: cmd.Target, ThreadID: cmd.ThreadID, Instance: instance}
	script := fiber.NewScript(sch.World, cmd.Target)
	f := fiber.NewFiber(script, fn)

	th := &entityThread{
		handle:     handle,
		fiber:      f,
		script:     script,
		wait:       wait{kind: waitNextUpdate},
		suspended:  true,
		completeCh: make(chan ThreadHandle, 1),
	}
	if cmd.HasStateIndex {
		if hash, ok := sch.stateByIndex[cmd.StateIndex]; ok {
			th.boundState = true
			th.state = hash
		}
	}

	sch.threads[handle] = th
	sch.order = append(sch.order, handle)
	return handle
}

// SpawnFiber enacts cmd, adopting an already-built fiber as a new thread.
func (sch *Scheduler) SpawnFiber(cmd EntityThreadFiberSpawnCommand) ThreadHandle {
	if !cmd.Target.Valid() || cmd.Fiber == nil {
		return ThreadHandle{}
	}

	instance := sch.nextInstance(cmd.Target, cmd.NewThreadName)
	handle := ThreadHandle{Entity: cmd.Target, ThreadID: cmd.NewThreadName, Instance: instance}

	th := &entityThread{
		handle:     handle,
		fiber:      cmd.Fiber,
		script:     cmd.Fiber.Script(),
		wait:       wait{kind: waitNextUpdate},
		suspended:  true,
		completeCh: make(chan ThreadHandle, 1),
	}
	if cmd.Flags&FlagInheritState != 0 {
		if hash, ok := sch.stateByIndex[cmd.SourceStateIndex]; ok {
			th.boundState = true
			th.state = hash
		}
	}

	sch.threads[handle] = th
	sch.order = append(sch.order, handle)
	return handle
}

// ChangeState enacts cmd: terminates every thread currently bound to
// Entity's prior state, records the new state, then spawns every thread
// template registered for it.
func (sch *Scheduler) ChangeState(cmd StateChangeCommand) {
	if !cmd.Entity.Valid() {
		return
	}

	if old, had := sch.entityState[cmd.Entity]; had {
		for _, h := range append([]ThreadHandle(nil), sch.order...) {
			th, ok := sch.threads[h]
			if !ok || th.handle.Entity != cmd.Entity || !th.boundState || th.state != old {
				continue
			}
			sch.terminate(th)
		}
	}

	sch.entityState[cmd.Entity] = cmd.NewState

	idx := sch.stateIndexOf[cmd.NewState]
	for _, tid := range sch.stateTemplates[cmd.NewState] {
		sch.Spawn(EntityThreadSpawnCommand{
			Target:        cmd.Entity,
			ThreadID:      tid,
			HasStateIndex: true,
			StateIndex:    idx,
		})
	}
}

// WakeThread resumes handle unconditionally, the only thing that wakes a
// thread suspended on a bare ControlFlowToken(UntilWake).
func (sch *Scheduler) WakeThread(handle ThreadHandle) {
	th, ok := sch.threads[handle]
	if !ok || !th.suspended {
		return
	}
	sch.resumeThread(th, event.Opaque{}, false)
	sch.compact()
}

// AnyThreadComplete returns a channel that delivers the handle of each
// currently-live thread as it completes, fanned in from every thread's own
// completion channel via channerics.Merge. This is a snapshot: a thread
// spawned after this call is not included, matching Merge's fixed input
// list (see DESIGN.md).
func (sch *Scheduler) AnyThreadComplete(done <-chan struct{}) <-chan ThreadHandle {
	chans := make([]<-chan ThreadHandle, 0, len(sch.threads))
	for _, th := range sch.threads {
		chans = append(chans, th.completeCh)
	}
	return channerics.Merge(done, chans...)
}

// Tick resumes every suspended thread whose wait condition is satisfied,
// in deterministic spawn order.
func (sch *Scheduler) Tick() {
	sch.clock++
	now := sch.now()

	for _, h := range append([]ThreadHandle(nil), sch.order...) {
		th, ok := sch.threads[h]
		if !ok || !th.suspended {
			continue
		}
		if !sch.tickWakes(th, now) {
			continue
		}
		sch.resumeThread(th, event.Opaque{}, false)
	}
	sch.compact()
}

func (sch *Scheduler) tickWakes(th *entityThread, now time.Time) bool {
	w := th.wait
	switch w.kind {
	case waitNextUpdate:
		return w.predicate == nil || w.predicate(th.script, event.Opaque{}, false)
	case waitTimer:
		if w.timer == nil || !w.timer.Completed() {
			return false
		}
		return w.predicate == nil || w.predicate(th.script, event.Opaque{}, false)
	case waitDuration:
		if now.Before(w.deadline) {
			return false
		}
		return w.predicate == nil || w.predicate(th.script, event.Opaque{}, false)
	case waitExplicit, waitEvent:
		// Tick alone never satisfies an event-or-explicit-wake wait unless
		// it also carries a predicate, which is allowed to poll each tick
		// the way PauseIf/UntilPredicate do.
		if w.predicate == nil {
			return false
		}
		return w.predicate(th.script, event.Opaque{}, false)
	default:
		return false
	}
}

func (sch *Scheduler) onAnyEvent(op event.Opaque) {
	for _, h := range append([]ThreadHandle(nil), sch.order...) {
		th, ok := sch.threads[h]
		if !ok || !th.suspended || th.wait.kind != waitEvent {
			continue
		}
		if th.wait.typeID != event.AnyTypeID && th.wait.typeID != op.Type {
			continue
		}
		if th.wait.predicate != nil && !th.wait.predicate(th.script, op, true) {
			continue
		}
		sch.resumeThread(th, op, true)
	}
	sch.compact()
}

func (sch *Scheduler) resumeThread(th *entityThread, ev event.Opaque, hasEvent bool) {
	th.suspended = false
	v, alive := th.fiber.Resume(fiber.ResumeSignal{Event: ev, HasEvent: hasEvent})
	if !alive {
		if err := th.fiber.Err(); err != nil {
			schedLog.With("thread_id", th.handle.ThreadID).WithError(err).Warnf("script returned an error")
		}
		sch.removeThread(th)
		return
	}
	sch.applyYield(th, v)
}

func (sch *Scheduler) applyYield(th *entityThread, v fiber.YieldValue) {
	switch val := v.(type) {
	case fiber.ControlFlowToken:
		if val == fiber.Complete {
			th.fiber.Cancel()
			sch.removeThread(th)
			return
		}
	case fiber.EntityStateHash:
		sch.ChangeState(StateChangeCommand{Entity: th.handle.Entity, NewState: val})
		if _, stillRunning := sch.threads[th.handle]; !stillRunning {
			return
		}
		th.wait = wait{kind: waitNextUpdate}
		th.suspended = true
		return
	case fiber.EntityInstruction:
		sch.enactInstruction(th, val)
		th.wait = wait{kind: waitNextUpdate}
		th.suspended = true
		return
	}

	th.wait = sch.interpretYield(v)
	th.suspended = true
}

func (sch *Scheduler) interpretYield(v fiber.YieldValue) wait {
	switch val := v.(type) {
	case nil:
		return wait{kind: waitNextUpdate}
	case fiber.ControlFlowToken:
		switch val {
		case fiber.UntilWake:
			return wait{kind: waitExplicit}
		default: // NextUpdate, or Complete (already handled by the caller)
			return wait{kind: waitNextUpdate}
		}
	case fiber.EventYieldRequest:
		return wait{kind: waitEvent, typeID: val.Type}
	case fiber.ConditionalYieldRequest:
		w := sch.interpretYield(val.Underlying)
		w.predicate = val.Predicate
		return w
	case fiber.WaitUntilValue:
		return wait{kind: waitTimer, timer: val.Timer}
	case fiber.WaitForValue:
		return wait{kind: waitDuration, deadline: sch.now().Add(time.Duration(val))}
	default:
		return wait{kind: waitNextUpdate}
	}
}

// enactInstruction applies a declarative command yielded by th's script.
// A spawned child inherits th's own state binding when the instruction
// asks for it, since that's the state the yielding thread is itself bound
// to — the script doesn't need to know its own state index to ask for
// "whatever my parent thread is bound to".
func (sch *Scheduler) enactInstruction(th *entityThread, instr fiber.EntityInstruction) {
	switch instr.Kind {
	case fiber.InstructionSpawnThread:
		sch.Spawn(EntityThreadSpawnCommand{
			Target:          th.handle.Entity,
			ThreadID:        instr.ThreadID,
			RestartExisting: instr.RestartExisting,
			HasStateIndex:   instr.HasStateIndex,
			StateIndex:      instr.StateIndex,
		})
	case fiber.InstructionAdoptFiber:
		if instr.Fiber == nil {
			return
		}
		cmd := EntityThreadFiberSpawnCommand{
			Target:           th.handle.Entity,
			Fiber:            instr.Fiber,
			SourceThreadName: th.handle.ThreadID,
			NewThreadName:    instr.ThreadID,
		}
		if instr.InheritState && th.boundState {
			cmd.Flags |= FlagInheritState
			cmd.SourceStateIndex = sch.stateIndexOf[th.state]
		}
		sch.SpawnFiber(cmd)
	}
}

func (sch *Scheduler) terminate(th *entityThread) {
	if _, ok := sch.threads[th.handle]; !ok {
		return
	}
	th.fiber.Cancel()
	sch.removeThread(th)
}

func (sch *Scheduler) removeThread(th *entityThread) {
	if _, ok := sch.threads[th.handle]; !ok {
		return
	}
	delete(sch.threads, th.handle)
	th.completeCh <- th.handle
	close(th.completeCh)
	event.Emit(sch.World.Bus, OnThreadComplete{
		Entity:   th.handle.Entity,
		ThreadID: th.handle.ThreadID,
		Instance: th.handle.Instance,
	})
}

func (sch *Scheduler) compact() {
	alive := sch.order[:0]
	for _, h := range sch.order {
		if _, ok := sch.threads[h]; ok {
			alive = append(alive, h)
		}
	}
	sch.order = alive
}
