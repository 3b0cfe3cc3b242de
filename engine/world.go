package engine

import (
	"sync"

	"github.com/lixenwraith/enginecore/event"
	"github.com/lixenwraith/enginecore/status"
)

// World owns the entity identity counter, the component stores, the event
// bus, and the registered Systems. It is the ECS store the Registry Façade
// wraps to expose typed component access, patch notifications, and entity
// relationships.
type World struct {
	mu           sync.RWMutex
	nextEntityID Entity

	Bus           *event.Bus
	ResourceStore *ResourceStore
	Metrics       *status.Registry

	stores []AnyStore

	Relationships *Store[Relationship]
	Transforms    *Store[Transform]

	systems     []System
	updateMutex sync.Mutex
}

// NewWorld creates an empty World with its own private event Bus, resource
// store, and metrics registry. Metrics is the Bus's own registry; the World,
// the Bus, and the physics bridge look counters up by key at each update.
func NewWorld() *World {
	bus := event.NewBus()
	w := &World{
		nextEntityID:  1,
		Bus:           bus,
		ResourceStore: NewResourceStore(),
		Metrics:       bus.Metrics,
	}
	w.Relationships = NewStore[Relationship]()
	w.Transforms = NewStore[Transform]()
	w.stores = append(w.stores, w.Relationships, w.Transforms)
	return w
}

// RegisterStore adds a component store to the set the World manages for
// entity-destruction and world-clearing purposes. Call once per component
// type, typically from a system's constructor.
func (w *World) RegisterStore(s AnyStore) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stores = append(w.stores, s)
}

// CreateEntity reserves a new entity ID and emits OnEntityCreated.
func (w *World) CreateEntity() Entity {
	w.mu.Lock()
	id := w.nextEntityID
	w.nextEntityID++
	w.mu.Unlock()

	w.Metrics.Ints.Get("engine.entities_created").Add(1)
	event.Emit(w.Bus, OnEntityCreated{Entity: id})
	return id
}

// DestroyEntity removes every component belonging to e from every
// registered store and emits OnEntityDestroyed. destroyOrphans controls how
// e's children in the relationship tree are handled: true recursively
// destroys them, false re-parents them to e's parent.
func (w *World) DestroyEntity(e Entity, destroyOrphans bool) {
	if !e.Valid() {
		return
	}

	w.reparentOrDestroyChildren(e, destroyOrphans)
	w.unlinkFromParent(e)

	w.mu.RLock()
	stores := make([]AnyStore, len(w.stores))
	copy(stores, w.stores)
	w.mu.RUnlock()

	for _, s := range stores {
		s.Remove(e)
	}

	w.Metrics.Ints.Get("engine.entities_destroyed").Add(1)
	event.Emit(w.Bus, OnEntityDestroyed{Entity: e})
}

// Clear removes every entity and component from the World.
func (w *World) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextEntityID = 1
	for _, s := range w.stores {
		s.Clear()
	}
}

// AddSystem registers a System and keeps the system list sorted by
// ascending Priority (lower runs first, per the System interface contract).
func (w *World) AddSystem(system System) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.systems = append(w.systems, system)
	for i := 0; i < len(w.systems)-1; i++ {
		for j := 0; j < len(w.systems)-i-1; j++ {
			if w.systems[j].Priority() > w.systems[j+1].Priority() {
				w.systems[j], w.systems[j+1] = w.systems[j+1], w.systems[j]
			}
		}
	}
}

// Systems returns a snapshot of all registered systems in priority order.
func (w *World) Systems() []System {
	w.mu.RLock()
	defer w.mu.RUnlock()
	result := make([]System, len(w.systems))
	copy(result, w.systems)
	return result
}

// RunSafe executes fn while holding the World's update lock. Every
// tick-boundary entry point (physics bridge, scheduler) should go through
// this so two Systems never run concurrently against the registry, keeping
// the cooperative single-threaded model callers rely on.
func (w *World) RunSafe(fn func()) {
	w.updateMutex.Lock()
	defer w.updateMutex.Unlock()
	fn()
}

// Lock acquires the World's update mutex directly, for callers that need to
// hold it across multiple operations (e.g. the scheduler's tick loop).
func (w *World) Lock() { w.updateMutex.Lock() }

// Unlock releases the update mutex acquired via Lock.
func (w *World) Unlock() { w.updateMutex.Unlock() }

// Update drains the event bus, then runs every registered System once, in
// priority order (physics bridge before thread scheduler, per their own
// Priority doc comments) — so a script yielding fiber.Event queues an event
// that is already dispatched by the time any System's Update observes it.
func (w *World) Update() {
	w.RunSafe(func() {
		w.Bus.Update()
		for _, s := range w.Systems() {
			s.Update()
		}
	})
}
