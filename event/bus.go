// Package event implements the engine's event bus: a type-keyed queue with
// both deferred (QueueEvent) and immediate (Emit) delivery, subscription by
// owner, and a drain loop that settles cascading events within a single
// Update call.
//
// A lock-free MPSC ring buffer fits a bus fed by producers running on
// multiple goroutines; this one assumes the caller's single-threaded
// cooperative model instead, so a plain mutex-guarded FIFO slice that never
// silently drops an event is enough — see DESIGN.md.
package event

import (
	"sync"

	"github.com/lixenwraith/enginecore/log"
	"github.com/lixenwraith/enginecore/status"
)

var busLog = log.New("event.bus")

// maxDrainPasses bounds Update's cascading-drain loop so a subscriber that
// perpetually re-queues its own event type cannot hang the caller forever.
const maxDrainPasses = 64

type entry struct {
	id   TypeID
	val  any
}

type subscription struct {
	id      uint64
	typ     TypeID
	owner   any
	handler func(any)
}

// Subscription is an opaque handle returned by Subscribe; pass it to
// Unsubscribe to remove a single subscriber.
type Subscription struct {
	id  uint64
	typ TypeID
}

// Bus is the event bus. The zero value is not usable; construct with NewBus.
type Bus struct {
	registry *Registry
	Metrics  *status.Registry

	mu      sync.Mutex
	subs    map[TypeID][]*subscription
	subsAny []*subscription
	next    uint64

	qmu   sync.Mutex
	queue []entry
}

// NewBus constructs an Event Bus backed by the global type registry.
func NewBus() *Bus {
	return &Bus{registry: global, subs: make(map[TypeID][]*subscription), Metrics: status.NewRegistry()}
}

// NewBusWithRegistry constructs an Event Bus backed by a private registry,
// useful for isolating TypeIDs between independent test worlds.
func NewBusWithRegistry(r *Registry) *Bus {
	return &Bus{registry: r, subs: make(map[TypeID][]*subscription), Metrics: status.NewRegistry()}
}

// Subscribe registers fn to be called whenever an event of type T is
// delivered, either via QueueEvent+Update or via Emit. owner identifies the
// subscribing object so Unsubscribe/UnsubscribeOwner can later remove it
// without the caller retaining the Subscription handle.
func Subscribe[T any](b *Bus, owner any, fn func(T)) Subscription {
	id := IDFor[T](b.registry)
	s := &subscription{
		typ:   id,
		owner: owner,
		handler: func(v any) {
			fn(v.(T))
		},
	}

	b.mu.Lock()
	b.next++
	s.id = b.next
	// Copy-on-write: a subscriber unsubscribing or a new subscriber
	// registering during delivery must not affect the slice the drain loop
	// is currently ranging over.
	old := b.subs[id]
	fresh := make([]*subscription, len(old), len(old)+1)
	copy(fresh, old)
	b.subs[id] = append(fresh, s)
	b.mu.Unlock()

	return Subscription{id: s.id, typ: id}
}

// SubscribeAny registers fn to be called for every event the bus
// dispatches, of any type, wrapped as an Opaque. This is for a subscriber
// that needs to see every event's TypeID to decide for itself whether it
// matches something (the thread scheduler matching per-thread wake
// predicates) rather than one that only ever cares about a fixed set of
// payload types — Subscribe's type parameter can't express "every type"
// since it is resolved at compile time.
func (b *Bus) SubscribeAny(owner any, fn func(Opaque)) Subscription {
	s := &subscription{
		typ:   AnyTypeID,
		owner: owner,
		handler: func(v any) {
			fn(v.(Opaque))
		},
	}

	b.mu.Lock()
	b.next++
	s.id = b.next
	old := b.subsAny
	fresh := make([]*subscription, len(old), len(old)+1)
	copy(fresh, old)
	b.subsAny = append(fresh, s)
	b.mu.Unlock()

	return Subscription{id: s.id, typ: AnyTypeID}
}

// Unsubscribe removes a single subscriber previously returned by Subscribe
// or SubscribeAny.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub.typ == AnyTypeID {
		fresh := make([]*subscription, 0, len(b.subsAny))
		for _, s := range b.subsAny {
			if s.id != sub.id {
				fresh = append(fresh, s)
			}
		}
		b.subsAny = fresh
		return
	}
	old := b.subs[sub.typ]
	fresh := make([]*subscription, 0, len(old))
	for _, s := range old {
		if s.id != sub.id {
			fresh = append(fresh, s)
		}
	}
	b.subs[sub.typ] = fresh
}

// UnsubscribeOwner removes every subscription registered with the given
// owner value, across all event types and the wildcard list.
func (b *Bus) UnsubscribeOwner(owner any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, old := range b.subs {
		fresh := make([]*subscription, 0, len(old))
		for _, s := range old {
			if s.owner != owner {
				fresh = append(fresh, s)
			}
		}
		b.subs[id] = fresh
	}
	freshAny := make([]*subscription, 0, len(b.subsAny))
	for _, s := range b.subsAny {
		if s.owner != owner {
			freshAny = append(freshAny, s)
		}
	}
	b.subsAny = freshAny
}

func (b *Bus) subscribersFor(id TypeID) []*subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.subs[id]
}

func (b *Bus) subscribersAny() []*subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.subsAny
}

func (b *Bus) dispatch(id TypeID, val any) {
	b.Metrics.Ints.Get("event.dispatched").Add(1)
	for _, s := range b.subscribersFor(id) {
		b.invoke(s, val)
	}
	if wild := b.subscribersAny(); len(wild) > 0 {
		opaque := Opaque{Type: id, Payload: val}
		for _, s := range wild {
			b.invoke(s, opaque)
		}
	}
}

// invoke calls a subscriber, absorbing and logging any panic so a single
// faulty handler cannot break the bus.
func (b *Bus) invoke(s *subscription, val any) {
	defer func() {
		if r := recover(); r != nil {
			b.Metrics.Ints.Get("event.subscriber_panics").Add(1)
			busLog.With("panic", r).Errorf("event subscriber panicked, event dropped")
		}
	}()
	s.handler(val)
}

// QueueEvent appends val to the FIFO for T's type, to be delivered on the
// next Update call.
func QueueEvent[T any](b *Bus, val T) {
	id := IDFor[T](b.registry)
	b.qmu.Lock()
	b.queue = append(b.queue, entry{id: id, val: val})
	b.qmu.Unlock()
}

// Emit synchronously invokes every current subscriber for T before
// returning.
func Emit[T any](b *Bus, val T) {
	id := IDFor[T](b.registry)
	b.dispatch(id, val)
}

// Len reports the number of events currently queued and awaiting Update.
func (b *Bus) Len() int {
	b.qmu.Lock()
	defer b.qmu.Unlock()
	return len(b.queue)
}

// Update drains every queued event, dispatching each to its subscribers in
// FIFO insertion order. Subscribers may queue further events; those are
// drained in subsequent passes of the same Update call until the queue is
// empty or maxDrainPasses is reached.
func (b *Bus) Update() {
	for pass := 0; pass < maxDrainPasses; pass++ {
		b.qmu.Lock()
		if len(b.queue) == 0 {
			b.qmu.Unlock()
			return
		}
		batch := b.queue
		b.queue = nil
		b.qmu.Unlock()

		for _, e := range batch {
			b.dispatch(e.id, e.val)
		}
	}
	b.Metrics.Ints.Get("event.drain_overruns").Add(1)
	busLog.Errorf("event drain exceeded %d passes, events may remain queued", maxDrainPasses)
}
