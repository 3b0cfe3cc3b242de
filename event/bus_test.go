package event

import "testing"

type damageEvent struct {
	Target int
	Damage int
}

type hitEvent struct{ N int }

func TestQueueEventDeliversOnUpdate(t *testing.T) {
	b := NewBusWithRegistry(NewRegistry())
	var got []damageEvent
	Subscribe(b, t, func(e damageEvent) { got = append(got, e) })

	QueueEvent(b, damageEvent{Target: 1, Damage: 5})
	if len(got) != 0 {
		t.Fatalf("expected no delivery before Update, got %d", len(got))
	}

	b.Update()
	if len(got) != 1 || got[0].Damage != 5 {
		t.Fatalf("expected one delivered event with Damage=5, got %+v", got)
	}
}

func TestEmitIsSynchronous(t *testing.T) {
	b := NewBusWithRegistry(NewRegistry())
	called := false
	Subscribe(b, t, func(e hitEvent) { called = true })
	Emit(b, hitEvent{N: 1})
	if !called {
		t.Fatal("expected Emit to invoke subscriber synchronously")
	}
}

func TestUpdateDrainsCascadingEvents(t *testing.T) {
	b := NewBusWithRegistry(NewRegistry())
	rounds := 0
	Subscribe(b, t, func(e hitEvent) {
		rounds++
		if e.N < 3 {
			QueueEvent(b, hitEvent{N: e.N + 1})
		}
	})
	QueueEvent(b, hitEvent{N: 0})
	b.Update()
	if rounds != 4 {
		t.Fatalf("expected 4 cascading rounds, got %d", rounds)
	}
}

func TestUnsubscribeStopsFutureDelivery(t *testing.T) {
	b := NewBusWithRegistry(NewRegistry())
	count := 0
	sub := Subscribe(b, t, func(e hitEvent) { count++ })

	QueueEvent(b, hitEvent{N: 1})
	b.Update()
	b.Unsubscribe(sub)
	QueueEvent(b, hitEvent{N: 2})
	b.Update()

	if count != 1 {
		t.Fatalf("expected exactly 1 delivery before unsubscribe, got %d", count)
	}
}

func TestUnsubscribeDuringDeliveryOnlyAffectsFutureEvents(t *testing.T) {
	b := NewBusWithRegistry(NewRegistry())
	var calls int
	var sub Subscription
	sub = Subscribe(b, t, func(e hitEvent) {
		calls++
		b.Unsubscribe(sub)
	})

	// Two events queued before Update is called. The subscriber unsubscribes
	// itself while handling the first; the second, still-queued event is a
	// future event relative to the unsubscribe and must not reach it.
	QueueEvent(b, hitEvent{N: 1})
	QueueEvent(b, hitEvent{N: 2})
	b.Update()
	if calls != 1 {
		t.Fatalf("expected exactly 1 delivery before self-unsubscribe took effect, got %d", calls)
	}

	QueueEvent(b, hitEvent{N: 3})
	b.Update()
	if calls != 1 {
		t.Fatalf("expected no further delivery after self-unsubscribe, got %d calls", calls)
	}
}

func TestUnsubscribingAnotherDuringDeliveryStillDeliversThisEvent(t *testing.T) {
	b := NewBusWithRegistry(NewRegistry())
	secondCalled := false
	var secondSub Subscription
	Subscribe(b, t, func(e hitEvent) { b.Unsubscribe(secondSub) })
	secondSub = Subscribe(b, t, func(e hitEvent) { secondCalled = true })

	QueueEvent(b, hitEvent{N: 1})
	b.Update()

	if !secondCalled {
		t.Fatal("expected the dispatch snapshot to still include a subscriber unsubscribed mid-delivery for this event")
	}
}

func TestSubscriberPanicIsAbsorbed(t *testing.T) {
	b := NewBusWithRegistry(NewRegistry())
	Subscribe(b, t, func(e hitEvent) { panic("boom") })
	second := false
	Subscribe(b, t, func(e hitEvent) { second = true })

	QueueEvent(b, hitEvent{N: 1})
	b.Update()

	if !second {
		t.Fatal("expected second subscriber to still run after first panicked")
	}
}

func TestUnsubscribeOwnerRemovesAllTypes(t *testing.T) {
	b := NewBusWithRegistry(NewRegistry())
	owner := &struct{}{}
	hits, damages := 0, 0
	Subscribe(b, owner, func(e hitEvent) { hits++ })
	Subscribe(b, owner, func(e damageEvent) { damages++ })

	b.UnsubscribeOwner(owner)

	QueueEvent(b, hitEvent{N: 1})
	QueueEvent(b, damageEvent{Damage: 1})
	b.Update()

	if hits != 0 || damages != 0 {
		t.Fatalf("expected no delivery after UnsubscribeOwner, got hits=%d damages=%d", hits, damages)
	}
}
