package fiber

import (
	"testing"

	"github.com/lixenwraith/enginecore/event"
)

type probeEvent struct{ Value int }

func TestWrapPredicateArity0(t *testing.T) {
	p := WrapPredicate(func() bool { return true })
	if !p(nil, event.Opaque{}, false) {
		t.Fatal("expected true")
	}
}

func TestWrapPredicateArity1Script(t *testing.T) {
	s := newTestScript()
	p := WrapPredicate(func(got *Script) bool { return got == s })
	if !p(s, event.Opaque{}, false) {
		t.Fatal("expected predicate to receive the same *Script")
	}
}

func TestWrapPredicateArity1Event(t *testing.T) {
	p := WrapPredicate(func(ev event.Opaque) bool {
		v, _ := ev.Payload.(probeEvent)
		return v.Value == 7
	})
	if p(nil, event.Opaque{}, false) {
		t.Fatal("event-arity predicate must not fire without an event")
	}
	if !p(nil, event.Opaque{Payload: probeEvent{Value: 7}}, true) {
		t.Fatal("expected true for matching payload")
	}
}

func TestWrapPredicateArity2(t *testing.T) {
	s := newTestScript()
	p := WrapPredicate(func(got *Script, ev event.Opaque) bool {
		v, _ := ev.Payload.(probeEvent)
		return got == s && v.Value == 3
	})
	if !p(s, event.Opaque{Payload: probeEvent{Value: 3}}, true) {
		t.Fatal("expected true")
	}
}

func TestWrapPredicateNilPassesThrough(t *testing.T) {
	if WrapPredicate(nil) != nil {
		t.Fatal("expected nil predicate to stay nil")
	}
}

func TestWrapPredicatePanicsOnBadSignature(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for an unsupported predicate signature")
		}
	}()
	WrapPredicate(func(int, int, int) bool { return true })
}
