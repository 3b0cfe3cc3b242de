package fiber

import (
	"testing"

	"github.com/lixenwraith/enginecore/event"
)

type awaitProbe struct{ N int }

func TestReadyReflectsLastCapturedEvent(t *testing.T) {
	s := newTestScript()
	if Ready[awaitProbe](s) {
		t.Fatal("Ready should be false before anything has been captured")
	}

	s.captured.Payload = awaitProbe{N: 9}
	s.hasCaptured = true
	if !Ready[awaitProbe](s) {
		t.Fatal("Ready should be true once a matching event is captured")
	}
	if Ready[probeEvent](s) {
		t.Fatal("Ready should be false for a type that doesn't match the captured payload")
	}
}

func TestAwaitYieldsRequestAndExtractsPayload(t *testing.T) {
	s := newTestScript()
	result := make(chan awaitProbe, 1)

	f := NewFiber(s, func(s *Script) error {
		v, ok := Await[awaitProbe](s, EventYieldRequest{})
		if !ok {
			t.Error("expected Await to extract a value")
		}
		result <- v
		return nil
	})

	f.Resume(ResumeSignal{})
	f.Resume(ResumeSignal{
		Event:    event.Opaque{Payload: awaitProbe{N: 4}},
		HasEvent: true,
	})

	select {
	case v := <-result:
		if v.N != 4 {
			t.Fatalf("expected N=4, got %d", v.N)
		}
	default:
		t.Fatal("fiber never delivered its awaited result")
	}
}
