package fiber

import "github.com/lixenwraith/enginecore/event"

// RequestAwaiter pairs a YieldValue with the payload type a caller expects
// back from it, so a script can yield once and get a typed result instead
// of re-deriving it from the raw captured event every time.
type RequestAwaiter[T any] struct {
	Request YieldValue
}

// Await yields a.Request on s and extracts a T from whatever event woke
// the fiber. The bool is false if the fiber woke for a reason that carries
// no event (a plain tick, a timer) or whose payload is not a T.
func (a RequestAwaiter[T]) Await(s *Script) (T, bool) {
	ev, hasEvent := s.Yield(a.Request)
	return extractT[T](ev, hasEvent)
}

// Await is the free-function form of RequestAwaiter[T]{Request: req}.Await(s).
func Await[T any](s *Script, req YieldValue) (T, bool) {
	return RequestAwaiter[T]{Request: req}.Await(s)
}

// Ready reports whether s's most recently captured event (from its last
// resume, without yielding again) carries a payload of type T, for a
// script that wants to check before deciding whether to yield at all.
func Ready[T any](s *Script) bool {
	_, ok := extractT[T](s.CapturedEvent())
	return ok
}

func extractT[T any](ev event.Opaque, hasEvent bool) (T, bool) {
	var zero T
	if !hasEvent {
		return zero, false
	}
	payload, ok := ev.Payload.(T)
	if !ok {
		return zero, false
	}
	return payload, true
}
