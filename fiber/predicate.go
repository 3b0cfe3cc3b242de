package fiber

import (
	"reflect"

	"github.com/lixenwraith/enginecore/event"
)

// Predicate is the normalized gate evaluated against a suspended fiber's
// wake condition. hasEvent is false when the predicate is being polled on
// a plain tick (no event in hand); ev is the zero Opaque in that case.
type Predicate func(s *Script, ev event.Opaque, hasEvent bool) bool

// scriptType and opaqueType are cached once for WrapPredicate's arity
// dispatch instead of re-deriving them on every call.
var (
	scriptType = reflect.TypeOf((*Script)(nil))
	opaqueType = reflect.TypeOf(event.Opaque{})
)

// WrapPredicate adapts a script-authored guard function into a Predicate.
// fn must be one of:
//
//	func() bool
//	func(*Script) bool
//	func(event.Opaque) bool
//	func(*Script, event.Opaque) bool
//	func(T) bool             (T a concrete payload type)
//	func(*Script, T) bool    (T a concrete payload type)
//
// This is reflection-based rather than a fixed signature because the
// surface (Until/Pause/PauseIf/...) accepts whichever shape reads best at
// the call site; a caller that only cares about the event doesn't want to
// accept and ignore a *Script parameter, and vice versa. WrapPredicate
// panics on an unsupported signature — a programmer-misuse error raised
// when the surface call that wraps the predicate runs, inside the script
// body.
func WrapPredicate(fn any) Predicate {
	if fn == nil {
		return nil
	}
	if p, ok := fn.(Predicate); ok {
		return p
	}

	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func || t.NumOut() != 1 || t.Out(0).Kind() != reflect.Bool {
		panic("fiber: predicate must be a func(...) bool")
	}

	switch t.NumIn() {
	case 0:
		return func(s *Script, ev event.Opaque, hasEvent bool) bool {
			return v.Call(nil)[0].Bool()
		}
	case 1:
		in0 := t.In(0)
		switch {
		case in0 == scriptType:
			return func(s *Script, ev event.Opaque, hasEvent bool) bool {
				return v.Call([]reflect.Value{reflect.ValueOf(s)})[0].Bool()
			}
		case in0 == opaqueType:
			return func(s *Script, ev event.Opaque, hasEvent bool) bool {
				if !hasEvent {
					return false
				}
				return v.Call([]reflect.Value{reflect.ValueOf(ev)})[0].Bool()
			}
		default:
			// Assume in0 is a concrete event payload type, the natural
			// shape for a script author writing a predicate against their
			// own event struct rather than unwrapping event.Opaque by hand.
			return func(s *Script, ev event.Opaque, hasEvent bool) bool {
				if !hasEvent {
					return false
				}
				payload := reflect.ValueOf(ev.Payload)
				if !payload.IsValid() || payload.Type() != in0 {
					return false
				}
				return v.Call([]reflect.Value{payload})[0].Bool()
			}
		}
	case 2:
		if t.In(0) != scriptType {
			panic("fiber: two-argument predicate's first parameter must be *fiber.Script")
		}
		in1 := t.In(1)
		if in1 == opaqueType {
			return func(s *Script, ev event.Opaque, hasEvent bool) bool {
				if !hasEvent {
					return false
				}
				return v.Call([]reflect.Value{reflect.ValueOf(s), reflect.ValueOf(ev)})[0].Bool()
			}
		}
		return func(s *Script, ev event.Opaque, hasEvent bool) bool {
			if !hasEvent {
				return false
			}
			payload := reflect.ValueOf(ev.Payload)
			if !payload.IsValid() || payload.Type() != in1 {
				return false
			}
			return v.Call([]reflect.Value{reflect.ValueOf(s), payload})[0].Bool()
		}
	default:
		panic("fiber: predicate takes too many arguments")
	}
}
