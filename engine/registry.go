package engine

import (
	"github.com/pkg/errors"

	"github.com/lixenwraith/enginecore/event"
)

// ErrMisuse marks a programmer-misuse error. The Registry Façade's exported
// functions never return it — they return a zero value / false / Null
// instead — and no code in this module wraps or returns it; misuse is
// silently ignored, with no separate debug-build assertion path.
var ErrMisuse = errors.New("engine: programmer misuse")

// Get retrieves a T component for e. Equivalent to TryGet; both exist to
// mirror a source API that distinguishes an optional return from a
// try-pattern reference return, a distinction Go's (T, bool) already
// covers without needing two call shapes.
func Get[T any](store *Store[T], e Entity) (T, bool) {
	return store.Get(e)
}

// TryGet is an alias of Get.
func TryGet[T any](store *Store[T], e Entity) (T, bool) {
	return store.Get(e)
}

// GetOrEmplace returns e's existing T component, or constructs one via make,
// stores it, and emits OnComponentAdd[T] before returning it.
func GetOrEmplace[T any](w *World, store *Store[T], e Entity, make func() T) T {
	if v, ok := store.Get(e); ok {
		return v
	}
	v := make()
	store.Add(e, v)
	event.Emit(w.Bus, ComponentAdd[T]{Entity: e, Value: v})
	return v
}

// Emplace stores val as e's T component, overwriting any existing value,
// and emits OnComponentAdd[T].
func Emplace[T any](w *World, store *Store[T], e Entity, val T) {
	store.Add(e, val)
	event.Emit(w.Bus, ComponentAdd[T]{Entity: e, Value: val})
}

// Patch applies mutator to e's existing T component in place and emits
// OnComponentChange[T] with the mutated value. Returns false (no-op, no
// event) if e has no T component.
func Patch[T any](w *World, store *Store[T], e Entity, mutator func(*T)) bool {
	var result T
	ok := store.Mutate(e, func(v *T) {
		mutator(v)
		result = *v
	})
	if !ok {
		return false
	}
	event.Emit(w.Bus, ComponentChange[T]{Entity: e, Value: result})
	return true
}

// Remove deletes e's T component, if present. Unlike DestroyEntity this
// does not emit a hook; component removal has no hook of its own.
func Remove[T any](store *Store[T], e Entity) {
	store.Remove(e)
}

// SetParent reparents self under parent. self==parent or either being null
// is a no-op returning Null. Forming a cycle (parent is currently a
// descendant of self) is refused and also returns Null. On success it
// unlinks self from its old parent's sibling list, links it into parent's,
// rebases self's Transform so its world pose is unchanged, and emits
// OnParentChanged; it returns the prior parent (Null if none).
func SetParent(w *World, self, parent Entity) Entity {
	if self == parent || !self.Valid() || !parent.Valid() {
		return NullEntity
	}
	if isDescendant(w, parent, self) {
		return NullEntity
	}

	oldParent := w.parentOf(self)

	// Rebase while self is still linked under its old parent, so a stale
	// world cache is recomputed against the old parent chain.
	w.rebasePreservingWorldPose(self, parent)
	w.unlinkFromParent(self)
	w.linkUnderParent(self, parent)

	event.Emit(w.Bus, OnParentChanged{Entity: self, OldParent: oldParent, NewParent: parent})
	return oldParent
}
