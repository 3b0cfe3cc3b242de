// Package engine implements the Registry Façade: a typed wrapper over the
// generic component stores that exposes get/try-get/get-or-emplace/patch/
// remove, relationship navigation, and the component lifecycle hooks
// consumed by the rest of the core.
package engine

import "github.com/lixenwraith/enginecore/core"

// Entity is re-exported from core so package consumers only need to import
// one package for the common case.
type Entity = core.Entity

// NullEntity is the sentinel "no entity" handle.
const NullEntity = core.Null

// System is implemented by anything the World drives once per Update call
// (the physics bridge and the thread scheduler are both Systems).
type System interface {
	Init()
	Update()
	Priority() int // Lower values run first.
}

// AnyStore provides type-erased lifecycle operations so the World can
// manage every component store uniformly — e.g. when destroying an entity
// without knowing which concrete component types it carries. Store[T]
// satisfies this interface directly.
type AnyStore interface {
	Remove(e Entity)
	Has(e Entity) bool
	Count() int
	Clear()
}

// QueryableStore extends AnyStore with the enumeration operation the
// QueryBuilder needs to intersect component sets.
type QueryableStore interface {
	AnyStore
	All() []Entity
}
