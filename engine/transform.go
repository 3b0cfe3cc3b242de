package engine

import "github.com/lixenwraith/enginecore/vmath"

// DirtyFlag is a bitmask over the Transform component's cached matrices:
// local, world, inverse-world, and a pending-event flag for the physics
// bridge.
type DirtyFlag uint8

const (
	// DirtyLocal marks the cached local matrix stale.
	DirtyLocal DirtyFlag = 1 << iota
	// DirtyWorld marks the cached world matrix stale.
	DirtyWorld
	// DirtyInverseWorld marks the cached inverse-world matrix stale.
	DirtyInverseWorld
	// DirtyEvent marks that this change should be observed by the physics
	// bridge on its next forward-transform-changes pass.
	DirtyEvent

	dirtyAll = DirtyLocal | DirtyWorld | DirtyInverseWorld | DirtyEvent
)

// Transform is the spatial component: local translation, scale, and
// orientation, plus cached local/world/inverse-world matrices and the dirty
// bitset that governs when those caches are recomputed.
type Transform struct {
	Translation vmath.Vec3F
	Scale       vmath.Vec3F
	Basis       vmath.Mat3

	local        vmath.Mat4
	world        vmath.Mat4
	inverseWorld vmath.Mat4
	dirty        DirtyFlag
}

// NewTransform returns an identity Transform (unit scale, no rotation, at
// the origin), already marked fully dirty so its first access computes
// correct cached matrices.
func NewTransform() Transform {
	return Transform{
		Scale: vmath.Vec3F{X: 1, Y: 1, Z: 1},
		Basis: vmath.Identity3(),
		dirty: dirtyAll,
	}
}

// SetLocal replaces translation, orientation, and scale and marks the
// entire dirty bitset (including EventFlag, so the physics bridge observes
// the change on its next tick).
func SetLocal(w *World, e Entity, translation vmath.Vec3F, basis vmath.Mat3, scale vmath.Vec3F) {
	Patch(w, w.Transforms, e, func(t *Transform) {
		t.Translation = translation
		t.Basis = basis
		t.Scale = scale
		t.dirty |= dirtyAll
	})
	w.invalidateWorldTransitively(e)
}

// LocalMatrix returns e's cached local matrix, recomputing it first if
// DirtyLocal is set.
func (w *World) LocalMatrix(e Entity) vmath.Mat4 {
	t, ok := w.Transforms.Get(e)
	if !ok {
		return vmath.Identity4()
	}
	if t.dirty&DirtyLocal != 0 {
		local := vmath.Compose(t.Translation, t.Basis, t.Scale)
		w.Transforms.Mutate(e, func(tt *Transform) {
			tt.local = local
			tt.dirty &^= DirtyLocal
		})
		return local
	}
	return t.local
}

// WorldMatrix returns e's world matrix: parent.World * Local if W is clean,
// else recomputed from the parent chain.
func (w *World) WorldMatrix(e Entity) vmath.Mat4 {
	t, ok := w.Transforms.Get(e)
	if !ok {
		return vmath.Identity4()
	}
	if t.dirty&DirtyWorld == 0 {
		return t.world
	}

	local := w.LocalMatrix(e)
	var world vmath.Mat4
	if parent := w.parentOf(e); parent.Valid() {
		world = vmath.Mul4(w.WorldMatrix(parent), local)
	} else {
		world = local
	}

	w.Transforms.Mutate(e, func(tt *Transform) {
		tt.world = world
		tt.dirty &^= DirtyWorld
	})
	return world
}

// InverseWorldMatrix returns e's cached inverse-world matrix, recomputing
// it from WorldMatrix if DirtyInverseWorld is set.
func (w *World) InverseWorldMatrix(e Entity) vmath.Mat4 {
	t, ok := w.Transforms.Get(e)
	if !ok {
		return vmath.Identity4()
	}
	if t.dirty&DirtyInverseWorld == 0 {
		return t.inverseWorld
	}
	inv := vmath.Invert4(w.WorldMatrix(e))
	w.Transforms.Mutate(e, func(tt *Transform) {
		tt.inverseWorld = inv
		tt.dirty &^= DirtyInverseWorld
	})
	return inv
}

// EventPending reports whether e's Transform changed since the physics
// bridge last cleared DirtyEvent.
func (w *World) EventPending(e Entity) bool {
	t, ok := w.Transforms.Get(e)
	return ok && t.dirty&DirtyEvent != 0
}

// ClearEventFlag is called by the Kinematic Physics Bridge once it has
// forwarded e's transform change to the collision world.
func (w *World) ClearEventFlag(e Entity) {
	w.Transforms.Mutate(e, func(t *Transform) { t.dirty &^= DirtyEvent })
}

// invalidateWorldTransitively marks W (and IW, which depends on it) dirty
// on e and on every descendant, since a descendant's world matrix depends
// on its ancestors'.
func (w *World) invalidateWorldTransitively(e Entity) {
	w.Transforms.Mutate(e, func(t *Transform) {
		t.dirty |= DirtyWorld | DirtyInverseWorld
	})
	for _, kid := range w.children(e) {
		w.invalidateWorldTransitively(kid)
	}
}

// rebasePreservingWorldPose recomputes self's local transform after a
// reparent so its world-space pose is unchanged.
func (w *World) rebasePreservingWorldPose(self, newParent Entity) {
	if !w.Transforms.Has(self) {
		return
	}

	// Capture world pose under the old parent before altering anything;
	// callers rebase before relinking self under newParent.
	oldWorld := w.WorldMatrix(self)

	newParentWorld := vmath.Identity4()
	if newParent.Valid() {
		newParentWorld = w.WorldMatrix(newParent)
	}
	newLocal := vmath.Mul4(vmath.Invert4(newParentWorld), oldWorld)

	translation := vmath.Translation(newLocal)
	basis := vmath.UnscaledBasis(newLocal, w.scaleOf(self))

	w.Transforms.Mutate(self, func(t *Transform) {
		t.Translation = translation
		t.Basis = basis
		t.dirty |= dirtyAll
	})
	w.invalidateWorldTransitively(self)
}

// scaleOf returns self's current Scale, or unit scale if it has no
// Transform yet.
func (w *World) scaleOf(self Entity) vmath.Vec3F {
	t, ok := w.Transforms.Get(self)
	if !ok {
		return vmath.Vec3F{X: 1, Y: 1, Z: 1}
	}
	return t.Scale
}

// SetWorldPose overwrites e's local transform so its world-space pose
// becomes world, rebasing through e's current parent chain exactly like a
// reparent would. Used by collaborators (the physics bridge's
// write-to-engine motion-states) that only know an entity's desired world
// pose, never its local one.
func SetWorldPose(w *World, e Entity, world vmath.Mat4) {
	parent := w.parentOf(e)
	parentWorld := vmath.Identity4()
	if parent.Valid() {
		parentWorld = w.WorldMatrix(parent)
	}
	local := vmath.Mul4(vmath.Invert4(parentWorld), world)

	translation := vmath.Translation(local)
	basis := vmath.UnscaledBasis(local, w.scaleOf(e))

	Patch(w, w.Transforms, e, func(t *Transform) {
		t.Translation = translation
		t.Basis = basis
		t.dirty |= dirtyAll
	})
	w.invalidateWorldTransitively(e)
}

// Translate adds delta to e's local translation, marking its world cache
// (and descendants') dirty. Used by the physics bridge to apply correction
// and influence vectors computed in world space against a root-level
// entity; callers that need a parent-relative offset should convert delta
// into the parent's basis first.
func Translate(w *World, e Entity, delta vmath.Vec3F) {
	Patch(w, w.Transforms, e, func(t *Transform) {
		t.Translation = vmath.V3FAdd(t.Translation, delta)
		t.dirty |= dirtyAll
	})
	w.invalidateWorldTransitively(e)
}
