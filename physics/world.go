package physics

import (
	"time"

	"github.com/lixenwraith/enginecore/vmath"
)

// ContactPoint is a single point of an overlap between two collision
// objects: world position, the contact normal (pointing from B toward A),
// and the penetration distance (negative while overlapping).
type ContactPoint struct {
	Position   vmath.Vec3F
	Normal     vmath.Vec3F
	Distance   float64
}

// Manifold is the full contact set for one pair of overlapping objects, as
// reported by the collision world after a Step.
type Manifold struct {
	A, B   ObjectHandle
	Points []ContactPoint
}

// CastHit is the nearest hit reported by a ray or convex sweep.
type CastHit struct {
	Object   ObjectHandle
	Position vmath.Vec3F
	Normal   vmath.Vec3F
	Fraction float64 // 0 (origin) .. 1 (destination)
}

// CollisionWorld is the external collaborator the Kinematic Physics Bridge
// drives each tick: it owns the actual broad/narrow-phase solver (e.g. a
// Bullet/Jolt/ODE binding). The bridge never reaches inside it; it only
// steps it, walks its manifolds, and issues casts.
type CollisionWorld interface {
	// Step advances the simulation by delta.
	Step(delta time.Duration)

	// Manifolds returns every contact manifold produced by the most recent
	// Step call.
	Manifolds() []Manifold

	// SetWorldMatrix pushes a new world-space pose onto an object the
	// engine transform drives.
	SetWorldMatrix(obj ObjectHandle, m vmath.Mat4)

	// WorldMatrix reads an object's current world-space pose, used for
	// motion-states in write-to-engine mode.
	WorldMatrix(obj ObjectHandle) vmath.Mat4

	// ConvexCast sweeps obj's own shape from one world matrix to another
	// and returns the nearest hit respecting group/mask filters, or false
	// if nothing was hit.
	ConvexCast(obj ObjectHandle, from, to vmath.Mat4, mask Mask) (CastHit, bool)

	// RayCast casts a ray from `from` to `to`, respecting group/mask
	// filters and excluding `self` (if non-nil) from candidate hits.
	RayCast(from, to vmath.Vec3F, mask Mask, self ObjectHandle) (CastHit, bool)
}
