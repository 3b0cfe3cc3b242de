package physics

import (
	"github.com/lixenwraith/enginecore/engine"
	"github.com/lixenwraith/enginecore/vmath"
)

// OnAABBOverlap fires for every manifold the collision world reports this
// tick, whether or not it has any contact points, before any resolution
// happens.
type OnAABBOverlap struct {
	A, B         engine.Entity
	ContactCount int
}

// OnSurfaceContact fires once per kinematic mover per tick that has a
// resolved cast hit, regardless of whether the hit produced influence or
// correction.
type OnSurfaceContact struct {
	Mover, Hit     engine.Entity
	ImpactVelocity vmath.Vec3F
	Penetration    vmath.Vec3F
}

// OnIntersection fires when A (kinematic, resolving intersections) is
// corrected out of an overlapping solid-mask contact with B.
type OnIntersection struct {
	A, B       engine.Entity
	Correction vmath.Vec3F
}

// OnInteractionIntersection fires when B's group intersects A's
// interaction-mask, independent of — and without short-circuiting — the
// solid-mask resolution path.
type OnInteractionIntersection struct {
	A, B     engine.Entity
	Position vmath.Vec3F
	Normal   vmath.Vec3F
	Distance float64
}

// OnKinematicInfluence fires when a mover pushes a hit target along the
// reversed surface normal.
type OnKinematicInfluence struct {
	Mover, Target engine.Entity
	Influence     vmath.Vec3F
}

// OnKinematicAdjustment fires when a mover is itself corrected back out of
// a cast hit.
type OnKinematicAdjustment struct {
	Mover, Hit engine.Entity
	Adjustment vmath.Vec3F
}

// CollisionKind discriminates the three event kinds OnCollision projects
// from.
type CollisionKind uint8

const (
	CollisionSurfaceContact CollisionKind = iota
	CollisionIntersection
	CollisionInteractionIntersection
)

// OnCollision is a generic projection of exactly one of OnSurfaceContact,
// OnIntersection, or OnInteractionIntersection, with the specific event as
// its Payload. The Bridge does not emit it; only the specific events are
// emitted.
type OnCollision struct {
	Kind    CollisionKind
	A, B    engine.Entity
	Payload any
}
