package physics

// ShapeKind distinguishes a convex collision shape (spheres, boxes, hulls —
// usable for sweeps) from a concave one (static level geometry meshes,
// sweep-incapable).
type ShapeKind uint8

const (
	ShapeNone ShapeKind = iota
	ShapeConvex
	ShapeConcave
)

// ObjectHandle is an opaque reference into the external collision world,
// round-tripped alongside the owning Entity so manifolds and casts can be
// mapped back to ECS identity without the collision world knowing about
// entities at all.
type ObjectHandle any

// MotionMode controls which direction a motion-state synchronizes a
// Collision component's pose with the owning Transform.
type MotionMode uint8

const (
	// MotionNone: no motion-state; the bridge writes the transform's world
	// matrix directly into the collision object on each tick the Transform
	// has a pending change.
	MotionNone MotionMode = iota
	// MotionWriteToEngine: the collision world is authoritative (e.g. a
	// rigid body under gravity); the bridge copies its reported pose back
	// onto the Transform after stepping.
	MotionWriteToEngine
	// MotionReadFromEngine: the Transform is authoritative; the bridge
	// pushes transform changes into the collision object and never reads
	// back.
	MotionReadFromEngine
)

// Collision is the Collision component: a shape, an object handle in the
// external collision world, an optional motion-state bridge, the group and
// mask triple, optional mass, and an optional kinematic resolution config.
//
// Invariants enforced by construction helpers, not at access time: a
// StaticGeometry-group object is never kinematic; a kinematic object always
// has a non-nil Kinematic config. With MotionWriteToEngine the collision
// world is the single source of truth for that entity's pose and the bridge
// does not write the matrix into it; with MotionNone or MotionReadFromEngine
// the bridge writes the matrix into the collision object directly.
type Collision struct {
	Shape  ShapeKind
	Object ObjectHandle
	Motion MotionMode

	Group       Group
	SolidMask   Mask
	Interaction Mask

	Mass       float64 // 0 means "infinite": an influencer pushes it by its full movement and takes no correction itself
	HalfExtent float64 // nominal correction radius; not derived from the SizePolicy
	Kinematic  *KinematicResolutionConfig
}

// NewCollision builds a Collision component from an EntityType's category
// config and an already-created external object handle.
func NewCollision(t EntityType, object ObjectHandle, shape ShapeKind, mass, halfExtent float64) Collision {
	cfg := NewCollisionConfig(t)
	return Collision{
		Shape:       shape,
		Object:      object,
		Group:       cfg.Group,
		SolidMask:   cfg.SolidMask,
		Interaction: cfg.Interaction,
		Mass:        mass,
		HalfExtent:  halfExtent,
		Kinematic:   cfg.Kinematic,
	}
}

// IsKinematic reports whether this collision component drives its own
// movement resolution against the world.
func (c Collision) IsKinematic() bool {
	return c.Kinematic != nil
}
