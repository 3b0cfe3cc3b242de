package physics

// Group is a single bit in the 32-bit collision-group lattice. An object's
// Group marks what it *is*; the solid-mask and interaction-mask it carries
// mark what it *collides with* and what it merely *notices*.
type Group uint32

const (
	StaticGeometry Group = 1 << iota
	DynamicGeometry
	Actor
	Object
	Bone
	Zone
	Particle
	Projectile
)

// Mask is a bitwise-OR of Group values used as a solid-mask or
// interaction-mask.
type Mask uint32

// Intersects reports whether g has any bit set in m.
func (g Group) Intersects(m Mask) bool {
	return Mask(g)&m != 0
}

// AllGeometry combines the two geometry groups, the most common
// "something solid" filter.
const AllGeometry = Mask(StaticGeometry | DynamicGeometry)

// Pre-defined solid-masks: what an object of a given kind physically
// collides with.
const (
	ObjectSolids     = Mask(AllGeometry) | Mask(Actor) | Mask(Object)
	ActorSolids      = Mask(AllGeometry) | Mask(Actor) | Mask(Object) | Mask(Bone)
	ProjectileSolids = Mask(AllGeometry) | Mask(Actor) | Mask(Object)
)

// Pre-defined interaction-masks: what an object merely notices and reports
// without necessarily resolving a solid collision against it.
const (
	PlayerInteractions      = Mask(StaticGeometry | DynamicGeometry | Actor | Object | Bone | Zone | Particle | Projectile)
	CollectableInteractions = Mask(Actor) | Mask(Zone)
	ProjectileInteractions  = Mask(Actor) | Mask(Object) | Mask(Zone)
)

// CastMethod selects how a kinematic entity's movement is validated against
// the collision world each tick.
type CastMethod uint8

const (
	CastNone CastMethod = iota
	CastRay
	CastConvex
)

// SizePolicy names a way of sizing the moving entity for a cast. The bridge
// does not read it: a convex cast sweeps the object's own shape and a ray
// cast has no size.
type SizePolicy uint8

const (
	SizeAABB SizePolicy = iota
	SizeSphere
	SizeInnerSphere
	SizeExplicit
)

// KinematicResolutionConfig governs how a kinematic entity resolves its own
// movement against the world: which cast to use, how to size the sweep,
// and which of the cross-cutting resolution behaviors apply.
type KinematicResolutionConfig struct {
	Cast                     CastMethod
	Size                     SizePolicy
	IsInfluencer             bool // can push other kinematic entities
	AcceptsInfluence         bool // can be pushed by other influencers
	ResolveIntersections     bool // corrects solid-mask penetrations
	CanInfluenceChildren     bool
	CanBeInfluencedByChildren bool
}

// EntityType names a category in the CollisionConfig table. The zero value,
// EntityTypeUnknown, always resolves to the zero CollisionConfig (no
// kinematic resolution, group 0, empty masks) — "anything not in the table
// defaults to None".
type EntityType uint8

const (
	EntityTypeUnknown EntityType = iota
	EntityTypeStaticGeometry
	EntityTypeDynamicGeometry
	EntityTypePlayer
	EntityTypeNPC
	EntityTypeObject
	EntityTypeCollectable
	EntityTypeProjectile
	EntityTypeZone
)

// CollisionConfig is the closed set of collision parameters a Collision
// component is constructed from for a given EntityType: its group, the
// solid- and interaction-masks it tests against, and its kinematic
// resolution behavior (if any).
type CollisionConfig struct {
	Group       Group
	SolidMask   Mask
	Interaction Mask
	Kinematic   *KinematicResolutionConfig // nil: not a kinematic mover
}

// categoryTable is the closed EntityType → CollisionConfig mapping.
// EntityTypeUnknown and any value outside this table yield the zero
// CollisionConfig (None kinematic resolution, empty masks).
var categoryTable = map[EntityType]CollisionConfig{
	EntityTypeStaticGeometry: {
		Group: StaticGeometry,
	},
	EntityTypeDynamicGeometry: {
		Group:     DynamicGeometry,
		SolidMask: AllGeometry,
	},
	EntityTypePlayer: {
		Group:       Actor,
		SolidMask:   ActorSolids,
		Interaction: PlayerInteractions,
		Kinematic: &KinematicResolutionConfig{
			Cast:                 CastConvex,
			Size:                 SizeAABB,
			IsInfluencer:         true,
			AcceptsInfluence:     true,
			ResolveIntersections: true,
		},
	},
	EntityTypeNPC: {
		Group:       Actor,
		SolidMask:   ActorSolids,
		Interaction: PlayerInteractions,
		Kinematic: &KinematicResolutionConfig{
			Cast:                 CastConvex,
			Size:                 SizeAABB,
			IsInfluencer:         true,
			AcceptsInfluence:     true,
			ResolveIntersections: true,
		},
	},
	EntityTypeObject: {
		Group:       Object,
		SolidMask:   ObjectSolids,
		Interaction: PlayerInteractions,
		Kinematic: &KinematicResolutionConfig{
			Cast:                 CastRay,
			Size:                 SizeSphere,
			AcceptsInfluence:     true,
			ResolveIntersections: true,
		},
	},
	EntityTypeCollectable: {
		Group:       Zone,
		Interaction: CollectableInteractions,
	},
	EntityTypeProjectile: {
		Group:       Projectile,
		SolidMask:   ProjectileSolids,
		Interaction: ProjectileInteractions,
		Kinematic: &KinematicResolutionConfig{
			Cast: CastRay,
			Size: SizeExplicit,
		},
	},
	EntityTypeZone: {
		Group:       Zone,
		Interaction: PlayerInteractions,
	},
}

// NewCollisionConfig looks up t in the category table, returning the zero
// CollisionConfig (group 0, empty masks, no kinematic resolution) for any
// type not present.
func NewCollisionConfig(t EntityType) CollisionConfig {
	return categoryTable[t]
}
