package physics

import (
	"time"

	"github.com/lixenwraith/enginecore/engine"
	"github.com/lixenwraith/enginecore/event"
	"github.com/lixenwraith/enginecore/log"
	"github.com/lixenwraith/enginecore/vmath"
)

var bridgeLog = log.New("physics.bridge")

// Bridge is the Kinematic Physics Bridge: it steps an external
// CollisionWorld each tick, translates its contacts into typed events, and
// resolves kinematic intersections. It implements engine.System so World
// drives it alongside the thread scheduler.
type Bridge struct {
	engine.SystemBase

	world      CollisionWorld
	collisions *engine.Store[Collision]

	objToEntity   map[ObjectHandle]engine.Entity
	dirtyThisTick []engine.Entity
	preTickWorld  map[engine.Entity]vmath.Mat4
}

// NewBridge constructs a Bridge against an already-built World and an
// external CollisionWorld implementation, registering the Collision
// component store with the World for entity-destruction cleanup.
func NewBridge(w *engine.World, cw CollisionWorld) *Bridge {
	store := engine.NewStore[Collision]()
	w.RegisterStore(store)

	b := &Bridge{
		SystemBase:   engine.NewSystemBase(w),
		world:        cw,
		collisions:   store,
		objToEntity:  make(map[ObjectHandle]engine.Entity),
		preTickWorld: make(map[engine.Entity]vmath.Mat4),
	}
	event.Subscribe(w.Bus, b, func(c engine.ComponentAdd[Collision]) {
		b.objToEntity[c.Value.Object] = c.Entity
	})
	return b
}

// Name identifies this System for logging and service-dependency wiring.
func (b *Bridge) Name() string { return "physics.bridge" }

// Priority runs the bridge before the thread scheduler, per the per-update
// control flow: event drain, then physics bridge, then scheduler tick.
func (b *Bridge) Priority() int { return 0 }

// Init is a no-op; subscription happens in NewBridge so it is active
// before the first Update regardless of when the System is registered.
func (b *Bridge) Init() {}

// Attach registers col as e's Collision component, emitting OnComponentAdd
// and indexing its object handle for manifold resolution.
func (b *Bridge) Attach(e engine.Entity, col Collision) {
	engine.Emplace(b.World, b.collisions, e, col)
}

// Stores exposes the Collision component store for callers that need
// direct queries (scripts checking group/mask membership, for instance).
func (b *Bridge) Stores() *engine.Store[Collision] { return b.collisions }

// Update runs one full pass of the per-tick algorithm: forward transform
// changes, step the world, retrieve engine-authoritative writes, walk
// manifolds, and resolve kinematic casts.
func (b *Bridge) Update() {
	dt := b.currentDelta()

	b.snapshotPreTickPoses()
	b.forwardTransformChanges()
	b.world.Step(dt)
	b.retrieveEngineWrites()
	b.walkManifolds()
	b.resolveKinematicCasts()

	b.dirtyThisTick = b.dirtyThisTick[:0]
	for k := range b.preTickWorld {
		delete(b.preTickWorld, k)
	}
}

func (b *Bridge) currentDelta() time.Duration {
	if tr, ok := engine.GetResource[engine.TimeResource](b.World.ResourceStore); ok {
		return tr.DeltaTime
	}
	return 0
}

// snapshotPreTickPoses records every kinematic entity's current world pose
// before any transform forwarding happens, so step 5 can compute intended
// movement for this tick.
func (b *Bridge) snapshotPreTickPoses() {
	for _, e := range b.collisions.All() {
		col, ok := b.collisions.Get(e)
		if !ok || !col.IsKinematic() {
			continue
		}
		b.preTickWorld[e] = b.World.WorldMatrix(e)
	}
}

// forwardTransformChanges is step 1: for every entity whose transform was
// patched since the last tick, push the new pose into the collision world
// (through the motion-state if one is configured) and clear the pending
// flag. Entities with a kinematic config are remembered so step 5 only
// casts for movers that actually changed this tick.
func (b *Bridge) forwardTransformChanges() {
	for _, e := range b.collisions.All() {
		if !b.World.EventPending(e) {
			continue
		}
		col, ok := b.collisions.Get(e)
		if !ok || col.Object == nil {
			b.World.ClearEventFlag(e)
			continue
		}

		world := b.World.WorldMatrix(e)
		if col.Motion != MotionWriteToEngine {
			b.world.SetWorldMatrix(col.Object, world)
		}

		if col.IsKinematic() {
			b.dirtyThisTick = append(b.dirtyThisTick, e)
		}
		b.World.ClearEventFlag(e)
	}
}

// retrieveEngineWrites is step 3: for motion-states where the collision
// world is authoritative, copy its reported pose back onto the transform.
func (b *Bridge) retrieveEngineWrites() {
	for _, e := range b.collisions.All() {
		col, ok := b.collisions.Get(e)
		if !ok || col.Motion != MotionWriteToEngine || col.Object == nil {
			continue
		}
		engine.SetWorldPose(b.World, e, b.world.WorldMatrix(col.Object))
	}
}

// walkManifolds is step 4.
func (b *Bridge) walkManifolds() {
	manifolds := b.world.Manifolds()
	b.World.Metrics.Ints.Get("physics.manifolds").Add(int64(len(manifolds)))

	for _, m := range manifolds {
		a, aok := b.objToEntity[m.A]
		bb, bok := b.objToEntity[m.B]
		if !aok || !bok {
			bridgeLog.Warnf("manifold references an object with no registered entity, skipping")
			continue
		}

		event.Emit(b.World.Bus, OnAABBOverlap{A: a, B: bb, ContactCount: len(m.Points)})
		if len(m.Points) == 0 {
			continue
		}

		colA, ok := b.collisions.Get(a)
		if !ok {
			continue
		}
		colB, ok := b.collisions.Get(bb)
		if !ok {
			continue
		}

		pos, normal, dist, correction := averageContacts(m.Points)
		_ = pos

		if !colA.IsKinematic() {
			continue
		}

		if colB.Group.Intersects(colA.Interaction) {
			event.Emit(b.World.Bus, OnInteractionIntersection{
				A: a, B: bb, Position: pos, Normal: normal, Distance: dist,
			})
		}

		if !colB.Group.Intersects(colA.SolidMask) {
			continue
		}
		if !colA.Kinematic.ResolveIntersections {
			continue
		}

		engine.Translate(b.World, a, correction)
		b.World.Metrics.Ints.Get("physics.intersections_resolved").Add(1)
		event.Emit(b.World.Bus, OnIntersection{A: a, B: bb, Correction: correction})
	}
}

// averageContacts averages contact position, normal, and penetration
// distance across a manifold's points, and derives the correction vector
// -Sum(normal * min(0, distance)) / N.
func averageContacts(points []ContactPoint) (pos, normal vmath.Vec3F, dist float64, correction vmath.Vec3F) {
	n := float64(len(points))
	var correctionSum vmath.Vec3F
	for _, p := range points {
		pos = vmath.V3FAdd(pos, p.Position)
		normal = vmath.V3FAdd(normal, p.Normal)
		dist += p.Distance
		penetrating := min(p.Distance, 0)
		correctionSum = vmath.V3FAdd(correctionSum, vmath.V3FScale(p.Normal, penetrating))
	}
	pos = vmath.V3FScale(pos, 1/n)
	normal = vmath.V3FNormalize(vmath.V3FScale(normal, 1/n))
	dist /= n
	correction = vmath.V3FScale(correctionSum, -1/n)
	return
}

// resolveKinematicCasts is step 5.
func (b *Bridge) resolveKinematicCasts() {
	for _, mover := range b.dirtyThisTick {
		colMover, ok := b.collisions.Get(mover)
		if !ok || !colMover.IsKinematic() || colMover.Kinematic.Cast == CastNone {
			continue
		}

		hit, hitOK := b.castFor(mover, colMover)
		if !hitOK {
			continue
		}

		target, ok := b.objToEntity[hit.Object]
		if !ok {
			continue
		}
		colTarget, ok := b.collisions.Get(target)
		if !ok {
			continue
		}

		allowInfluence := true
		if engine.IsDescendant(b.World, target, mover) && !colMover.Kinematic.CanInfluenceChildren {
			allowInfluence = false
		}
		if engine.IsDescendant(b.World, mover, target) && colTarget.Kinematic != nil && !colTarget.Kinematic.CanBeInfluencedByChildren {
			allowInfluence = false
		}

		newPos := vmath.Translation(b.World.WorldMatrix(mover))
		oldWorld, hasOld := b.preTickWorld[mover]
		oldPos := newPos
		if hasOld {
			oldPos = vmath.Translation(oldWorld)
		}
		intended := vmath.V3FSub(newPos, oldPos)
		intendedLen := vmath.V3FMag(intended)

		var influence vmath.Vec3F
		skipCorrection := false
		if allowInfluence && colMover.Kinematic.IsInfluencer && colTarget.Kinematic != nil && colTarget.Kinematic.AcceptsInfluence {
			reversedNormal := vmath.V3FScale(hit.Normal, -1)
			if colTarget.Mass == 0 {
				influence = vmath.V3FScale(reversedNormal, intendedLen)
				skipCorrection = true
			} else {
				ratio := min(colMover.Mass/colTarget.Mass, 1.0)
				influence = vmath.V3FScale(reversedNormal, intendedLen*ratio)
			}
			engine.Translate(b.World, target, influence)
			event.Emit(b.World.Bus, OnKinematicInfluence{Mover: mover, Target: target, Influence: influence})
		}

		penetration := (1 - hit.Fraction) * intendedLen
		if !skipCorrection {
			adjustment := vmath.V3FAdd(
				vmath.V3FScale(hit.Normal, colMover.HalfExtent-penetration),
				influence,
			)
			engine.Translate(b.World, mover, adjustment)
			event.Emit(b.World.Bus, OnKinematicAdjustment{Mover: mover, Hit: target, Adjustment: adjustment})
		}

		finalPos := vmath.Translation(b.World.WorldMatrix(mover))
		event.Emit(b.World.Bus, OnSurfaceContact{
			Mover:          mover,
			Hit:            target,
			ImpactVelocity: vmath.V3FSub(finalPos, oldPos),
			Penetration:    vmath.V3FScale(hit.Normal, penetration),
		})
	}
}

func (b *Bridge) castFor(mover engine.Entity, col Collision) (CastHit, bool) {
	world := b.World.WorldMatrix(mover)
	from, hasFrom := b.preTickWorld[mover]
	if !hasFrom {
		from = world
	}

	switch col.Kinematic.Cast {
	case CastRay:
		return b.world.RayCast(vmath.Translation(from), vmath.Translation(world), col.SolidMask, col.Object)
	case CastConvex:
		return b.world.ConvexCast(col.Object, from, world, col.SolidMask)
	default:
		return CastHit{}, false
	}
}
