package physics

import (
	"testing"
	"time"

	"github.com/lixenwraith/enginecore/engine"
	"github.com/lixenwraith/enginecore/event"
	"github.com/lixenwraith/enginecore/vmath"
)

type fakeWorld struct {
	stepped    time.Duration
	manifolds  []Manifold
	poses      map[ObjectHandle]vmath.Mat4
	rayHit     CastHit
	rayHitOK   bool
	convexHit  CastHit
	convexOK   bool
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{poses: make(map[ObjectHandle]vmath.Mat4)}
}

func (f *fakeWorld) Step(delta time.Duration) { f.stepped = delta }
func (f *fakeWorld) Manifolds() []Manifold    { return f.manifolds }
func (f *fakeWorld) SetWorldMatrix(obj ObjectHandle, m vmath.Mat4) {
	f.poses[obj] = m
}
func (f *fakeWorld) WorldMatrix(obj ObjectHandle) vmath.Mat4 {
	return f.poses[obj]
}
func (f *fakeWorld) ConvexCast(obj ObjectHandle, from, to vmath.Mat4, mask Mask) (CastHit, bool) {
	return f.convexHit, f.convexOK
}
func (f *fakeWorld) RayCast(from, to vmath.Vec3F, mask Mask, self ObjectHandle) (CastHit, bool) {
	return f.rayHit, f.rayHitOK
}

func TestBridgeEmitsAABBOverlapForEveryManifold(t *testing.T) {
	w := engine.NewWorld()
	fw := newFakeWorld()
	bridge := NewBridge(w, fw)

	a := w.CreateEntity()
	bEnt := w.CreateEntity()

	bridge.Attach(a, NewCollision(EntityTypePlayer, "objA", ShapeConvex, 1, 0.5))
	bridge.Attach(bEnt, NewCollision(EntityTypeStaticGeometry, "objB", ShapeConcave, 0, 0))

	fw.manifolds = []Manifold{{A: "objA", B: "objB", Points: nil}}

	var overlaps int
	event.Subscribe(w.Bus, t, func(e OnAABBOverlap) { overlaps++ })

	bridge.Update()

	if overlaps != 1 {
		t.Fatalf("expected 1 OnAABBOverlap, got %d", overlaps)
	}
}

func TestBridgeResolvesIntersectionWhenSolidMaskMatches(t *testing.T) {
	w := engine.NewWorld()
	fw := newFakeWorld()
	bridge := NewBridge(w, fw)

	mover := w.CreateEntity()
	wall := w.CreateEntity()
	engine.Emplace(w, w.Transforms, mover, engine.NewTransform())

	bridge.Attach(mover, NewCollision(EntityTypePlayer, "mover", ShapeConvex, 1, 0.5))
	bridge.Attach(wall, NewCollision(EntityTypeStaticGeometry, "wall", ShapeConcave, 0, 0))

	fw.manifolds = []Manifold{{
		A: "mover", B: "wall",
		Points: []ContactPoint{
			{Position: vmath.Vec3F{}, Normal: vmath.Vec3F{X: 1}, Distance: -0.3},
		},
	}}

	var intersections int
	var correction vmath.Vec3F
	event.Subscribe(w.Bus, t, func(e OnIntersection) {
		intersections++
		correction = e.Correction
	})

	bridge.Update()

	if intersections != 1 {
		t.Fatalf("expected 1 OnIntersection, got %d", intersections)
	}
	if correction.X <= 0 {
		t.Fatalf("expected a positive X correction pushing the mover out of the wall, got %+v", correction)
	}
}

func TestBridgeSkipsIntersectionWhenSolidMaskDoesNotMatch(t *testing.T) {
	w := engine.NewWorld()
	fw := newFakeWorld()
	bridge := NewBridge(w, fw)

	mover := w.CreateEntity()
	zone := w.CreateEntity()
	engine.Emplace(w, w.Transforms, mover, engine.NewTransform())

	bridge.Attach(mover, NewCollision(EntityTypePlayer, "mover", ShapeConvex, 1, 0.5))
	bridge.Attach(zone, NewCollision(EntityTypeZone, "zone", ShapeConvex, 0, 0))

	fw.manifolds = []Manifold{{
		A: "mover", B: "zone",
		Points: []ContactPoint{
			{Position: vmath.Vec3F{}, Normal: vmath.Vec3F{X: 1}, Distance: -0.3},
		},
	}}

	var intersections int
	event.Subscribe(w.Bus, t, func(e OnIntersection) { intersections++ })

	bridge.Update()

	if intersections != 0 {
		t.Fatalf("expected no OnIntersection against a non-solid zone, got %d", intersections)
	}
}
