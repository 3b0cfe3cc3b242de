package engine

import (
	"testing"

	"github.com/lixenwraith/enginecore/event"
)

type healthComponent struct {
	HP int
}

func TestGetOrEmplaceEmitsOnComponentAddOnce(t *testing.T) {
	w := NewWorld()
	store := NewStore[healthComponent]()
	e := w.CreateEntity()

	adds := 0
	event.Subscribe(w.Bus, t, func(a ComponentAdd[healthComponent]) { adds++ })

	first := GetOrEmplace(w, store, e, func() healthComponent { return healthComponent{HP: 10} })
	second := GetOrEmplace(w, store, e, func() healthComponent { return healthComponent{HP: 99} })

	if first.HP != 10 || second.HP != 10 {
		t.Fatalf("expected both calls to return the first-constructed value, got %+v %+v", first, second)
	}
	if adds != 1 {
		t.Fatalf("expected exactly one OnComponentAdd, got %d", adds)
	}
}

func TestPatchEmitsOnComponentChangeAndNoOpsIfMissing(t *testing.T) {
	w := NewWorld()
	store := NewStore[healthComponent]()
	e := w.CreateEntity()

	changes := 0
	event.Subscribe(w.Bus, t, func(c ComponentChange[healthComponent]) { changes++ })

	if ok := Patch(w, store, e, func(h *healthComponent) { h.HP = 5 }); ok {
		t.Fatal("expected Patch on unset component to return false")
	}
	if changes != 0 {
		t.Fatalf("expected no change event for missing component, got %d", changes)
	}

	Emplace(w, store, e, healthComponent{HP: 10})
	if ok := Patch(w, store, e, func(h *healthComponent) { h.HP -= 3 }); !ok {
		t.Fatal("expected Patch to succeed once component exists")
	}
	if changes != 1 {
		t.Fatalf("expected exactly one change event, got %d", changes)
	}
	v, _ := store.Get(e)
	if v.HP != 7 {
		t.Fatalf("expected HP=7 after patch, got %d", v.HP)
	}
}

func TestDestroyEntityEmitsOnEntityDestroyed(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()

	destroyed := false
	event.Subscribe(w.Bus, t, func(d OnEntityDestroyed) {
		if d.Entity == e {
			destroyed = true
		}
	})

	w.DestroyEntity(e, true)
	if !destroyed {
		t.Fatal("expected OnEntityDestroyed to fire")
	}
}

func TestSetParentSelfIsNoOp(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	if got := SetParent(w, e, e); got != NullEntity {
		t.Fatalf("expected SetParent(e, e) to return Null, got %v", got)
	}
}

func TestSetParentRefusesCycle(t *testing.T) {
	w := NewWorld()
	a := w.CreateEntity()
	b := w.CreateEntity()

	SetParent(w, b, a) // b is now a's child
	if got := SetParent(w, a, b); got != NullEntity {
		t.Fatalf("expected cyclic SetParent to be refused, got %v", got)
	}
}

func TestSetParentLinksSiblingList(t *testing.T) {
	w := NewWorld()
	parent := w.CreateEntity()
	c1 := w.CreateEntity()
	c2 := w.CreateEntity()

	SetParent(w, c1, parent)
	SetParent(w, c2, parent)

	rel, _ := w.Relationships.Get(parent)
	if rel.ChildCount != 2 {
		t.Fatalf("expected child count 2, got %d", rel.ChildCount)
	}

	kids := w.children(parent)
	if len(kids) != 2 {
		t.Fatalf("expected 2 children enumerated, got %d", len(kids))
	}
}

func TestDestroyEntityReparentsChildrenWhenNotDestroyingOrphans(t *testing.T) {
	w := NewWorld()
	grandparent := w.CreateEntity()
	parent := w.CreateEntity()
	child := w.CreateEntity()

	SetParent(w, parent, grandparent)
	SetParent(w, child, parent)

	w.DestroyEntity(parent, false)

	rel, ok := w.Relationships.Get(child)
	if !ok || rel.Parent != grandparent {
		t.Fatalf("expected child re-parented to grandparent, got %+v ok=%v", rel, ok)
	}
}
