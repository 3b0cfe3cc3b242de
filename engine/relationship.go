package engine

// Relationship is the hierarchy component: parent handle, first-child
// handle, previous/next-sibling handles, and a child count. It is
// represented as plain entity handles in an ECS component, never as owning
// pointers — the registry guarantees handle validity and the façade
// forbids cycles, so a doubly linked sibling list needs no shared
// ownership.
type Relationship struct {
	Parent     Entity
	First      Entity
	Prev       Entity
	Next       Entity
	ChildCount int
}

func (w *World) parentOf(e Entity) Entity {
	r, ok := w.Relationships.Get(e)
	if !ok {
		return NullEntity
	}
	return r.Parent
}

// IsDescendant reports whether candidate is a descendant of ancestor in
// the relationship tree, walking up candidate's parent chain.
func IsDescendant(w *World, candidate, ancestor Entity) bool {
	return isDescendant(w, candidate, ancestor)
}

// isDescendant reports whether candidate is a descendant of ancestor,
// walking up candidate's parent chain. Used by SetParent to refuse cycles.
func isDescendant(w *World, candidate, ancestor Entity) bool {
	cur := w.parentOf(candidate)
	for cur.Valid() {
		if cur == ancestor {
			return true
		}
		cur = w.parentOf(cur)
	}
	return false
}

// unlinkFromParent removes self from its current parent's sibling list, if
// any, and clears self's Parent/Prev/Next fields.
func (w *World) unlinkFromParent(self Entity) {
	rel, ok := w.Relationships.Get(self)
	if !ok || !rel.Parent.Valid() {
		return
	}

	parent := rel.Parent
	w.Relationships.Mutate(parent, func(p *Relationship) {
		if p.First == self {
			p.First = rel.Next
		}
		p.ChildCount--
	})

	if rel.Prev.Valid() {
		w.Relationships.Mutate(rel.Prev, func(pr *Relationship) { pr.Next = rel.Next })
	}
	if rel.Next.Valid() {
		w.Relationships.Mutate(rel.Next, func(nx *Relationship) { nx.Prev = rel.Prev })
	}

	w.Relationships.Mutate(self, func(r *Relationship) {
		r.Parent = NullEntity
		r.Prev = NullEntity
		r.Next = NullEntity
	})
}

// linkUnderParent attaches self as parent's new first child. The data model
// carries only a first-child pointer (no last-child pointer), so an O(1)
// insertion is a prepend rather than an append; child order is not a
// contract this engine makes (see DESIGN.md), only list integrity and O(1)
// unlink/enumeration.
func (w *World) linkUnderParent(self, parent Entity) {
	pr, _ := w.Relationships.Get(parent)
	oldFirst := pr.First

	if !w.Relationships.Has(self) {
		w.Relationships.Add(self, Relationship{})
	}
	w.Relationships.Mutate(self, func(r *Relationship) {
		r.Parent = parent
		r.Next = oldFirst
		r.Prev = NullEntity
	})
	if oldFirst.Valid() {
		w.Relationships.Mutate(oldFirst, func(r *Relationship) { r.Prev = self })
	}

	if !w.Relationships.Has(parent) {
		w.Relationships.Add(parent, Relationship{})
	}
	w.Relationships.Mutate(parent, func(p *Relationship) {
		p.First = self
		p.ChildCount++
	})
}

// Children returns e's direct children by walking the sibling list. Used
// by script code (via fiber.Script.Children) that needs to navigate the
// hierarchy without reaching into World internals.
func (w *World) Children(e Entity) []Entity {
	return w.children(e)
}

// children returns e's direct children by walking the sibling list,
// collected before any mutation so callers may safely unlink or destroy
// while iterating.
func (w *World) children(e Entity) []Entity {
	rel, ok := w.Relationships.Get(e)
	if !ok {
		return nil
	}
	result := make([]Entity, 0, rel.ChildCount)
	for cur := rel.First; cur.Valid(); {
		result = append(result, cur)
		next, ok := w.Relationships.Get(cur)
		if !ok {
			break
		}
		cur = next.Next
	}
	return result
}

// reparentOrDestroyChildren handles e's children ahead of e's own removal
// from the stores: destroyOrphans controls whether descendants are
// recursively destroyed or re-parented to e's own parent.
func (w *World) reparentOrDestroyChildren(e Entity, destroyOrphans bool) {
	kids := w.children(e)
	if len(kids) == 0 {
		return
	}

	if destroyOrphans {
		for _, kid := range kids {
			w.DestroyEntity(kid, true)
		}
		return
	}

	grandparent := w.parentOf(e)
	for _, kid := range kids {
		w.unlinkFromParent(kid)
		if grandparent.Valid() {
			SetParent(w, kid, grandparent)
		}
	}
}
