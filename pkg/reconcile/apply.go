package reconcile

import (
	"sort"

	"github.com/vtree-ui/vtree/pkg/decl"
	"github.com/vtree-ui/vtree/pkg/render"
)

// Modifier types with lifecycle semantics: their values are func() callbacks
// fired by the apply step at the exact moment the node enters or leaves the
// live tree.
const (
	OnAppear    = "onAppear"
	OnDisappear = "onDisappear"
)

// apply consumes a patch list against the live tree under container.
// newTree must be the tree the patches were diffed towards; it ends up fully
// linked to live nodes.
func (r *Reconciler) apply(container render.Node, oldTree, newTree *VNode, patches []Patch) {
	if len(patches) == 0 {
		r.syncChildOrder(newTree)
		return
	}

	var inserts, removes, updates, replaces []Patch
	storm := len(patches) > r.ceiling
	rootReplace := false
	for _, p := range patches {
		if p.Op == Replace && len(p.Path) == 0 {
			rootReplace = true
		}
		switch p.Op {
		case Insert:
			inserts = append(inserts, p)
		case Remove:
			removes = append(removes, p)
		case Update:
			updates = append(updates, p)
		case Replace:
			replaces = append(replaces, p)
		}
	}

	if rootReplace || storm {
		// Applying piecewise is no longer worth it; swap the whole surface.
		if storm {
			logger.Printf("patch storm: %d patches exceed ceiling %d, re-rendering subtree", len(patches), r.ceiling)
		}
		r.fullRerender(container, oldTree, newTree)
		return
	}

	for _, p := range updates {
		r.applyUpdate(container, newTree, p)
	}
	// Apply removals deepest-last-sibling first so that earlier removals do
	// not shift the indices later ones were computed against.
	sort.Slice(removes, func(i, j int) bool { return removes[j].Path.less(removes[i].Path) })
	for _, p := range removes {
		r.applyRemove(container, oldTree, newTree, p)
	}
	for _, p := range inserts {
		r.applyInsert(container, newTree, p)
	}
	for _, p := range replaces {
		r.applyReplace(container, newTree, p)
	}
	r.syncChildOrder(newTree)
}

// fullRerender recycles the old subtree wholesale and renders the new tree
// fresh in one step.
func (r *Reconciler) fullRerender(container render.Node, oldTree, newTree *VNode) {
	if oldTree != nil && oldTree.node != nil {
		r.target.RemoveChild(container, oldTree.node)
		r.recycle(oldTree)
	}
	if newTree != nil {
		r.renderTree(newTree)
		r.target.AppendChild(container, newTree.node)
		r.fireAppear(newTree)
	}
	r.stats.FullRerenders++
}

func (r *Reconciler) applyUpdate(container render.Node, newTree *VNode, p Patch) {
	old, new := p.Old, p.New
	if old.node == nil {
		// The old subtree was never rendered; render the new one fresh.
		r.applyInsert(container, newTree, Patch{Op: Insert, Path: p.Path, New: new})
		return
	}
	if textPayloadOnlyChanged(old, new) {
		text, _ := new.desc.Prop(decl.TextProp)
		r.target.SetText(old.node, text.(string))
		new.node = old.node
		r.stats.InPlaceTextUpdates++
		return
	}
	parent := r.parentNode(container, newTree, p.Path)
	r.renderTree(new)
	r.target.ReplaceChild(parent, old.node, new.node)
	r.recycle(old)
	r.fireAppear(new)
}

func (r *Reconciler) applyRemove(container render.Node, oldTree, newTree *VNode, p Patch) {
	if p.Old.node == nil {
		return
	}
	parent := container
	if len(p.Path) > 0 {
		// The parent of a removed node is unchanged, so its live node is
		// carried in both trees; resolve it through the old tree, whose
		// indices the path uses.
		if v := nodeAt(oldTree, p.Path[:len(p.Path)-1]); v != nil && v.node != nil {
			parent = v.node
		}
	}
	r.target.RemoveChild(parent, p.Old.node)
	r.recycle(p.Old)
}

func (r *Reconciler) applyInsert(container render.Node, newTree *VNode, p Patch) {
	parent := r.parentNode(container, newTree, p.Path)
	r.renderTree(p.New)
	if len(p.Path) == 0 {
		r.target.AppendChild(parent, p.New.node)
	} else {
		r.target.InsertChild(parent, p.New.node, p.Path[len(p.Path)-1])
	}
	r.fireAppear(p.New)
}

func (r *Reconciler) applyReplace(container render.Node, newTree *VNode, p Patch) {
	parent := r.parentNode(container, newTree, p.Path)
	r.renderTree(p.New)
	if p.Old.node != nil {
		r.target.ReplaceChild(parent, p.Old.node, p.New.node)
		r.recycle(p.Old)
	} else {
		r.target.AppendChild(parent, p.New.node)
	}
	r.fireAppear(p.New)
}

// parentNode resolves the live node under which the patch path's last index
// lives, through the new tree.
func (r *Reconciler) parentNode(container render.Node, newTree *VNode, path Path) render.Node {
	if len(path) == 0 {
		return container
	}
	if v := nodeAt(newTree, path[:len(path)-1]); v != nil && v.node != nil {
		return v.node
	}
	return container
}

// nodeAt walks a VNode tree by child indices. Returns nil if the path runs
// off the tree.
func nodeAt(tree *VNode, path Path) *VNode {
	v := tree
	for _, i := range path {
		if v == nil || i >= len(v.children) {
			return nil
		}
		v = v.children[i]
	}
	return v
}

// renderTree renders v and its whole subtree into fresh (or pooled) live
// nodes.
func (r *Reconciler) renderTree(v *VNode) {
	n := r.pool.Acquire(v.typeTag())
	v.node = n
	if v.desc != nil {
		v.desc.Props(func(p decl.Prop) {
			if v.desc.Type() == decl.TextType && p.Name == decl.TextProp {
				if s, ok := p.Value.(string); ok {
					r.target.SetText(n, s)
					return
				}
			}
			r.target.SetAttr(n, p.Name, p.Value)
		})
		for _, m := range v.desc.Modifiers() {
			if m.Type == OnAppear || m.Type == OnDisappear {
				continue
			}
			r.target.SetAttr(n, "mod:"+m.Type, m.Value)
		}
	} else {
		for _, f := range v.view.ViewFields() {
			r.target.SetAttr(n, f.Name, f.Value)
		}
	}
	for _, c := range v.children {
		r.renderTree(c)
		r.target.AppendChild(n, c.node)
	}
}

// recycle fires disappear hooks bottom-up and releases the subtree's live
// nodes into the pool.
func (r *Reconciler) recycle(v *VNode) {
	if v == nil || v.node == nil {
		return
	}
	r.fireDisappear(v)
	r.stats.NodesRecycled += countNodes(v)
	r.pool.ReleaseSubtree(v.node)
}

func countNodes(v *VNode) int {
	n := 1
	for _, c := range v.children {
		if c.node != nil {
			n += countNodes(c)
		}
	}
	return n
}

func (r *Reconciler) fireAppear(v *VNode) {
	for _, c := range v.children {
		r.fireAppear(c)
	}
	r.fireHook(v, OnAppear)
}

func (r *Reconciler) fireDisappear(v *VNode) {
	for _, c := range v.children {
		r.fireDisappear(c)
	}
	r.fireHook(v, OnDisappear)
}

func (r *Reconciler) fireHook(v *VNode, hook string) {
	if v.desc == nil {
		return
	}
	for _, m := range v.desc.Modifiers() {
		if m.Type == hook {
			if f, ok := m.Value.(func()); ok {
				f()
			}
		}
	}
}

// textPayloadOnlyChanged reports whether old and new are both text leaves
// that differ in nothing but the text payload, making an in-place text
// mutation sufficient.
func textPayloadOnlyChanged(old, new *VNode) bool {
	a, b := old.desc, new.desc
	if a == nil || b == nil {
		return false
	}
	if a.Type() != decl.TextType || b.Type() != decl.TextType {
		return false
	}
	if a.NumChildren() != 0 || b.NumChildren() != 0 {
		return false
	}
	if _, ok := textOf(a); !ok {
		return false
	}
	if _, ok := textOf(b); !ok {
		return false
	}
	return decl.Equal(a.WithProp(decl.TextProp, ""), b.WithProp(decl.TextProp, ""))
}

func textOf(d *decl.Desc) (string, bool) {
	v, ok := d.Prop(decl.TextProp)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// syncChildOrder makes each live parent's child order match the VNode
// order. Keyed reordering produces no patches, only matched pairs in new
// positions; this pass performs the actual moves.
func (r *Reconciler) syncChildOrder(v *VNode) {
	if v == nil || v.node == nil {
		return
	}
	for i, c := range v.children {
		if c.node == nil {
			continue
		}
		if i < r.target.NumChildren(v.node) && r.target.ChildAt(v.node, i) == c.node {
			r.syncChildOrder(c)
			continue
		}
		r.target.RemoveChild(v.node, c.node)
		r.target.InsertChild(v.node, c.node, i)
		r.syncChildOrder(c)
	}
}
