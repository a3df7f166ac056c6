package reconcile

import (
	"fmt"

	"github.com/vtree-ui/vtree/pkg/decl"
	"github.com/vtree-ui/vtree/pkg/render"
)

// Producer produces the tree to render. Produce may return a *decl.Desc, a
// []*decl.Desc (treated as the children of an implicit group node), a legacy
// View, or nil for an empty tree.
type Producer interface {
	Produce() (any, error)
}

// Func adapts a plain descriptor-building function to the Producer
// interface.
type Func func() *decl.Desc

func (f Func) Produce() (any, error) { return f(), nil }

// View is a legacy stateful view object. Unlike descriptors, views are
// mutable and carry no fingerprint, so the differ compares them with a
// narrow heuristic over their value fields and child count.
type View interface {
	// ViewType returns the node's type tag.
	ViewType() string
	// ViewKey returns the node's identity key, or "".
	ViewKey() string
	// ViewFields returns the node's value fields, rendered as attributes
	// and compared by the differ.
	ViewFields() []decl.Prop
	// ViewChildren returns the node's children.
	ViewChildren() []View
}

// GroupType is the type tag of the implicit node wrapped around a
// []*decl.Desc producer result.
const GroupType = "group"

// VNode pairs one node's description with its live render node for one
// reconciliation pass. A VNode wraps either a descriptor or a legacy View.
//
// VNode trees are rebuilt from scratch on every pass; the only state that
// survives a pass is the node reference, carried from the old tree into the
// new one wherever the differ finds the node unchanged.
type VNode struct {
	desc *decl.Desc
	view View

	// identity is a diagnostic path of the form "/row/text:key". It plays
	// no role in matching, which uses keys and positions directly.
	identity string

	children []*VNode

	// node is the corresponding live node, or nil if not yet rendered.
	node render.Node
}

// Desc returns the descriptor this VNode wraps, or nil for view-backed
// nodes.
func (v *VNode) Desc() *decl.Desc { return v.desc }

// Node returns the live render node, or nil before mounting.
func (v *VNode) Node() render.Node { return v.node }

// Identity returns the diagnostic identity path.
func (v *VNode) Identity() string { return v.identity }

// Type returns the node's type tag.
func (v *VNode) Type() string { return v.typeTag() }

// Key returns the node's identity key, or "".
func (v *VNode) Key() string { return v.key() }

// Children returns the child VNodes. Callers must not mutate the slice.
func (v *VNode) Children() []*VNode { return v.children }

func (v *VNode) typeTag() string {
	if v.desc != nil {
		return v.desc.Type()
	}
	return v.view.ViewType()
}

func (v *VNode) key() string {
	if v.desc != nil {
		return v.desc.Key()
	}
	return v.view.ViewKey()
}

// buildTree normalizes a producer result into a VNode tree. It returns nil
// for a nil result.
func buildTree(produced any, parentIdentity string) (*VNode, error) {
	switch produced := produced.(type) {
	case nil:
		return nil, nil
	case *decl.Desc:
		if produced == nil {
			return nil, nil
		}
		return buildDesc(produced, parentIdentity, 0), nil
	case []*decl.Desc:
		return buildDesc(decl.New(GroupType, nil, produced...), parentIdentity, 0), nil
	case View:
		return buildView(produced, parentIdentity, 0), nil
	default:
		return nil, fmt.Errorf("producer returned %T, want *decl.Desc, []*decl.Desc, View or nil", produced)
	}
}

func buildDesc(d *decl.Desc, parentIdentity string, index int) *VNode {
	v := &VNode{desc: d, identity: childIdentity(parentIdentity, d.Type(), d.Key(), index)}
	if n := d.NumChildren(); n > 0 {
		v.children = make([]*VNode, n)
		for i := 0; i < n; i++ {
			v.children[i] = buildDesc(d.Child(i), v.identity, i)
		}
	}
	return v
}

func buildView(view View, parentIdentity string, index int) *VNode {
	v := &VNode{view: view, identity: childIdentity(parentIdentity, view.ViewType(), view.ViewKey(), index)}
	if children := view.ViewChildren(); len(children) > 0 {
		v.children = make([]*VNode, len(children))
		for i, c := range children {
			v.children[i] = buildView(c, v.identity, i)
		}
	}
	return v
}

func childIdentity(parent, typ, key string, index int) string {
	if key != "" {
		return fmt.Sprintf("%s/%s:%s", parent, typ, key)
	}
	return fmt.Sprintf("%s/%s#%d", parent, typ, index)
}

// viewSelfChanged is the narrow change heuristic for legacy views: a view
// counts as changed when any value field or the child count differs.
func viewSelfChanged(old, new View) bool {
	a, b := old.ViewFields(), new.ViewFields()
	if len(a) != len(b) {
		return true
	}
	for i := range a {
		if a[i].Name != b[i].Name || !decl.ValueEqual(a[i].Value, b[i].Value) {
			return true
		}
	}
	return len(old.ViewChildren()) != len(new.ViewChildren())
}
