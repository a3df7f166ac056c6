// Package render defines the narrow surface the engine needs from a render
// target: creating visual nodes, mutating their attributes and text, and
// editing the tree structure. Concrete targets (an in-memory tree, a browser
// DOM binding, a terminal buffer) implement Target; the engine never depends
// on anything beyond it.
package render

// Node is an opaque handle to one live visual node. Its concrete type is
// owned by the Target implementation.
type Node any

// Target is a mutable visual tree the engine renders into.
type Target interface {
	// CreateNode creates a detached node of the given type tag. A tag the
	// target does not recognize must yield a usable generic node rather than
	// fail.
	CreateNode(tag string) Node
	// Tag returns the type tag the node was created with.
	Tag(n Node) string

	// SetAttr sets a named attribute.
	SetAttr(n Node, name string, value any)
	// RemoveAttr removes a named attribute, if present.
	RemoveAttr(n Node, name string)
	// SetText sets the text payload of a leaf node.
	SetText(n Node, text string)

	// AppendChild appends child to parent.
	AppendChild(parent, child Node)
	// InsertChild inserts child at the given index among parent's children.
	// An index at or beyond the current child count appends.
	InsertChild(parent, child Node, i int)
	// RemoveChild detaches child from parent.
	RemoveChild(parent, child Node)
	// ReplaceChild swaps newChild into oldChild's position under parent and
	// detaches oldChild.
	ReplaceChild(parent, oldChild, newChild Node)

	// NumChildren returns the number of children of n.
	NumChildren(n Node) int
	// ChildAt returns the i-th child of n.
	ChildAt(n Node, i int) Node
	// Contains reports whether n is attached somewhere under the target's
	// root surface.
	Contains(n Node) bool

	// Reset restores a detached node to the pristine state of a freshly
	// created node of the same tag, so it can be pooled and reused.
	Reset(n Node)
}
