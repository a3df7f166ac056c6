// Package memtree implements render.Target with a plain in-memory tree. It
// is the reference target, used by the engine's own tests and by the demo
// program; it also serves as a model for writing real target bindings.
package memtree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vtree-ui/vtree/pkg/render"
)

// Node is one mutable visual node.
type Node struct {
	Tag      string
	Attrs    map[string]any
	Text     string
	Children []*Node

	parent *Node
}

// Parent returns the node's parent, or nil if detached.
func (n *Node) Parent() *Node { return n.parent }

// GenericTag is the tag of fallback nodes created for unrecognized tags.
const GenericTag = "generic"

// Tree is an in-memory visual tree. The zero value is not useful; use New.
type Tree struct {
	root    *Node
	created int
	known   map[string]bool
}

// New creates an empty tree whose root is a node with the given tag.
func New(rootTag string) *Tree {
	t := &Tree{}
	t.root = &Node{Tag: rootTag, Attrs: map[string]any{}}
	return t
}

// Root returns the root node, under which mounted surfaces live.
func (t *Tree) Root() *Node { return t.root }

// NodesCreated returns how many nodes CreateNode has allocated, which tests
// use to distinguish fresh allocation from pool reuse.
func (t *Tree) NodesCreated() int { return t.created }

// KnownTags restricts the set of tags the tree recognizes. CreateNode for
// any other tag degrades to a generic node that records the requested tag,
// instead of failing the pass. With no restriction every tag is accepted.
func (t *Tree) KnownTags(tags ...string) {
	t.known = make(map[string]bool, len(tags))
	for _, tag := range tags {
		t.known[tag] = true
	}
}

var _ render.Target = (*Tree)(nil)

func (t *Tree) CreateNode(tag string) render.Node {
	t.created++
	if t.known != nil && !t.known[tag] {
		return &Node{Tag: GenericTag, Attrs: map[string]any{"unknown-tag": tag}}
	}
	return &Node{Tag: tag, Attrs: map[string]any{}}
}

func (t *Tree) Tag(n render.Node) string { return n.(*Node).Tag }

func (t *Tree) SetAttr(n render.Node, name string, value any) {
	n.(*Node).Attrs[name] = value
}

func (t *Tree) RemoveAttr(n render.Node, name string) {
	delete(n.(*Node).Attrs, name)
}

func (t *Tree) SetText(n render.Node, text string) {
	n.(*Node).Text = text
}

func (t *Tree) AppendChild(parent, child render.Node) {
	p, c := parent.(*Node), child.(*Node)
	c.parent = p
	p.Children = append(p.Children, c)
}

func (t *Tree) InsertChild(parent, child render.Node, i int) {
	p, c := parent.(*Node), child.(*Node)
	if i >= len(p.Children) {
		t.AppendChild(parent, child)
		return
	}
	c.parent = p
	p.Children = append(p.Children, nil)
	copy(p.Children[i+1:], p.Children[i:])
	p.Children[i] = c
}

func (t *Tree) RemoveChild(parent, child render.Node) {
	p, c := parent.(*Node), child.(*Node)
	for i, x := range p.Children {
		if x == c {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
			c.parent = nil
			return
		}
	}
}

func (t *Tree) ReplaceChild(parent, oldChild, newChild render.Node) {
	p, o, n := parent.(*Node), oldChild.(*Node), newChild.(*Node)
	for i, x := range p.Children {
		if x == o {
			p.Children[i] = n
			n.parent = p
			o.parent = nil
			return
		}
	}
}

func (t *Tree) NumChildren(n render.Node) int {
	return len(n.(*Node).Children)
}

func (t *Tree) ChildAt(n render.Node, i int) render.Node {
	return n.(*Node).Children[i]
}

func (t *Tree) Contains(n render.Node) bool {
	for x := n.(*Node); x != nil; x = x.parent {
		if x == t.root {
			return true
		}
	}
	return false
}

func (t *Tree) Reset(n render.Node) {
	x := n.(*Node)
	x.Text = ""
	x.Children = nil
	x.parent = nil
	for name := range x.Attrs {
		delete(x.Attrs, name)
	}
}

// Dump writes an indented plain-text rendition of the tree, useful for
// inspection and golden tests.
func (t *Tree) Dump() string {
	var sb strings.Builder
	dumpNode(&sb, t.root, 0)
	return sb.String()
}

func dumpNode(sb *strings.Builder, n *Node, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(n.Tag)
	if len(n.Attrs) > 0 {
		names := make([]string, 0, len(n.Attrs))
		for name := range n.Attrs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(sb, " %s=%v", name, n.Attrs[name])
		}
	}
	if n.Text != "" {
		fmt.Fprintf(sb, " %q", n.Text)
	}
	sb.WriteString("\n")
	for _, c := range n.Children {
		dumpNode(sb, c, depth+1)
	}
}
