package reconcile

import (
	"fmt"
	"strings"
)

// Op is the kind of a patch.
type Op uint8

const (
	// Insert adds a new subtree at Path.
	Insert Op = iota
	// Remove deletes the subtree at Path.
	Remove
	// Update re-renders the node at Path in place, either by a targeted
	// text mutation or by swapping in a freshly rendered subtree.
	Update
	// Replace swaps the whole subtree at Path for a new one.
	Replace
)

func (op Op) String() string {
	switch op {
	case Insert:
		return "insert"
	case Remove:
		return "remove"
	case Update:
		return "update"
	case Replace:
		return "replace"
	default:
		return "unknown"
	}
}

// Path addresses a node by child indices from the root; the empty path is
// the root itself.
type Path []int

func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	var sb strings.Builder
	for _, i := range p {
		fmt.Fprintf(&sb, "/%d", i)
	}
	return sb.String()
}

// child returns the path extended with one more index. The result shares no
// backing array with p, since sibling paths are built from the same parent.
func (p Path) child(i int) Path {
	q := make(Path, len(p)+1)
	copy(q, p)
	q[len(p)] = i
	return q
}

// less orders paths lexicographically.
func (p Path) less(q Path) bool {
	for i := 0; i < len(p) && i < len(q); i++ {
		if p[i] != q[i] {
			return p[i] < q[i]
		}
	}
	return len(p) < len(q)
}

// Patch is one mutation instruction produced by diffing. Patches live for a
// single reconciliation cycle: produced in one diff pass, consumed in one
// apply pass.
type Patch struct {
	Op   Op
	Path Path
	// Old is the VNode being removed, updated or replaced; nil for Insert.
	Old *VNode
	// New is the VNode being inserted, updated or replaced in; nil for
	// Remove.
	New *VNode
}

func (p Patch) String() string {
	return fmt.Sprintf("%s@%s", p.Op, p.Path)
}
