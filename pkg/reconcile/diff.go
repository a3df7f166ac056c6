package reconcile

import (
	"github.com/vtree-ui/vtree/pkg/decl"
)

// Diff computes the patches that turn the old tree into the new one. Either
// tree may be nil. Live-node references are carried from old VNodes into
// matching new VNodes as a side effect; counters for skipped subtrees and
// identity changes accumulate into st, which may be nil.
func Diff(old, new *VNode, st *Stats) []Patch {
	if st == nil {
		st = &Stats{}
	}
	var patches []Patch
	diff(old, new, nil, &patches, st)
	return patches
}

func diff(old, new *VNode, path Path, patches *[]Patch, st *Stats) {
	switch {
	case old == nil && new == nil:
		return
	case old == nil:
		*patches = append(*patches, Patch{Op: Insert, Path: path, New: new})
		return
	case new == nil:
		*patches = append(*patches, Patch{Op: Remove, Path: path, Old: old})
		return
	}
	if old.typeTag() != new.typeTag() {
		*patches = append(*patches, Patch{Op: Replace, Path: path, Old: old, New: new})
		return
	}
	if old.key() != new.key() {
		// Same type but a different identity: swap the subtree and note the
		// identity change for diagnostics.
		st.IdentityChanges++
		logger.Printf("identity changed at %s: %q -> %q", path, old.identity, new.identity)
		*patches = append(*patches, Patch{Op: Replace, Path: path, Old: old, New: new})
		return
	}
	if old.desc != nil && new.desc != nil && new.desc.Memoized() &&
		old.desc.Fingerprint() == new.desc.Fingerprint() {
		// The producer vouches that this subtree is unchanged; trust the
		// fingerprint without a structural comparison and skip the subtree.
		carrySubtree(old, new)
		st.SubtreesSkipped++
		return
	}
	if selfChanged(old, new) {
		// Children are not diffed further; applying the update decides
		// between a targeted mutation and a full subtree rebuild.
		*patches = append(*patches, Patch{Op: Update, Path: path, Old: old, New: new})
		return
	}
	new.node = old.node
	diffChildren(old.children, new.children, path, patches, st)
}

func selfChanged(old, new *VNode) bool {
	if old.desc != nil && new.desc != nil {
		return !equalExceptChildren(old.desc, new.desc)
	}
	if old.view != nil && new.view != nil {
		return viewSelfChanged(old.view, new.view)
	}
	// One side switched between the descriptor and the legacy model.
	return true
}

// equalExceptChildren compares two descriptors' own fields, ignoring their
// children. Child differences, including differing child counts, are found
// by child diffing; comparing whole subtrees here would turn any leaf
// change into an update of all of its ancestors.
func equalExceptChildren(a, b *decl.Desc) bool {
	return decl.Equal(a.WithChildren(), b.WithChildren())
}

// carrySubtree copies live-node references from the old tree into the new
// one, as deep as the two trees coincide.
func carrySubtree(old, new *VNode) {
	new.node = old.node
	for i := 0; i < len(old.children) && i < len(new.children); i++ {
		carrySubtree(old.children[i], new.children[i])
	}
}

func diffChildren(old, new []*VNode, path Path, patches *[]Patch, st *Stats) {
	switch {
	case len(old) == 0 && len(new) == 0:
		return
	case len(old) == 0:
		for i, c := range new {
			*patches = append(*patches, Patch{Op: Insert, Path: path.child(i), New: c})
		}
		return
	case len(new) == 0:
		for i, c := range old {
			*patches = append(*patches, Patch{Op: Remove, Path: path.child(i), Old: c})
		}
		return
	}
	if !anyKeyed(old) && !anyKeyed(new) {
		// Positional pairing.
		n := len(old)
		if len(new) < n {
			n = len(new)
		}
		for i := 0; i < n; i++ {
			diff(old[i], new[i], path.child(i), patches, st)
		}
		for i := n; i < len(new); i++ {
			*patches = append(*patches, Patch{Op: Insert, Path: path.child(i), New: new[i]})
		}
		for i := n; i < len(old); i++ {
			*patches = append(*patches, Patch{Op: Remove, Path: path.child(i), Old: old[i]})
		}
		return
	}
	diffKeyedChildren(old, new, path, patches, st)
}

// diffKeyedChildren matches children by identity in two linear passes:
// keyed new children look up old children by key, unkeyed new children
// consume the unmatched unkeyed old children in their original order. Old
// children never matched become removals. Reordering keyed children
// therefore produces no patches at all; the nodes are matched pairwise and
// repositioned during apply.
func diffKeyedChildren(old, new []*VNode, path Path, patches *[]Patch, st *Stats) {
	keyed := make(map[string]*VNode)
	var unkeyed []*VNode
	for _, c := range old {
		if k := c.key(); k != "" {
			keyed[k] = c
		} else {
			unkeyed = append(unkeyed, c)
		}
	}

	matched := make(map[*VNode]bool, len(old))
	nextUnkeyed := 0
	for j, c := range new {
		var match *VNode
		if k := c.key(); k != "" {
			match = keyed[k]
		} else if nextUnkeyed < len(unkeyed) {
			match = unkeyed[nextUnkeyed]
			nextUnkeyed++
		}
		if match != nil {
			matched[match] = true
		}
		diff(match, c, path.child(j), patches, st)
	}

	for i, c := range old {
		if !matched[c] {
			*patches = append(*patches, Patch{Op: Remove, Path: path.child(i), Old: c})
		}
	}
}

func anyKeyed(children []*VNode) bool {
	for _, c := range children {
		if c.key() != "" {
			return true
		}
	}
	return false
}
