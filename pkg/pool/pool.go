// Package pool implements a bounded free list of detached visual nodes,
// keyed by type tag. Recycling detached nodes through the pool lets the
// reconciler serve most node-creation requests without allocating.
package pool

import (
	"github.com/vtree-ui/vtree/pkg/render"
)

// DefaultCapacity is the default bound on each per-tag free list.
const DefaultCapacity = 50

// Pool is a per-tag free list of reset visual nodes. The zero value is not
// useful; use New.
type Pool struct {
	target   render.Target
	capacity int
	free     map[string][]render.Node

	hits   int
	misses int
}

// New creates a pool serving nodes for the given target. capacity bounds
// each per-tag free list; if it is not positive, DefaultCapacity is used.
func New(target render.Target, capacity int) *Pool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Pool{target: target, capacity: capacity, free: map[string][]render.Node{}}
}

// Acquire returns a node of the given tag, reusing a pooled node if one is
// available and creating a fresh one otherwise.
func (p *Pool) Acquire(tag string) render.Node {
	if list := p.free[tag]; len(list) > 0 {
		n := list[len(list)-1]
		p.free[tag] = list[:len(list)-1]
		p.hits++
		return n
	}
	p.misses++
	return p.target.CreateNode(tag)
}

// Release resets a detached node and adds it to its tag's free list. If the
// list is already at capacity the node is discarded instead.
func (p *Pool) Release(n render.Node) {
	tag := p.target.Tag(n)
	list := p.free[tag]
	if len(list) >= p.capacity {
		return
	}
	p.target.Reset(n)
	p.free[tag] = append(list, n)
}

// ReleaseSubtree recycles root and all of its descendants, bottom-up.
// Children are detached from their parents as part of the per-node reset.
func (p *Pool) ReleaseSubtree(root render.Node) {
	// Collect children first: Release resets the node, which clears its
	// child links.
	n := p.target.NumChildren(root)
	children := make([]render.Node, n)
	for i := 0; i < n; i++ {
		children[i] = p.target.ChildAt(root, i)
	}
	for _, c := range children {
		p.ReleaseSubtree(c)
	}
	p.Release(root)
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Hits   int
	Misses int
	// Free maps each tag to the current size of its free list.
	Free map[string]int
}

// Stats returns a snapshot of the pool's counters and per-tag list sizes.
func (p *Pool) Stats() Stats {
	free := make(map[string]int, len(p.free))
	for tag, list := range p.free {
		if len(list) > 0 {
			free[tag] = len(list)
		}
	}
	return Stats{Hits: p.hits, Misses: p.misses, Free: free}
}
