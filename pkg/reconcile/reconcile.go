// Package reconcile implements the tree-diffing reconciler: it builds
// virtual-tree snapshots from descriptor producers, diffs two snapshots into
// a minimal patch list, and applies the patches against the live visual
// tree, recycling removed nodes through the node pool.
package reconcile

import (
	"errors"
	"fmt"

	"github.com/vtree-ui/vtree/pkg/logutil"
	"github.com/vtree-ui/vtree/pkg/pool"
	"github.com/vtree-ui/vtree/pkg/render"
)

var logger = logutil.GetLogger("[reconcile] ")

// DefaultPatchCeiling is the default bound on piecewise patch application.
// A diff producing more patches than this is applied as one full subtree
// re-render instead. The bound is a heuristic; tune it per target.
const DefaultPatchCeiling = 64

// ErrNotMounted is returned by Unmount for a container nothing is mounted
// on.
var ErrNotMounted = errors.New("nothing mounted on container")

// ErrAlreadyMounted is returned by Mount for a container that already has a
// recorded tree. Unmount first, or use Update.
var ErrAlreadyMounted = errors.New("container already mounted")

// Reconciler turns producer output into live-tree mutations. It records the
// last rendered tree per container so later updates can be diffed
// incrementally. All methods must be called from the scheduler's flush path;
// the Reconciler itself is not safe for concurrent use.
type Reconciler struct {
	target  render.Target
	pool    *pool.Pool
	ceiling int

	mounted map[render.Node]*VNode

	stats Stats
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithPatchCeiling sets the patch count above which incremental application
// is abandoned for a full subtree re-render.
func WithPatchCeiling(n int) Option {
	return func(r *Reconciler) { r.ceiling = n }
}

// New creates a Reconciler rendering into the given target through the
// given pool.
func New(target render.Target, p *pool.Pool, opts ...Option) *Reconciler {
	r := &Reconciler{
		target:  target,
		pool:    p,
		ceiling: DefaultPatchCeiling,
		mounted: map[render.Node]*VNode{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mount builds the first tree from the producer, renders it fresh and
// attaches it under container. Nodes come from the pool where possible, so
// a remount after an unmount reuses the recycled nodes.
func (r *Reconciler) Mount(p Producer, container render.Node) error {
	if _, ok := r.mounted[container]; ok {
		return ErrAlreadyMounted
	}
	tree, err := r.produce(p)
	if err != nil {
		r.stats.ProducerErrors++
		logger.Printf("mount aborted: %v", err)
		return err
	}
	if tree != nil {
		r.renderTree(tree)
		r.target.AppendChild(container, tree.node)
		r.fireAppear(tree)
	}
	r.mounted[container] = tree
	r.stats.Mounts++
	return nil
}

// Update builds a new tree from the producer, diffs it against the tree
// recorded for container, applies the patches and records the new tree. If
// nothing is mounted on container yet, Update mounts. The patch list is
// returned for diagnostics.
//
// A producer failure aborts the pass: the previously recorded tree remains
// the source of truth and no partial tree is recorded.
func (r *Reconciler) Update(p Producer, container render.Node) ([]Patch, error) {
	oldTree, ok := r.mounted[container]
	if !ok {
		return nil, r.Mount(p, container)
	}
	newTree, err := r.produce(p)
	if err != nil {
		r.stats.ProducerErrors++
		logger.Printf("update aborted, keeping previous tree: %v", err)
		return nil, err
	}
	patches := Diff(oldTree, newTree, &r.stats)
	r.apply(container, oldTree, newTree, patches)
	r.mounted[container] = newTree
	r.stats.Updates++
	return patches, nil
}

// Unmount detaches and recycles the whole tree mounted on container and
// discards the recorded tree.
func (r *Reconciler) Unmount(container render.Node) error {
	tree, ok := r.mounted[container]
	if !ok {
		return ErrNotMounted
	}
	if tree != nil && tree.node != nil {
		r.target.RemoveChild(container, tree.node)
		r.recycle(tree)
	}
	delete(r.mounted, container)
	r.stats.Unmounts++
	return nil
}

// Mounted returns the tree currently recorded for container, or nil.
func (r *Reconciler) Mounted(container render.Node) *VNode {
	return r.mounted[container]
}

// produce calls the producer, containing panics, and normalizes the result
// into a VNode tree.
func (r *Reconciler) produce(p Producer) (tree *VNode, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			tree, err = nil, fmt.Errorf("producer panicked: %v", rec)
		}
	}()
	produced, err := p.Produce()
	if err != nil {
		return nil, fmt.Errorf("producer failed: %w", err)
	}
	return buildTree(produced, "")
}

// Stats is a snapshot of reconciler counters.
type Stats struct {
	Mounts   int
	Updates  int
	Unmounts int
	// SubtreesSkipped counts memoized subtrees skipped on a trusted
	// fingerprint match.
	SubtreesSkipped int
	// IdentityChanges counts same-type nodes whose keys differed, forcing a
	// replace.
	IdentityChanges int
	// NodesRecycled counts live nodes released into the pool.
	NodesRecycled int
	// FullRerenders counts applies that abandoned incremental patching.
	FullRerenders int
	// InPlaceTextUpdates counts updates served by mutating a text payload
	// on the existing node.
	InPlaceTextUpdates int
	// ProducerErrors counts aborted passes due to producer errors or
	// panics.
	ProducerErrors int
}

// Stats returns a snapshot of the reconciler's counters.
func (r *Reconciler) Stats() Stats { return r.stats }
