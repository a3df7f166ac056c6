// Package engine assembles the incremental update engine: one scheduler,
// one reconciler and one node pool per engine instance, rendering into one
// target. Engines hold no process-wide state; independent surfaces and test
// runs get independent engines.
package engine

import (
	"time"

	"github.com/vtree-ui/vtree/pkg/logutil"
	"github.com/vtree-ui/vtree/pkg/pool"
	"github.com/vtree-ui/vtree/pkg/reconcile"
	"github.com/vtree-ui/vtree/pkg/render"
	"github.com/vtree-ui/vtree/pkg/sched"
)

var logger = logutil.GetLogger("[engine] ")

// Engine owns the update machinery for one render target.
type Engine struct {
	target render.Target
	sched  *sched.Scheduler
	rec    *reconcile.Reconciler
	pool   *pool.Pool

	// loop is the driver goroutine, if the engine created one itself.
	loop *sched.Loop
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	driver       sched.Driver
	poolCapacity int
	patchCeiling int
	frameBudget  time.Duration
	idleBudget   time.Duration
}

// WithDriver makes the engine arm flushes through the given driver instead
// of running its own loop. Tests use this with a manual driver.
func WithDriver(d sched.Driver) Option {
	return func(o *options) { o.driver = d }
}

// WithPoolCapacity bounds the node pool's per-tag free lists.
func WithPoolCapacity(n int) Option {
	return func(o *options) { o.poolCapacity = n }
}

// WithPatchCeiling sets the reconciler's patch-storm ceiling.
func WithPatchCeiling(n int) Option {
	return func(o *options) { o.patchCeiling = n }
}

// WithBudgets sets the scheduler's frame and idle budgets.
func WithBudgets(frame, idle time.Duration) Option {
	return func(o *options) { o.frameBudget = frame; o.idleBudget = idle }
}

// New creates an engine rendering into target. Unless WithDriver is given,
// the engine runs its own serial loop goroutine; Close stops it.
func New(target render.Target, opts ...Option) *Engine {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	e := &Engine{target: target}
	if o.driver == nil {
		e.loop = sched.NewLoop()
		go e.loop.Run()
		o.driver = e.loop
	}
	e.sched = sched.New(o.driver)
	if o.frameBudget > 0 || o.idleBudget > 0 {
		e.sched.SetFrameBudget(o.frameBudget)
		e.sched.SetIdleBudget(o.idleBudget)
	}
	e.pool = pool.New(target, o.poolCapacity)
	var recOpts []reconcile.Option
	if o.patchCeiling > 0 {
		recOpts = append(recOpts, reconcile.WithPatchCeiling(o.patchCeiling))
	}
	e.rec = reconcile.New(target, e.pool, recOpts...)
	return e
}

// Close stops the engine's own loop, if it runs one. Mounted surfaces are
// left as rendered; unmount them first to recycle their nodes.
func (e *Engine) Close() {
	if e.loop != nil {
		e.loop.Stop()
	}
}

// Scheduler returns the engine's scheduler, for collaborators that schedule
// work directly (state stores, event sources).
func (e *Engine) Scheduler() *sched.Scheduler { return e.sched }

// Batch runs fn with a scheduler batch open; see sched.Scheduler.Batch.
func (e *Engine) Batch(fn func()) { e.sched.Batch(fn) }

// AfterFlush registers fn to run once after the next flush; see
// sched.Scheduler.AfterFlush.
func (e *Engine) AfterFlush(fn func()) { e.sched.AfterFlush(fn) }

// Mount renders the producer's tree under container and returns a Root
// handle for driving updates.
func (e *Engine) Mount(p reconcile.Producer, container render.Node) (*Root, error) {
	if err := e.rec.Mount(p, container); err != nil {
		return nil, err
	}
	r := &Root{eng: e, producer: p, container: container}
	r.work = sched.NewWork(r.update)
	return r, nil
}

// Stats aggregates the counters of all engine components.
type Stats struct {
	Sched     sched.Stats
	Reconcile reconcile.Stats
	Pool      pool.Stats
}

// Stats returns a snapshot of all engine counters.
func (e *Engine) Stats() Stats {
	return Stats{Sched: e.sched.Stats(), Reconcile: e.rec.Stats(), Pool: e.pool.Stats()}
}

// Root is one mounted surface. It is the single entry point through which
// external triggers reach the engine for that surface.
type Root struct {
	eng       *Engine
	producer  reconcile.Producer
	container render.Node
	work      *sched.Work
}

// update is the unit of work the scheduler runs for this root.
func (r *Root) update() {
	if _, err := r.eng.rec.Update(r.producer, r.container); err != nil {
		logger.Printf("update failed: %v", err)
	}
}

// Invalidate schedules a rebuild-diff-apply pass for this root at the given
// lane. Repeated invalidations before the flush coalesce into one pass.
func (r *Root) Invalidate(lane sched.Lane) {
	r.eng.sched.Schedule(r.work, lane)
}

// Dispatch runs fn inside an implicit batch, so that however many state
// writes fn performs, at most one reconciliation pass follows. Interaction
// callbacks should be routed through Dispatch.
func (r *Root) Dispatch(fn func()) {
	r.eng.sched.Batch(fn)
}

// Tree returns the root's current virtual tree, for diagnostics.
func (r *Root) Tree() *reconcile.VNode {
	return r.eng.rec.Mounted(r.container)
}

// Unmount detaches the surface, recycling its whole tree into the pool.
func (r *Root) Unmount() error {
	return r.eng.rec.Unmount(r.container)
}
