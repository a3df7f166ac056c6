// Package sched implements the priority-lane work scheduler that decides
// when reconciliation work runs.
//
// Work is scheduled as *Work values on one of five lanes (see Lane).
// Scheduling the same *Work again while it is still pending coalesces the
// two requests: the work runs once, at the higher-priority of the two lanes.
// Batching suppresses synchronous flushes so that several state writes
// collapse into one flush.
//
// The scheduler is cooperative and effectively single-threaded: all
// callbacks run on the flush call path, one at a time, and a flush that is
// already in progress absorbs re-entrant flush requests instead of
// recursing.
package sched

import (
	"sync"
	"time"

	"github.com/vtree-ui/vtree/pkg/logutil"
)

var logger = logutil.GetLogger("[sched] ")

// Work is a unit of schedulable work. The same *Work value can be scheduled
// many times; pending requests for it are deduplicated. Work callbacks must
// be idempotent, since there is no way to cancel a pending request.
type Work struct {
	f func()
}

// NewWork creates a Work running the given function.
func NewWork(f func()) *Work { return &Work{f} }

// Driver arms deferred flushes. ArmMicrotask must call its argument soon and
// before any frame or idle callback; ArmFrame at the next frame window;
// ArmIdle at the next idle window. The scheduler never arms a timing class
// again before the previously armed callback has run.
type Driver interface {
	ArmMicrotask(func())
	ArmFrame(func())
	ArmIdle(func())
}

const (
	// DefaultFrameBudget bounds how long a Transition flush may run.
	DefaultFrameBudget = 8 * time.Millisecond
	// DefaultIdleBudget bounds how long an Idle flush may run.
	DefaultIdleBudget = 4 * time.Millisecond
)

// Scheduler owns the pending-work registry and the flush state machine. Use
// New to create one.
type Scheduler struct {
	// mu protects all fields below. Callbacks are never invoked with mu
	// held.
	mu sync.Mutex

	driver      Driver
	frameBudget time.Duration
	idleBudget  time.Duration

	pending     [numLanes][]*Work
	pendingLane map[*Work]Lane

	batchDepth int
	flushing   bool

	microArmed bool
	frameArmed bool
	idleArmed  bool

	postFlush []func()

	stats Stats

	// Overridable in tests.
	now func() time.Time
}

// New creates a Scheduler that uses the given driver to arm deferred
// flushes.
func New(driver Driver) *Scheduler {
	return &Scheduler{
		driver:      driver,
		frameBudget: DefaultFrameBudget,
		idleBudget:  DefaultIdleBudget,
		pendingLane: map[*Work]Lane{},
		now:         time.Now,
	}
}

// SetFrameBudget sets the time budget of Transition flush windows.
func (s *Scheduler) SetFrameBudget(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameBudget = d
}

// SetIdleBudget sets the time budget of Idle flush windows.
func (s *Scheduler) SetIdleBudget(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idleBudget = d
}

// Schedule requests that w run at the given lane.
//
// If w is already pending at an equal-or-higher-priority lane, the call is a
// no-op and counts as a skipped duplicate. If w is pending at a
// lower-priority lane, it is moved up to the requested lane. Otherwise w is
// appended to the lane's pending queue and the lane's flush is armed.
func (s *Scheduler) Schedule(w *Work, lane Lane) {
	s.mu.Lock()
	if current, ok := s.pendingLane[w]; ok {
		if current <= lane {
			s.stats.SkippedDuplicates++
			s.mu.Unlock()
			return
		}
		s.removePending(w, current)
		s.stats.Upgrades++
	} else {
		s.stats.Scheduled++
	}
	s.pending[lane] = append(s.pending[lane], w)
	s.pendingLane[w] = lane

	flushNow := false
	switch lane {
	case Sync:
		if s.batchDepth == 0 && !s.flushing {
			flushNow = true
		} else if s.flushing {
			// Absorbed into the pass in progress if the Sync lane has not
			// been snapshot yet; otherwise picked up by the next microtask.
			s.armMicrotask()
		}
	case Discrete, Default:
		s.armMicrotask()
	case Transition:
		s.armFrame()
	case Idle:
		s.armIdle()
	}
	s.mu.Unlock()
	if flushNow {
		s.Flush()
	}
}

// removePending removes w from the given lane's queue. Called with mu held.
func (s *Scheduler) removePending(w *Work, lane Lane) {
	queue := s.pending[lane]
	for i, x := range queue {
		if x == w {
			s.pending[lane] = append(queue[:i], queue[i+1:]...)
			return
		}
	}
}

// armMicrotask and friends are called with mu held.
func (s *Scheduler) armMicrotask() {
	if !s.microArmed {
		s.microArmed = true
		s.driver.ArmMicrotask(s.flushMicro)
	}
}

func (s *Scheduler) armFrame() {
	if !s.frameArmed {
		s.frameArmed = true
		s.driver.ArmFrame(s.flushFrame)
	}
}

func (s *Scheduler) armIdle() {
	if !s.idleArmed {
		s.idleArmed = true
		s.driver.ArmIdle(s.flushIdle)
	}
}

// Batch runs fn with a batch open: Sync work scheduled inside fn is not
// flushed until fn returns. Batches nest; only the outermost one flushes.
func (s *Scheduler) Batch(fn func()) {
	s.BeginBatch()
	defer s.EndBatch()
	fn()
}

// BeginBatch opens a batch, suppressing synchronous flushes until the
// matching EndBatch.
func (s *Scheduler) BeginBatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchDepth++
}

// EndBatch closes a batch. Closing the outermost batch flushes any pending
// work in the synchronous lanes.
func (s *Scheduler) EndBatch() {
	s.mu.Lock()
	if s.batchDepth == 0 {
		s.mu.Unlock()
		logger.Println("EndBatch without matching BeginBatch")
		return
	}
	s.batchDepth--
	flushNow := s.batchDepth == 0 && !s.flushing &&
		(len(s.pending[Sync]) > 0 || len(s.pending[Discrete]) > 0 || len(s.pending[Default]) > 0)
	if flushNow {
		s.stats.BatchedFlushes++
	}
	s.mu.Unlock()
	if flushNow {
		s.Flush()
	}
}

// AfterFlush registers fn to run once, after the next flush has drained the
// synchronous lanes. Used for effects that must observe the updated tree.
func (s *Scheduler) AfterFlush(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.postFlush = append(s.postFlush, fn)
}

// flushMicro is the microtask entry point. A synchronous flush may have
// drained the lanes after the microtask was armed; in that case the pass is
// skipped, so the flush count only reflects passes that had work to do.
func (s *Scheduler) flushMicro() {
	s.mu.Lock()
	s.microArmed = false
	empty := len(s.pending[Sync]) == 0 && len(s.pending[Discrete]) == 0 &&
		len(s.pending[Default]) == 0 && len(s.postFlush) == 0
	s.mu.Unlock()
	if empty {
		return
	}
	s.Flush()
}

// Flush drains the Sync, Discrete and Default lanes in priority order, then
// runs post-flush callbacks once. Each lane's pending queue is snapshot and
// cleared before its callbacks are invoked, so work scheduled by a callback
// lands in a later pass and the flush terminates. A Flush made while a
// flush is in progress is absorbed into that pass.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	if s.flushing || s.batchDepth > 0 {
		s.mu.Unlock()
		return
	}
	s.flushing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.flushing = false
		s.mu.Unlock()
	}()

	for lane := Sync; lane <= Default; lane++ {
		for _, w := range s.takeLane(lane) {
			s.invoke(w)
		}
	}

	s.mu.Lock()
	post := s.postFlush
	s.postFlush = nil
	s.stats.Flushes++
	s.mu.Unlock()
	for _, fn := range post {
		s.invokeFunc(fn)
	}
}

// flushFrame drains the Transition lane within the frame budget.
func (s *Scheduler) flushFrame() {
	s.mu.Lock()
	s.frameArmed = false
	budget := s.frameBudget
	s.mu.Unlock()
	s.flushBudgeted(Transition, budget, s.armFrame)
}

// flushIdle drains the Idle lane within the idle budget.
func (s *Scheduler) flushIdle() {
	s.mu.Lock()
	s.idleArmed = false
	budget := s.idleBudget
	s.mu.Unlock()
	s.flushBudgeted(Idle, budget, s.armIdle)
}

func (s *Scheduler) flushBudgeted(lane Lane, budget time.Duration, rearm func()) {
	queue := s.takeLane(lane)
	start := s.now()
	for i, w := range queue {
		if s.now().Sub(start) > budget {
			// Over budget: put the rest back at the head of the lane and
			// wait for the next window.
			s.mu.Lock()
			var rest []*Work
			for _, x := range queue[i:] {
				// A callback may have rescheduled x already; the pending
				// request wins.
				if _, ok := s.pendingLane[x]; !ok {
					rest = append(rest, x)
					s.pendingLane[x] = lane
				}
			}
			s.pending[lane] = append(rest, s.pending[lane]...)
			s.stats.Deferred += len(rest)
			rearm()
			s.mu.Unlock()
			return
		}
		s.invoke(w)
	}
}

// takeLane snapshots and clears a lane's pending queue.
func (s *Scheduler) takeLane(lane Lane) []*Work {
	s.mu.Lock()
	defer s.mu.Unlock()
	queue := s.pending[lane]
	s.pending[lane] = nil
	for _, w := range queue {
		delete(s.pendingLane, w)
	}
	return queue
}

// invoke runs one work callback, containing any panic so that sibling
// callbacks in the same flush still run.
func (s *Scheduler) invoke(w *Work) { s.invokeFunc(w.f) }

func (s *Scheduler) invokeFunc(f func()) {
	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.stats.CallbackPanics++
			s.mu.Unlock()
			logger.Printf("panic in scheduled callback: %v", r)
		}
	}()
	f()
}

// Stats is a snapshot of scheduler counters.
type Stats struct {
	// Scheduled counts accepted Schedule calls for not-yet-pending work.
	Scheduled int
	// SkippedDuplicates counts Schedule calls coalesced into an existing
	// pending request.
	SkippedDuplicates int
	// Upgrades counts pending work moved to a higher-priority lane.
	Upgrades int
	// Flushes counts completed synchronous flush passes.
	Flushes int
	// BatchedFlushes counts flushes triggered by closing an outermost batch.
	BatchedFlushes int
	// Deferred counts callbacks pushed to a later window because a
	// Transition or Idle flush ran over budget.
	Deferred int
	// CallbackPanics counts callbacks that panicked.
	CallbackPanics int
}

// Stats returns a snapshot of the scheduler's counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
