package sched

import (
	"time"
)

// Buffer size of the microtask channel. The value is chosen for no
// particular reason.
const microChSize = 128

// DefaultFrameInterval approximates a 60Hz frame callback.
const DefaultFrameInterval = 16 * time.Millisecond

// DefaultIdleDelay is how long the loop waits with nothing else to do
// before opening an idle window.
const DefaultIdleDelay = 50 * time.Millisecond

// Loop is a channel-based Driver. It is fully serial: it does not call two
// callbacks in parallel, so scheduler state and the live tree may be
// manipulated from callbacks without further synchronization.
//
// Run must be called (usually on a dedicated goroutine) for armed callbacks
// to fire.
type Loop struct {
	microCh chan func()
	frameCh chan func()
	idleCh  chan func()
	stopCh  chan struct{}

	frameInterval time.Duration
	idleDelay     time.Duration
}

var _ Driver = (*Loop)(nil)

// NewLoop creates a new Loop with the default frame interval and idle
// delay.
func NewLoop() *Loop {
	return &Loop{
		microCh:       make(chan func(), microChSize),
		frameCh:       make(chan func(), 1),
		idleCh:        make(chan func(), 1),
		stopCh:        make(chan struct{}),
		frameInterval: DefaultFrameInterval,
		idleDelay:     DefaultIdleDelay,
	}
}

// ArmMicrotask arms f to run as soon as the loop is free.
func (lp *Loop) ArmMicrotask(f func()) { lp.microCh <- f }

// ArmFrame arms f to run at the next frame tick. It never blocks; the
// scheduler arms at most one frame callback at a time.
func (lp *Loop) ArmFrame(f func()) {
	select {
	case lp.frameCh <- f:
	default:
	}
}

// ArmIdle arms f to run once the loop has been quiet for the idle delay.
func (lp *Loop) ArmIdle(f func()) {
	select {
	case lp.idleCh <- f:
	default:
	}
}

// Stop makes Run return. It never blocks. Callbacks armed but not yet run
// are dropped.
func (lp *Loop) Stop() {
	select {
	case <-lp.stopCh:
	default:
		close(lp.stopCh)
	}
}

// Run runs the loop until Stop is called. Microtask callbacks run before
// frame callbacks; frame callbacks fire on a fixed interval from when they
// were armed; idle callbacks fire only after the loop has been quiet for
// the idle delay.
func (lp *Loop) Run() {
	var (
		framePending func()
		idlePending  func()
		frameTimer   = time.NewTimer(0)
		idleTimer    = time.NewTimer(0)
	)
	stopTimer(frameTimer)
	stopTimer(idleTimer)
	defer frameTimer.Stop()
	defer idleTimer.Stop()

	// Running a callback counts as activity and pushes any armed idle
	// window back by a full idle delay.
	deferIdle := func() {
		if idlePending != nil {
			stopTimer(idleTimer)
			idleTimer.Reset(lp.idleDelay)
		}
	}

	for {
		// Drain all microtasks before considering timers.
	consumeMicrotasks:
		for {
			select {
			case f := <-lp.microCh:
				f()
				deferIdle()
			default:
				break consumeMicrotasks
			}
		}

		select {
		case f := <-lp.microCh:
			f()
			deferIdle()
		case f := <-lp.frameCh:
			if framePending == nil {
				frameTimer.Reset(lp.frameInterval)
			}
			framePending = f
		case f := <-lp.idleCh:
			if idlePending == nil {
				idleTimer.Reset(lp.idleDelay)
			}
			idlePending = f
		case <-frameTimer.C:
			f := framePending
			framePending = nil
			if f != nil {
				f()
				deferIdle()
			}
		case <-idleTimer.C:
			f := idlePending
			idlePending = nil
			if f != nil {
				f()
			}
		case <-lp.stopCh:
			return
		}
	}
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
