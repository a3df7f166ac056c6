package sched

// Lane is a priority class of scheduled work. Lanes are ordered: a smaller
// Lane value means higher priority and lower latency.
type Lane uint8

const (
	// Sync work flushes immediately on the scheduling call, unless a batch
	// is open or a flush is already in progress.
	Sync Lane = iota
	// Discrete work (for example, handling a distinct user interaction) is
	// coalesced to the next microtask flush.
	Discrete
	// Default work is coalesced to the next microtask flush, after Discrete.
	Default
	// Transition work is deferred to the next frame window and time-boxed
	// to the frame budget; unfinished work rolls over to the next window.
	Transition
	// Idle work runs in idle windows with a deadline budget.
	Idle

	numLanes
)

func (l Lane) String() string {
	switch l {
	case Sync:
		return "sync"
	case Discrete:
		return "discrete"
	case Default:
		return "default"
	case Transition:
		return "transition"
	case Idle:
		return "idle"
	default:
		return "unknown"
	}
}
