// Package state provides a small observable state container that notifies
// the scheduler when values change. It is the collaborator the engine
// assumes on the far side of the scheduler boundary: the engine knows
// nothing about how values are stored, and this package knows nothing about
// reconciliation beyond "request work at a lane".
package state

import (
	"github.com/vtree-ui/vtree/pkg/sched"
)

// Store groups vars that drive one mounted surface. Every write notifies
// the store's notify function with the lane the write was made at; wiring
// that function to Root.Invalidate yields the usual update loop.
type Store struct {
	notify func(sched.Lane)
	lane   sched.Lane
}

// NewStore creates a store notifying changes through notify. Writes without
// an explicit lane use defaultLane.
func NewStore(notify func(sched.Lane), defaultLane sched.Lane) *Store {
	return &Store{notify: notify, lane: defaultLane}
}

// Var is one observable value in a Store.
type Var[T any] struct {
	store *Store
	value T
}

// NewVar creates a var with an initial value.
func NewVar[T any](store *Store, init T) *Var[T] {
	return &Var[T]{store: store, value: init}
}

// Get returns the current value.
func (v *Var[T]) Get() T { return v.value }

// Peek returns the current value without any subscription semantics; it is
// an alias of Get, present so call sites can mark reads that deliberately
// bypass rendering.
func (v *Var[T]) Peek() T { return v.value }

// Set writes the value and schedules work at the store's default lane.
func (v *Var[T]) Set(x T) {
	v.value = x
	v.store.notify(v.store.lane)
}

// SetAt writes the value and schedules work at the given lane. Use
// sched.Transition for updates that may be deferred to the next frame.
func (v *Var[T]) SetAt(x T, lane sched.Lane) {
	v.value = x
	v.store.notify(lane)
}

// Update applies f to the current value and stores the result, scheduling
// work at the store's default lane.
func (v *Var[T]) Update(f func(T) T) {
	v.Set(f(v.value))
}
