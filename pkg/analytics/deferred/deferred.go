// Package deferred provides a three-state asynchronous value: unresolved,
// resolved, or failed. It models promise-shaped inputs (shop and cart data
// still loading when the provider mounts) as an explicit type whose
// transitions are driven by the host environment.
package deferred

import (
	"context"
	"sync"
)

// State is the lifecycle state of a deferred value.
type State string

// Deferred states. Transitions are Unresolved -> Resolved or
// Unresolved -> Failed; a settled value never changes again.
const (
	StateUnresolved State = "unresolved"
	StateResolved   State = "resolved"
	StateFailed     State = "failed"
)

// Deferred is a write-once asynchronous value of type T.
type Deferred[T any] struct {
	mu    sync.RWMutex
	state State
	value T
	err   error
	done  chan struct{}
}

// New creates an unresolved deferred value.
func New[T any]() *Deferred[T] {
	return &Deferred[T]{
		state: StateUnresolved,
		done:  make(chan struct{}),
	}
}

// Resolved creates a deferred value already settled with v.
func Resolved[T any](v T) *Deferred[T] {
	d := New[T]()
	d.Resolve(v)
	return d
}

// Failed creates a deferred value already settled with err.
func Failed[T any](err error) *Deferred[T] {
	d := New[T]()
	d.Fail(err)
	return d
}

// Resolve settles the value. The first Resolve or Fail wins; later calls are
// no-ops.
func (d *Deferred[T]) Resolve(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateUnresolved {
		return
	}
	d.state = StateResolved
	d.value = v
	close(d.done)
}

// Fail settles the value with an error. The first Resolve or Fail wins.
func (d *Deferred[T]) Fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateUnresolved {
		return
	}
	d.state = StateFailed
	d.err = err
	close(d.done)
}

// State returns the current lifecycle state.
func (d *Deferred[T]) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Value returns the resolved value and whether the deferred is resolved.
func (d *Deferred[T]) Value() (T, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.value, d.state == StateResolved
}

// Err returns the failure error, or nil while unresolved or resolved.
func (d *Deferred[T]) Err() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.err
}

// Done returns a channel closed when the value settles.
func (d *Deferred[T]) Done() <-chan struct{} {
	return d.done
}

// Await blocks until the value settles or ctx is done. It returns the
// resolved value, the failure error, or ctx.Err().
func (d *Deferred[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-d.done:
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.state == StateFailed {
		var zero T
		return zero, d.err
	}
	return d.value, nil
}
