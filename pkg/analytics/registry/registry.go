package registry

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ReadyFunc marks one registration as initialized. Calling it more than once
// is a no-op.
type ReadyFunc func()

// Readiness is a thread-safe registry of integration readiness flags.
// It uses sync.RWMutex; reads (gate checks) dominate writes.
type Readiness struct {
	mu      sync.RWMutex
	entries map[string]bool
	onReady func()
}

// New creates an empty readiness registry.
func New() *Readiness {
	return &Readiness{
		entries: make(map[string]bool),
	}
}

// OnAllReady installs the hook fired whenever a ready call transitions the
// gate from not-all-ready to all-ready. The hook runs outside the registry
// lock, so it may call back into the registry.
func (r *Readiness) OnAllReady(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onReady = fn
}

// Register adds key to the registry and returns its ready callback.
// Registration is idempotent by key: an existing entry keeps its readiness
// value and a fresh callback over the same key is returned.
func (r *Readiness) Register(key string) ReadyFunc {
	r.mu.Lock()
	if _, exists := r.entries[key]; !exists {
		r.entries[key] = false
	}
	r.mu.Unlock()

	return func() {
		r.markReady(key)
	}
}

// markReady flips key to ready and fires the hook on the gate transition.
func (r *Readiness) markReady(key string) {
	r.mu.Lock()
	wasReady := r.allReadyLocked()
	r.entries[key] = true
	nowReady := r.allReadyLocked()
	hook := r.onReady
	r.mu.Unlock()

	if !wasReady && nowReady && hook != nil {
		hook()
	}
}

// Ready reports whether every registered integration has signaled readiness.
// An empty registry is vacuously ready.
func (r *Readiness) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.allReadyLocked()
}

func (r *Readiness) allReadyLocked() bool {
	for _, ready := range r.entries {
		if !ready {
			return false
		}
	}
	return true
}

// Has reports whether key is registered.
func (r *Readiness) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key]
	return ok
}

// Keys returns all registered keys. The order is not guaranteed.
func (r *Readiness) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of registrations.
func (r *Readiness) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// NewKey returns a process-unique registration key with the given prefix,
// for integrations that can mount more than once.
func NewKey(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String()[:8])
}
