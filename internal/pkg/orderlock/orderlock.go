// Package orderlock serializes mutating operations per order. Two concurrent
// fulfillments of the same order could otherwise both pass the availability
// check before either commits, over-fulfilling an item.
package orderlock

import "sync"

// Registry hands out one mutex per order ID. It is safe for concurrent use;
// a single instance is shared by all command handlers via the composition root.
//
// Mutexes are never evicted. The registry grows with the number of distinct
// orders mutated during the process lifetime, which is acceptable for an
// admin back end; eviction would require tracking lock ownership counts.
type Registry struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRegistry creates an empty lock registry.
func NewRegistry() *Registry {
	return &Registry{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for the given order ID, creating it on first use.
// It blocks until any other holder of the same order's lock releases it.
func (r *Registry) Lock(orderID string) {
	r.mu.Lock()
	m, ok := r.locks[orderID]
	if !ok {
		m = &sync.Mutex{}
		r.locks[orderID] = m
	}
	r.mu.Unlock()

	m.Lock()
}

// Unlock releases the mutex for the given order ID.
// Calling Unlock for an ID that was never locked is a programmer error
// and panics, matching sync.Mutex semantics.
func (r *Registry) Unlock(orderID string) {
	r.mu.Lock()
	m, ok := r.locks[orderID]
	r.mu.Unlock()

	if !ok {
		panic("orderlock: Unlock of unknown order " + orderID)
	}
	m.Unlock()
}
