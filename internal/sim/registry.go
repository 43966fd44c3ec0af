package sim

import (
	"sync"

	"investSandbox/internal/domain"
)

// ConnID identifies one client connection. It is generated at accept time and
// passed alongside the connection handle; the transport object itself is
// never tagged.
type ConnID string

// Subscription is a (figi, interval) interest of one connection. Membership
// only, no payload.
type Subscription struct {
	FIGI     string
	Interval domain.CandleInterval
}

// SubscriptionRegistry tracks client interest without any ledger or price
// knowledge. Safe for concurrent use; it is intentionally independent of the
// engine lock.
type SubscriptionRegistry struct {
	mu    sync.RWMutex
	conns map[ConnID]map[Subscription]struct{}
}

// NewSubscriptionRegistry creates an empty registry.
func NewSubscriptionRegistry() *SubscriptionRegistry {
	return &SubscriptionRegistry{conns: make(map[ConnID]map[Subscription]struct{})}
}

// Subscribe adds an interest. Idempotent.
func (r *SubscriptionRegistry) Subscribe(id ConnID, sub Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[id]
	if !ok {
		set = make(map[Subscription]struct{})
		r.conns[id] = set
	}
	set[sub] = struct{}{}
}

// Unsubscribe removes an interest if present; absent interests are not an
// error. Connections left with no interests are pruned.
func (r *SubscriptionRegistry) Unsubscribe(id ConnID, sub Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[id]
	if !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(r.conns, id)
	}
}

// DropConnection removes every interest of a connection. Invoked on
// disconnect.
func (r *SubscriptionRegistry) DropConnection(id ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
}

// Count returns the number of interests held by one connection.
func (r *SubscriptionRegistry) Count(id ConnID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[id])
}

// Snapshot copies the full registry for a broadcast pass.
func (r *SubscriptionRegistry) Snapshot() map[ConnID][]Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[ConnID][]Subscription, len(r.conns))
	for id, set := range r.conns {
		subs := make([]Subscription, 0, len(set))
		for sub := range set {
			subs = append(subs, sub)
		}
		out[id] = subs
	}
	return out
}
