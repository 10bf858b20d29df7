// Package registry is the source of truth for watchdog identities.
// Both the consensus engine and the emergency monitor hold a read-only
// view of it; nothing mutates it except its own explicit
// register/deactivate operations, which are privileged actions rather
// than consensus outcomes.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/Mindburn-Labs/warden/pkg/contracts"
)

// Watchdog is one identity-verified monitoring participant.
// Deactivation flips Active and stamps DeactivatedAt; the record is
// never deleted, so historical votes and reports remain attributable.
type Watchdog struct {
	ID            string     `json:"id"`
	Active        bool       `json:"active"`
	RegisteredAt  time.Time  `json:"registered_at"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
}

// ActivityView is the read-only slice of the registry the engines
// depend on.
type ActivityView interface {
	IsActive(id string) bool
	ActiveCount() int
}

// Event describes a committed registry mutation.
type Event struct {
	Action   string // "register", "deactivate"
	Watchdog Watchdog
	At       time.Time
}

// EventHook observes committed mutations. Hooks run inside the
// registry's critical section and must not call back into it.
type EventHook func(Event)

// Registry tracks which identities are active watchdogs.
type Registry struct {
	mu        sync.RWMutex
	watchdogs map[string]*Watchdog
	clock     func() time.Time
	hooks     []EventHook
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		watchdogs: make(map[string]*Watchdog),
		clock:     time.Now,
	}
}

// WithClock overrides the clock for deterministic testing.
func (r *Registry) WithClock(clock func() time.Time) *Registry {
	r.clock = clock
	return r
}

// OnEvent attaches a hook for committed mutations. Not safe to call
// concurrently with mutations; attach hooks during setup.
func (r *Registry) OnEvent(h EventHook) {
	r.hooks = append(r.hooks, h)
}

func (r *Registry) emit(ev Event) {
	for _, h := range r.hooks {
		h(ev)
	}
}

// Register adds an active watchdog. Re-registering an identity that is
// currently active fails with ErrAlreadyRegistered. Re-registering a
// deactivated identity reactivates it with a fresh registration time;
// the tombstone timestamp is dropped.
func (r *Registry) Register(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.watchdogs[id]; ok && w.Active {
		return contracts.ErrAlreadyRegistered
	}
	now := r.clock()
	w := &Watchdog{
		ID:           id,
		Active:       true,
		RegisteredAt: now,
	}
	r.watchdogs[id] = w
	r.emit(Event{Action: "register", Watchdog: *w, At: now})
	return nil
}

// Deactivate revokes an identity's voting and reporting eligibility
// for future actions. Already-cast votes and reports stay valid.
// Deactivating an absent or already-inactive identity fails with
// ErrNotRegistered — surfacing operator mistakes beats silent success.
func (r *Registry) Deactivate(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.watchdogs[id]
	if !ok || !w.Active {
		return contracts.ErrNotRegistered
	}
	now := r.clock()
	w.Active = false
	w.DeactivatedAt = &now
	r.emit(Event{Action: "deactivate", Watchdog: *w, At: now})
	return nil
}

// IsActive reports whether id is currently an active watchdog.
func (r *Registry) IsActive(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.watchdogs[id]
	return ok && w.Active
}

// ActiveCount returns the number of active watchdogs.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, w := range r.watchdogs {
		if w.Active {
			n++
		}
	}
	return n
}

// Snapshot returns all records, tombstones included, ordered by
// registration time then ID so the config surface is deterministic.
func (r *Registry) Snapshot() []Watchdog {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Watchdog, 0, len(r.watchdogs))
	for _, w := range r.watchdogs {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].RegisteredAt.Before(out[j].RegisteredAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
