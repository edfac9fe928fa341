package status

import (
	"sync"
	"time"

	"vodforge/models"
)

const (
	DefaultTTL        = 24 * time.Hour
	DefaultMaxEntries = 10000
)

type entry struct {
	phase   models.Phase
	updated time.Time
}

// Register maps job ids to their current phase. Entries expire after TTL and
// the least recently updated entry is evicted once MaxEntries is exceeded.
type Register struct {
	mu         sync.RWMutex
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewRegister builds a register. Non-positive arguments select the defaults.
func NewRegister(ttl time.Duration, maxEntries int) *Register {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Register{
		entries:    make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Begin starts a fresh run for id in the converting phase, replacing any
// terminal phase left by an earlier run. It refuses to restart a run that is
// still in progress.
func (r *Register) Begin(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if e, ok := r.live(id, now); ok && !e.phase.Terminal() {
		return false
	}
	r.store(id, models.PhaseConverting, now)
	return true
}

// Set moves id to phase and reports whether the transition was applied.
// Backward transitions and transitions out of a terminal phase are ignored.
func (r *Register) Set(id string, phase models.Phase) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var current models.Phase
	if e, ok := r.live(id, now); ok {
		current = e.phase
	}
	if !current.CanAdvance(phase) {
		return false
	}
	r.store(id, phase, now)
	return true
}

// Get returns the phase recorded for id.
func (r *Register) Get(id string) (models.Phase, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.live(id, r.now())
	return e.phase, ok
}

// Len returns the number of entries held, expired ones included until the
// next write purges them.
func (r *Register) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Register) live(id string, now time.Time) (entry, bool) {
	e, ok := r.entries[id]
	if !ok || now.Sub(e.updated) > r.ttl {
		return entry{}, false
	}
	return e, true
}

// store must be called with mu held.
func (r *Register) store(id string, phase models.Phase, now time.Time) {
	r.entries[id] = entry{phase: phase, updated: now}
	if len(r.entries) <= r.maxEntries {
		return
	}

	for k, e := range r.entries {
		if now.Sub(e.updated) > r.ttl {
			delete(r.entries, k)
		}
	}
	for len(r.entries) > r.maxEntries {
		oldest := ""
		var oldestAt time.Time
		for k, e := range r.entries {
			if k == id {
				continue
			}
			if oldest == "" || e.updated.Before(oldestAt) {
				oldest, oldestAt = k, e.updated
			}
		}
		if oldest == "" {
			return
		}
		delete(r.entries, oldest)
	}
}
