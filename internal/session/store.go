// Package session maps opaque session ids to per-visitor booking flows and
// expires flows that have been idle for too long.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ammaritto/short-stay/internal/service/flow"
)

type entry struct {
	flow     *flow.Flow
	lastSeen time.Time
}

// Store is an in-memory session registry. Flows are created through the
// injected factory so the store stays agnostic of the flow's collaborators.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	factory func(id string) *flow.Flow
	now     func() time.Time
}

func NewStore(ttl time.Duration, factory func(id string) *flow.Flow) *Store {
	return &Store{
		entries: make(map[string]*entry),
		ttl:     ttl,
		factory: factory,
		now:     time.Now,
	}
}

// WithClock replaces the store's clock. Test helper.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Create registers a fresh flow under a new id and returns both.
func (s *Store) Create() (string, *flow.Flow) {
	id := uuid.NewString()
	f := s.factory(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = &entry{flow: f, lastSeen: s.now()}
	return id, f
}

// Get returns the flow for id and refreshes its idle timer. The second return
// is false when the session does not exist or has been pruned.
func (s *Store) Get(id string) (*flow.Flow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = s.now()
	return e.flow, true
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// PruneExpired drops sessions idle longer than the TTL and returns how many
// were removed. A non-positive TTL disables expiry.
func (s *Store) PruneExpired(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	deadline := now.Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		if e.lastSeen.Before(deadline) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}
