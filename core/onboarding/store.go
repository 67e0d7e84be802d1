package onboarding

import (
	"sync"
	"time"
)

type storeKey struct {
	userID  string
	variant string
}

// Store keeps the in-progress wizard states, one per (user, variant).
// States not updated for longer than the TTL are forgotten.
type Store struct {
	mu        sync.RWMutex
	ttl       time.Duration
	states    map[storeKey]State
	lastPurge time.Time
	now       func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{
		ttl:    ttl,
		states: make(map[storeKey]State),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) expired(st State, now time.Time) bool {
	return now.Sub(st.UpdatedAt) > s.ttl
}

// Get returns a copy of the state of the user for the variant.
func (s *Store) Get(userID, variant string) (State, bool) {
	s.mu.RLock()
	st, ok := s.states[storeKey{userID, variant}]
	s.mu.RUnlock()
	if !ok {
		return State{}, false
	}
	if s.expired(st, s.now()) {
		s.Delete(userID, variant)
		return State{}, false
	}
	return st.clone(), true
}

// Put saves a copy of the state.
func (s *Store) Put(userID string, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	st.UpdatedAt = now
	s.states[storeKey{userID, st.Variant}] = st.clone()
	if now.Sub(s.lastPurge) > time.Minute {
		s.purge(now)
	}
}

func (s *Store) Delete(userID, variant string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, storeKey{userID, variant})
}

// Purge forgets the expired states and returns how many were dropped.
func (s *Store) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purge(s.now())
}

func (s *Store) purge(now time.Time) int {
	var n int
	for k, st := range s.states {
		if s.expired(st, now) {
			delete(s.states, k)
			n++
		}
	}
	s.lastPurge = now
	return n
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}
