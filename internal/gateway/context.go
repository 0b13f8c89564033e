package gateway

import (
	"sync"
	"time"
)

type contextEntry struct {
	data     map[string]any
	storedAt time.Time
}

// ContextStore holds per-conversation context payloads keyed by identifier.
// Reads never consider age; stale records are only removed by ClearOld.
type ContextStore struct {
	mu      sync.RWMutex
	entries map[string]contextEntry
	now     func() time.Time
}

// NewContextStore creates an empty context store.
func NewContextStore() *ContextStore {
	return &ContextStore{
		entries: make(map[string]contextEntry),
		now:     time.Now,
	}
}

// Store saves data under id, replacing any previous record and stamping the
// current time.
func (s *ContextStore) Store(id string, data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = contextEntry{data: data, storedAt: s.now()}
}

// Get returns the context stored under id, regardless of its age.
func (s *ContextStore) Get(id string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	return e.data, true
}

// ClearOld removes every record stored longer than maxAge ago and returns
// how many were removed.
func (s *ContextStore) ClearOld(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-maxAge)
	removed := 0
	for id, e := range s.entries {
		if e.storedAt.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Clear removes all records.
func (s *ContextStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]contextEntry)
}

// Len returns the number of stored records.
func (s *ContextStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
