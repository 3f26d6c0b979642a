package cache

import (
	"sync"
	"time"
)

// Store maps string keys to entries. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

// NewStore creates an empty store that stamps entries with now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		entries: make(map[string]Entry),
		now:     now,
	}
}

// Get returns the entry for key regardless of expiry.
func (s *Store) Get(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok
}

// Set inserts or replaces the entry for key, stamped with the current time.
func (s *Store) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.mu.Lock()
	s.entries[key] = Entry{Value: value, StoredAt: s.now(), TTL: ttl}
	s.mu.Unlock()
}

// Delete removes the entry for key and reports whether one existed.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	return true
}

// deleteIf removes key only if its entry is still the one observed in a snapshot.
func (s *Store) deleteIf(key string, storedAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || !e.StoredAt.Equal(storedAt) {
		return false
	}
	delete(s.entries, key)
	return true
}

// Clear removes every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]Entry)
	s.mu.Unlock()
}

// Entries returns a copy of all entries. Mutating the store afterwards does
// not affect the returned slice.
func (s *Store) Entries() []KeyedEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]KeyedEntry, 0, len(s.entries))
	for k, e := range s.entries {
		out = append(out, KeyedEntry{Key: k, Entry: e})
	}
	return out
}

// Len returns the number of stored entries, expired ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
