// Package cache provides an in-memory TTL cache with get-or-fetch semantics
// and a freshness policy for collection-holding stores.
package cache

import "time"

// DefaultTTL is applied when a caller passes a non-positive TTL.
const DefaultTTL = 5 * time.Minute

// Entry is a cached value with the time it was stored and its time-to-live.
type Entry struct {
	Value    any
	StoredAt time.Time
	TTL      time.Duration
}

// Valid reports whether the entry is still fresh at now.
// This is the only validity rule: no LRU, no capacity bound.
func (e Entry) Valid(now time.Time) bool {
	return now.Sub(e.StoredAt) < e.TTL
}

// KeyedEntry pairs an entry with its key in a snapshot.
type KeyedEntry struct {
	Key   string
	Entry Entry
}
