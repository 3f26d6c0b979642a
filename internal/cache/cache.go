package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Observer receives cache events. Implementations must be safe for concurrent use.
type Observer interface {
	Hit(key string)
	Miss(key string)
	FetchError(key string, err error)
	Stored(key string, took time.Duration)
}

type nopObserver struct{}

func (nopObserver) Hit(string)                   {}
func (nopObserver) Miss(string)                  {}
func (nopObserver) FetchError(string, error)     {}
func (nopObserver) Stored(string, time.Duration) {}

// Stats is a point-in-time view of the cache contents.
// Total and Size are read separately and can differ under concurrent writes.
type Stats struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Expired int `json:"expired"`
	Size    int `json:"size"`
}

// Cache wraps a Store with get-or-fetch, invalidation and statistics.
type Cache struct {
	store      *Store
	now        func() time.Time
	defaultTTL time.Duration
	observer   Observer

	coalesce bool
	group    singleflight.Group

	mu       sync.Mutex
	inFlight int
	pending  map[string]int
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now for both validity checks and entry stamps.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithCoalescing makes concurrent misses for one key share a single fetch.
// Off by default: each miss runs its own fetcher and the last write wins.
func WithCoalescing(enabled bool) Option {
	return func(c *Cache) { c.coalesce = enabled }
}

// WithObserver attaches an observer for hit/miss/fetch events.
func WithObserver(o Observer) Option {
	return func(c *Cache) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithDefaultTTL sets the TTL used when Fetch is called with ttl <= 0.
func WithDefaultTTL(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.defaultTTL = d
		}
	}
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		now:        time.Now,
		defaultTTL: DefaultTTL,
		observer:   nopObserver{},
		pending:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.store = NewStore(c.now)
	return c
}

// lookup returns the stored value for key if it is still valid.
func (c *Cache) lookup(key string) (any, bool) {
	e, ok := c.store.Get(key)
	if !ok || !e.Valid(c.now()) {
		return nil, false
	}
	return e.Value, true
}

// Has reports whether key holds a valid entry.
func (c *Cache) Has(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

// Invalidate removes key and reports whether it was present.
func (c *Cache) Invalidate(key string) bool {
	return c.store.Delete(key)
}

// InvalidateAll removes every entry.
func (c *Cache) InvalidateAll() {
	c.store.Clear()
}

// ClearExpired removes every expired entry and returns how many were removed.
func (c *Cache) ClearExpired() int {
	now := c.now()
	removed := 0
	for _, ke := range c.store.Entries() {
		if ke.Entry.Valid(now) {
			continue
		}
		if c.store.deleteIf(ke.Key, ke.Entry.StoredAt) {
			removed++
		}
	}
	return removed
}

// Stats counts valid and expired entries.
func (c *Cache) Stats() Stats {
	entries := c.store.Entries()
	now := c.now()
	valid := 0
	for _, ke := range entries {
		if ke.Entry.Valid(now) {
			valid++
		}
	}
	return Stats{
		Total:   len(entries),
		Valid:   valid,
		Expired: len(entries) - valid,
		Size:    c.store.Len(),
	}
}

// Loading reports whether any fetch is in flight.
func (c *Cache) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight > 0
}

// LoadingKey reports whether a fetch for key is in flight.
func (c *Cache) LoadingKey(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[key] > 0
}

// begin marks key as pending and returns the matching release func.
func (c *Cache) begin(key string) func() {
	c.mu.Lock()
	c.inFlight++
	c.pending[key]++
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		c.inFlight--
		if c.pending[key]--; c.pending[key] <= 0 {
			delete(c.pending, key)
		}
		c.mu.Unlock()
	}
}

func (c *Cache) ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return c.defaultTTL
	}
	return ttl
}
