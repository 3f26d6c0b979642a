package cache

import (
	"context"
	"time"
)

// Fetcher produces a value for a cache miss. Benign "no data" results should be
// returned as values (an empty slice), not errors: errors are never cached.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Fetch returns the valid cached value for key, or calls fetch, stores its
// result for ttl and returns it. A non-positive ttl uses the cache default.
// Fetch errors are returned unchanged and leave the cache untouched.
//
// A stored value whose dynamic type is not T counts as a miss and is replaced.
func Fetch[T any](ctx context.Context, c *Cache, key string, fetch Fetcher[T], ttl time.Duration) (T, error) {
	if v, ok := c.lookup(key); ok {
		if typed, ok := v.(T); ok {
			c.observer.Hit(key)
			return typed, nil
		}
	}
	c.observer.Miss(key)

	if !c.coalesce {
		return populate(ctx, c, key, fetch, ttl)
	}

	// The shared fetch outlives any single caller: a joined caller only stops
	// waiting when its own ctx ends.
	ch := c.group.DoChan(key, func() (any, error) {
		return populate(context.WithoutCancel(ctx), c, key, fetch, ttl)
	})
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		if typed, ok := res.Val.(T); ok || res.Val == nil {
			return typed, nil
		}
		// Joined a flight for another type under the same key.
		return populate(ctx, c, key, fetch, ttl)
	}
}

func populate[T any](ctx context.Context, c *Cache, key string, fetch Fetcher[T], ttl time.Duration) (T, error) {
	release := c.begin(key)
	defer release()

	start := time.Now()
	v, err := fetch(ctx)
	if err != nil {
		c.observer.FetchError(key, err)
		var zero T
		return zero, err
	}

	c.store.Set(key, v, c.ttlOrDefault(ttl))
	c.observer.Stored(key, time.Since(start))
	return v, nil
}

// Lookup returns the valid cached value for key without fetching.
func Lookup[T any](c *Cache, key string) (T, bool) {
	var zero T
	v, ok := c.lookup(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
