package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// KeySeparator joins key segments.
const KeySeparator = ":"

// Key joins parts with KeySeparator. Keys are opaque to the cache;
// avoiding collisions is up to the caller.
func Key(parts ...any) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = fmt.Sprint(p)
	}
	return strings.Join(s, KeySeparator)
}

// DefaultAPIBaseKey namespaces API calls when no base key is given.
const DefaultAPIBaseKey = "api"

// APICache namespaces cached API calls under a base key.
type APICache struct {
	*Cache
	BaseKey string
}

// NewAPICache wraps c with a base key. An empty base key uses DefaultAPIBaseKey.
func NewAPICache(c *Cache, baseKey string) *APICache {
	if baseKey == "" {
		baseKey = DefaultAPIBaseKey
	}
	return &APICache{Cache: c, BaseKey: baseKey}
}

// KeyFor returns the cache key used for endpoint.
func (a *APICache) KeyFor(endpoint string) string {
	return Key(a.BaseKey, endpoint)
}

// CachedAPICall is Fetch under the key derived from the base key and endpoint.
func CachedAPICall[T any](ctx context.Context, a *APICache, endpoint string, fetch Fetcher[T], ttl time.Duration) (T, error) {
	return Fetch(ctx, a.Cache, a.KeyFor(endpoint), fetch, ttl)
}
