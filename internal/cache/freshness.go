package cache

import (
	"sync"
	"time"
)

// FreshnessPolicy decides whether a store may reuse an already loaded
// collection instead of refetching it. A disabled policy always refetches.
type FreshnessPolicy struct {
	Enabled bool          `yaml:"enabled"`
	MaxAge  time.Duration `yaml:"max_age"`
}

// Marker records the last full refresh of a collection.
type Marker struct {
	mu        sync.Mutex
	policy    FreshnessPolicy
	lastFetch time.Time
	set       bool
	now       func() time.Time
}

// NewMarker creates a marker for policy. A nil now uses time.Now.
func NewMarker(policy FreshnessPolicy, now func() time.Time) *Marker {
	if now == nil {
		now = time.Now
	}
	return &Marker{policy: policy, now: now}
}

// Fresh reports whether the last full refresh is younger than MaxAge.
func (m *Marker) Fresh() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.policy.Enabled || !m.set {
		return false
	}
	return m.now().Sub(m.lastFetch) < m.policy.MaxAge
}

// Touch records a full refresh at the current time.
func (m *Marker) Touch() {
	m.mu.Lock()
	m.lastFetch = m.now()
	m.set = true
	m.mu.Unlock()
}

// Reset forgets the last refresh so the next Fresh call is false.
func (m *Marker) Reset() {
	m.mu.Lock()
	m.lastFetch = time.Time{}
	m.set = false
	m.mu.Unlock()
}

// LastFetch returns the time of the last full refresh, if any.
func (m *Marker) LastFetch() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastFetch, m.set
}

// Policy returns the marker's policy.
func (m *Marker) Policy() FreshnessPolicy {
	return m.policy
}
