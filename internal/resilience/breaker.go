// Package resilience protects calls to the marketplace API.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker is open and rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the breaker position.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// Breaker opens after maxFailures consecutive failures and rejects calls
// until timeout has elapsed, then lets a probe call through (half-open).
type Breaker struct {
	mu          sync.Mutex
	name        string
	state       State
	failures    int
	maxFailures int
	timeout     time.Duration
	openedAt    time.Time
	isFailure   func(error) bool
	now         func() time.Time // for testing
}

// NewBreaker creates a circuit breaker that opens after maxFailures consecutive
// failures and stays open for the given timeout before transitioning to half-open.
func NewBreaker(maxFailures int, timeout time.Duration) *Breaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &Breaker{
		name:        "default",
		maxFailures: maxFailures,
		timeout:     timeout,
		isFailure:   func(err error) bool { return err != nil },
		now:         time.Now,
	}
}

// SetName labels the breaker in log output.
func (b *Breaker) SetName(name string) {
	b.mu.Lock()
	b.name = name
	b.mu.Unlock()
}

// SetFailurePredicate decides which errors count towards opening the circuit.
// Errors that are not failures are still returned to the caller but reset
// the consecutive failure count, like a success.
func (b *Breaker) SetFailurePredicate(fn func(error) bool) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	b.isFailure = fn
	b.mu.Unlock()
}

// State returns the current breaker position.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Execute runs fn if the circuit is closed or half-open.
// Returns ErrCircuitOpen if the circuit is open.
func (b *Breaker) Execute(fn func() error) error {
	if !b.allowRequest() {
		return ErrCircuitOpen
	}

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil && b.isFailure(err) {
		b.onFailure()
		return err
	}

	b.onSuccess()
	return err
}

func (b *Breaker) allowRequest() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.now().Sub(b.openedAt) >= b.timeout {
			b.transition(StateHalfOpen)
			return true
		}
		return false
	case StateHalfOpen:
		return true
	}
	return false
}

// onFailure must be called with b.mu held.
func (b *Breaker) onFailure() {
	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.maxFailures {
		b.openedAt = b.now()
		b.transition(StateOpen)
	}
}

// onSuccess must be called with b.mu held.
func (b *Breaker) onSuccess() {
	b.failures = 0
	b.transition(StateClosed)
}

// transition must be called with b.mu held.
func (b *Breaker) transition(to State) {
	if b.state == to {
		return
	}
	slog.Warn("circuit breaker state changed",
		"breaker", b.name,
		"from", b.state.String(),
		"to", to.String(),
		"failures", b.failures,
	)
	b.state = to
}
