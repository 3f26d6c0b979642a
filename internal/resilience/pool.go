package resilience

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool caps the number of in-flight calls to a shared upstream.
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool creates a Pool allowing at most limit concurrent calls.
// A limit below 1 is treated as 1.
func NewPool(limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(limit))}
}

// Run waits for a free slot, then runs fn. It returns ctx.Err() if ctx ends
// while waiting. A nil Pool runs fn directly.
func (p *Pool) Run(ctx context.Context, fn func() error) error {
	if p == nil {
		return fn()
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn()
}
