package service

import (
	"context"
	"log/slog"
	"time"

	cmotel "github.com/Strob0t/cardsmarket/internal/adapter/otel"
	"github.com/Strob0t/cardsmarket/internal/cache"
)

// SweepRecorder is told how many entries each sweep removed.
type SweepRecorder interface {
	Swept(n int)
}

// Sweeper removes expired cache entries periodically.
type Sweeper struct {
	cache    *cache.Cache
	interval time.Duration
	rec      SweepRecorder // optional
}

// NewSweeper creates a sweeper. rec may be nil.
func NewSweeper(c *cache.Cache, interval time.Duration, rec SweepRecorder) *Sweeper {
	return &Sweeper{cache: c, interval: interval, rec: rec}
}

// Sweep removes expired entries once and returns how many were removed.
func (s *Sweeper) Sweep(ctx context.Context) int {
	_, span := cmotel.StartSweepSpan(ctx)
	defer span.End()

	n := s.cache.ClearExpired()
	if s.rec != nil {
		s.rec.Swept(n)
	}
	if n > 0 {
		slog.Debug("cache sweep", "removed", n)
	}
	return n
}

// Run sweeps every interval until ctx is done. A non-positive interval
// returns immediately.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}
