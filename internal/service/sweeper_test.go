package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/cardsmarket/internal/cache"
	"github.com/Strob0t/cardsmarket/internal/service"
)

type countingRecorder struct{ total int }

func (r *countingRecorder) Swept(n int) { r.total += n }

func TestSweeper_Sweep(t *testing.T) {
	clock := newFakeClock()
	c := cache.New(cache.WithClock(clock.Now))
	ctx := context.Background()
	one := func(context.Context) (int, error) { return 1, nil }
	_, _ = cache.Fetch(ctx, c, "a", one, time.Minute)
	_, _ = cache.Fetch(ctx, c, "b", one, time.Hour)
	clock.Advance(2 * time.Minute)

	rec := &countingRecorder{}
	s := service.NewSweeper(c, time.Minute, rec)
	if n := s.Sweep(ctx); n != 1 {
		t.Fatalf("expected 1 removed, got %d", n)
	}
	if rec.total != 1 {
		t.Fatalf("expected recorder told about 1 removal, got %d", rec.total)
	}
}

func TestSweeper_RunDisabled(t *testing.T) {
	s := service.NewSweeper(cache.New(), 0, nil)
	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run with zero interval must return immediately")
	}
}
