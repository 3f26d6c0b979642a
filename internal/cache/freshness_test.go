package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/cardsmarket/internal/cache"
)

func TestMarker(t *testing.T) {
	clock := newFakeClock()
	m := cache.NewMarker(cache.FreshnessPolicy{Enabled: true, MaxAge: 2 * time.Minute}, clock.Now)

	if m.Fresh() {
		t.Fatal("new marker must not be fresh")
	}
	m.Touch()
	if !m.Fresh() {
		t.Fatal("expected fresh right after Touch")
	}
	if _, ok := m.LastFetch(); !ok {
		t.Fatal("expected LastFetch set")
	}

	clock.Advance(2 * time.Minute)
	if m.Fresh() {
		t.Fatal("expected stale at MaxAge")
	}

	m.Touch()
	m.Reset()
	if m.Fresh() {
		t.Fatal("expected stale after Reset")
	}
}

func TestMarker_Disabled(t *testing.T) {
	m := cache.NewMarker(cache.FreshnessPolicy{Enabled: false, MaxAge: time.Hour}, nil)
	m.Touch()
	if m.Fresh() {
		t.Fatal("disabled policy must always refetch")
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		parts []any
		want  string
	}{
		{[]any{"cards", "all"}, "cards:all"},
		{[]any{"trades", 2, "rpp", 10}, "trades:2:rpp:10"},
		{[]any{"single"}, "single"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := cache.Key(tt.parts...); got != tt.want {
			t.Errorf("Key(%v) = %q, want %q", tt.parts, got, tt.want)
		}
	}
}

func TestCachedAPICall(t *testing.T) {
	c := cache.New()
	api := cache.NewAPICache(c, "")
	calls := 0
	fetch := func(context.Context) (string, error) {
		calls++
		return "pong", nil
	}

	for range 2 {
		v, err := cache.CachedAPICall(context.Background(), api, "/health", fetch, time.Minute)
		if err != nil || v != "pong" {
			t.Fatalf("unexpected result %q, %v", v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one fetch, got %d", calls)
	}
	if !c.Has("api:/health") {
		t.Fatal("expected entry under api:/health")
	}
}
