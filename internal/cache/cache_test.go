package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Strob0t/cardsmarket/internal/cache"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type card struct {
	ID   string
	Name string
}

func countingFetcher[T any](v T, calls *atomic.Int32) cache.Fetcher[T] {
	return func(context.Context) (T, error) {
		calls.Add(1)
		return v, nil
	}
}

func TestFetch_MissThenHit(t *testing.T) {
	clock := newFakeClock()
	c := cache.New(cache.WithClock(clock.Now))
	ctx := context.Background()
	var calls atomic.Int32

	for range 3 {
		v, err := cache.Fetch(ctx, c, "k", countingFetcher("value", &calls), time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if v != "value" {
			t.Fatalf("expected value, got %q", v)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 fetch, got %d", got)
	}
}

func TestFetch_ExpiredRefetches(t *testing.T) {
	clock := newFakeClock()
	c := cache.New(cache.WithClock(clock.Now))
	ctx := context.Background()
	var calls atomic.Int32

	_, _ = cache.Fetch(ctx, c, "k", countingFetcher(1, &calls), time.Minute)
	clock.Advance(time.Minute)
	_, _ = cache.Fetch(ctx, c, "k", countingFetcher(2, &calls), time.Minute)

	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 fetches after expiry, got %d", got)
	}
	v, ok := cache.Lookup[int](c, "k")
	if !ok || v != 2 {
		t.Fatalf("expected refreshed value 2, got %d (ok=%v)", v, ok)
	}
}

func TestFetch_ErrorNotCached(t *testing.T) {
	c := cache.New()
	boom := errors.New("boom")

	_, err := cache.Fetch(context.Background(), c, "x", func(context.Context) (string, error) {
		return "", boom
	}, 0)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if c.Has("x") {
		t.Fatal("failed fetch must not be cached")
	}
	if c.Loading() || c.LoadingKey("x") {
		t.Fatal("loading state must be released after a failed fetch")
	}
}

func TestFetch_DefaultTTL(t *testing.T) {
	clock := newFakeClock()
	c := cache.New(cache.WithClock(clock.Now))

	_, _ = cache.Fetch(context.Background(), c, "k", func(context.Context) (int, error) { return 1, nil }, 0)

	clock.Advance(cache.DefaultTTL - time.Millisecond)
	if !c.Has("k") {
		t.Fatal("expected entry valid just before the default TTL")
	}
	clock.Advance(time.Millisecond)
	if c.Has("k") {
		t.Fatal("expected entry expired at the default TTL")
	}
}

func TestFetch_InvalidateForcesFetch(t *testing.T) {
	c := cache.New()
	ctx := context.Background()
	var calls atomic.Int32

	_, _ = cache.Fetch(ctx, c, "k", countingFetcher("a", &calls), time.Hour)
	if !c.Invalidate("k") {
		t.Fatal("expected Invalidate to report removal")
	}
	if c.Invalidate("k") {
		t.Fatal("second Invalidate should report nothing removed")
	}
	_, _ = cache.Fetch(ctx, c, "k", countingFetcher("a", &calls), time.Hour)

	if got := calls.Load(); got != 2 {
		t.Fatalf("expected fetch after invalidation, got %d calls", got)
	}
}

func TestFetch_TypeMismatchIsMiss(t *testing.T) {
	c := cache.New()
	ctx := context.Background()
	var calls atomic.Int32

	_, _ = cache.Fetch(ctx, c, "k", countingFetcher("text", &calls), time.Hour)
	n, err := cache.Fetch(ctx, c, "k", countingFetcher(42, &calls), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if n != 42 || calls.Load() != 2 {
		t.Fatalf("expected refetch on type mismatch, got %d after %d calls", n, calls.Load())
	}
	if _, ok := cache.Lookup[string](c, "k"); ok {
		t.Fatal("expected string lookup to miss after overwrite with int")
	}
}

func TestFetch_ConcurrentMissesWithoutCoalescing(t *testing.T) {
	c := cache.New()
	ctx := context.Background()
	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{}, 2)

	fetch := func(context.Context) (int, error) {
		n := calls.Add(1)
		started <- struct{}{}
		<-release
		return int(n), nil
	}

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cache.Fetch(ctx, c, "k", fetch, time.Hour)
		}()
	}
	<-started
	<-started
	if !c.Loading() || !c.LoadingKey("k") {
		t.Fatal("expected loading while fetches are in flight")
	}
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 2 {
		t.Fatalf("expected both callers to fetch, got %d", got)
	}
	if c.Loading() {
		t.Fatal("expected loading cleared after all fetches settle")
	}
}

func TestFetch_CoalescedMisses(t *testing.T) {
	c := cache.New(cache.WithCoalescing(true))
	ctx := context.Background()
	var calls atomic.Int32
	release := make(chan struct{})
	entered := make(chan struct{})

	fetch := func(context.Context) (string, error) {
		if calls.Add(1) == 1 {
			close(entered)
		}
		<-release
		return "shared", nil
	}

	const callers = 5
	results := make(chan string, callers)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, _ := cache.Fetch(ctx, c, "k", fetch, time.Hour)
		results <- v
	}()
	<-entered
	for range callers - 1 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _ := cache.Fetch(ctx, c, "k", fetch, time.Hour)
			results <- v
		}()
	}
	// Give the followers time to join the in-flight call.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	for v := range results {
		if v != "shared" {
			t.Fatalf("expected shared result, got %q", v)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single coalesced fetch, got %d", got)
	}
}

func TestLoadingKey_IsolatedPerKey(t *testing.T) {
	c := cache.New()
	release := make(chan struct{})
	started := make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = cache.Fetch(context.Background(), c, "slow", func(context.Context) (int, error) {
			close(started)
			<-release
			return 1, nil
		}, time.Hour)
	}()
	<-started

	if !c.LoadingKey("slow") {
		t.Fatal("expected slow key pending")
	}
	if !c.Loading() {
		t.Fatal("expected cache-wide loading while a fetch is in flight")
	}
	if c.LoadingKey("other") {
		t.Fatal("unrelated key must not report pending")
	}
	close(release)
	<-done
	if c.LoadingKey("slow") {
		t.Fatal("expected slow key released")
	}
	if c.Loading() {
		t.Fatal("expected cache-wide loading cleared")
	}
}

func TestLoading_OverlappingFetches(t *testing.T) {
	c := cache.New()
	releaseA, releaseB := make(chan struct{}), make(chan struct{})
	startedA, startedB := make(chan struct{}), make(chan struct{})

	var wg sync.WaitGroup
	wg.Go(func() {
		_, _ = cache.Fetch(context.Background(), c, "a", func(context.Context) (int, error) {
			close(startedA)
			<-releaseA
			return 1, nil
		}, time.Hour)
	})
	wg.Go(func() {
		_, _ = cache.Fetch(context.Background(), c, "b", func(context.Context) (int, error) {
			close(startedB)
			<-releaseB
			return 2, nil
		}, time.Hour)
	})
	<-startedA
	<-startedB

	close(releaseA)
	for c.LoadingKey("a") {
		time.Sleep(time.Millisecond)
	}
	if !c.Loading() {
		t.Fatal("finishing one fetch must not clear loading while another runs")
	}
	close(releaseB)
	wg.Wait()
	if c.Loading() {
		t.Fatal("expected loading cleared after both fetches")
	}
}

func TestLookupAndHas(t *testing.T) {
	clock := newFakeClock()
	c := cache.New(cache.WithClock(clock.Now))
	cards := []card{{ID: "1", Name: "Dragon"}, {ID: "2", Name: "Knight"}}

	_, _ = cache.Fetch(context.Background(), c, "cards-all", func(context.Context) ([]card, error) {
		return cards, nil
	}, 5*time.Minute)

	got, ok := cache.Lookup[[]card](c, "cards-all")
	if !ok || len(got) != 2 || got[0].Name != "Dragon" {
		t.Fatalf("expected cached cards, got %v (ok=%v)", got, ok)
	}

	clock.Advance(301 * time.Second)
	if _, ok := cache.Lookup[[]card](c, "cards-all"); ok {
		t.Fatal("expected miss after TTL")
	}
	if c.Has("cards-all") {
		t.Fatal("expected Has false after TTL")
	}
	if _, ok := cache.Lookup[[]card](c, "never"); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestClearExpired(t *testing.T) {
	clock := newFakeClock()
	c := cache.New(cache.WithClock(clock.Now))
	ctx := context.Background()
	value := func(context.Context) (int, error) { return 1, nil }

	_, _ = cache.Fetch(ctx, c, "short-1", value, time.Minute)
	_, _ = cache.Fetch(ctx, c, "short-2", value, time.Minute)
	_, _ = cache.Fetch(ctx, c, "long", value, time.Hour)
	clock.Advance(time.Minute)

	if got := c.ClearExpired(); got != 2 {
		t.Fatalf("expected 2 removed, got %d", got)
	}
	if got := c.ClearExpired(); got != 0 {
		t.Fatalf("expected idempotent sweep, got %d", got)
	}
	if !c.Has("long") {
		t.Fatal("valid entry must survive the sweep")
	}
}

func TestStats(t *testing.T) {
	clock := newFakeClock()
	c := cache.New(cache.WithClock(clock.Now))
	ctx := context.Background()
	value := func(context.Context) (int, error) { return 1, nil }

	_, _ = cache.Fetch(ctx, c, "a", value, time.Minute)
	_, _ = cache.Fetch(ctx, c, "b", value, time.Hour)
	_, _ = cache.Fetch(ctx, c, "c", value, time.Hour)
	clock.Advance(2 * time.Minute)

	s := c.Stats()
	if s.Total != 3 || s.Valid != 2 || s.Expired != 1 || s.Size != 3 {
		t.Fatalf("unexpected stats: %+v", s)
	}
	if s.Valid+s.Expired != s.Total {
		t.Fatalf("valid+expired != total: %+v", s)
	}

	c.InvalidateAll()
	if s := c.Stats(); s.Total != 0 || s.Size != 0 {
		t.Fatalf("expected empty cache after InvalidateAll, got %+v", s)
	}
}

type recordingObserver struct {
	mu                         sync.Mutex
	hits, misses, errs, stored int
}

func (o *recordingObserver) Hit(string)                   { o.mu.Lock(); o.hits++; o.mu.Unlock() }
func (o *recordingObserver) Miss(string)                  { o.mu.Lock(); o.misses++; o.mu.Unlock() }
func (o *recordingObserver) FetchError(string, error)     { o.mu.Lock(); o.errs++; o.mu.Unlock() }
func (o *recordingObserver) Stored(string, time.Duration) { o.mu.Lock(); o.stored++; o.mu.Unlock() }

func TestObserver(t *testing.T) {
	obs := &recordingObserver{}
	c := cache.New(cache.WithObserver(obs))
	ctx := context.Background()

	_, _ = cache.Fetch(ctx, c, "k", func(context.Context) (int, error) { return 1, nil }, time.Hour)
	_, _ = cache.Fetch(ctx, c, "k", func(context.Context) (int, error) { return 1, nil }, time.Hour)
	_, _ = cache.Fetch(ctx, c, "bad", func(context.Context) (int, error) { return 0, errors.New("x") }, time.Hour)

	if obs.hits != 1 || obs.misses != 2 || obs.errs != 1 || obs.stored != 1 {
		t.Fatalf("unexpected observer counts: %+v", obs)
	}
}

func TestFetch_CoalescedSurvivesLeaderCancel(t *testing.T) {
	c := cache.New(cache.WithCoalescing(true))
	release := make(chan struct{})
	entered := make(chan struct{})
	var calls atomic.Int32

	fetch := func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			close(entered)
		}
		select {
		case <-release:
			return "shared", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := cache.Fetch(leaderCtx, c, "k", fetch, time.Hour)
		leaderErr <- err
	}()
	<-entered

	type result struct {
		v   string
		err error
	}
	follower := make(chan result, 1)
	go func() {
		v, err := cache.Fetch(context.Background(), c, "k", fetch, time.Hour)
		follower <- result{v, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelLeader()
	if err := <-leaderErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("leader: expected context.Canceled, got %v", err)
	}
	close(release)

	res := <-follower
	if res.err != nil || res.v != "shared" {
		t.Fatalf("follower: got %q, %v; want shared result", res.v, res.err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected one fetch, got %d", got)
	}
	if v, ok := cache.Lookup[string](c, "k"); !ok || v != "shared" {
		t.Fatal("expected the shared fetch to complete and be stored")
	}
}

func TestFetch_CoalescedTypeMismatchRefetches(t *testing.T) {
	c := cache.New(cache.WithCoalescing(true))
	release := make(chan struct{})
	entered := make(chan struct{})

	intDone := make(chan struct{})
	go func() {
		defer close(intDone)
		_, _ = cache.Fetch(context.Background(), c, "k", func(context.Context) (int, error) {
			close(entered)
			<-release
			return 7, nil
		}, time.Hour)
	}()
	<-entered

	type result struct {
		v   string
		err error
	}
	strRes := make(chan result, 1)
	go func() {
		v, err := cache.Fetch(context.Background(), c, "k", func(context.Context) (string, error) {
			return "seven", nil
		}, time.Hour)
		strRes <- result{v, err}
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)
	<-intDone

	res := <-strRes
	if res.err != nil || res.v != "seven" {
		t.Fatalf("got %q, %v; want the caller's own string fetch", res.v, res.err)
	}
}
