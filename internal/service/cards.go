// Package service holds the client-side domain stores of the marketplace:
// cards, trades and the signed-in session.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	cmotel "github.com/Strob0t/cardsmarket/internal/adapter/otel"
	"github.com/Strob0t/cardsmarket/internal/cache"
	"github.com/Strob0t/cardsmarket/internal/domain"
	"github.com/Strob0t/cardsmarket/internal/domain/card"
	"github.com/Strob0t/cardsmarket/internal/port/market"
)

// Cache keys used by CardService.
const (
	CardsAllKey  = "cards-all"
	CardsUserKey = "cards-user"
)

// DefaultCardsPolicy skips unconditioned refetches for five minutes.
var DefaultCardsPolicy = cache.FreshnessPolicy{Enabled: true, MaxAge: 5 * time.Minute}

// CardService keeps the card catalogue and the user's collection in memory.
type CardService struct {
	status

	api       market.CardsAPI
	cache     *cache.Cache // optional
	endpoints *cache.APICache
	ttl       time.Duration
	marker    *cache.Marker

	mu         sync.RWMutex
	userCards  []card.Card
	allCards   []card.Card
	pagination card.Pagination
}

// StoreOption configures a CardService or TradeService.
type StoreOption func(*storeOptions)

type storeOptions struct {
	cache   *cache.Cache
	ttl     time.Duration
	baseKey string
	now     func() time.Time
}

// WithCache routes unconditioned fetches through c with the given TTL.
func WithCache(c *cache.Cache, ttl time.Duration) StoreOption {
	return func(o *storeOptions) {
		o.cache = c
		o.ttl = ttl
	}
}

// WithAPIBaseKey namespaces single-resource lookups under baseKey.
func WithAPIBaseKey(baseKey string) StoreOption {
	return func(o *storeOptions) { o.baseKey = baseKey }
}

// WithStoreClock overrides the clock used by the freshness marker.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(o *storeOptions) { o.now = now }
}

func applyStoreOptions(opts []StoreOption) storeOptions {
	o := storeOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewCardService creates a CardService with the given freshness policy.
func NewCardService(api market.CardsAPI, policy cache.FreshnessPolicy, opts ...StoreOption) *CardService {
	o := applyStoreOptions(opts)
	s := &CardService{
		api:        api,
		cache:      o.cache,
		ttl:        o.ttl,
		marker:     cache.NewMarker(policy, o.now),
		pagination: card.InitialPagination(),
	}
	if o.cache != nil {
		s.endpoints = cache.NewAPICache(o.cache, o.baseKey)
	}
	return s
}

// FetchUserCards loads the signed-in user's collection.
func (s *CardService) FetchUserCards(ctx context.Context) (err error) {
	ctx, span := cmotel.StartStoreSpan(ctx, "cards", "fetch_user")
	defer func() { cmotel.EndSpan(span, err) }()

	s.begin()
	defer func() { s.end(err) }()

	var cards []card.Card
	if s.cache != nil {
		cards, err = cache.Fetch(ctx, s.cache, CardsUserKey, s.api.UserCards, s.ttl)
	} else {
		cards, err = s.api.UserCards(ctx)
	}
	if err != nil {
		slog.Warn("fetch user cards failed", "error", err)
		return fmt.Errorf("fetch user cards: %w", err)
	}

	s.mu.Lock()
	s.userCards = cards
	s.mu.Unlock()
	return nil
}

// FetchAllCards loads a page of the catalogue. An unconditioned call returns
// immediately while the loaded catalogue is still fresh. The first page
// replaces the catalogue, later pages are appended. The freshness window only
// restarts when the first page came from the API, not from the cache.
func (s *CardService) FetchAllCards(ctx context.Context, f card.Filters) (err error) {
	if f.Unconditioned() && s.marker.Fresh() && s.AllCardsCount() > 0 {
		return nil
	}

	ctx, span := cmotel.StartStoreSpan(ctx, "cards", "fetch_all")
	defer func() { cmotel.EndSpan(span, err) }()

	s.begin()
	defer func() { s.end(err) }()

	page, fetched, err := s.listCards(ctx, f)
	if err != nil {
		slog.Warn("fetch cards failed", "page", f.Page, "search", f.Search, "error", err)
		return fmt.Errorf("fetch cards: %w", err)
	}

	s.mu.Lock()
	if f.FirstPage() {
		s.allCards = page.List
		if fetched {
			s.marker.Touch()
		}
	} else {
		s.allCards = append(slices.Clip(s.allCards), page.List...)
	}
	s.pagination = page.Pagination()
	s.mu.Unlock()
	return nil
}

// listCards reports whether the page was fetched from the API.
func (s *CardService) listCards(ctx context.Context, f card.Filters) (page card.Page, fetched bool, err error) {
	if s.cache == nil || !f.Unconditioned() {
		page, err = s.api.ListCards(ctx, f)
		return page, true, err
	}
	page, err = cache.Fetch(ctx, s.cache, CardsAllKey, func(ctx context.Context) (card.Page, error) {
		fetched = true
		return s.api.ListCards(ctx, f)
	}, s.ttl)
	return page, fetched, err
}

// GetCard returns a single card, cached under "<base>:cards/<id>" when a
// cache is set.
func (s *CardService) GetCard(ctx context.Context, id string) (card.Card, error) {
	if id == "" {
		return card.Card{}, fmt.Errorf("get card: %w: id is required", domain.ErrValidation)
	}
	if s.cache == nil {
		return s.api.GetCard(ctx, id)
	}
	return cache.CachedAPICall(ctx, s.endpoints, "cards/"+id, func(ctx context.Context) (card.Card, error) {
		return s.api.GetCard(ctx, id)
	}, s.ttl)
}

// AddCardsToCollection adds cards to the user's collection and reloads it.
// A failed reload is recorded on the store but not returned.
func (s *CardService) AddCardsToCollection(ctx context.Context, ids []string) (err error) {
	if len(ids) == 0 {
		err = fmt.Errorf("add cards: %w: at least one card id is required", domain.ErrValidation)
		s.fail(err)
		return err
	}

	ctx, span := cmotel.StartStoreSpan(ctx, "cards", "add")
	defer func() { cmotel.EndSpan(span, err) }()

	s.begin()
	defer func() { s.end(err) }()

	if err = s.api.AddCards(ctx, card.AddRequest{CardIDs: ids}); err != nil {
		slog.Warn("add cards failed", "count", len(ids), "error", err)
		return fmt.Errorf("add cards: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(CardsUserKey)
	}
	_ = s.FetchUserCards(ctx)
	return nil
}

// LoadMoreCards fetches the next page when one exists and nothing is loading.
func (s *CardService) LoadMoreCards(ctx context.Context, f card.Filters) error {
	if !s.HasMoreCards() || s.Loading() {
		return nil
	}
	f.Page = s.Pagination().Page + 1
	return s.FetchAllCards(ctx, f)
}

// RefreshCache drops cached catalogue and collection data and loads both again.
func (s *CardService) RefreshCache(ctx context.Context) error {
	s.invalidate()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.FetchAllCards(gctx, card.Filters{}) })
	g.Go(func() error { return s.FetchUserCards(gctx) })
	return g.Wait()
}

// Reset empties the store and drops its cached listings.
func (s *CardService) Reset() {
	s.mu.Lock()
	s.userCards = nil
	s.allCards = nil
	s.pagination = card.InitialPagination()
	s.mu.Unlock()
	s.invalidate()
	s.ClearError()
}

func (s *CardService) invalidate() {
	s.marker.Reset()
	if s.cache != nil {
		s.cache.Invalidate(CardsAllKey)
		s.cache.Invalidate(CardsUserKey)
	}
}

// UserCards returns a copy of the user's collection.
func (s *CardService) UserCards() []card.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.userCards)
}

// AllCards returns a copy of the loaded catalogue.
func (s *CardService) AllCards() []card.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.allCards)
}

func (s *CardService) Pagination() card.Pagination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pagination
}

func (s *CardService) UserCardsCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.userCards)
}

func (s *CardService) AllCardsCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.allCards)
}

func (s *CardService) HasUserCards() bool { return s.UserCardsCount() > 0 }

func (s *CardService) HasMoreCards() bool { return s.Pagination().More }

// Fresh reports whether an unconditioned fetch would be skipped.
func (s *CardService) Fresh() bool { return s.marker.Fresh() }
