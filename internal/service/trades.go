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
	"github.com/Strob0t/cardsmarket/internal/domain/trade"
	"github.com/Strob0t/cardsmarket/internal/port/market"
)

// Cache keys used by TradeService.
const (
	TradesAllKey  = "trades-all"
	TradesUserKey = "trades-user"
)

// DefaultTradesPolicy skips unconditioned refetches for two minutes.
var DefaultTradesPolicy = cache.FreshnessPolicy{Enabled: true, MaxAge: 2 * time.Minute}

// TradeService keeps the public trade listing and the user's trades in memory.
type TradeService struct {
	status

	api    market.TradesAPI
	cache  *cache.Cache // optional
	ttl    time.Duration
	marker *cache.Marker

	mu         sync.RWMutex
	trades     []trade.Trade
	userTrades []trade.Trade
	pagination card.Pagination
}

// NewTradeService creates a TradeService with the given freshness policy.
func NewTradeService(api market.TradesAPI, policy cache.FreshnessPolicy, opts ...StoreOption) *TradeService {
	o := applyStoreOptions(opts)
	return &TradeService{
		api:        api,
		cache:      o.cache,
		ttl:        o.ttl,
		marker:     cache.NewMarker(policy, o.now),
		pagination: card.InitialPagination(),
	}
}

// FetchAllTrades loads a page of trades. Unconditioned calls are skipped while
// the loaded listing is fresh. The freshness window only restarts when the
// first page came from the API, not from the cache.
func (s *TradeService) FetchAllTrades(ctx context.Context, f trade.Filters) (err error) {
	if f.Unconditioned() && s.marker.Fresh() && s.TradesCount() > 0 {
		return nil
	}

	ctx, span := cmotel.StartStoreSpan(ctx, "trades", "fetch_all")
	defer func() { cmotel.EndSpan(span, err) }()

	s.begin()
	defer func() { s.end(err) }()

	page, fetched, err := s.listTrades(ctx, f)
	if err != nil {
		slog.Warn("fetch trades failed", "page", f.Page, "user_id", f.UserID, "error", err)
		return fmt.Errorf("fetch trades: %w", err)
	}

	s.mu.Lock()
	if f.FirstPage() {
		s.trades = page.List
		if fetched {
			s.marker.Touch()
		}
	} else {
		s.trades = append(slices.Clip(s.trades), page.List...)
	}
	s.pagination = page.Pagination()
	s.mu.Unlock()
	return nil
}

// listTrades reports whether the page was fetched from the API.
func (s *TradeService) listTrades(ctx context.Context, f trade.Filters) (page trade.Page, fetched bool, err error) {
	if s.cache == nil || !f.Unconditioned() {
		page, err = s.api.ListTrades(ctx, f)
		return page, true, err
	}
	page, err = cache.Fetch(ctx, s.cache, TradesAllKey, func(ctx context.Context) (trade.Page, error) {
		fetched = true
		return s.api.ListTrades(ctx, f)
	}, s.ttl)
	return page, fetched, err
}

// FetchUserTrades loads the trades of the signed-in user.
func (s *TradeService) FetchUserTrades(ctx context.Context) (err error) {
	ctx, span := cmotel.StartStoreSpan(ctx, "trades", "fetch_user")
	defer func() { cmotel.EndSpan(span, err) }()

	s.begin()
	defer func() { s.end(err) }()

	var trades []trade.Trade
	if s.cache != nil {
		trades, err = cache.Fetch(ctx, s.cache, TradesUserKey, s.api.UserTrades, s.ttl)
	} else {
		trades, err = s.api.UserTrades(ctx)
	}
	if err != nil {
		slog.Warn("fetch user trades failed", "error", err)
		return fmt.Errorf("fetch user trades: %w", err)
	}

	s.mu.Lock()
	s.userTrades = trades
	s.mu.Unlock()
	return nil
}

// CreateTrade publishes a trade and reloads both listings concurrently.
// Reload failures are recorded on the store; the trade id is still returned.
func (s *TradeService) CreateTrade(ctx context.Context, req trade.CreateRequest) (id string, err error) {
	if err = req.Validate(); err != nil {
		err = fmt.Errorf("create trade: %w: %w", domain.ErrValidation, err)
		s.fail(err)
		return "", err
	}

	ctx, span := cmotel.StartStoreSpan(ctx, "trades", "create")
	defer func() { cmotel.EndSpan(span, err) }()

	s.begin()
	defer func() { s.end(err) }()

	resp, err := s.api.CreateTrade(ctx, req)
	if err != nil {
		slog.Warn("create trade failed", "cards", len(req.Cards), "error", err)
		return "", fmt.Errorf("create trade: %w", err)
	}

	s.invalidate()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.FetchAllTrades(gctx, trade.Filters{}) })
	g.Go(func() error { return s.FetchUserTrades(gctx) })
	if werr := g.Wait(); werr != nil {
		slog.Warn("reload after create trade failed", "trade_id", resp.TradeID, "error", werr)
	}
	return resp.TradeID, nil
}

// DeleteTrade withdraws a trade and removes it from both loaded listings.
func (s *TradeService) DeleteTrade(ctx context.Context, id string) (err error) {
	ctx, span := cmotel.StartStoreSpan(ctx, "trades", "delete")
	defer func() { cmotel.EndSpan(span, err) }()

	s.begin()
	defer func() { s.end(err) }()

	if err = s.api.DeleteTrade(ctx, id); err != nil {
		slog.Warn("delete trade failed", "trade_id", id, "error", err)
		return fmt.Errorf("delete trade %s: %w", id, err)
	}

	s.mu.Lock()
	s.trades = trade.Without(s.trades, id)
	s.userTrades = trade.Without(s.userTrades, id)
	s.mu.Unlock()
	if s.cache != nil {
		s.cache.Invalidate(TradesAllKey)
		s.cache.Invalidate(TradesUserKey)
	}
	return nil
}

// LoadMoreTrades fetches the next page when one exists and nothing is loading.
func (s *TradeService) LoadMoreTrades(ctx context.Context, f trade.Filters) error {
	if !s.HasMoreTrades() || s.Loading() {
		return nil
	}
	f.Page = s.Pagination().Page + 1
	return s.FetchAllTrades(ctx, f)
}

func (s *TradeService) invalidate() {
	s.marker.Reset()
	if s.cache != nil {
		s.cache.Invalidate(TradesAllKey)
		s.cache.Invalidate(TradesUserKey)
	}
}

// Reset empties the store and drops its cached listings.
func (s *TradeService) Reset() {
	s.mu.Lock()
	s.trades = nil
	s.userTrades = nil
	s.pagination = card.InitialPagination()
	s.mu.Unlock()
	s.invalidate()
	s.ClearError()
}

// Trades returns a copy of the loaded listing.
func (s *TradeService) Trades() []trade.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.trades)
}

// UserTrades returns a copy of the user's trades.
func (s *TradeService) UserTrades() []trade.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.userTrades)
}

func (s *TradeService) Pagination() card.Pagination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pagination
}

func (s *TradeService) TradesCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trades)
}

func (s *TradeService) UserTradesCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.userTrades)
}

func (s *TradeService) HasMoreTrades() bool { return s.Pagination().More }

// Fresh reports whether an unconditioned fetch would be skipped.
func (s *TradeService) Fresh() bool { return s.marker.Fresh() }
