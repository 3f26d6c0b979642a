package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Strob0t/cardsmarket/internal/adapter/marketapi"
	cmotel "github.com/Strob0t/cardsmarket/internal/adapter/otel"
	"github.com/Strob0t/cardsmarket/internal/auth"
	"github.com/Strob0t/cardsmarket/internal/cache"
	"github.com/Strob0t/cardsmarket/internal/config"
	"github.com/Strob0t/cardsmarket/internal/domain/user"
	"github.com/Strob0t/cardsmarket/internal/resilience"
	"github.com/Strob0t/cardsmarket/internal/secrets"
	"github.com/Strob0t/cardsmarket/internal/service"
)

// errNoCredentials is returned by signIn when no service account is configured.
var errNoCredentials = errors.New("no service account credentials")

// app holds the wired client core shared by the server and the CLI.
type app struct {
	cfg     *config.Config
	cache   *cache.Cache
	metrics *cmotel.Metrics
	tokens  auth.TokenStore
	vault   *secrets.Vault
	client  *marketapi.Client
	breaker *resilience.Breaker

	cardsAPI  *marketapi.CardsService
	tradesAPI *marketapi.TradesService
	authAPI   *marketapi.AuthService

	cards     *service.CardService
	trades    *service.TradeService
	auth      *service.AuthService
	keepAlive *service.KeepAlive
	sweeper   *service.Sweeper
}

// newApp wires the cache, API client and stores from cfg. Telemetry must be
// set up before, so instruments bind to the configured meter provider.
func newApp(cfg *config.Config) (*app, error) {
	metrics, err := cmotel.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	c := cache.New(
		cache.WithDefaultTTL(cfg.Cache.DefaultTTL),
		cache.WithCoalescing(cfg.Cache.Coalesce),
		cache.WithObserver(metrics),
	)

	vault, err := secrets.NewCredentialsVault()
	if err != nil {
		return nil, fmt.Errorf("secrets: %w", err)
	}

	tokens := auth.NewMemoryTokenStore()
	client := marketapi.NewClient(cfg.API.BaseURL, cfg.API.Timeout, tokens)
	breaker := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
	breaker.SetName("marketapi")
	client.SetBreaker(breaker)
	client.SetMaxConcurrent(cfg.API.MaxConcurrent)
	client.SetObserver(metrics)

	a := &app{
		cfg:       cfg,
		cache:     c,
		metrics:   metrics,
		tokens:    tokens,
		vault:     vault,
		client:    client,
		breaker:   breaker,
		cardsAPI:  marketapi.NewCardsService(client),
		tradesAPI: marketapi.NewTradesService(client),
		authAPI:   marketapi.NewAuthService(client),
	}

	storeCache := service.WithCache(c, cfg.Cache.DefaultTTL)
	a.cards = service.NewCardService(a.cardsAPI, cfg.Stores.Cards, storeCache, service.WithAPIBaseKey(cfg.Cache.APIBaseKey))
	a.trades = service.NewTradeService(a.tradesAPI, cfg.Stores.Trades, storeCache)
	a.auth = service.NewAuthService(a.authAPI, tokens)
	a.auth.OnLogout(a.cards.Reset)
	a.auth.OnLogout(a.trades.Reset)
	a.keepAlive = service.NewKeepAlive(a.cardsAPI, cfg.KeepAlive.Interval)
	a.sweeper = service.NewSweeper(c, cfg.Cache.SweepInterval, metrics)

	// A rejected session invalidates everything loaded on behalf of the user.
	client.OnUnauthorized(func() {
		c.Invalidate(service.CardsUserKey)
		c.Invalidate(service.TradesUserKey)
	})

	return a, nil
}

// signIn logs the service account in and preloads its collection and trades.
// Preload failures are recorded on the stores and only logged.
func (a *app) signIn(ctx context.Context) error {
	email, password, ok := a.vault.Credentials()
	if !ok {
		return errNoCredentials
	}
	if err := a.auth.Login(ctx, user.LoginRequest{Email: email, Password: password}); err != nil {
		return fmt.Errorf("sign in %s: %s", email, a.vault.RedactString(err.Error()))
	}
	if err := a.cards.FetchUserCards(ctx); err != nil {
		slog.Warn("preload user cards failed", "error", err)
	}
	if err := a.trades.FetchUserTrades(ctx); err != nil {
		slog.Warn("preload user trades failed", "error", err)
	}
	return nil
}
