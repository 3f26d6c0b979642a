// Command cardsmarket runs the marketplace client core: a TTL cache in
// front of the cards marketplace API, the domain stores built on it and an
// operator HTTP surface. "cardsmarket cli ..." runs one-off commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	cmhttp "github.com/Strob0t/cardsmarket/internal/adapter/http"
	cmotel "github.com/Strob0t/cardsmarket/internal/adapter/otel"
	"github.com/Strob0t/cardsmarket/internal/config"
	"github.com/Strob0t/cardsmarket/internal/logger"
	"github.com/Strob0t/cardsmarket/internal/middleware"
)

func main() {
	var err error
	if len(os.Args) > 1 && os.Args[1] == "cli" {
		err = runCLI(os.Args[2:])
	} else {
		err = run()
	}
	if err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"api", cfg.API.BaseURL,
		"log_level", cfg.Logging.Level,
		"coalesce", cfg.Cache.Coalesce,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	shutdownOtel, err := cmotel.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(sctx); err != nil {
			slog.Warn("telemetry shutdown", "error", err)
		}
	}()

	// --- Core ---
	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	go a.sweeper.Run(ctx)
	if cfg.KeepAlive.Enabled {
		go a.keepAlive.Run(ctx)
	}

	signInServiceAccount(ctx, a)
	go reloadOnHangup(ctx, a)

	// --- HTTP ---
	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.Burst)
	limiter.StartCleanup(ctx, 5*time.Minute, 10*time.Minute)

	handlers := &cmhttp.Handlers{
		Cache:   a.cache,
		Sweeper: a.sweeper,
		Cards:   a.cards,
		Trades:  a.trades,
		Breaker: a.breaker,
	}
	if cfg.KeepAlive.Enabled {
		handlers.KeepAlive = a.keepAlive
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(cmhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	if cfg.Telemetry.Enabled {
		r.Use(cmotel.HTTPMiddleware(cfg.Telemetry.ServiceName))
	}
	cmhttp.MountRoutes(r, handlers, limiter)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func signInServiceAccount(ctx context.Context, a *app) {
	err := a.signIn(ctx)
	switch {
	case errors.Is(err, errNoCredentials):
		slog.Info("no service account configured, running signed out")
	case err != nil:
		slog.Warn("service account sign-in failed", "error", err)
	default:
		slog.Info("service account signed in", "user", a.auth.DisplayName())
	}
}

// reloadOnHangup re-reads the service account credentials on SIGHUP and
// signs in again.
func reloadOnHangup(ctx context.Context, a *app) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := a.vault.Reload(); err != nil {
				slog.Error("credentials reload failed", "error", err)
				continue
			}
			a.auth.Logout()
			signInServiceAccount(ctx, a)
		}
	}
}
