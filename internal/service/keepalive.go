package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Strob0t/cardsmarket/internal/domain/card"
	"github.com/Strob0t/cardsmarket/internal/port/market"
)

// DefaultKeepAliveInterval keeps a free-tier API host from idling out.
const DefaultKeepAliveInterval = 25 * time.Minute

// KeepAlive pings the API with a one-card listing on a fixed interval.
type KeepAlive struct {
	api      market.CardsAPI
	interval time.Duration
	now      func() time.Time // for testing

	mu       sync.Mutex
	lastPing time.Time
	lastErr  error
	pings    int
}

// NewKeepAlive creates a pinger. interval <= 0 uses DefaultKeepAliveInterval.
func NewKeepAlive(api market.CardsAPI, interval time.Duration) *KeepAlive {
	if interval <= 0 {
		interval = DefaultKeepAliveInterval
	}
	return &KeepAlive{api: api, interval: interval, now: time.Now}
}

// Ping sends a single keep-alive request.
func (k *KeepAlive) Ping(ctx context.Context) error {
	_, err := k.api.ListCards(ctx, card.Filters{RPP: 1})

	k.mu.Lock()
	k.lastPing = k.now()
	k.lastErr = err
	k.pings++
	k.mu.Unlock()

	if err != nil {
		slog.Warn("keepalive ping failed", "error", err)
		return err
	}
	slog.Debug("keepalive ping ok")
	return nil
}

// Run pings once immediately and then every interval until ctx is done.
// Failed pings are logged and never stop the loop.
func (k *KeepAlive) Run(ctx context.Context) {
	_ = k.Ping(ctx)

	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = k.Ping(ctx)
		}
	}
}

// KeepAliveStatus summarizes the pinger for health reporting.
type KeepAliveStatus struct {
	LastPing  time.Time `json:"last_ping"`
	LastError string    `json:"last_error,omitempty"`
	Pings     int       `json:"pings"`
}

// Status returns the result of the last ping.
func (k *KeepAlive) Status() KeepAliveStatus {
	k.mu.Lock()
	defer k.mu.Unlock()
	st := KeepAliveStatus{LastPing: k.lastPing, Pings: k.pings}
	if k.lastErr != nil {
		st.LastError = k.lastErr.Error()
	}
	return st
}
