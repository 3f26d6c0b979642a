package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/cardsmarket/internal/middleware"
)

// MountRoutes registers the operator routes on r. Routes that reach the
// upstream API go through limiter when it is non-nil.
func MountRoutes(r chi.Router, h *Handlers, limiter *middleware.RateLimiter) {
	r.Get("/health", h.Health)

	r.Route("/cache", func(r chi.Router) {
		r.Get("/stats", h.CacheStats)
		r.Post("/sweep", h.SweepCache)
		r.Delete("/", h.ClearCache)
		r.Delete("/{key}", h.InvalidateKey)
	})

	r.Group(func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Handler)
		}
		r.Get("/cards", h.ListCards)
		r.Post("/cards/refresh", h.RefreshCards)
		r.Get("/trades", h.ListTrades)
	})
}
