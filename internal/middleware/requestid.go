// Package middleware provides HTTP middleware for the cardsmarket operator server.
package middleware

import (
	"net/http"

	"github.com/Strob0t/cardsmarket/internal/logger"
)

const headerRequestID = "X-Request-ID"

// RequestID is HTTP middleware that takes X-Request-ID from the request or
// generates one. The ID is stored in the context, so outgoing API calls made
// while serving the request carry the same ID, and echoed on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := r.Header.Get(headerRequestID); id != "" {
			ctx = logger.WithRequestID(ctx, id)
		}
		ctx, id := logger.EnsureRequestID(ctx)
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
