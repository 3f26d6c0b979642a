package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/cardsmarket/internal/adapter/marketapi"
	"github.com/Strob0t/cardsmarket/internal/domain"
)

// urlParam is a short alias for chi.URLParam.
func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// queryInt reads a non-negative integer query parameter. Missing means 0.
func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return n, nil
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeDomainError maps store and API errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		msg := err.Error()
		if i := strings.Index(msg, domain.ErrValidation.Error()+": "); i >= 0 {
			msg = msg[i+len(domain.ErrValidation.Error())+2:]
		}
		writeError(w, http.StatusBadRequest, msg)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	default:
		if apiErr, ok := marketapi.AsAPIError(err); ok {
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: apiErr.Message, Code: apiErr.Code})
			return
		}
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
