package http

import (
	"net/http"

	"github.com/Strob0t/cardsmarket/internal/cache"
	"github.com/Strob0t/cardsmarket/internal/domain/card"
	"github.com/Strob0t/cardsmarket/internal/domain/trade"
	"github.com/Strob0t/cardsmarket/internal/resilience"
	"github.com/Strob0t/cardsmarket/internal/service"
)

// Handlers holds the dependencies of the operator HTTP handlers.
// KeepAlive and Breaker are optional.
type Handlers struct {
	Cache     *cache.Cache
	Sweeper   *service.Sweeper
	Cards     *service.CardService
	Trades    *service.TradeService
	KeepAlive *service.KeepAlive
	Breaker   *resilience.Breaker
}

type healthStatus struct {
	Status    string                   `json:"status"`
	Breaker   string                   `json:"breaker,omitempty"`
	Cache     cache.Stats              `json:"cache"`
	KeepAlive *service.KeepAliveStatus `json:"keepalive,omitempty"`
}

// Health reports process health with cache, breaker and keep-alive details.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	st := healthStatus{Status: "ok", Cache: h.Cache.Stats()}
	if h.Breaker != nil {
		st.Breaker = h.Breaker.State().String()
		if h.Breaker.State() == resilience.StateOpen {
			st.Status = "degraded"
		}
	}
	if h.KeepAlive != nil {
		ka := h.KeepAlive.Status()
		st.KeepAlive = &ka
	}
	writeJSON(w, http.StatusOK, st)
}

// CacheStats returns entry counts of the shared cache.
func (h *Handlers) CacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Cache.Stats())
}

// SweepCache removes expired entries now.
func (h *Handlers) SweepCache(w http.ResponseWriter, r *http.Request) {
	n := h.Sweeper.Sweep(r.Context())
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

// ClearCache drops every entry.
func (h *Handlers) ClearCache(w http.ResponseWriter, _ *http.Request) {
	h.Cache.InvalidateAll()
	w.WriteHeader(http.StatusNoContent)
}

// InvalidateKey drops one entry.
func (h *Handlers) InvalidateKey(w http.ResponseWriter, r *http.Request) {
	if !h.Cache.Invalidate(urlParam(r, "key")) {
		writeError(w, http.StatusNotFound, "cache key not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type cardsResponse struct {
	List       []card.Card     `json:"list"`
	Pagination card.Pagination `json:"pagination"`
	Fresh      bool            `json:"fresh"`
}

// ListCards loads the requested page through the card store.
func (h *Handlers) ListCards(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rpp, err := queryInt(r, "rpp")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f := card.Filters{Search: r.URL.Query().Get("search"), Page: page, RPP: rpp}

	if err := h.Cards.FetchAllCards(r.Context(), f); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cardsResponse{
		List:       h.Cards.AllCards(),
		Pagination: h.Cards.Pagination(),
		Fresh:      h.Cards.Fresh(),
	})
}

// RefreshCards drops cached card data and reloads it.
func (h *Handlers) RefreshCards(w http.ResponseWriter, r *http.Request) {
	if err := h.Cards.RefreshCache(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"all_cards":  h.Cards.AllCardsCount(),
		"user_cards": h.Cards.UserCardsCount(),
	})
}

type tradesResponse struct {
	List       []trade.Trade   `json:"list"`
	Pagination card.Pagination `json:"pagination"`
	Fresh      bool            `json:"fresh"`
}

// ListTrades loads the requested page through the trade store.
func (h *Handlers) ListTrades(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rpp, err := queryInt(r, "rpp")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f := trade.Filters{Page: page, RPP: rpp, UserID: r.URL.Query().Get("userId")}

	if err := h.Trades.FetchAllTrades(r.Context(), f); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tradesResponse{
		List:       h.Trades.Trades(),
		Pagination: h.Trades.Pagination(),
		Fresh:      h.Trades.Fresh(),
	})
}
