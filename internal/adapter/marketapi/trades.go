package marketapi

import (
	"context"
	"net/url"

	"github.com/Strob0t/cardsmarket/internal/domain/trade"
)

// UserTradesPageSize is the page size used to collect the user's trades in one call.
const UserTradesPageSize = 100

// TradesService maps the trade endpoints.
type TradesService struct {
	client *Client
}

// NewTradesService creates a TradesService on top of client.
func NewTradesService(client *Client) *TradesService {
	return &TradesService{client: client}
}

// ListTrades fetches one page of trades.
func (s *TradesService) ListTrades(ctx context.Context, f trade.Filters) (trade.Page, error) {
	q := pageQuery(f.Page, f.RPP)
	if f.UserID != "" {
		q.Set("userId", f.UserID)
	}
	var page trade.Page
	if err := s.client.Get(ctx, "/trades", q, &page); err != nil {
		return trade.Page{}, err
	}
	return page, nil
}

// UserTrades fetches a single large page of trades.
func (s *TradesService) UserTrades(ctx context.Context) ([]trade.Trade, error) {
	page, err := s.ListTrades(ctx, trade.Filters{RPP: UserTradesPageSize})
	if err != nil {
		return nil, err
	}
	return page.List, nil
}

// CreateTrade publishes a new trade.
func (s *TradesService) CreateTrade(ctx context.Context, req trade.CreateRequest) (trade.CreateResponse, error) {
	var resp trade.CreateResponse
	if err := s.client.Post(ctx, "/trades", req, &resp); err != nil {
		return trade.CreateResponse{}, err
	}
	return resp, nil
}

// DeleteTrade withdraws a trade.
func (s *TradesService) DeleteTrade(ctx context.Context, id string) error {
	return s.client.Delete(ctx, "/trades/"+url.PathEscape(id), nil)
}
