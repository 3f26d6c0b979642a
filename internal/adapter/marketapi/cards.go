package marketapi

import (
	"context"
	"net/url"
	"strconv"

	"github.com/Strob0t/cardsmarket/internal/domain/card"
)

// CardsService maps the card endpoints.
type CardsService struct {
	client *Client
}

// NewCardsService creates a CardsService on top of client.
func NewCardsService(client *Client) *CardsService {
	return &CardsService{client: client}
}

// ListCards fetches one page of the card catalogue. Zero page and rpp use 1 and card.DefaultPageSize.
func (s *CardsService) ListCards(ctx context.Context, f card.Filters) (card.Page, error) {
	q := pageQuery(f.Page, f.RPP)
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	var page card.Page
	if err := s.client.Get(ctx, "/cards", q, &page); err != nil {
		return card.Page{}, err
	}
	return page, nil
}

// UserCards fetches the signed-in user's collection.
func (s *CardsService) UserCards(ctx context.Context) ([]card.Card, error) {
	var cards []card.Card
	if err := s.client.Get(ctx, "/me/cards", nil, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// GetCard fetches a single card.
func (s *CardsService) GetCard(ctx context.Context, id string) (card.Card, error) {
	var c card.Card
	if err := s.client.Get(ctx, "/cards/"+url.PathEscape(id), nil, &c); err != nil {
		return card.Card{}, err
	}
	return c, nil
}

// AddCards adds cards to the signed-in user's collection.
func (s *CardsService) AddCards(ctx context.Context, req card.AddRequest) error {
	return s.client.Post(ctx, "/me/cards", req, nil)
}

func pageQuery(page, rpp int) url.Values {
	if page <= 0 {
		page = 1
	}
	if rpp <= 0 {
		rpp = card.DefaultPageSize
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("rpp", strconv.Itoa(rpp))
	return q
}
