// Package trade defines card trades between marketplace users.
package trade

import (
	"errors"
	"fmt"
	"time"

	"github.com/Strob0t/cardsmarket/internal/domain/card"
)

// CardType marks whether a card in a trade is offered or wanted.
type CardType string

const (
	Offering  CardType = "OFFERING"
	Receiving CardType = "RECEIVING"
)

// Valid reports whether t is a known card type.
func (t CardType) Valid() bool {
	return t == Offering || t == Receiving
}

// Trader is the public profile of a trade's author.
type Trader struct {
	Name string `json:"name"`
}

// Trade is an offer to exchange cards.
type Trade struct {
	ID         string      `json:"id"`
	UserID     string      `json:"userId"`
	CreatedAt  time.Time   `json:"createdAt"`
	User       Trader      `json:"user"`
	TradeCards []TradeCard `json:"tradeCards"`
}

// TradeCard is a card taking part in a trade.
type TradeCard struct {
	ID      string    `json:"id"`
	CardID  string    `json:"cardId"`
	TradeID string    `json:"tradeId"`
	Type    CardType  `json:"type"`
	Card    card.Card `json:"card"`
}

// Page is one page of trades returned by the API.
type Page struct {
	List []Trade `json:"list"`
	Page int     `json:"page"`
	RPP  int     `json:"rpp"`
	More bool    `json:"more"`
}

// Pagination returns the page position without the items.
func (p Page) Pagination() card.Pagination {
	return card.Pagination{Page: p.Page, RPP: p.RPP, More: p.More}
}

// Filters narrow a trade listing. Zero values mean "not set".
type Filters struct {
	Page   int
	RPP    int
	UserID string
}

// Unconditioned reports whether the filters request the default full listing.
func (f Filters) Unconditioned() bool {
	return f.Page == 0 && f.UserID == ""
}

// FirstPage reports whether the filters address the first page.
func (f Filters) FirstPage() bool {
	return f.Page <= 1
}

// CreateCard is one card in a CreateRequest.
type CreateCard struct {
	CardID string   `json:"cardId"`
	Type   CardType `json:"type"`
}

// CreateRequest is the payload for publishing a new trade.
type CreateRequest struct {
	Cards []CreateCard `json:"cards"`
}

// Validate checks that the request names at least one card and only known types.
func (r *CreateRequest) Validate() error {
	if len(r.Cards) == 0 {
		return errors.New("at least one card is required")
	}
	for i, c := range r.Cards {
		if c.CardID == "" {
			return fmt.Errorf("cards[%d]: card id is required", i)
		}
		if !c.Type.Valid() {
			return fmt.Errorf("cards[%d]: invalid type %q: must be OFFERING or RECEIVING", i, c.Type)
		}
	}
	return nil
}

// CreateResponse is returned after a trade is published.
type CreateResponse struct {
	TradeID string `json:"tradeId"`
}

// Without returns trades with every trade matching id removed.
func Without(trades []Trade, id string) []Trade {
	out := make([]Trade, 0, len(trades))
	for i := range trades {
		if trades[i].ID != id {
			out = append(out, trades[i])
		}
	}
	return out
}
