// Package market defines the port interfaces for the cards marketplace API.
package market

import (
	"context"

	"github.com/Strob0t/cardsmarket/internal/domain/card"
	"github.com/Strob0t/cardsmarket/internal/domain/trade"
	"github.com/Strob0t/cardsmarket/internal/domain/user"
)

// CardsAPI lists cards and manages the signed-in user's collection.
type CardsAPI interface {
	ListCards(ctx context.Context, f card.Filters) (card.Page, error)
	UserCards(ctx context.Context) ([]card.Card, error)
	GetCard(ctx context.Context, id string) (card.Card, error)
	AddCards(ctx context.Context, req card.AddRequest) error
}

// TradesAPI lists, publishes and withdraws trades.
type TradesAPI interface {
	ListTrades(ctx context.Context, f trade.Filters) (trade.Page, error)
	UserTrades(ctx context.Context) ([]trade.Trade, error)
	CreateTrade(ctx context.Context, req trade.CreateRequest) (trade.CreateResponse, error)
	DeleteTrade(ctx context.Context, id string) error
}

// AuthAPI signs users in and out.
type AuthAPI interface {
	Login(ctx context.Context, req user.LoginRequest) (user.AuthResponse, error)
	Register(ctx context.Context, req user.RegisterRequest) (user.RegisterResponse, error)
	CurrentUser(ctx context.Context) (user.User, error)
	// CheckAuthStatus returns nil when no session exists or the session is rejected.
	CheckAuthStatus(ctx context.Context) (*user.User, error)
	Logout()
}
