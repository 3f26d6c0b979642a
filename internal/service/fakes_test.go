package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/Strob0t/cardsmarket/internal/domain/card"
	"github.com/Strob0t/cardsmarket/internal/domain/trade"
	"github.com/Strob0t/cardsmarket/internal/domain/user"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// fakeCardsAPI serves pages keyed by page number.
type fakeCardsAPI struct {
	mu        sync.Mutex
	pages     map[int]card.Page
	userCards []card.Card
	listErr   error
	userErr   error
	addErr    error

	listCalls int
	userCalls int
	added     []string
	filters   []card.Filters
}

func (f *fakeCardsAPI) ListCards(_ context.Context, fl card.Filters) (card.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.filters = append(f.filters, fl)
	if f.listErr != nil {
		return card.Page{}, f.listErr
	}
	p := fl.Page
	if p == 0 {
		p = 1
	}
	return f.pages[p], nil
}

func (f *fakeCardsAPI) UserCards(context.Context) ([]card.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userCalls++
	if f.userErr != nil {
		return nil, f.userErr
	}
	return f.userCards, nil
}

func (f *fakeCardsAPI) GetCard(_ context.Context, id string) (card.Card, error) {
	return card.Card{ID: id, Name: "card " + id}, nil
}

func (f *fakeCardsAPI) AddCards(_ context.Context, req card.AddRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, req.CardIDs...)
	for _, id := range req.CardIDs {
		f.userCards = append(f.userCards, card.Card{ID: id})
	}
	return nil
}

func (f *fakeCardsAPI) calls() (list, user int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.userCalls
}

type fakeTradesAPI struct {
	mu         sync.Mutex
	page       trade.Page
	userTrades []trade.Trade
	listErr    error
	createErr  error
	deleteErr  error

	listCalls int
	userCalls int
	deleted   []string
}

func (f *fakeTradesAPI) ListTrades(_ context.Context, fl trade.Filters) (trade.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return trade.Page{}, f.listErr
	}
	p := f.page
	if fl.Page > 1 {
		p.Page = fl.Page
	}
	return p, nil
}

func (f *fakeTradesAPI) UserTrades(context.Context) ([]trade.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userCalls++
	return f.userTrades, nil
}

func (f *fakeTradesAPI) CreateTrade(context.Context, trade.CreateRequest) (trade.CreateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return trade.CreateResponse{}, f.createErr
	}
	return trade.CreateResponse{TradeID: "t-new"}, nil
}

func (f *fakeTradesAPI) DeleteTrade(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeAuthAPI struct {
	loginResp user.AuthResponse
	loginErr  error
	regErr    error
	current   *user.User
	checkErr  error
	meErr     error
	loggedOut bool
}

func (f *fakeAuthAPI) Login(context.Context, user.LoginRequest) (user.AuthResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeAuthAPI) Register(context.Context, user.RegisterRequest) (user.RegisterResponse, error) {
	if f.regErr != nil {
		return user.RegisterResponse{}, f.regErr
	}
	return user.RegisterResponse{UserID: "u-new"}, nil
}

func (f *fakeAuthAPI) CurrentUser(context.Context) (user.User, error) {
	if f.meErr != nil {
		return user.User{}, f.meErr
	}
	if f.current == nil {
		return user.User{}, nil
	}
	return *f.current, nil
}

func (f *fakeAuthAPI) CheckAuthStatus(context.Context) (*user.User, error) {
	return f.current, f.checkErr
}

func (f *fakeAuthAPI) Logout() { f.loggedOut = true }

func cards(ids ...string) []card.Card {
	out := make([]card.Card, len(ids))
	for i, id := range ids {
		out[i] = card.Card{ID: id, Name: "card " + id}
	}
	return out
}
