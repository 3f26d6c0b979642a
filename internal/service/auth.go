package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	cmotel "github.com/Strob0t/cardsmarket/internal/adapter/otel"
	"github.com/Strob0t/cardsmarket/internal/auth"
	"github.com/Strob0t/cardsmarket/internal/domain"
	"github.com/Strob0t/cardsmarket/internal/domain/user"
	"github.com/Strob0t/cardsmarket/internal/port/market"
)

// AuthService holds the signed-in user and token.
type AuthService struct {
	status

	api    market.AuthAPI
	tokens auth.TokenStore
	now    func() time.Time // for testing

	mu       sync.RWMutex
	user     *user.User
	token    string
	onLogout []func()
}

// NewAuthService creates an AuthService. tokens must be the store the API
// client reads its bearer token from.
func NewAuthService(api market.AuthAPI, tokens auth.TokenStore) *AuthService {
	return &AuthService{api: api, tokens: tokens, now: time.Now}
}

// Login signs the user in. On failure the session is cleared.
func (s *AuthService) Login(ctx context.Context, req user.LoginRequest) (err error) {
	if err = req.Validate(); err != nil {
		err = fmt.Errorf("login: %w: %w", domain.ErrValidation, err)
		s.fail(err)
		return err
	}

	ctx, span := cmotel.StartStoreSpan(ctx, "auth", "login")
	defer func() { cmotel.EndSpan(span, err) }()

	s.begin()
	defer func() { s.end(err) }()

	resp, err := s.api.Login(ctx, req)
	if err != nil {
		s.set(nil, "")
		return fmt.Errorf("login: %w", err)
	}
	u := resp.User
	s.set(&u, resp.Token)
	slog.Info("user signed in", "user_id", u.ID)
	return nil
}

// Register creates an account and returns its id. It does not sign in.
func (s *AuthService) Register(ctx context.Context, req user.RegisterRequest) (id string, err error) {
	if err = req.Validate(); err != nil {
		err = fmt.Errorf("register: %w: %w", domain.ErrValidation, err)
		s.fail(err)
		return "", err
	}

	ctx, span := cmotel.StartStoreSpan(ctx, "auth", "register")
	defer func() { cmotel.EndSpan(span, err) }()

	s.begin()
	defer func() { s.end(err) }()

	resp, err := s.api.Register(ctx, req)
	if err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	return resp.UserID, nil
}

// OnLogout registers fn to run after every Logout. Stores holding
// user-scoped data register their Reset here.
func (s *AuthService) OnLogout(fn func()) {
	s.mu.Lock()
	s.onLogout = append(s.onLogout, fn)
	s.mu.Unlock()
}

// Logout always clears the local session, then runs the OnLogout hooks.
func (s *AuthService) Logout() {
	s.api.Logout()
	s.set(nil, "")
	s.ClearError()

	s.mu.RLock()
	hooks := slices.Clone(s.onLogout)
	s.mu.RUnlock()
	for _, fn := range hooks {
		fn()
	}
}

// CheckAuth restores the session from the token store and verifies it with
// the API. It does nothing when no token and user are stored.
func (s *AuthService) CheckAuth(ctx context.Context) (err error) {
	token := s.tokens.Token()
	if _, ok := s.tokens.User(); !ok || token == "" {
		return nil
	}

	ctx, span := cmotel.StartStoreSpan(ctx, "auth", "check")
	defer func() { cmotel.EndSpan(span, err) }()

	s.begin()
	defer s.end(nil)

	current, err := s.api.CheckAuthStatus(ctx)
	if err != nil {
		slog.Warn("auth check failed", "error", err)
		s.set(nil, "")
		return nil
	}
	if current != nil {
		s.set(current, token)
	}
	return nil
}

// RefreshUser reloads the profile of the signed-in user.
func (s *AuthService) RefreshUser(ctx context.Context) (err error) {
	if !s.IsAuthenticated() {
		return domain.ErrNotAuthenticated
	}

	ctx, span := cmotel.StartStoreSpan(ctx, "auth", "refresh_user")
	defer func() { cmotel.EndSpan(span, err) }()

	s.begin()
	defer func() { s.end(err) }()

	u, err := s.api.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("refresh user: %w", err)
	}
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()
	return nil
}

func (s *AuthService) set(u *user.User, token string) {
	s.mu.Lock()
	s.user = u
	s.token = token
	s.mu.Unlock()
}

// User returns a copy of the signed-in user, or nil.
func (s *AuthService) User() *user.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token returns the session token, or "".
func (s *AuthService) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsAuthenticated reports whether both a user and a token are present.
func (s *AuthService) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.token != ""
}

func (s *AuthService) DisplayName() string { return s.User().DisplayName() }

func (s *AuthService) Initials() string { return s.User().Initials() }

// HasError reports whether the last operation failed.
func (s *AuthService) HasError() bool { return s.Err() != nil }

// TokenMinutesRemaining returns the minutes until the session token expires.
func (s *AuthService) TokenMinutesRemaining() int {
	return auth.MinutesRemaining(s.Token(), s.now())
}

// TokenExpired reports whether the session token is missing or expired.
func (s *AuthService) TokenExpired() bool {
	return auth.Expired(s.Token(), s.now())
}
