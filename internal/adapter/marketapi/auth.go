package marketapi

import (
	"context"
	"log/slog"

	"github.com/Strob0t/cardsmarket/internal/domain/user"
)

// AuthService maps the authentication endpoints and keeps the client's
// TokenStore in sync with the session.
type AuthService struct {
	client *Client
}

// NewAuthService creates an AuthService on top of client.
func NewAuthService(client *Client) *AuthService {
	return &AuthService{client: client}
}

type meResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Cards []struct {
		CreatedAt string `json:"createdAt"`
	} `json:"cards"`
}

// Login authenticates and stores the returned token and user.
func (s *AuthService) Login(ctx context.Context, req user.LoginRequest) (user.AuthResponse, error) {
	var resp user.AuthResponse
	if err := s.client.Post(ctx, "/login", req, &resp); err != nil {
		return user.AuthResponse{}, err
	}
	s.client.tokens.SetToken(resp.Token)
	s.client.tokens.SetUser(resp.User)
	return resp, nil
}

// Register creates an account. It does not sign the user in.
func (s *AuthService) Register(ctx context.Context, req user.RegisterRequest) (user.RegisterResponse, error) {
	var resp user.RegisterResponse
	if err := s.client.Post(ctx, "/register", req, &resp); err != nil {
		return user.RegisterResponse{}, err
	}
	return resp, nil
}

// CurrentUser fetches the signed-in user and stores it. The API has no
// creation date on /me, so the first owned card's date stands in for it.
func (s *AuthService) CurrentUser(ctx context.Context) (user.User, error) {
	var resp meResponse
	if err := s.client.Get(ctx, "/me", nil, &resp); err != nil {
		return user.User{}, err
	}
	u := user.User{ID: resp.ID, Name: resp.Name, Email: resp.Email}
	if len(resp.Cards) > 0 {
		u.CreatedAt = resp.Cards[0].CreatedAt
	}
	s.client.tokens.SetUser(u)
	return u, nil
}

// Logout drops the local session. The API keeps no server-side session.
func (s *AuthService) Logout() {
	s.client.tokens.Clear()
}

// CheckAuthStatus returns the current user, or nil without a token. A
// rejected session is cleared and reported as nil.
func (s *AuthService) CheckAuthStatus(ctx context.Context) (*user.User, error) {
	if s.client.tokens.Token() == "" {
		return nil, nil
	}
	u, err := s.CurrentUser(ctx)
	if err != nil {
		slog.Debug("session check failed", "error", err)
		s.client.tokens.Clear()
		return nil, nil
	}
	return &u, nil
}

// EmailExists reports whether an account uses email. Any failure other
// than EMAIL_ALREADY_EXISTS counts as "not taken".
func (s *AuthService) EmailExists(ctx context.Context, email string) bool {
	err := s.client.Post(ctx, "/check-email", map[string]string{"email": email}, nil)
	if err == nil {
		return false
	}
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Code == CodeEmailAlreadyExists
}

// ValidateToken reports whether the API still accepts the stored token.
func (s *AuthService) ValidateToken(ctx context.Context) bool {
	_, err := s.CurrentUser(ctx)
	return err == nil
}

// RefreshToken exchanges the stored token for a new one. It returns nil on failure.
func (s *AuthService) RefreshToken(ctx context.Context) *user.AuthResponse {
	var resp user.AuthResponse
	if err := s.client.Post(ctx, "/refresh-token", nil, &resp); err != nil {
		slog.Debug("token refresh failed", "error", err)
		return nil
	}
	s.client.tokens.SetToken(resp.Token)
	s.client.tokens.SetUser(resp.User)
	return &resp
}
