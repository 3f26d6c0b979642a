// Package user defines the marketplace user and authentication payloads.
package user

import (
	"errors"
	"net/mail"
	"strings"
)

// User is a marketplace account.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// DefaultDisplayName is shown when a user has no name.
const DefaultDisplayName = "User"

// DisplayName returns the user's name or DefaultDisplayName.
func (u *User) DisplayName() string {
	if u == nil || strings.TrimSpace(u.Name) == "" {
		return DefaultDisplayName
	}
	return u.Name
}

// Initials returns the upper-cased first letters of the first and last names.
func (u *User) Initials() string {
	if u == nil {
		return "U"
	}
	names := strings.Fields(u.Name)
	if len(names) == 0 {
		return "U"
	}
	first := []rune(names[0])[:1]
	last := []rune(names[len(names)-1])[:1]
	return strings.ToUpper(string(first) + string(last))
}

// LoginRequest is the input for user authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // request field, not a hardcoded secret
}

// Validate checks that the LoginRequest has all required fields.
func (r *LoginRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// RegisterRequest is the input for creating an account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // request field, not a hardcoded secret
}

// Validate checks that the RegisterRequest has all required fields.
func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if r.Email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("invalid email format")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	if len(r.Password) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	return nil
}

// AuthResponse is returned after a successful login or token refresh.
type AuthResponse struct {
	Token string `json:"token"` //nolint:gosec // response field, not a hardcoded secret
	User  User   `json:"user"`
}

// RegisterResponse is returned after an account is created.
type RegisterResponse struct {
	UserID string `json:"userId"`
}
