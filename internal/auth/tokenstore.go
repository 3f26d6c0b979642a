// Package auth holds the signed-in session of the client: the bearer token,
// the cached user profile and helpers to inspect tokens and credentials.
package auth

import (
	"sync"

	"github.com/Strob0t/cardsmarket/internal/domain/user"
)

// TokenStore keeps the bearer token and the user it belongs to.
type TokenStore interface {
	Token() string
	SetToken(token string)
	User() (user.User, bool)
	SetUser(u user.User)
	// Clear removes the token and the user.
	Clear()
}

// MemoryTokenStore is a TokenStore held in process memory.
type MemoryTokenStore struct {
	mu      sync.RWMutex
	token   string
	user    user.User
	hasUser bool
}

// NewMemoryTokenStore creates an empty in-memory token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *MemoryTokenStore) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *MemoryTokenStore) User() (user.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.hasUser
}

func (s *MemoryTokenStore) SetUser(u user.User) {
	s.mu.Lock()
	s.user = u
	s.hasUser = true
	s.mu.Unlock()
}

func (s *MemoryTokenStore) Clear() {
	s.mu.Lock()
	s.token = ""
	s.user = user.User{}
	s.hasUser = false
	s.mu.Unlock()
}
