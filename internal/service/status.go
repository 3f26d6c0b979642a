package service

import (
	"sync"

	"github.com/Strob0t/cardsmarket/internal/adapter/marketapi"
)

// status tracks the loading state and last error of a store.
type status struct {
	mu      sync.RWMutex
	loading int
	err     error
}

// begin marks a load as started and clears the previous error.
func (s *status) begin() {
	s.mu.Lock()
	s.loading++
	s.err = nil
	s.mu.Unlock()
}

// end marks a load as finished and records err when non-nil.
func (s *status) end(err error) {
	s.mu.Lock()
	s.loading--
	if err != nil {
		s.err = err
	}
	s.mu.Unlock()
}

func (s *status) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Loading reports whether any operation of the store is in flight.
func (s *status) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading > 0
}

// Err returns the last recorded error.
func (s *status) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// ErrorMessage returns the human-readable form of the last error, or "".
func (s *status) ErrorMessage() string {
	err := s.Err()
	if err == nil {
		return ""
	}
	if apiErr, ok := marketapi.AsAPIError(err); ok {
		return apiErr.Message
	}
	return err.Error()
}

// APIError returns the structured API error behind the last error, if any.
func (s *status) APIError() (*marketapi.APIError, bool) {
	err := s.Err()
	if err == nil {
		return nil, false
	}
	return marketapi.AsAPIError(err)
}

// ClearError drops the last recorded error.
func (s *status) ClearError() {
	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()
}
