package marketapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Strob0t/cardsmarket/internal/domain"
)

// Error codes returned by the API or produced by the client.
const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeNetworkError       = "NETWORK_ERROR"
	CodeUnknown            = "UNKNOWN_ERROR"
)

// APIError is the normalized form of every failed API call.
// StatusCode is 0 when the request never got a response.
type APIError struct {
	Message    string `json:"message"`
	Code       string `json:"code"`
	StatusCode int    `json:"statusCode"`
	Field      string `json:"field,omitempty"`
	Err        error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// Is maps HTTP statuses onto domain sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case domain.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// Retryable reports whether the failure is on the transport or server side.
func (e *APIError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode >= http.StatusInternalServerError
}

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// errorBody is the error envelope the API sends with 4xx/5xx responses.
type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Field   string `json:"field"`
}

// normalizeResponse builds an APIError from a failed response.
func normalizeResponse(status int, body []byte) *APIError {
	e := &APIError{Message: "unknown error", Code: CodeUnknown, StatusCode: status}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Message != "" {
			e.Message = eb.Message
		}
		if eb.Code != "" {
			e.Code = eb.Code
		}
		e.Field = eb.Field
	}
	return e
}

// normalizeTransport builds an APIError for a request that got no response.
func normalizeTransport(err error) *APIError {
	return &APIError{Message: "connection error", Code: CodeNetworkError, Err: err}
}

var messages = map[string]string{
	CodeInvalidCredentials: "Incorrect email or password",
	CodeUserNotFound:       "User not found",
	CodeEmailAlreadyExists: "This email is already in use",
	CodeTokenExpired:       "Your session has expired. Please sign in again",
	CodeUnauthorized:       "Unauthorized access",
	CodeNetworkError:       "Connection error. Please try again",
}

// MessageForCode returns a user-facing message for an error code.
func MessageForCode(code string) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return "Unknown error. Please try again"
}
