// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrUnauthorized indicates the API rejected the credentials or token.
var ErrUnauthorized = errors.New("unauthorized")

// ErrNotAuthenticated indicates an operation requires a signed-in user.
var ErrNotAuthenticated = errors.New("user is not authenticated")

// ErrValidation indicates a request failed local validation before being sent.
var ErrValidation = errors.New("validation failed")
