package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Payload is the subset of JWT claims the client reads.
type Payload struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Claims    jwt.MapClaims
}

// ParsePayload decodes the claims of token without verifying its signature.
// The client never holds the signing key; the API remains the authority.
func ParsePayload(token string) (*Payload, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	p := &Payload{Claims: claims}
	if sub, err := claims.GetSubject(); err == nil {
		p.Subject = sub
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		p.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		p.ExpiresAt = exp.Time
	}
	return p, nil
}

// Expired reports whether token is past its expiry at now.
// Unparseable tokens and tokens without an expiry count as expired.
func Expired(token string, now time.Time) bool {
	p, err := ParsePayload(token)
	if err != nil || p.ExpiresAt.IsZero() {
		return true
	}
	return p.ExpiresAt.Before(now)
}

// MinutesRemaining returns whole minutes until token expires, or 0.
func MinutesRemaining(token string, now time.Time) int {
	p, err := ParsePayload(token)
	if err != nil || p.ExpiresAt.IsZero() {
		return 0
	}
	left := p.ExpiresAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(left / time.Minute)
}
