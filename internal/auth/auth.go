// Package auth issues and validates the portal's bearer tokens and
// attaches the authenticated user to request contexts. Tools read the
// acting user from the context to scope calendar access and gate
// admin-only operations.
package auth

import (
	"errors"
	"time"
)

var (
	ErrAuthDisabled = errors.New("auth disabled")
	ErrInvalidToken = errors.New("invalid token")
)

// Config configures token issuance.
type Config struct {
	JWTSecret   string
	TokenExpiry time.Duration
}
