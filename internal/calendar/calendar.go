// Package calendar integrates the portal with Google Calendar using
// per-user delegated credentials. Each user links a Google account
// once; the stored refresh token is exchanged for access tokens on
// demand.
package calendar

import (
	"context"
	"errors"
	"time"
)

// ErrNotConnected is returned when the acting user has not linked a
// Google account. Tools surface it as a failed result prompting the
// user to connect, distinct from provider-side errors.
var ErrNotConnected = errors.New("calendar: google account not connected")

// Event is a calendar event as seen by the agent.
type Event struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	HTMLLink    string    `json:"htmlLink,omitempty"`
}

// EventInput describes an event to create.
type EventInput struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	ColorID     string
}

// Service is the calendar operation surface used by the tools.
// DeleteEvent is idempotent: removing an already-deleted event
// succeeds. CreateEvent is not; a repeated create yields a duplicate.
type Service interface {
	ListEvents(ctx context.Context, userID string, from, to time.Time) ([]*Event, error)
	CreateEvent(ctx context.Context, userID string, input *EventInput) (*Event, error)
	DeleteEvent(ctx context.Context, userID, eventID string) error
}

// TokenStore resolves a user's stored Google refresh token.
// ErrNotConnected is returned for users without a linked account.
type TokenStore interface {
	RefreshToken(ctx context.Context, userID string) (string, error)
}
