// Package session keeps the bearer credentials of one logical session and
// makes token refresh single-flight: however many requests fail with an
// expired token at once, one refresh call reaches the remote API and every
// waiter gets its outcome.
package session

import (
	"context"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/storage"
)

type Scope string

const (
	ScopeCustomer Scope = "customer"
	ScopeAdmin    Scope = "admin"
)

type State int

const (
	Unauthenticated State = iota
	Authenticated
	Refreshing
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	default:
		return "unauthenticated"
	}
}

type EventType string

const (
	EventSessionExpired EventType = "session_expired"
	EventLoggedOut      EventType = "logged_out"
)

// Event is delivered to subscribers whenever a session ends. Seq increases
// by one per event within a scope.
type Event struct {
	Seq     uint64    `json:"seq"`
	Type    EventType `json:"type"`
	Scope   Scope     `json:"scope"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	RefreshToken(ctx context.Context, refresh string) (*models.RefreshResponse, error)
}

// Status is a read-only snapshot of a session, with the access token's
// claims decoded for display.
type Status struct {
	Scope         Scope        `json:"scope"`
	State         string       `json:"state"`
	Authenticated bool         `json:"authenticated"`
	Subject       string       `json:"subject,omitempty"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty"`
	Expired       bool         `json:"expired"`
	User          *models.User `json:"user,omitempty"`
}

type scopeKeys struct {
	access  string
	refresh string
}

func keysFor(scope Scope) scopeKeys {
	if scope == ScopeAdmin {
		return scopeKeys{access: storage.AdminAccessTokenKey, refresh: storage.AdminRefreshTokenKey}
	}

	return scopeKeys{access: storage.AccessTokenKey, refresh: storage.RefreshTokenKey}
}
