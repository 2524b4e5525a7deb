// Package driven declares the ports the core depends on: token persistence,
// Azure AD exchanges, Microsoft Graph resources and the local mail store.
package driven

import (
	"context"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

// TokenProvider supplies a valid access token for Graph requests.
type TokenProvider interface {
	// GetToken returns a bearer token, refreshing it when close to expiry.
	GetToken(ctx context.Context) (string, error)
}

// TokenStore persists the OAuth token set.
type TokenStore interface {
	// Load returns the saved tokens. Returns domain.ErrAuthRequired when none exist.
	Load() (*domain.TokenSet, error)
	// Save replaces the saved tokens atomically.
	Save(tokens *domain.TokenSet) error
	// Delete removes the saved tokens.
	Delete() error
	// Path returns the storage location.
	Path() string
}

// OAuthClient performs token exchanges with the Microsoft identity platform.
type OAuthClient interface {
	// DeviceLogin runs the device-code flow. onCode is called once with the
	// code the user must enter; the call then blocks until the user finishes,
	// declines, or the code expires.
	DeviceLogin(ctx context.Context, onCode func(domain.DeviceCode)) (*domain.TokenSet, error)

	// Refresh exchanges a refresh token for a new token set.
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenSet, error)
}

// UserDirectory looks up the signed-in user.
type UserDirectory interface {
	Me(ctx context.Context) (*domain.UserInfo, error)
}
