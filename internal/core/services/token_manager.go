package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// RefreshBuffer is how long before expiry a token is refreshed.
const RefreshBuffer = 5 * time.Minute

// Ensure TokenManager implements the interface.
var _ driven.TokenProvider = (*TokenManager)(nil)

// TokenManager hands out access tokens from the token store and refreshes
// them shortly before they expire.
type TokenManager struct {
	store driven.TokenStore
	oauth driven.OAuthClient
	now   func() time.Time

	mu sync.Mutex
}

// NewTokenManager creates a token manager.
func NewTokenManager(store driven.TokenStore, oauth driven.OAuthClient) *TokenManager {
	return &TokenManager{store: store, oauth: oauth, now: time.Now}
}

// GetToken returns a valid access token. Outside the refresh window no
// network call is made; inside it exactly one refresh is attempted.
func (m *TokenManager) GetToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok, err := m.store.Load()
	if err != nil {
		return "", err
	}
	if !tok.HasExpiry() || tok.Remaining(m.now()) > RefreshBuffer {
		return tok.AccessToken, nil
	}

	refreshed, err := m.refresh(ctx, tok)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

// ForceRefresh refreshes the token regardless of its remaining lifetime.
func (m *TokenManager) ForceRefresh(ctx context.Context) (*domain.TokenSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	return m.refresh(ctx, tok)
}

// refresh must be called with mu held.
func (m *TokenManager) refresh(ctx context.Context, tok *domain.TokenSet) (*domain.TokenSet, error) {
	if tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token expired and no refresh token is stored", domain.ErrAuthRequired)
	}

	logger.Debug("token-manager: refreshing access token (expires %s)", tok.ExpiresAt().Format(time.RFC3339))
	refreshed, err := m.oauth.Refresh(ctx, tok.RefreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrAuthRequired) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: token refresh failed: %w", domain.ErrAuthRequired, err)
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = tok.RefreshToken
	}
	if refreshed.SavedAt == 0 {
		refreshed.Stamp(m.now())
	}
	if err := m.store.Save(refreshed); err != nil {
		return nil, fmt.Errorf("save refreshed token: %w", err)
	}
	return refreshed, nil
}
