package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driving"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// Ensure AuthService implements the interface.
var _ driving.AuthService = (*AuthService)(nil)

// AuthService manages device-code login and the cached token set.
type AuthService struct {
	tokens *TokenManager
	store  driven.TokenStore
	oauth  driven.OAuthClient
	users  driven.UserDirectory
	now    func() time.Time
}

// NewAuthService creates an auth service. users may be nil, in which case
// opaque tokens report no account.
func NewAuthService(
	tokens *TokenManager,
	store driven.TokenStore,
	oauth driven.OAuthClient,
	users driven.UserDirectory,
) *AuthService {
	return &AuthService{tokens: tokens, store: store, oauth: oauth, users: users, now: time.Now}
}

// Login runs the device-code flow and saves the resulting tokens.
func (s *AuthService) Login(ctx context.Context, onCode func(domain.DeviceCode)) (*domain.AuthStatus, error) {
	tok, err := s.oauth.DeviceLogin(ctx, onCode)
	if err != nil {
		return nil, err
	}
	if tok.SavedAt == 0 {
		tok.Stamp(s.now())
	}
	if err := s.store.Save(tok); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}
	logger.Info("auth: login complete, token saved to %s", s.store.Path())
	return s.Status(ctx)
}

// Refresh forces a refresh-token exchange.
func (s *AuthService) Refresh(ctx context.Context) (*domain.AuthStatus, error) {
	if _, err := s.tokens.ForceRefresh(ctx); err != nil {
		return nil, err
	}
	return s.Status(ctx)
}

// Status describes the cached token. A missing token file is reported as
// unauthenticated rather than as an error.
func (s *AuthService) Status(ctx context.Context) (*domain.AuthStatus, error) {
	status := &domain.AuthStatus{TokenFile: s.store.Path()}

	tok, err := s.store.Load()
	if errors.Is(err, domain.ErrAuthRequired) {
		return status, nil
	}
	if err != nil {
		return nil, err
	}

	status.HasRefreshToken = tok.RefreshToken != ""
	status.Scopes = strings.Fields(tok.Scope)
	status.Authenticated = true
	if tok.HasExpiry() {
		status.ExpiresAt = tok.ExpiresAt()
		status.Remaining = tok.Remaining(s.now())
		status.Authenticated = status.Remaining > 0 || status.HasRefreshToken
	}

	if c, ok := parseClaims(tok.AccessToken); ok {
		status.Account = c.account()
		status.Name = c.Name
		if scopes := strings.Fields(c.Scope); len(scopes) > 0 {
			status.Scopes = scopes
		}
		return status, nil
	}

	if s.users != nil && status.Authenticated {
		me, err := s.users.Me(ctx)
		if err != nil {
			logger.Debug("auth: /me lookup failed: %v", err)
			return status, nil
		}
		status.Account = me.Email()
		status.Name = me.DisplayName
	}
	return status, nil
}

// Logout removes the cached tokens.
func (s *AuthService) Logout() error {
	return s.store.Delete()
}

// accessClaims are the Azure AD access-token claims shown by status.
type accessClaims struct {
	jwt.RegisteredClaims
	Name              string `json:"name"`
	UPN               string `json:"upn"`
	PreferredUsername string `json:"preferred_username"`
	UniqueName        string `json:"unique_name"`
	Scope             string `json:"scp"`
}

func (c *accessClaims) account() string {
	for _, v := range []string{c.UPN, c.PreferredUsername, c.UniqueName} {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseClaims decodes a JWT access token without verifying it. Personal
// Microsoft accounts receive opaque tokens, which report false.
func parseClaims(token string) (*accessClaims, bool) {
	var c accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return nil, false
	}
	return &c, c.account() != "" || c.Name != ""
}
