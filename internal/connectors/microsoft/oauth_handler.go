package microsoft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"github.com/custodia-labs/o365-cli/internal/config"
	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// ConfigSource yields the current configuration. config.Holder satisfies it,
// so a reloaded config takes effect on the next exchange.
type ConfigSource interface {
	Current() *config.Config
}

// OAuthHandler implements driven.OAuthClient against the Microsoft identity
// platform v2.0 endpoints.
type OAuthHandler struct {
	cfg  ConfigSource
	http *http.Client
	now  func() time.Time
}

// NewOAuthHandler creates a Microsoft OAuth handler.
func NewOAuthHandler(cfg ConfigSource) *OAuthHandler {
	return &OAuthHandler{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
		now:  time.Now,
	}
}

// oauthConfig builds the x/oauth2 config for the configured tenant.
func (h *OAuthHandler) oauthConfig() (*oauth2.Config, error) {
	cfg := h.cfg.Current()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var endpoint oauth2.Endpoint
	if cfg.AuthorityURL == "" || cfg.AuthorityURL == config.DefaultAuthority {
		endpoint = microsoft.AzureADEndpoint(cfg.Tenant)
	} else {
		endpoint = oauth2.Endpoint{
			AuthURL:       cfg.AuthURL(),
			TokenURL:      cfg.TokenURL(),
			DeviceAuthURL: cfg.DeviceCodeURL(),
		}
	}
	// Public client: client_id travels in the form body.
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	return &oauth2.Config{
		ClientID: cfg.ClientID,
		Endpoint: endpoint,
		Scopes:   cfg.Scopes,
	}, nil
}

// DeviceLogin runs the OAuth2 device authorisation grant. The library polls
// at the server's interval, keeps going on authorization_pending and backs
// off on slow_down.
func (h *OAuthHandler) DeviceLogin(ctx context.Context, onCode func(domain.DeviceCode)) (*domain.TokenSet, error) {
	conf, err := h.oauthConfig()
	if err != nil {
		return nil, err
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, h.http)

	da, err := conf.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: request device code: %w", domain.ErrAuthRequired, describeOAuthError(err))
	}

	interval := time.Duration(da.Interval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	code := domain.DeviceCode{
		UserCode:        da.UserCode,
		VerificationURI: da.VerificationURI,
		ExpiresAt:       da.Expiry,
		Interval:        interval,
		Message: fmt.Sprintf("To sign in, open %s and enter the code %s to authenticate.",
			da.VerificationURI, da.UserCode),
	}
	if onCode != nil {
		onCode(code)
	}
	logger.Debug("microsoft-oauth: polling for device code, interval %s", interval)

	tok, err := conf.DeviceAccessToken(ctx, da)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: device login: %w", domain.ErrAuthRequired, describeOAuthError(err))
	}

	return h.tokenSetFromOAuth(tok), nil
}

func (h *OAuthHandler) tokenSetFromOAuth(tok *oauth2.Token) *domain.TokenSet {
	set := &domain.TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresIn:    tok.ExpiresIn,
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		set.Scope = scope
	}
	now := h.now()
	if set.ExpiresIn == 0 && !tok.Expiry.IsZero() {
		set.ExpiresIn = int64(tok.Expiry.Sub(now).Seconds())
	}
	set.Stamp(now)
	return set
}

// describeOAuthError turns an OAuth error response into a readable error.
func describeOAuthError(err error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return err
	}
	switch re.ErrorCode {
	case "authorization_declined":
		return errors.New("the sign-in request was declined")
	case "expired_token":
		return errors.New("the device code expired before sign-in completed")
	case "":
		return err
	}
	if re.ErrorDescription != "" {
		return fmt.Errorf("%s: %s", re.ErrorCode, firstLine(re.ErrorDescription))
	}
	return errors.New(re.ErrorCode)
}

// Refresh exchanges a refresh token for a new token set. A response without
// a refresh token keeps the one that was sent.
func (h *OAuthHandler) Refresh(ctx context.Context, refreshToken string) (*domain.TokenSet, error) {
	cfg := h.cfg.Current()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	resp, err := refreshMicrosoftToken(ctx, h.http, cfg.TokenURL(), cfg.ClientID, refreshToken, cfg.Scopes)
	if err != nil {
		return nil, err
	}

	set := &domain.TokenSet{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
		Scope:        resp.Scope,
		ExpiresIn:    resp.ExpiresIn,
	}
	if set.RefreshToken == "" {
		set.RefreshToken = refreshToken
	}
	set.Stamp(h.now())
	return set, nil
}

// tokenResponse is the v2.0 token endpoint payload.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	Scope            string `json:"scope"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// refreshMicrosoftToken refreshes a Microsoft OAuth token.
func refreshMicrosoftToken(
	ctx context.Context,
	client *http.Client,
	tokenURL, clientID, refreshToken string,
	scopes []string,
) (*tokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("client_id", clientID)
	data.Set("refresh_token", refreshToken)
	if len(scopes) > 0 {
		data.Set("scope", strings.Join(scopes, " "))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: token refresh request: %w", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read token response: %w", domain.ErrNetwork, err)
	}

	var tokenResp tokenResponse
	decodeErr := json.Unmarshal(body, &tokenResp)

	if resp.StatusCode != http.StatusOK {
		reason := fmt.Sprintf("status %d", resp.StatusCode)
		if decodeErr == nil && tokenResp.Error != "" {
			reason = tokenResp.Error
			if tokenResp.ErrorDescription != "" {
				reason += ": " + firstLine(tokenResp.ErrorDescription)
			}
		}
		return nil, fmt.Errorf("%w: token refresh failed: %s", domain.ErrAuthRequired, reason)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode token response: %w", decodeErr)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("%w: token refresh returned no access token", domain.ErrAuthRequired)
	}

	return &tokenResp, nil
}

// firstLine trims Azure AD's multi-line descriptions (trace and correlation IDs).
func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
