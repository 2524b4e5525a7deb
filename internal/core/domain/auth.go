package domain

import "time"

// TokenSet is the persisted OAuth2 token response.
//
// Field names match the token endpoint response so files written by older
// releases keep loading.
type TokenSet struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token,omitempty"`
	TokenType    string  `json:"token_type,omitempty"`
	Scope        string  `json:"scope,omitempty"`
	ExpiresIn    int64   `json:"expires_in,omitempty"`
	SavedAt      float64 `json:"_saved_at,omitempty"`
}

// HasExpiry reports whether expiry can be computed.
func (t *TokenSet) HasExpiry() bool {
	return t.SavedAt > 0 && t.ExpiresIn > 0
}

// ExpiresAt returns the absolute expiry time.
func (t *TokenSet) ExpiresAt() time.Time {
	sec := int64(t.SavedAt)
	nsec := int64((t.SavedAt - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).Add(time.Duration(t.ExpiresIn) * time.Second)
}

// Remaining returns the lifetime left at now.
func (t *TokenSet) Remaining(now time.Time) time.Duration {
	return t.ExpiresAt().Sub(now)
}

// Stamp records now as the save time.
func (t *TokenSet) Stamp(now time.Time) {
	t.SavedAt = float64(now.UnixNano()) / 1e9
}

// DeviceCode is shown to the user during device-code login.
type DeviceCode struct {
	UserCode        string
	VerificationURI string
	ExpiresAt       time.Time
	Interval        time.Duration
	Message         string
}

// AuthStatus summarises the cached credentials.
type AuthStatus struct {
	Authenticated   bool          `json:"authenticated"`
	Account         string        `json:"account,omitempty"`
	Name            string        `json:"name,omitempty"`
	ExpiresAt       time.Time     `json:"expires_at,omitempty"`
	Remaining       time.Duration `json:"remaining"`
	HasRefreshToken bool          `json:"has_refresh_token"`
	Scopes          []string      `json:"scopes,omitempty"`
	TokenFile       string        `json:"token_file"`
}

// UserInfo is the signed-in Graph user.
type UserInfo struct {
	ID                string `json:"id"`
	DisplayName       string `json:"display_name"`
	Mail              string `json:"mail,omitempty"`
	UserPrincipalName string `json:"user_principal_name"`
}

// Email returns the mail address, falling back to the UPN.
func (u UserInfo) Email() string {
	if u.Mail != "" {
		return u.Mail
	}
	return u.UserPrincipalName
}
