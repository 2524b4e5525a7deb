package microsoft

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/o365-cli/internal/config"
	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

func newTestHandler(t *testing.T, srv *httptest.Server) *OAuthHandler {
	t.Helper()
	cfg := config.Default()
	cfg.ClientID = "client-123"
	cfg.Tenant = "contoso"
	cfg.AuthorityURL = srv.URL
	cfg.Scopes = []string{"User.Read", "offline_access"}

	h := NewOAuthHandler(config.NewHolder(cfg))
	h.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return h
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestOAuthHandler_Refresh(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contoso/oauth2/v2.0/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		form = map[string]string{
			"grant_type":    r.PostForm.Get("grant_type"),
			"client_id":     r.PostForm.Get("client_id"),
			"refresh_token": r.PostForm.Get("refresh_token"),
			"scope":         r.PostForm.Get("scope"),
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  "new-access",
			"refresh_token": "new-refresh",
			"token_type":    "Bearer",
			"scope":         "User.Read",
			"expires_in":    3600,
		})
	}))
	defer srv.Close()

	h := newTestHandler(t, srv)

	tok, err := h.Refresh(context.Background(), "old-refresh")

	require.NoError(t, err)
	assert.Equal(t, "refresh_token", form["grant_type"])
	assert.Equal(t, "client-123", form["client_id"])
	assert.Equal(t, "old-refresh", form["refresh_token"])
	assert.Equal(t, "User.Read offline_access", form["scope"])
	assert.Equal(t, "new-access", tok.AccessToken)
	assert.Equal(t, "new-refresh", tok.RefreshToken)
	assert.Equal(t, int64(3600), tok.ExpiresIn)
	assert.InDelta(t, 1_700_000_000, tok.SavedAt, 0.001)
}

func TestOAuthHandler_Refresh_KeepsOldRefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "new-access", "expires_in": 3600})
	}))
	defer srv.Close()

	tok, err := newTestHandler(t, srv).Refresh(context.Background(), "old-refresh")

	require.NoError(t, err)
	assert.Equal(t, "old-refresh", tok.RefreshToken)
}

func TestOAuthHandler_Refresh_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":             "invalid_grant",
			"error_description": "AADSTS70000: The refresh token has expired.\r\nTrace ID: abc",
		})
	}))
	defer srv.Close()

	_, err := newTestHandler(t, srv).Refresh(context.Background(), "stale")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
	assert.Contains(t, err.Error(), "invalid_grant")
	assert.NotContains(t, err.Error(), "Trace ID")
}

func TestOAuthHandler_Refresh_NotConfigured(t *testing.T) {
	h := NewOAuthHandler(config.NewHolder(config.Default()))

	_, err := h.Refresh(context.Background(), "rt")

	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestOAuthHandler_DeviceLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		switch r.URL.Path {
		case "/contoso/oauth2/v2.0/devicecode":
			assert.Equal(t, "client-123", r.PostForm.Get("client_id"))
			writeJSON(w, http.StatusOK, map[string]any{
				"device_code":      "dev-code",
				"user_code":        "ABCD-EFGH",
				"verification_uri": "https://microsoft.com/devicelogin",
				"expires_in":       900,
				"interval":         1,
			})
		case "/contoso/oauth2/v2.0/token":
			assert.Equal(t, "dev-code", r.PostForm.Get("device_code"))
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token":  "access",
				"refresh_token": "refresh",
				"token_type":    "Bearer",
				"expires_in":    3599,
				"scope":         "User.Read",
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	var shown domain.DeviceCode
	tok, err := newTestHandler(t, srv).DeviceLogin(context.Background(), func(c domain.DeviceCode) {
		shown = c
	})

	require.NoError(t, err)
	assert.Equal(t, "ABCD-EFGH", shown.UserCode)
	assert.Equal(t, "https://microsoft.com/devicelogin", shown.VerificationURI)
	assert.Contains(t, shown.Message, "ABCD-EFGH")
	assert.Equal(t, "access", tok.AccessToken)
	assert.Equal(t, "refresh", tok.RefreshToken)
	assert.Equal(t, "User.Read", tok.Scope)
	assert.True(t, tok.HasExpiry())
}

func TestOAuthHandler_DeviceLogin_Declined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/contoso/oauth2/v2.0/devicecode":
			writeJSON(w, http.StatusOK, map[string]any{
				"device_code":      "dev-code",
				"user_code":        "ABCD",
				"verification_uri": "https://microsoft.com/devicelogin",
				"expires_in":       900,
				"interval":         1,
			})
		default:
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "authorization_declined"})
		}
	}))
	defer srv.Close()

	_, err := newTestHandler(t, srv).DeviceLogin(context.Background(), nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
	assert.Contains(t, err.Error(), "declined")
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "AADSTS1: bad", firstLine("AADSTS1: bad\r\nTrace ID: x"))
	assert.Equal(t, "single", firstLine(" single "))
}
