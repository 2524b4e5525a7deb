package microsoft

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		expected   error
	}{
		{name: "unauthorised", statusCode: http.StatusUnauthorized, expected: ErrUnauthorised},
		{name: "forbidden", statusCode: http.StatusForbidden, expected: ErrForbidden},
		{name: "not found", statusCode: http.StatusNotFound, expected: ErrNotFound},
		{name: "conflict", statusCode: http.StatusConflict, expected: ErrConflict},
		{name: "gone", statusCode: http.StatusGone, expected: ErrGone},
		{name: "rate limited", statusCode: http.StatusTooManyRequests, expected: ErrRateLimited},
		{name: "bad request", statusCode: http.StatusBadRequest, expected: ErrBadRequest},
		{name: "internal server error", statusCode: http.StatusInternalServerError, expected: ErrServerError},
		{name: "service unavailable", statusCode: http.StatusServiceUnavailable, expected: ErrServerError},
		{name: "success returns nil", statusCode: http.StatusOK, expected: nil},
		{name: "created returns nil", statusCode: http.StatusCreated, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := WrapError(tt.statusCode)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		sentinel   error
		domainErr  error
	}{
		{"401 needs login", http.StatusUnauthorized, ErrUnauthorised, domain.ErrAuthRequired},
		{"403 permission", http.StatusForbidden, ErrForbidden, domain.ErrPermission},
		{"404 not found", http.StatusNotFound, ErrNotFound, domain.ErrNotFound},
		{"409 conflict", http.StatusConflict, ErrConflict, domain.ErrConflict},
		{"410 gone", http.StatusGone, ErrGone, domain.ErrNotFound},
		{"429 throttled", http.StatusTooManyRequests, ErrRateLimited, domain.ErrRateLimited},
		{"400 invalid", http.StatusBadRequest, ErrBadRequest, domain.ErrInvalidInput},
		{"502 server", http.StatusBadGateway, ErrServerError, domain.ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error = &APIError{StatusCode: tt.statusCode, Code: "code", Message: "msg"}

			assert.ErrorIs(t, err, tt.sentinel)
			assert.ErrorIs(t, err, tt.domainErr)
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{StatusCode: 404, Code: "ErrorItemNotFound", Message: "The specified object was not found."}
	assert.Equal(t, "graph API returned 404 ErrorItemNotFound: The specified object was not found.", err.Error())

	bare := &APIError{StatusCode: 500}
	assert.Equal(t, "graph API returned 500", bare.Error())
}

func TestAPIError_As(t *testing.T) {
	var err error = &APIError{StatusCode: 429, RetryAfter: 3 * time.Second}
	wrapped := errors.Join(errors.New("list messages"), err)

	var apiErr *APIError
	assert.True(t, errors.As(wrapped, &apiErr))
	assert.Equal(t, 3*time.Second, apiErr.RetryAfter)
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(http.StatusTooManyRequests))
	assert.False(t, IsRateLimited(http.StatusOK))
	assert.False(t, IsRateLimited(http.StatusUnauthorized))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		expected   bool
	}{
		{name: "rate limited is retryable", statusCode: http.StatusTooManyRequests, expected: true},
		{name: "service unavailable is retryable", statusCode: http.StatusServiceUnavailable, expected: true},
		{name: "gateway timeout is retryable", statusCode: http.StatusGatewayTimeout, expected: true},
		{name: "unauthorised is not retryable", statusCode: http.StatusUnauthorized, expected: false},
		{name: "not found is not retryable", statusCode: http.StatusNotFound, expected: false},
		{name: "internal server error is not retryable", statusCode: http.StatusInternalServerError, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.statusCode))
		})
	}
}
