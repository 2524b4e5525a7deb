package microsoft

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

// Error types for Microsoft Graph API responses.
var (
	// ErrUnauthorised indicates the access token is invalid or expired.
	ErrUnauthorised = errors.New("microsoft: unauthorised")

	// ErrForbidden indicates the user lacks permission for the requested resource.
	ErrForbidden = errors.New("microsoft: forbidden")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("microsoft: not found")

	// ErrConflict indicates the target already exists.
	ErrConflict = errors.New("microsoft: conflict")

	// ErrGone indicates the resource or sync state is no longer available.
	ErrGone = errors.New("microsoft: gone")

	// ErrRateLimited indicates the request was throttled by Microsoft Graph.
	ErrRateLimited = errors.New("microsoft: rate limited")

	// ErrBadRequest indicates the request was malformed.
	ErrBadRequest = errors.New("microsoft: bad request")

	// ErrServerError indicates a server-side error from Microsoft Graph.
	ErrServerError = errors.New("microsoft: server error")
)

// WrapError converts an HTTP status code to an appropriate error.
func WrapError(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorised
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusGone:
		return ErrGone
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusBadRequest:
		return ErrBadRequest
	default:
		if statusCode >= 500 {
			return ErrServerError
		}
		return nil
	}
}

// domainError maps a Graph sentinel onto the domain taxonomy.
func domainError(sentinel error) error {
	switch sentinel {
	case ErrUnauthorised:
		return domain.ErrAuthRequired
	case ErrForbidden:
		return domain.ErrPermission
	case ErrNotFound, ErrGone:
		return domain.ErrNotFound
	case ErrConflict:
		return domain.ErrConflict
	case ErrRateLimited:
		return domain.ErrRateLimited
	case ErrBadRequest:
		return domain.ErrInvalidInput
	case ErrServerError:
		return domain.ErrNetwork
	}
	return nil
}

// APIError is a non-2xx Graph response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter time.Duration
}

// Error implements error.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("graph API returned %d", e.StatusCode)
	if e.Code != "" {
		msg += " " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap exposes both the Graph sentinel and the domain error.
func (e *APIError) Unwrap() []error {
	sentinel := WrapError(e.StatusCode)
	if sentinel == nil {
		return nil
	}
	errs := []error{sentinel}
	if d := domainError(sentinel); d != nil {
		errs = append(errs, d)
	}
	return errs
}

// graphErrorBody is the Graph error envelope.
type graphErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// IsRateLimited checks if the status code indicates rate limiting.
func IsRateLimited(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests
}

// IsRetryable checks if the error is potentially transient and can be retried.
func IsRetryable(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusServiceUnavailable ||
		statusCode == http.StatusGatewayTimeout
}
