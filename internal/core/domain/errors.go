package domain

import (
	"errors"
	"strings"
)

// Domain errors shared by services, connectors and driving adapters.
var (
	// ErrAuthRequired indicates there is no usable token and the user must log in.
	ErrAuthRequired = errors.New("authentication required")

	// ErrPermission indicates the signed-in account lacks access to the resource.
	ErrPermission = errors.New("permission denied")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates Microsoft Graph throttled the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidInput indicates a bad argument from the caller.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNetwork indicates a transport failure or timeout.
	ErrNetwork = errors.New("network error")

	// ErrNotConfigured indicates required configuration is missing.
	ErrNotConfigured = errors.New("not configured")

	// ErrConflict indicates the target already exists.
	ErrConflict = errors.New("already exists")
)

// Hint returns a remediation suggestion for err, or an empty string.
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConfigured):
		msg := err.Error()
		switch {
		case strings.Contains(msg, "client_id"):
			return "set O365_CLIENT_ID or run `o365 config set auth.client_id <app-id>`"
		case strings.Contains(msg, "tenant"):
			return "set O365_TENANT or run `o365 config set auth.tenant <tenant-id|common>`"
		}
		return "run `o365 config list` to review configuration"
	case errors.Is(err, ErrAuthRequired):
		return "run `o365 auth login`"
	case errors.Is(err, ErrPermission):
		return "check the scopes in ~/.config/o365/config and run `o365 auth login` again"
	case errors.Is(err, ErrRateLimited):
		return "wait a moment and retry"
	case errors.Is(err, ErrNotFound):
		return "check the ID or path; list commands show valid values"
	case errors.Is(err, ErrNetwork):
		return "check your network connection and retry"
	case errors.Is(err, ErrConflict):
		return "pass --overwrite to replace the existing item"
	case errors.Is(err, ErrInvalidInput):
		return "check the command arguments"
	}
	return ""
}
