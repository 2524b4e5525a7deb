package services

import (
	"regexp"
	"strings"
)

// applyLimit returns the first n items. A non-positive n keeps all.
func applyLimit[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[:n]
}

var shortIDPattern = regexp.MustCompile(`^[0-9a-f]{8}$`)

// isShortID reports whether id looks like a local index ID.
func isShortID(id string) bool {
	return shortIDPattern.MatchString(strings.ToLower(id))
}

// containsFold reports whether substr is within s, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
