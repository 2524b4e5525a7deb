package microsoft

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ServiceType identifies a Microsoft Graph workload for rate limiting purposes.
// Graph throttles each workload separately, so one limiter exists per type.
type ServiceType string

const (
	// ServiceMail is the Outlook mail workload.
	ServiceMail ServiceType = "mail"
	// ServiceCalendar is the Outlook calendar workload.
	ServiceCalendar ServiceType = "calendar"
	// ServiceChat is the Teams chat workload.
	ServiceChat ServiceType = "chat"
	// ServiceFiles is the OneDrive and SharePoint workload.
	ServiceFiles ServiceType = "files"
	// ServiceContacts is the Outlook contacts workload.
	ServiceContacts ServiceType = "contacts"
	// ServiceDirectory covers /me and directory lookups.
	ServiceDirectory ServiceType = "directory"
)

// RateLimitConfig holds rate limiting configuration for a service.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// defaultRateLimit applies to every workload.
// Graph allows roughly 10,000 requests per 10 minutes per app and mailbox.
var defaultRateLimit = RateLimitConfig{RequestsPerSecond: 10.0, BurstSize: 15}

// DefaultRateLimits overrides defaultRateLimit per workload.
var DefaultRateLimits = map[ServiceType]RateLimitConfig{
	ServiceMail:     defaultRateLimit,
	ServiceCalendar: defaultRateLimit,
	ServiceChat:     {RequestsPerSecond: 5.0, BurstSize: 10},
	ServiceFiles:    defaultRateLimit,
}

// defaultBackoff is used when a 429 carries no usable Retry-After.
const defaultBackoff = 60 * time.Second

// RateLimiter provides rate limiting for Microsoft Graph API requests.
// It uses a token bucket algorithm with optional backoff for 429 responses.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	service ServiceType
}

// NewRateLimiter creates a new rate limiter for the specified service.
func NewRateLimiter(service ServiceType) *RateLimiter {
	cfg, ok := DefaultRateLimits[service]
	if !ok {
		cfg = defaultRateLimit
	}
	rl := NewRateLimiterWithConfig(cfg)
	rl.service = service
	return rl
}

// NewRateLimiterWithConfig creates a rate limiter with custom configuration.
func NewRateLimiterWithConfig(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}
}

// Wait blocks until a request can be made without exceeding the rate limit.
// It also respects any backoff period set by RecordRateLimitError.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordRateLimitError sets a backoff period after a 429 response.
// A non-positive delay falls back to 60 seconds.
func (r *RateLimiter) RecordRateLimitError(delay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if delay <= 0 {
		delay = defaultBackoff
	}
	r.retryAt = time.Now().Add(delay)
}

// BackoffRemaining returns how long requests are held after a 429.
func (r *RateLimiter) BackoffRemaining() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d := time.Until(r.retryAt); d > 0 {
		return d
	}
	return 0
}

// ParseRetryAfter reads a Retry-After header given in seconds or as an
// HTTP date. It returns zero when the header is absent or unparseable.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
