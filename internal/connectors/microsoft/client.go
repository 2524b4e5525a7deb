package microsoft

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// DefaultBaseURL is the Microsoft Graph v1.0 endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// DefaultTimeout bounds a single Graph request.
const DefaultTimeout = 60 * time.Second

// Client is an authenticated Microsoft Graph client shared by the
// resource connectors.
type Client struct {
	baseURL string
	tokens  driven.TokenProvider
	http    *http.Client

	mu       sync.Mutex
	limiters map[ServiceType]*RateLimiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// NewClient creates a Graph client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, tokens driven.TokenProvider, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		tokens:   tokens,
		http:     &http.Client{Timeout: DefaultTimeout},
		limiters: make(map[ServiceType]*RateLimiter),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the Graph endpoint the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) limiter(svc ServiceType) *RateLimiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	rl, ok := c.limiters[svc]
	if !ok {
		rl = NewRateLimiter(svc)
		c.limiters[svc] = rl
	}
	return rl
}

// Get performs a GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, svc ServiceType, path string, query url.Values, out any) error {
	return c.Do(ctx, svc, http.MethodGet, path, query, nil, out)
}

// Post sends body as JSON and decodes the response into out when non-nil.
func (c *Client) Post(ctx context.Context, svc ServiceType, path string, body, out any) error {
	return c.Do(ctx, svc, http.MethodPost, path, nil, body, out)
}

// Patch sends body as JSON and decodes the response into out when non-nil.
func (c *Client) Patch(ctx context.Context, svc ServiceType, path string, body, out any) error {
	return c.Do(ctx, svc, http.MethodPatch, path, nil, body, out)
}

// Delete removes the resource at path.
func (c *Client) Delete(ctx context.Context, svc ServiceType, path string) error {
	return c.Do(ctx, svc, http.MethodDelete, path, nil, nil, nil)
}

// Do performs a JSON request. path is relative to the base URL, or an
// absolute URL such as an @odata.nextLink, in which case query is ignored.
func (c *Client) Do(ctx context.Context, svc ServiceType, method, path string, query url.Values, body, out any) error {
	r := request{method: method, url: c.resolve(path, query), accept: "application/json"}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		r.body = data
		r.contentType = "application/json"
	}

	resp, err := c.send(ctx, svc, r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", domain.ErrNetwork, err)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}

// Download streams the body at path into w and returns the bytes written.
func (c *Client) Download(ctx context.Context, svc ServiceType, path string, w io.Writer) (int64, error) {
	resp, err := c.send(ctx, svc, request{method: http.MethodGet, url: c.resolve(path, nil), accept: "*/*"})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("%w: download: %w", domain.ErrNetwork, err)
	}
	return n, nil
}

// GetRaw returns the raw body at path, such as a MIME message or a transcript.
func (c *Client) GetRaw(ctx context.Context, svc ServiceType, path string) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := c.Download(ctx, svc, path, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PutContent uploads raw content and decodes the JSON response into out.
func (c *Client) PutContent(
	ctx context.Context,
	svc ServiceType,
	path string,
	query url.Values,
	contentType string,
	content []byte,
	out any,
) error {
	resp, err := c.send(ctx, svc, request{
		method:      http.MethodPut,
		url:         c.resolve(path, query),
		accept:      "application/json",
		contentType: contentType,
		body:        content,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode upload response: %w", err)
	}
	return nil
}

type request struct {
	method      string
	url         string
	accept      string
	contentType string
	body        []byte
}

// send executes r, retrying once when Graph throttles or is briefly
// unavailable. The caller closes the response body on success.
func (c *Client) send(ctx context.Context, svc ServiceType, r request) (*http.Response, error) {
	limiter := c.limiter(svc)

	for attempt := 0; ; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		token, err := c.tokens.GetToken(ctx)
		if err != nil {
			return nil, err
		}

		var body io.Reader
		if r.body != nil {
			body = bytes.NewReader(r.body)
		}
		req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", r.accept)
		req.Header.Set("Prefer", `outlook.timezone="UTC"`)
		if r.contentType != "" {
			req.Header.Set("Content-Type", r.contentType)
		}
		if needsEventualConsistency(req.URL) {
			req.Header.Set("ConsistencyLevel", "eventual")
		}

		logger.Debug("microsoft-graph: %s %s", r.method, req.URL.Redacted())
		resp, err := c.http.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: %s %s: %w", domain.ErrNetwork, r.method, req.URL.Path, err)
		}

		if resp.StatusCode < http.StatusMultipleChoices {
			return resp, nil
		}

		apiErr := readAPIError(resp)
		if IsRateLimited(resp.StatusCode) || apiErr.RetryAfter > 0 {
			limiter.RecordRateLimitError(apiErr.RetryAfter)
		}
		if attempt == 0 && IsRetryable(resp.StatusCode) {
			logger.Debug("microsoft-graph: %d from %s, retrying in %s",
				resp.StatusCode, req.URL.Path, limiter.BackoffRemaining().Round(time.Second))
			continue
		}
		logger.Debug("microsoft-graph: %s", apiErr)
		return nil, apiErr
	}
}

// readAPIError drains and closes resp.Body.
func readAPIError(resp *http.Response) *APIError {
	defer resp.Body.Close()

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}
	var body graphErrorBody
	if json.Unmarshal(data, &body) == nil && body.Error.Code != "" {
		apiErr.Code = body.Error.Code
		apiErr.Message = body.Error.Message
	} else if text := strings.TrimSpace(string(data)); text != "" && len(text) < 512 {
		apiErr.Message = text
	}
	return apiErr
}

func needsEventualConsistency(u *url.URL) bool {
	q := u.Query()
	return q.Has("$search") || q.Get("$count") == "true"
}

func (c *Client) resolve(path string, query url.Values) string {
	if strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.baseURL + path
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		u += sep + query.Encode()
	}
	return u
}

type page[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

// ListAll fetches path and follows @odata.nextLink until the collection is
// exhausted. Callers apply their own limit to the aggregated result.
func ListAll[T any](ctx context.Context, c *Client, svc ServiceType, path string, query url.Values) ([]T, error) {
	return ListAtLeast[T](ctx, c, svc, path, query, 0)
}

// ListAtLeast follows @odata.nextLink until at least want items have been
// aggregated or the collection ends. A non-positive want reads every page.
// Whole pages are kept; the caller applies the limit.
func ListAtLeast[T any](
	ctx context.Context,
	c *Client,
	svc ServiceType,
	path string,
	query url.Values,
	want int,
) ([]T, error) {
	var all []T
	next := c.resolve(path, query)
	for next != "" {
		var p page[T]
		if err := c.Get(ctx, svc, next, nil, &p); err != nil {
			return nil, err
		}
		all = append(all, p.Value...)
		if want > 0 && len(all) >= want {
			break
		}
		if p.NextLink == next {
			return nil, errors.New("microsoft-graph: pagination did not advance")
		}
		next = p.NextLink
	}
	return all, nil
}

// ApplyLimit returns the first limit items. A non-positive limit keeps all.
func ApplyLimit[T any](items []T, limit int) []T {
	if limit <= 0 || len(items) <= limit {
		return items
	}
	return items[:limit]
}

// EscapePath escapes each segment of a slash-separated drive path.
func EscapePath(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// ODataString quotes s for use inside an OData string literal.
func ODataString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// ODataTime formats t for OData filters.
func ODataTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}
