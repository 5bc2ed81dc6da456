// ABOUTME: HTTP client for the internship-placement REST API
// ABOUTME: Attaches bearer tokens, maps failures to typed errors and guards 401 teardown

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/markalston/placement-cli/internal/cache"
	"github.com/markalston/placement-cli/internal/model"
)

// DefaultTimeout bounds every request unless overridden.
const DefaultTimeout = 30 * time.Second

// TokenSource supplies the current access token. An empty token sends no
// Authorization header.
type TokenSource interface {
	AccessToken() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) AccessToken() string { return f() }

// Client is the API client for the placement backend.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu             sync.RWMutex
	tokens         TokenSource
	onUnauthorized func()

	// tearingDown is set when the unauthorized handler fires and cleared by
	// ResetUnauthorized after a successful login.
	tearingDown atomic.Bool

	offers *cache.Cache[model.Page[model.Offer]]
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithDialContext routes connections through dial, e.g. a SOCKS5 jumpbox.
func WithDialContext(dial func(ctx context.Context, network, addr string) (net.Conn, error)) Option {
	return func(c *Client) {
		if dial == nil {
			return
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.DialContext = dial
		c.httpClient.Transport = transport
	}
}

// WithOfferCacheTTL caches offer list responses for ttl. Zero disables it.
func WithOfferCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.offers = cache.New[model.Page[model.Offer]](ttl)
		}
	}
}

// New creates a new API client with the given base URL, e.g.
// http://localhost:8000/api.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// SetTokenSource installs the access-token provider.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	c.tokens = ts
	c.mu.Unlock()
}

// OnUnauthorized registers fn to run when an authenticated request is
// rejected with 401. It fires at most once until ResetUnauthorized is called.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

// ResetUnauthorized re-arms the unauthorized handler.
func (c *Client) ResetUnauthorized() {
	c.tearingDown.Store(false)
}

// Close releases background resources.
func (c *Client) Close() {
	if c.offers != nil {
		c.offers.Stop()
	}
}

func (c *Client) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tokens == nil {
		return ""
	}
	return c.tokens.AccessToken()
}

// request describes a single API call.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
	// raw overrides body with a preencoded payload and content type.
	raw         io.Reader
	contentType string
	// blob marks binary downloads, where 403 is also treated as a lost session.
	blob bool
}

// exemptFromTeardown lists requests whose 401 is reported to the caller
// instead of tearing down the session.
func exemptFromTeardown(path string) bool {
	return strings.Contains(path, "/auth/login/") ||
		strings.Contains(path, "/auth/register/") ||
		strings.Contains(path, "/auth/logout/") ||
		strings.Contains(path, "/auth/profile/") ||
		strings.Contains(path, "/auth/token/refresh/")
}

func (c *Client) newRequest(ctx context.Context, r request) (*http.Request, error) {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	contentType := r.contentType
	switch {
	case r.raw != nil:
		body = r.raw
	case r.body != nil:
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal input: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if r.blob {
		req.Header.Set("Accept", "*/*")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token := c.accessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// send performs r and returns the response for a 2xx status. Any other
// status is converted to an *APIError and the body is closed.
func (c *Client) send(ctx context.Context, r request) (*http.Response, error) {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.handleRequestError(ctx, r.path, err)
	}
	slog.Debug("API request",
		"method", r.method,
		"path", r.path,
		"status", resp.StatusCode,
		"request_id", req.Header.Get("X-Request-ID"),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := c.handleErrorResponse(r.path, resp)
	lostSession := resp.StatusCode == http.StatusUnauthorized ||
		(r.blob && resp.StatusCode == http.StatusForbidden)
	if lostSession && !exemptFromTeardown(r.path) {
		c.teardown(r.path)
	}
	return nil, apiErr
}

// do performs r and decodes a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, r request, out any) error {
	resp, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response from backend: %w", err)
	}
	return nil
}

// doRaw performs r and returns the response body.
func (c *Client) doRaw(ctx context.Context, r request) ([]byte, error) {
	resp, err := c.send(ctx, r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.handleRequestError(ctx, r.path, err)
	}
	return data, nil
}

func (c *Client) teardown(path string) {
	if !c.tearingDown.CompareAndSwap(false, true) {
		return
	}
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()

	slog.Warn("Session rejected by backend", "path", path)
	if fn != nil {
		fn()
	}
}

// handleRequestError converts transport and context errors to an *APIError.
func (c *Client) handleRequestError(ctx context.Context, path string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return &APIError{Kind: KindCanceled, Path: path, msg: "request canceled", err: err}
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &APIError{Kind: KindTransient, Path: path, msg: "request timed out", err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &APIError{Kind: KindTransient, Path: path, msg: "request timed out", err: err}
	}
	return &APIError{
		Kind: KindTransient,
		Path: path,
		msg:  fmt.Sprintf("cannot connect to backend at %s", c.baseURL),
		err:  err,
	}
}

// handleErrorResponse parses API error responses.
func (c *Client) handleErrorResponse(path string, resp *http.Response) *APIError {
	apiErr := &APIError{
		Status: resp.StatusCode,
		Kind:   kindForStatus(resp.StatusCode),
		Path:   path,
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil {
		apiErr.Body = data
	}
	return apiErr
}
