package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds every upstream call unless overridden
const DefaultTimeout = 10 * time.Second

// maxResponseBytes caps how much of an upstream body is read
const maxResponseBytes = 10 << 20

// Client talks to the upstream REST API
type Client struct {
	baseURL      string
	httpClient   *http.Client
	timeout      time.Duration
	tokenManager TokenManager
	log          *slog.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithTimeout sets the per-call timeout (0 disables it)
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client. Its transport is used as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for transport failures
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a new upstream API client.
// If tokenManager is nil, only unauthenticated calls succeed (useful for sign-in).
func NewClient(baseURL string, tokenManager TokenManager, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q: scheme and host are required", baseURL)
	}

	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		timeout:      DefaultTimeout,
		tokenManager: tokenManager,
		log:          slog.Default().With(slog.String("component", "api_client")),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Transport: NewMetricsTransport(nil)}
	}
	return c, nil
}

// WithTokenManager returns a shallow copy bound to another token source.
// The HTTP client (and its connection pool) is shared.
func (c *Client) WithTokenManager(tm TokenManager) *Client {
	cp := *c
	cp.tokenManager = tm
	return &cp
}

// TokenManager returns the token manager (useful for handlers)
func (c *Client) TokenManager() TokenManager {
	return c.tokenManager
}

// BaseURL returns the upstream base URL without trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request describes one upstream call
type Request struct {
	Method string
	Path   string
	Body   []byte
	Auth   bool
}

// Response is a fully-read upstream answer
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Do performs the call and reads the whole body. A non-2xx status is not an
// error here; callers decide how to map it. Errors are transport failures,
// ErrNotAuthenticated, or ErrTimeout.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	var token string
	if req.Auth {
		if c.tokenManager == nil {
			return nil, ErrNotAuthenticated
		}
		t, err := c.tokenManager.GetToken()
		if err != nil || t == "" {
			return nil, ErrNotAuthenticated
		}
		token = t
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(callCtx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.wrapTransportError(ctx, req, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.wrapTransportError(ctx, req, err)
	}

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   data,
	}, nil
}

// wrapTransportError tells our own deadline apart from the caller going away
func (c *Client) wrapTransportError(parent context.Context, req Request, err error) error {
	if parent.Err() != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.Path, parent.Err())
	}
	if isTimeout(err) {
		return fmt.Errorf("%w: %s %s after %s", ErrTimeout, req.Method, req.Path, c.timeout)
	}
	return fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
}

// IsTimeout reports whether err is an upstream timeout
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
