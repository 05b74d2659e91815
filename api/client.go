// Package api implements the HTTP client for the sheet service REST API.
//
// The client speaks JSON over a cookie session. Mutating requests carry the
// server's CSRF token, read from the csrftoken cookie and echoed in the
// X-CSRFToken header. Methods return typed results from the page, todo, and
// session packages, and failures decode into *Error with the server's
// message and field map. The client satisfies page.Gateway, todo.Gateway,
// and session.Gateway.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	csrfCookieName = "csrftoken"
	csrfHeaderName = "X-CSRFToken"

	defaultTimeout = 15 * time.Second
)

// Client calls the sheet service.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the request logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient replaces the underlying HTTP client wholesale.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.http = client }
}

// WithJar replaces the cookie jar, typically with a persistent one so the
// session survives across runs.
func WithJar(jar http.CookieJar) Option {
	return func(c *Client) { c.http.Jar = jar }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.http.Timeout = timeout }
}

// New creates a client for the given address or URL. A bare host:port is
// treated as http.
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errors.New("api: empty base URL")
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	client := &Client{
		baseURL: parsed,
		http:    &http.Client{Timeout: defaultTimeout, Jar: jar},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	return c.do(ctx, http.MethodGet, path, nil, dest)
}

func (c *Client) post(ctx context.Context, path string, payload, dest any) error {
	return c.do(ctx, http.MethodPost, path, payload, dest)
}

func (c *Client) patch(ctx context.Context, path string, payload, dest any) error {
	return c.do(ctx, http.MethodPatch, path, payload, dest)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// do runs one request. A nil payload sends no body; a nil dest discards the
// response body.
func (c *Client) do(ctx context.Context, method, path string, payload, dest any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.attachCSRF(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug().Str("method", method).Str("path", path).Err(err).Msg("api request failed")
		return transportError(err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp)
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// attachCSRF sets the CSRF header on mutating requests. A missing cookie is
// logged but the request still goes out; the server owns the rejection.
func (c *Client) attachCSRF(req *http.Request) {
	switch req.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return
	}
	if token := c.csrfToken(); token != "" {
		req.Header.Set(csrfHeaderName, token)
		return
	}
	c.logger.Warn().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Msg("no csrf cookie, sending mutating request without token")
}

func (c *Client) csrfToken() string {
	if c.http.Jar == nil {
		return ""
	}
	for _, cookie := range c.http.Jar.Cookies(c.baseURL) {
		if cookie.Name == csrfCookieName {
			return cookie.Value
		}
	}
	return ""
}

// paginated is the envelope the server wraps list responses in.
type paginated[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// listAll follows pagination until the last page and returns every result.
func listAll[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var out []T
	for pageNum := 1; ; pageNum++ {
		requestPath := path
		if pageNum > 1 {
			requestPath = fmt.Sprintf("%s?page=%d", path, pageNum)
		}
		var envelope paginated[T]
		if err := c.get(ctx, requestPath, &envelope); err != nil {
			return nil, err
		}
		out = append(out, envelope.Results...)
		if envelope.Next == nil || *envelope.Next == "" {
			return out, nil
		}
	}
}
