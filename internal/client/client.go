// Package client talks to a running conversion API over HTTP.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	api "github.com/romanconv/romanconv/api/v1"
	"github.com/romanconv/romanconv/pkg/reqid"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 64 * 1024
)

// Client calls the conversion endpoints of a single server.
type Client struct {
	server     *url.URL
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// APIError is returned for non-2xx responses. Message holds the plain text body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// New returns a client for server, e.g. "http://localhost:8080".
func New(server string, opts ...Option) (*Client, error) {
	u, err := url.Parse(server)
	if err != nil {
		return nil, fmt.Errorf("invalid server format %q: %w", server, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server format %q: scheme must be http or https", server)
	}
	if len(u.Hostname()) == 0 {
		return nil, fmt.Errorf("invalid server format %q: no hostname", server)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	c := &Client{
		server:     u,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ToRoman calls GET /romannumeral.
func (c *Client) ToRoman(ctx context.Context, query string) (*api.ConversionResponse, error) {
	var out api.ConversionResponse
	if err := c.get(ctx, "/romannumeral", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FromRoman calls GET /arabicnumeral.
func (c *Client) FromRoman(ctx context.Context, query string) (*api.ConversionResponse, error) {
	var out api.ConversionResponse
	if err := c.get(ctx, "/arabicnumeral", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var out api.HealthResponse
	if err := c.do(ctx, c.endpoint("/health", nil), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, query string, out any) error {
	return c.do(ctx, c.endpoint(path, url.Values{"query": []string{query}}), out)
}

func (c *Client) endpoint(path string, params url.Values) string {
	u := *c.server
	u.Path += path
	u.RawQuery = params.Encode()
	return u.String()
}

func (c *Client) do(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(middleware.RequestIDHeader, reqid.NextRequestID())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
