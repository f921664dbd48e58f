// Package dyndns implements the Hurricane Electric dynamic DNS TXT update call.
package dyndns

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultEndpoint is Hurricane Electric's dynamic DNS update endpoint
const DefaultEndpoint = "https://dyn.dns.he.net/nic/update"

// Result holds the provider's raw response and its classification
type Result struct {
	// Body is the full response text, e.g. "good 127.0.0.1" or "badauth"
	Body string

	// OK is true when the provider accepted the update
	OK bool
}

// Status returns the trimmed response text for diagnostics
func (r Result) Status() string {
	return strings.TrimSpace(r.Body)
}

// Classify reports whether a raw response body counts as success.
// The provider answers with a leading status token; only "good" and
// "nochg" mean the record holds the requested value.
func Classify(body string) bool {
	return strings.HasPrefix(body, "good") || strings.HasPrefix(body, "nochg")
}

// Client issues TXT record updates against the dynamic DNS endpoint
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithEndpoint overrides the update endpoint URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient creates a client for the update endpoint
func NewClient(opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Update issues one form-encoded POST rewriting the TXT record.
// Transport errors and non-2xx statuses are returned as errors; a
// provider rejection arrives as a Result with OK=false. There are no
// retries at this layer.
func (c *Client) Update(ctx context.Context, record, password, txt string) (Result, error) {
	form := url.Values{}
	form.Set("hostname", record)
	form.Set("password", password)
	form.Set("txt", txt)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{}, fmt.Errorf("failed to build update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("update request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("update endpoint returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read update response: %w", err)
	}

	return Result{
		Body: string(body),
		OK:   Classify(string(body)),
	}, nil
}
