// Package gateway fetches word definitions from the remote dictionary provider.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Provider defaults.
const (
	DefaultBaseURL   = "https://api.dictionaryapi.dev/api/v2/entries/en/"
	DefaultUserAgent = "Dictionary webapp."
	DefaultTimeout   = 10 * time.Second
)

const maxBodySize = 4 << 20

// Client performs one GET per word against the provider.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithUserAgent overrides the identifying User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New creates a Client for baseURL. An empty baseURL uses DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: DefaultUserAgent,
		http:      &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ErrProviderUnavailable is returned when the provider is throttling requests
// or failing, whatever the response body says.
var ErrProviderUnavailable = errors.New("gateway: provider unavailable")

// Fetch looks word up at the provider. A well-formed "no such word" answer is
// returned as NotFound with a nil error; transport failures and bodies of
// neither shape are returned as errors.
func (c *Client) Fetch(ctx context.Context, word string) (Result, error) {
	endpoint := c.baseURL + "/" + url.PathEscape(word)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: fetch %q: %w", word, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("gateway: read body: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("gateway: response exceeds %d bytes", maxBodySize)
	}

	// The provider answers unknown words with 404 and the not-found object,
	// so only throttling and server failures are decided by status.
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("gateway: fetch %q: status %d: %w", word, resp.StatusCode, ErrProviderUnavailable)
	}
	res, err := Parse(body)
	if err != nil {
		return nil, fmt.Errorf("gateway: fetch %q (status %d): %w", word, resp.StatusCode, err)
	}
	return res, nil
}
