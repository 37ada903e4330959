// Package http provides the HTTP transport of docsearch: a net/http based
// docsearch.Fetcher for static documentation sites and the API server.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/docsearch"
	"golang.org/x/net/html/charset"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
// Kept consistent with rod.DefaultFetchTimeout (10s).
const DefaultFetchTimeout = 10 * time.Second

// DefaultUserAgent identifies the crawler to documentation sites.
const DefaultUserAgent = "ZeropsDocsMCP/1.0"

// DefaultMaxBodySize caps the bytes read from one response.
const DefaultMaxBodySize = 10 << 20

// ErrRobotsDisallowed is wrapped in the FetchError of a URL excluded by
// the site's robots.txt.
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

// Ensure Fetcher implements docsearch.Fetcher at compile time.
var _ docsearch.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves HTML content from URLs using HTTP requests.
// Unlike rod.Fetcher, this does not execute JavaScript and is suitable
// for static sites only. Bodies are decoded to UTF-8 from the charset the
// response declares.
type Fetcher struct {
	client      *http.Client
	timeout     time.Duration
	userAgent   string
	maxBodySize int64
	robots      *robotsCache
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize caps the number of body bytes read per response.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// WithRobots makes the fetcher honour robots.txt rules for its user agent.
func WithRobots() Option {
	return func(f *Fetcher) {
		f.robots = &robotsCache{}
	}
}

// WithHTTPClient replaces the underlying client. Its Timeout is overridden.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:     DefaultFetchTimeout,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = &http.Client{}
	}
	f.client.Timeout = f.timeout

	return f
}

// Fetch retrieves the HTML content from the given URL in a single attempt.
// Failures are returned as *docsearch.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.robots != nil && !f.robots.allowed(ctx, f.client, f.userAgent, url) {
		return "", &docsearch.FetchError{URL: url, Err: ErrRobotsDisallowed}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &docsearch.FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &docsearch.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &docsearch.FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, f.maxBodySize), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", &docsearch.FetchError{URL: url, Err: err}
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", &docsearch.FetchError{URL: url, Err: err}
	}

	return string(b), nil
}

// Close releases idle connections.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}
