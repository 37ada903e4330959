package rod

import (
	"context"
	"time"

	"github.com/fwojciec/docsearch"
	"github.com/go-rod/rod/lib/proto"
)

var _ docsearch.Fetcher = (*Fetcher)(nil)

// DefaultFetchTimeout bounds one page load.
const DefaultFetchTimeout = 10 * time.Second

// Fetcher retrieves rendered HTML using a managed headless browser.
// Fetcher is safe for concurrent use.
type Fetcher struct {
	browsers  *BrowserManager
	timeout   time.Duration
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFetchTimeout sets the page load timeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// WithUserAgent overrides the browser's User-Agent.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithRecycleAfter sets how many pages one browser process serves.
func WithRecycleAfter(n int) Option {
	return func(f *Fetcher) { f.browsers.RecycleAfter = n }
}

// NewFetcher launches a headless browser.
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	browsers, err := NewBrowserManager()
	if err != nil {
		return nil, err
	}
	f := &Fetcher{browsers: browsers, timeout: DefaultFetchTimeout}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Fetch navigates to url, waits for the load event and returns the
// rendered document.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &docsearch.FetchError{URL: url, Err: err}
	}

	browser, release, err := f.browsers.Acquire()
	if err != nil {
		return "", err
	}
	defer release()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", &docsearch.FetchError{URL: url, Err: err}
	}
	defer func() { _ = page.Close() }()
	page = page.Context(ctx)

	if f.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.userAgent}); err != nil {
			return "", &docsearch.FetchError{URL: url, Err: err}
		}
	}
	if err := page.Navigate(url); err != nil {
		return "", &docsearch.FetchError{URL: url, Err: fetchErr(ctx, err)}
	}
	if err := page.WaitLoad(); err != nil {
		return "", &docsearch.FetchError{URL: url, Err: fetchErr(ctx, err)}
	}

	html, err := page.HTML()
	if err != nil {
		return "", &docsearch.FetchError{URL: url, Err: fetchErr(ctx, err)}
	}
	return html, nil
}

// Close shuts down the browser.
func (f *Fetcher) Close() error {
	return f.browsers.Close()
}

// LauncherPID returns the process ID of the browser launcher.
func (f *Fetcher) LauncherPID() int {
	return f.browsers.LauncherPID()
}

// fetchErr prefers the context error so callers can match
// context.DeadlineExceeded and context.Canceled.
func fetchErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
