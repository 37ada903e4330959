package docsearch

import (
	"context"
	"fmt"
)

// Fetcher retrieves the raw content of one URL.
type Fetcher interface {
	// Fetch makes a single attempt to retrieve url and returns its body.
	// Network errors, timeouts and non-success statuses are reported as
	// *FetchError. The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases resources held by the fetcher.
	Close() error
}

// FetchError reports a failed retrieval of one URL.
// StatusCode is zero when no HTTP response was received.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
