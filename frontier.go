package docsearch

import "context"

// URLFrontier tracks pending and visited URLs for one crawl session.
type URLFrontier interface {
	// Enqueue adds url unless it is already visited or queued.
	// Returns false if the URL was not added.
	Enqueue(url string) bool

	// DequeueBatch removes and returns up to max pending URLs that are not
	// visited. It does not mark them visited.
	DequeueBatch(max int) []string

	// MarkVisited records url as visited. Idempotent.
	MarkVisited(url string)

	// IsDrained reports whether no URL is pending.
	IsDrained() bool
}

// CrawlLock grants single-flight execution of crawl sessions.
type CrawlLock interface {
	// TryLock acquires the lock without waiting.
	// Returns ECONFLICT if another session holds it.
	TryLock(ctx context.Context) (release func(), err error)
}

// CrawlService starts crawl sessions in the background.
type CrawlService interface {
	// StartCrawl starts a new crawl session and returns its ID without
	// waiting for it to finish. Returns ECONFLICT if single-flight is
	// enforced and a session is already running.
	StartCrawl(ctx context.Context) (sessionID string, err error)
}
