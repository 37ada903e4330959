package crawl

import (
	"strings"
	"sync"

	"github.com/fwojciec/docsearch"
)

// Compile-time interface verification.
var _ docsearch.URLFrontier = (*Frontier)(nil)

// Frontier is an in-memory FIFO URL frontier for a single crawl session.
// It tracks queued and visited URLs exactly, so no URL is yielded twice.
// It is safe for concurrent use by multiple goroutines.
type Frontier struct {
	mu      sync.Mutex
	queue   []string
	queued  map[string]struct{}
	visited map[string]struct{}
}

// NewFrontier creates an empty Frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		queued:  make(map[string]struct{}),
		visited: make(map[string]struct{}),
	}
}

// Enqueue adds a URL to the back of the queue.
// Returns false if the URL is already queued or visited.
// URL fragments are stripped first - URLs differing only by fragment
// are considered duplicates.
func (f *Frontier) Enqueue(rawURL string) bool {
	url := stripFragment(rawURL)
	if url == "" {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.visited[url]; ok {
		return false
	}
	if _, ok := f.queued[url]; ok {
		return false
	}
	f.queued[url] = struct{}{}
	f.queue = append(f.queue, url)
	return true
}

// DequeueBatch removes up to max URLs from the front of the queue.
// URLs visited since they were queued are dropped rather than returned.
func (f *Frontier) DequeueBatch(max int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var batch []string
	for len(f.queue) > 0 && len(batch) < max {
		url := f.queue[0]
		f.queue[0] = ""
		f.queue = f.queue[1:]
		delete(f.queued, url)

		if _, ok := f.visited[url]; ok {
			continue
		}
		batch = append(batch, url)
	}
	return batch
}

// MarkVisited records a URL as visited.
func (f *Frontier) MarkVisited(rawURL string) {
	url := stripFragment(rawURL)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.visited[url] = struct{}{}
}

// IsDrained reports whether the queue is empty.
func (f *Frontier) IsDrained() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue) == 0
}

// Len returns the number of URLs in the queue.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Visited returns the number of URLs marked visited.
func (f *Frontier) Visited() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

func stripFragment(url string) string {
	if idx := strings.Index(url, "#"); idx != -1 {
		return url[:idx]
	}
	return url
}
