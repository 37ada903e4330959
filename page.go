package docsearch

import (
	"context"
	"time"
)

// Page represents one crawled documentation page. URL is the stable identity;
// a re-crawl overwrites the other fields in place.
type Page struct {
	ID            int64     `json:"id"`
	URL           string    `json:"url"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	ContentHash   string    `json:"contentHash"`
	LastCrawledAt time.Time `json:"lastCrawledAt"`
}

// Validate returns an error if the page contains invalid fields.
func (p *Page) Validate() error {
	if p.URL == "" {
		return Errorf(EINVALID, "page URL required")
	}
	return nil
}

// IndexEntry is the relevance of one keyword to one page.
type IndexEntry struct {
	PageID    int64   `json:"pageId"`
	Keyword   string  `json:"keyword"`
	Relevance float64 `json:"relevance"`
}

// IndexBatchSize bounds the number of index entries written per insert statement.
const IndexBatchSize = 100

// PageService represents a service for managing pages and their index entries.
type PageService interface {
	// ReindexPage upserts the page by URL and replaces all of its index
	// entries with entries. The page ID is assigned on page and on every
	// entry. Implementations run the upsert, the delete and the batched
	// inserts in one transaction.
	ReindexPage(ctx context.Context, page *Page, entries []IndexEntry) error

	// FindPageByURL retrieves a page by URL.
	// Returns ENOTFOUND if the page does not exist.
	FindPageByURL(ctx context.Context, url string) (*Page, error)

	// FindPages retrieves pages matching the filter, ordered by ID.
	FindPages(ctx context.Context, filter PageFilter) ([]*Page, error)

	// FindIndexEntries retrieves all index entries of a page ordered by keyword.
	FindIndexEntries(ctx context.Context, pageID int64) ([]IndexEntry, error)

	// CountPages returns the number of stored pages.
	CountPages(ctx context.Context) (int, error)
}

// PageFilter represents a filter for FindPages.
type PageFilter struct {
	URL *string `json:"url"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// Indexer persists one page's extracted data and rebuilds its keyword relevance.
type Indexer interface {
	// IndexPage upserts the page identified by url and replaces its index
	// entries with the entries derived from content.
	IndexPage(ctx context.Context, url, title, content string) (*Page, error)
}
