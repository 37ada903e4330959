// Package index rebuilds the keyword relevance index of crawled pages.
package index

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/docsearch"
)

var _ docsearch.Indexer = (*Indexer)(nil)

// Indexer turns extracted page text into a stored page and its keyword
// relevance entries. It is the only writer of crawl results.
type Indexer struct {
	Pages docsearch.PageService

	// Now returns the crawl timestamp. Defaults to time.Now.
	Now func() time.Time
}

// NewIndexer returns an Indexer that writes through pages.
func NewIndexer(pages docsearch.PageService) *Indexer {
	return &Indexer{Pages: pages, Now: time.Now}
}

// IndexPage upserts the page at url and replaces its index entries. The
// upsert and entry replacement are one storage transaction; on error
// nothing of this page changes.
func (i *Indexer) IndexPage(ctx context.Context, url, title, content string) (*docsearch.Page, error) {
	now := time.Now
	if i.Now != nil {
		now = i.Now
	}

	page := &docsearch.Page{
		URL:           url,
		Title:         title,
		Content:       content,
		ContentHash:   docsearch.HashContent(content),
		LastCrawledAt: now().UTC().Truncate(time.Second),
	}
	if err := page.Validate(); err != nil {
		return nil, err
	}

	entries := docsearch.ComputeRelevance(content)
	if err := i.Pages.ReindexPage(ctx, page, entries); err != nil {
		return nil, fmt.Errorf("reindex %s: %w", url, err)
	}
	return page, nil
}
