package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/docsearch"
)

// Compile-time interface verification.
var _ docsearch.PageService = (*PageService)(nil)

// PageService implements docsearch.PageService using SQLite.
type PageService struct {
	db *DB
}

// NewPageService creates a new PageService.
func NewPageService(db *DB) *PageService {
	return &PageService{db: db}
}

// ReindexPage upserts the page by URL and replaces its index entries in one
// transaction.
func (s *PageService) ReindexPage(ctx context.Context, page *docsearch.Page, entries []docsearch.IndexEntry) error {
	if err := page.Validate(); err != nil {
		return err
	}
	if page.LastCrawledAt.IsZero() {
		page.LastCrawledAt = time.Now().UTC().Truncate(time.Second)
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO pages (url, title, content, content_hash, last_crawled)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			content_hash = excluded.content_hash,
			last_crawled = excluded.last_crawled
		RETURNING id
	`, page.URL, page.Title, page.Content, page.ContentHash,
		page.LastCrawledAt.UTC().Format(time.RFC3339)).Scan(&page.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert page: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM search_index WHERE page_id = ?", page.ID); err != nil {
		return fmt.Errorf("failed to delete index entries: %w", err)
	}

	for i := range entries {
		entries[i].PageID = page.ID
	}
	for start := 0; start < len(entries); start += docsearch.IndexBatchSize {
		batch := entries[start:min(start+docsearch.IndexBatchSize, len(entries))]
		args := make([]any, 0, len(batch)*3)
		for _, e := range batch {
			args = append(args, e.PageID, e.Keyword, e.Relevance)
		}
		query := "INSERT INTO search_index (page_id, keyword, relevance) VALUES " + valuesPlaceholders(len(batch), 3)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert index entries: %w", err)
		}
	}

	return tx.Commit()
}

// FindPageByURL retrieves a page by URL.
func (s *PageService) FindPageByURL(ctx context.Context, url string) (*docsearch.Page, error) {
	pages, err := s.FindPages(ctx, docsearch.PageFilter{URL: &url, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, docsearch.Errorf(docsearch.ENOTFOUND, "page not found")
	}
	return pages[0], nil
}

// FindPages retrieves pages matching the filter, ordered by ID.
func (s *PageService) FindPages(ctx context.Context, filter docsearch.PageFilter) ([]*docsearch.Page, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, url, title, content, content_hash, last_crawled FROM pages WHERE 1=1")

	if filter.URL != nil {
		query.WriteString(" AND url = ?")
		args = append(args, *filter.URL)
	}

	query.WriteString(" ORDER BY id ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []*docsearch.Page
	for rows.Next() {
		var page docsearch.Page
		var lastCrawled string

		if err := rows.Scan(&page.ID, &page.URL, &page.Title, &page.Content, &page.ContentHash, &lastCrawled); err != nil {
			return nil, err
		}

		page.LastCrawledAt, err = parseRFC3339(lastCrawled, "last_crawled")
		if err != nil {
			return nil, err
		}

		pages = append(pages, &page)
	}

	return pages, rows.Err()
}

// FindIndexEntries retrieves the index entries of a page ordered by keyword.
func (s *PageService) FindIndexEntries(ctx context.Context, pageID int64) ([]docsearch.IndexEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT page_id, keyword, relevance
		FROM search_index
		WHERE page_id = ?
		ORDER BY keyword ASC
	`, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []docsearch.IndexEntry
	for rows.Next() {
		var e docsearch.IndexEntry
		if err := rows.Scan(&e.PageID, &e.Keyword, &e.Relevance); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountPages returns the number of stored pages.
func (s *PageService) CountPages(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pages").Scan(&n)
	return n, err
}
