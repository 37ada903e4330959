package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/docsearch"
	"github.com/jackc/pgx/v5"
)

// Compile-time interface verification.
var _ docsearch.PageService = (*PageService)(nil)

// PageService implements docsearch.PageService using PostgreSQL.
type PageService struct {
	db *DB
}

// NewPageService creates a new PageService.
func NewPageService(db *DB) *PageService {
	return &PageService{db: db}
}

// ReindexPage upserts the page by URL and replaces its index entries in one
// transaction. Entry inserts are queued as one batch of statements, each
// carrying up to docsearch.IndexBatchSize rows.
func (s *PageService) ReindexPage(ctx context.Context, page *docsearch.Page, entries []docsearch.IndexEntry) error {
	if err := page.Validate(); err != nil {
		return err
	}
	if page.LastCrawledAt.IsZero() {
		page.LastCrawledAt = time.Now().UTC()
	}

	tx, err := s.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO pages (url, title, content, content_hash, last_crawled)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (url) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			content_hash = EXCLUDED.content_hash,
			last_crawled = EXCLUDED.last_crawled
		RETURNING id
	`, page.URL, page.Title, page.Content, page.ContentHash, page.LastCrawledAt).Scan(&page.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert page: %w", err)
	}

	batch := &pgx.Batch{}
	batch.Queue("DELETE FROM search_index WHERE page_id = $1", page.ID)

	for i := range entries {
		entries[i].PageID = page.ID
	}
	for start := 0; start < len(entries); start += docsearch.IndexBatchSize {
		chunk := entries[start:min(start+docsearch.IndexBatchSize, len(entries))]
		keywords := make([]string, len(chunk))
		relevances := make([]float64, len(chunk))
		for i, e := range chunk {
			keywords[i], relevances[i] = e.Keyword, e.Relevance
		}
		batch.Queue(`
			INSERT INTO search_index (page_id, keyword, relevance)
			SELECT $1, unnest($2::text[]), unnest($3::float8[])
		`, page.ID, keywords, relevances)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to replace index entries: %w", err)
	}

	return tx.Commit(ctx)
}

// FindPageByURL retrieves a page by URL.
func (s *PageService) FindPageByURL(ctx context.Context, url string) (*docsearch.Page, error) {
	var page docsearch.Page
	err := s.db.pool.QueryRow(ctx, `
		SELECT id, url, title, content, content_hash, last_crawled
		FROM pages
		WHERE url = $1
	`, url).Scan(&page.ID, &page.URL, &page.Title, &page.Content, &page.ContentHash, &page.LastCrawledAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, docsearch.Errorf(docsearch.ENOTFOUND, "page not found")
	}
	if err != nil {
		return nil, err
	}
	page.LastCrawledAt = page.LastCrawledAt.UTC()
	return &page, nil
}

// FindPages retrieves pages matching the filter, ordered by ID.
func (s *PageService) FindPages(ctx context.Context, filter docsearch.PageFilter) ([]*docsearch.Page, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, url, title, content, content_hash, last_crawled FROM pages WHERE 1=1")
	if filter.URL != nil {
		args = append(args, *filter.URL)
		fmt.Fprintf(&query, " AND url = $%d", len(args))
	}
	query.WriteString(" ORDER BY id ASC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&query, " LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		fmt.Fprintf(&query, " OFFSET $%d", len(args))
	}

	rows, err := s.db.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []*docsearch.Page
	for rows.Next() {
		var page docsearch.Page
		if err := rows.Scan(&page.ID, &page.URL, &page.Title, &page.Content, &page.ContentHash, &page.LastCrawledAt); err != nil {
			return nil, err
		}
		page.LastCrawledAt = page.LastCrawledAt.UTC()
		pages = append(pages, &page)
	}
	return pages, rows.Err()
}

// FindIndexEntries retrieves the index entries of a page ordered by keyword.
func (s *PageService) FindIndexEntries(ctx context.Context, pageID int64) ([]docsearch.IndexEntry, error) {
	rows, err := s.db.pool.Query(ctx, `
		SELECT page_id, keyword, relevance
		FROM search_index
		WHERE page_id = $1
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
	err := s.db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM pages").Scan(&n)
	return n, err
}
