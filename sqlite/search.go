package sqlite

import (
	"context"

	"github.com/fwojciec/docsearch"
)

// Compile-time interface verification.
var _ docsearch.SearchService = (*SearchService)(nil)

// SearchService implements docsearch.SearchService using SQLite.
type SearchService struct {
	db *DB
}

// NewSearchService creates a new SearchService.
func NewSearchService(db *DB) *SearchService {
	return &SearchService{db: db}
}

// Search ranks pages by the summed relevance of the query keywords.
func (s *SearchService) Search(ctx context.Context, query string, opts docsearch.SearchOptions) ([]*docsearch.SearchResult, error) {
	keywords, err := docsearch.QueryKeywords(query)
	if err != nil {
		return nil, err
	}

	args := make([]any, 0, len(keywords)+1)
	for _, kw := range keywords {
		args = append(args, kw)
	}
	args = append(args, opts.EffectiveLimit())

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.url, p.title, p.content, SUM(si.relevance) AS total_relevance
		FROM search_index si
		JOIN pages p ON p.id = si.page_id
		WHERE si.keyword IN (`+inPlaceholders(len(keywords))+`)
		GROUP BY p.id
		ORDER BY total_relevance DESC, p.id ASC
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []*docsearch.SearchResult{}
	for rows.Next() {
		var r docsearch.SearchResult
		if err := rows.Scan(&r.ID, &r.URL, &r.Title, &r.Content, &r.TotalRelevance); err != nil {
			return nil, err
		}
		r.Snippet = docsearch.Snippet(r.Content)
		results = append(results, &r)
	}
	return results, rows.Err()
}
