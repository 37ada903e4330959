package mock

import (
	"context"

	"github.com/fwojciec/docsearch"
)

var _ docsearch.SearchService = (*SearchService)(nil)

// SearchService is a mock implementation of docsearch.SearchService.
type SearchService struct {
	SearchFn func(ctx context.Context, query string, opts docsearch.SearchOptions) ([]*docsearch.SearchResult, error)
}

func (s *SearchService) Search(ctx context.Context, query string, opts docsearch.SearchOptions) ([]*docsearch.SearchResult, error) {
	return s.SearchFn(ctx, query, opts)
}
