package mock

import (
	"context"

	"github.com/fwojciec/docsearch"
)

var _ docsearch.PageService = (*PageService)(nil)

// PageService is a mock implementation of docsearch.PageService.
type PageService struct {
	ReindexPageFn      func(ctx context.Context, page *docsearch.Page, entries []docsearch.IndexEntry) error
	FindPageByURLFn    func(ctx context.Context, url string) (*docsearch.Page, error)
	FindPagesFn        func(ctx context.Context, filter docsearch.PageFilter) ([]*docsearch.Page, error)
	FindIndexEntriesFn func(ctx context.Context, pageID int64) ([]docsearch.IndexEntry, error)
	CountPagesFn       func(ctx context.Context) (int, error)
}

func (s *PageService) ReindexPage(ctx context.Context, page *docsearch.Page, entries []docsearch.IndexEntry) error {
	return s.ReindexPageFn(ctx, page, entries)
}

func (s *PageService) FindPageByURL(ctx context.Context, url string) (*docsearch.Page, error) {
	return s.FindPageByURLFn(ctx, url)
}

func (s *PageService) FindPages(ctx context.Context, filter docsearch.PageFilter) ([]*docsearch.Page, error) {
	return s.FindPagesFn(ctx, filter)
}

func (s *PageService) FindIndexEntries(ctx context.Context, pageID int64) ([]docsearch.IndexEntry, error) {
	return s.FindIndexEntriesFn(ctx, pageID)
}

func (s *PageService) CountPages(ctx context.Context) (int, error) {
	return s.CountPagesFn(ctx)
}

var _ docsearch.Indexer = (*Indexer)(nil)

// Indexer is a mock implementation of docsearch.Indexer.
type Indexer struct {
	IndexPageFn func(ctx context.Context, url, title, content string) (*docsearch.Page, error)
}

func (i *Indexer) IndexPage(ctx context.Context, url, title, content string) (*docsearch.Page, error) {
	return i.IndexPageFn(ctx, url, title, content)
}
