package mock

import (
	"context"

	"github.com/fwojciec/docsearch"
)

var _ docsearch.CrawlLock = (*CrawlLock)(nil)

// CrawlLock is a mock implementation of docsearch.CrawlLock.
type CrawlLock struct {
	TryLockFn func(ctx context.Context) (func(), error)
}

func (l *CrawlLock) TryLock(ctx context.Context) (func(), error) {
	return l.TryLockFn(ctx)
}

var _ docsearch.CrawlService = (*CrawlService)(nil)

// CrawlService is a mock implementation of docsearch.CrawlService.
type CrawlService struct {
	StartCrawlFn func(ctx context.Context) (string, error)
}

func (s *CrawlService) StartCrawl(ctx context.Context) (string, error) {
	return s.StartCrawlFn(ctx)
}
