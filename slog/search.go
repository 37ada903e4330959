package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docsearch"
)

// Ensure LoggingSearchService implements docsearch.SearchService.
var _ docsearch.SearchService = (*LoggingSearchService)(nil)

// LoggingSearchService wraps a SearchService with logging.
type LoggingSearchService struct {
	next   docsearch.SearchService
	logger *slog.Logger
}

// NewLoggingSearchService creates a new LoggingSearchService.
func NewLoggingSearchService(next docsearch.SearchService, logger *slog.Logger) *LoggingSearchService {
	return &LoggingSearchService{next: next, logger: logger}
}

// Search delegates to the wrapped service and logs the query. Rejected
// queries are logged at debug level only.
func (s *LoggingSearchService) Search(ctx context.Context, query string, opts docsearch.SearchOptions) (results []*docsearch.SearchResult, err error) {
	defer func(begin time.Time) {
		level := slog.LevelInfo
		switch {
		case docsearch.ErrorCode(err) == docsearch.EINVALID:
			level = slog.LevelDebug
		case err != nil:
			level = slog.LevelError
		}
		s.logger.Log(ctx, level, "search",
			"query", query,
			"limit", opts.EffectiveLimit(),
			"count", len(results),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Search(ctx, query, opts)
}
