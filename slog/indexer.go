package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docsearch"
)

// Ensure LoggingIndexer implements docsearch.Indexer.
var _ docsearch.Indexer = (*LoggingIndexer)(nil)

// LoggingIndexer wraps an Indexer with logging. Failures are logged at
// error level since they leave a page stale.
type LoggingIndexer struct {
	next   docsearch.Indexer
	logger *slog.Logger
}

// NewLoggingIndexer creates a new LoggingIndexer.
func NewLoggingIndexer(next docsearch.Indexer, logger *slog.Logger) *LoggingIndexer {
	return &LoggingIndexer{next: next, logger: logger}
}

// IndexPage delegates to the wrapped indexer and logs the operation.
func (i *LoggingIndexer) IndexPage(ctx context.Context, url, title, content string) (page *docsearch.Page, err error) {
	defer func(begin time.Time) {
		if err != nil {
			i.logger.Error("index page",
				"url", url,
				"duration", time.Since(begin),
				"err", err,
			)
			return
		}
		i.logger.Info("index page",
			"url", url,
			"id", page.ID,
			"title", title,
			"chars", len(content),
			"duration", time.Since(begin),
		)
	}(time.Now())
	return i.next.IndexPage(ctx, url, title, content)
}
