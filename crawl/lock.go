package crawl

import (
	"context"
	"sync/atomic"

	"github.com/fwojciec/docsearch"
)

var _ docsearch.CrawlLock = (*LocalLock)(nil)

// LocalLock is an in-process single-flight lock.
// The zero value is unlocked and ready to use.
type LocalLock struct {
	held atomic.Bool
}

// TryLock acquires the lock or returns ECONFLICT without waiting.
func (l *LocalLock) TryLock(_ context.Context) (func(), error) {
	if !l.held.CompareAndSwap(false, true) {
		return nil, docsearch.Errorf(docsearch.ECONFLICT, "crawl already in progress")
	}
	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			l.held.Store(false)
		}
	}, nil
}
