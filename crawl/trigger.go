package crawl

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/fwojciec/docsearch"
)

var _ docsearch.CrawlService = (*Trigger)(nil)

// Trigger starts crawl sessions of Root in the background: on demand via
// StartCrawl and, when Interval is positive, on a ticker. Close cancels
// running sessions and waits for them.
type Trigger struct {
	Scheduler *Scheduler
	Root      string

	// Lock enforces single-flight sessions. Nil allows overlap.
	Lock docsearch.CrawlLock

	// Interval between scheduled sessions. Zero disables the ticker.
	Interval time.Duration

	// OnFinish, if set, is called after each session with its outcome.
	OnFinish func(result *Result, err error)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewTrigger returns a trigger for sessions of root run by sched.
func NewTrigger(sched *Scheduler, root string) *Trigger {
	ctx, cancel := context.WithCancel(context.Background())
	return &Trigger{
		Scheduler: sched,
		Root:      root,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Open starts the interval ticker, if configured.
func (t *Trigger) Open() error {
	if t.Interval <= 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return docsearch.Errorf(docsearch.EINVALID, "crawl trigger is closed")
	}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-t.ctx.Done():
				return
			case <-ticker.C:
				if _, err := t.StartCrawl(t.ctx); err != nil {
					t.Scheduler.logger().Warn("scheduled crawl skipped", "err", err)
				}
			}
		}
	}()
	return nil
}

// StartCrawl takes the lock, starts a session in the background and returns
// its ID. The lock is held until the session finishes. Returns ECONFLICT
// when another session holds the lock.
func (t *Trigger) StartCrawl(ctx context.Context) (string, error) {
	release := func() {}
	if t.Lock != nil {
		r, err := t.Lock.TryLock(ctx)
		if err != nil {
			return "", err
		}
		release = r
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		release()
		return "", docsearch.Errorf(docsearch.EINVALID, "crawl trigger is closed")
	}
	t.wg.Add(1)
	t.mu.Unlock()

	sess := t.Scheduler.NewSession(t.Root)
	go func() {
		defer t.wg.Done()
		defer release()

		result, err := sess.Run(t.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Scheduler.logger().Error("crawl session failed", slog.String("session", sess.ID), "err", err)
		}
		if t.OnFinish != nil {
			t.OnFinish(result, err)
		}
	}()
	return sess.ID, nil
}

// Wait blocks until all running sessions and the ticker have stopped.
// Without a prior Close it returns once no session is running and the
// ticker is disabled.
func (t *Trigger) Wait() {
	t.wg.Wait()
}

// Close cancels running sessions and waits for them to return.
func (t *Trigger) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.cancel()
	t.wg.Wait()
	return nil
}
