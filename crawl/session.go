// Package crawl provides documentation crawling orchestration.
// It drives bounded-concurrency crawl sessions that fetch, extract and
// index the pages reachable from a single root URL.
package crawl

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/fwojciec/docsearch"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Scheduler defaults.
const (
	DefaultConcurrency  = 5
	DefaultCooldown     = time.Second
	DefaultIndexTimeout = 30 * time.Second
)

// Page outcomes reported to an Observer.
const (
	OutcomeIndexed       = "indexed"
	OutcomeFetchFailed   = "fetch_failed"
	OutcomeExtractFailed = "extract_failed"
	OutcomeIndexFailed   = "index_failed"
)

// Observer receives crawl progress. Implementations must be safe for
// concurrent use; sessions may overlap.
type Observer interface {
	SessionStarted(id string)
	SessionFinished(id string, result *Result, err error)
	PageProcessed(outcome string)
	Progress(inFlight, pending int)
}

// Scheduler holds the collaborators and limits shared by crawl sessions.
// Each session gets its own frontier; nothing in a Scheduler is mutated by
// a session.
type Scheduler struct {
	Fetcher   docsearch.Fetcher
	Extractor docsearch.Extractor
	Indexer   docsearch.Indexer
	Observer  Observer
	Logger    *slog.Logger

	// Concurrency bounds simultaneous fetch-extract-index units.
	Concurrency int

	// Cooldown is the fixed delay between dispatch cycles.
	// Zero disables it.
	Cooldown time.Duration

	// MaxPages stops dispatching after this many URLs. Zero means unlimited.
	MaxPages int

	// IndexTimeout bounds the storage work for one page.
	IndexTimeout time.Duration
}

// Result holds the outcome of a crawl session.
type Result struct {
	SessionID string        `json:"sessionId"`
	Visited   int           `json:"visited"`
	Indexed   int           `json:"indexed"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// Session is one crawl from a root URL to frontier-drained completion.
// A session runs once; a new crawl needs a new session.
type Session struct {
	ID   string
	Root string

	sched    *Scheduler
	frontier *Frontier
	started  atomic.Bool
}

// NewSession returns an idle session seeded with root.
func (s *Scheduler) NewSession(root string) *Session {
	return &Session{
		ID:       uuid.New().String(),
		Root:     root,
		sched:    s,
		frontier: NewFrontier(),
	}
}

// pageResult holds the outcome of processing a single URL.
type pageResult struct {
	url     string
	links   []string
	outcome string
	err     error
}

// Run crawls until the frontier is drained and no unit of work is in
// flight. Per-URL failures are logged and counted, never returned.
// Canceling ctx stops dispatch; in-flight units are awaited and the
// context error is returned with the partial result.
func (sess *Session) Run(ctx context.Context) (*Result, error) {
	if !sess.started.CompareAndSwap(false, true) {
		return nil, docsearch.Errorf(docsearch.EINVALID, "crawl session %s already ran", sess.ID)
	}
	if err := validateRoot(sess.Root); err != nil {
		return nil, err
	}

	s := sess.sched
	logger := s.logger().With("session", sess.ID)
	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	cooldown := rate.NewLimiter(rate.Inf, 1)
	if s.Cooldown > 0 {
		cooldown = rate.NewLimiter(rate.Every(s.Cooldown), 1)
	}

	begin := time.Now()
	result := &Result{SessionID: sess.ID}
	if s.Observer != nil {
		s.Observer.SessionStarted(sess.ID)
	}
	logger.Info("crawl started", "root", sess.Root, "concurrency", concurrency)

	sess.frontier.Enqueue(sess.Root)

	// Workers report to the coordinator, which is the only writer of the
	// frontier and the in-flight counter. The buffer lets every in-flight
	// unit deliver its result without blocking.
	results := make(chan pageResult, concurrency)
	var g errgroup.Group
	g.SetLimit(concurrency)

	inFlight := 0
	dispatched := 0
	canDispatch := func() bool {
		return ctx.Err() == nil &&
			!sess.frontier.IsDrained() &&
			(s.MaxPages <= 0 || dispatched < s.MaxPages)
	}

	for {
		if inFlight < concurrency && canDispatch() {
			if err := cooldown.Wait(ctx); err == nil {
				n := concurrency - inFlight
				if s.MaxPages > 0 && n > s.MaxPages-dispatched {
					n = s.MaxPages - dispatched
				}
				for _, u := range sess.frontier.DequeueBatch(n) {
					sess.frontier.MarkVisited(u)
					inFlight++
					dispatched++
					g.Go(func() error {
						results <- sess.process(ctx, u)
						return nil
					})
				}
				if s.Observer != nil {
					s.Observer.Progress(inFlight, sess.frontier.Len())
				}
			}
		}

		if inFlight == 0 {
			if !canDispatch() {
				break
			}
			continue
		}

		res := <-results
		inFlight--
		sess.handle(logger, res, result)
	}

	_ = g.Wait()

	result.Visited = sess.frontier.Visited()
	result.Duration = time.Since(begin)
	err := ctx.Err()
	if s.Observer != nil {
		s.Observer.Progress(0, 0)
		s.Observer.SessionFinished(sess.ID, result, err)
	}
	logger.Info("crawl finished",
		"visited", result.Visited,
		"indexed", result.Indexed,
		"failed", result.Failed,
		"duration", result.Duration,
		"err", err,
	)
	return result, err
}

// process runs one unit of work: fetch, extract, index.
func (sess *Session) process(ctx context.Context, u string) pageResult {
	s := sess.sched
	result := pageResult{url: u}

	html, err := s.Fetcher.Fetch(ctx, u)
	if err != nil {
		result.outcome, result.err = OutcomeFetchFailed, err
		return result
	}

	if u == sess.Root {
		sess.probeSearchControl(html)
	}

	extracted, err := s.Extractor.Extract(html, u)
	if err != nil {
		result.outcome, result.err = OutcomeExtractFailed, err
		return result
	}
	result.links = extracted.Links

	timeout := s.IndexTimeout
	if timeout <= 0 {
		timeout = DefaultIndexTimeout
	}
	ictx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := s.Indexer.IndexPage(ictx, u, extracted.Title, extracted.Content); err != nil {
		result.outcome, result.err = OutcomeIndexFailed, err
		return result
	}
	result.outcome = OutcomeIndexed
	return result
}

// handle records a finished unit of work and feeds its links to the frontier.
// Links of a page that failed to index are still followed.
func (sess *Session) handle(logger *slog.Logger, res pageResult, result *Result) {
	for _, link := range res.links {
		sess.frontier.Enqueue(link)
	}

	switch res.outcome {
	case OutcomeIndexed:
		result.Indexed++
	case OutcomeFetchFailed:
		result.Failed++
		logger.Warn("fetch failed", "url", res.url, "err", res.err)
	case OutcomeExtractFailed:
		result.Failed++
		logger.Warn("extract failed", "url", res.url, "err", res.err)
	case OutcomeIndexFailed:
		result.Failed++
		logger.Error("index failed", "url", res.url, "err", res.err)
	}

	if s := sess.sched; s.Observer != nil {
		s.Observer.PageProcessed(res.outcome)
	}
}

func (sess *Session) probeSearchControl(html string) {
	detector, ok := sess.sched.Extractor.(docsearch.SearchControlDetector)
	if !ok {
		return
	}
	logger := sess.sched.logger().With("session", sess.ID)
	if selector, found := detector.DetectSearchControl(html); found {
		logger.Info("search control found", "url", sess.Root, "selector", selector)
	} else {
		logger.Info("search control not found, relying on link crawling", "url", sess.Root)
	}
}

func (s *Scheduler) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}

func validateRoot(root string) error {
	u, err := url.Parse(root)
	if err != nil {
		return docsearch.Errorf(docsearch.EINVALID, "invalid root URL %q: %v", root, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return docsearch.Errorf(docsearch.EINVALID, "root URL %q must be an absolute http(s) URL", root)
	}
	return nil
}

// Crawl acquires lock (when non-nil), runs a fresh session from root and
// releases the lock. Returns ECONFLICT if the lock is held elsewhere.
func (s *Scheduler) Crawl(ctx context.Context, root string, lock docsearch.CrawlLock) (*Result, error) {
	if lock != nil {
		release, err := lock.TryLock(ctx)
		if err != nil {
			return nil, err
		}
		defer release()
	}
	result, err := s.NewSession(root).Run(ctx)
	if errors.Is(err, context.Canceled) {
		s.logger().Warn("crawl canceled", "root", root)
	}
	return result, err
}
