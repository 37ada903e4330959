package prometheus

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fwojciec/docsearch"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

var (
	_ docsearch.Fetcher       = (*InstrumentedFetcher)(nil)
	_ docsearch.Indexer       = (*InstrumentedIndexer)(nil)
	_ docsearch.SearchService = (*InstrumentedSearchService)(nil)
)

// InstrumentedFetcher records fetch durations.
type InstrumentedFetcher struct {
	next    docsearch.Fetcher
	metrics *Metrics
}

// NewInstrumentedFetcher wraps next.
func NewInstrumentedFetcher(next docsearch.Fetcher, m *Metrics) *InstrumentedFetcher {
	return &InstrumentedFetcher{next: next, metrics: m}
}

func (f *InstrumentedFetcher) Fetch(ctx context.Context, url string) (html string, err error) {
	defer func(begin time.Time) {
		f.metrics.FetchDuration.WithLabelValues(resultLabel(err)).Observe(time.Since(begin).Seconds())
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

func (f *InstrumentedFetcher) Close() error {
	return f.next.Close()
}

// InstrumentedIndexer records reindex durations.
type InstrumentedIndexer struct {
	next    docsearch.Indexer
	metrics *Metrics
}

// NewInstrumentedIndexer wraps next.
func NewInstrumentedIndexer(next docsearch.Indexer, m *Metrics) *InstrumentedIndexer {
	return &InstrumentedIndexer{next: next, metrics: m}
}

func (i *InstrumentedIndexer) IndexPage(ctx context.Context, url, title, content string) (page *docsearch.Page, err error) {
	defer func(begin time.Time) {
		i.metrics.IndexDuration.WithLabelValues(resultLabel(err)).Observe(time.Since(begin).Seconds())
	}(time.Now())
	return i.next.IndexPage(ctx, url, title, content)
}

// InstrumentedSearchService records search durations. Rejected queries are
// labelled "invalid".
type InstrumentedSearchService struct {
	next    docsearch.SearchService
	metrics *Metrics
}

// NewInstrumentedSearchService wraps next.
func NewInstrumentedSearchService(next docsearch.SearchService, m *Metrics) *InstrumentedSearchService {
	return &InstrumentedSearchService{next: next, metrics: m}
}

func (s *InstrumentedSearchService) Search(ctx context.Context, query string, opts docsearch.SearchOptions) (results []*docsearch.SearchResult, err error) {
	defer func(begin time.Time) {
		label := resultLabel(err)
		if docsearch.ErrorCode(err) == docsearch.EINVALID {
			label = "invalid"
		}
		s.metrics.SearchDuration.WithLabelValues(label).Observe(time.Since(begin).Seconds())
	}(time.Now())
	return s.next.Search(ctx, query, opts)
}

// Middleware records request counts and latency by chi route pattern, so
// query strings and path parameters do not create new series.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		begin := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(route).Observe(time.Since(begin).Seconds())
	})
}
