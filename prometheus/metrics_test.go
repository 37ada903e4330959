package prometheus_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/docsearch"
	"github.com/fwojciec/docsearch/crawl"
	"github.com/fwojciec/docsearch/mock"
	docsprom "github.com/fwojciec/docsearch/prometheus"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observer(t *testing.T) {
	t.Parallel()

	m := docsprom.NewMetrics(prometheus.NewRegistry())

	m.SessionStarted("s1")
	assert.InDelta(t, 1, testutil.ToFloat64(m.ActiveCrawls), 0)

	m.PageProcessed(crawl.OutcomeIndexed)
	m.PageProcessed(crawl.OutcomeIndexed)
	m.PageProcessed(crawl.OutcomeFetchFailed)
	m.Progress(2, 7)

	assert.InDelta(t, 2, testutil.ToFloat64(m.PagesTotal.WithLabelValues(crawl.OutcomeIndexed)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.PagesTotal.WithLabelValues(crawl.OutcomeFetchFailed)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.InFlight), 0)
	assert.InDelta(t, 7, testutil.ToFloat64(m.Pending), 0)

	m.SessionFinished("s1", &crawl.Result{Visited: 3}, nil)
	assert.InDelta(t, 0, testutil.ToFloat64(m.ActiveCrawls), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SessionsTotal.WithLabelValues("ok")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.SessionPages))
}

func TestMetrics_observes_crawl_session(t *testing.T) {
	t.Parallel()

	m := docsprom.NewMetrics(prometheus.NewRegistry())
	sched := &crawl.Scheduler{
		Fetcher: &mock.Fetcher{
			FetchFn: func(context.Context, string) (string, error) { return "<html></html>", nil },
		},
		Extractor: &mock.Extractor{
			ExtractFn: func(string, string) (*docsearch.ExtractResult, error) {
				return &docsearch.ExtractResult{}, nil
			},
		},
		Indexer: &mock.Indexer{
			IndexPageFn: func(_ context.Context, url, _, _ string) (*docsearch.Page, error) {
				return &docsearch.Page{URL: url}, nil
			},
		},
		Observer: m,
	}

	_, err := sched.NewSession("https://docs.example.com/").Run(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(m.PagesTotal.WithLabelValues(crawl.OutcomeIndexed)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SessionsTotal.WithLabelValues("ok")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.ActiveCrawls), 0)
}

func TestInstrumentedSearchService(t *testing.T) {
	t.Parallel()

	m := docsprom.NewMetrics(prometheus.NewRegistry())
	calls := 0
	svc := docsprom.NewInstrumentedSearchService(&mock.SearchService{
		SearchFn: func(context.Context, string, docsearch.SearchOptions) ([]*docsearch.SearchResult, error) {
			calls++
			switch calls {
			case 1:
				return nil, nil
			case 2:
				return nil, docsearch.ErrQueryTooShort
			default:
				return nil, errors.New("boom")
			}
		},
	}, m)

	for range 3 {
		_, _ = svc.Search(context.Background(), "q", docsearch.SearchOptions{})
	}

	assert.Equal(t, 3, testutil.CollectAndCount(m.SearchDuration))
}

func TestInstrumentedFetcherAndIndexer(t *testing.T) {
	t.Parallel()

	m := docsprom.NewMetrics(prometheus.NewRegistry())
	fetcher := docsprom.NewInstrumentedFetcher(&mock.Fetcher{
		FetchFn: func(context.Context, string) (string, error) { return "", errors.New("timeout") },
		CloseFn: func() error { return nil },
	}, m)
	indexer := docsprom.NewInstrumentedIndexer(&mock.Indexer{
		IndexPageFn: func(_ context.Context, url, _, _ string) (*docsearch.Page, error) {
			return &docsearch.Page{URL: url}, nil
		},
	}, m)

	_, err := fetcher.Fetch(context.Background(), "https://docs.example.com/")
	require.Error(t, err)
	require.NoError(t, fetcher.Close())
	_, err = indexer.IndexPage(context.Background(), "https://docs.example.com/", "", "")
	require.NoError(t, err)

	assert.Equal(t, 1, testutil.CollectAndCount(m.FetchDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(m.IndexDuration))
}

func TestMetrics_Middleware(t *testing.T) {
	t.Parallel()

	m := docsprom.NewMetrics(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/search", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, target := range []string{"/api/search?query=a", "/api/search?query=b", "/health"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	assert.InDelta(t, 2, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/api/search", "GET", "400")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/health", "GET", "200")), 0)
}
