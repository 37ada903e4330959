package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/docsearch"
	docsearchhttp "github.com/fwojciec/docsearch/http"
	"github.com/fwojciec/docsearch/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, search *mock.SearchService, crawl *mock.CrawlService) *httptest.Server {
	t.Helper()
	s := docsearchhttp.NewServer()
	s.SearchService = search
	s.CrawlService = crawl
	s.Now = func() time.Time { return time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC) }
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &mock.SearchService{}, &mock.CrawlService{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]string{"status": "ok"}, decode[map[string]string](t, resp))
}

func TestServer_Search(t *testing.T) {
	t.Parallel()

	t.Run("returns ranked results", func(t *testing.T) {
		t.Parallel()

		var gotOpts docsearch.SearchOptions
		search := &mock.SearchService{
			SearchFn: func(_ context.Context, query string, opts docsearch.SearchOptions) ([]*docsearch.SearchResult, error) {
				assert.Equal(t, "deploy app", query)
				gotOpts = opts
				return []*docsearch.SearchResult{
					{ID: 2, URL: "https://docs.example.com/b", Title: "B", Content: "full", Snippet: "snip", TotalRelevance: 0.75},
				}, nil
			},
		}
		ts := newTestServer(t, search, &mock.CrawlService{})

		resp, err := http.Get(ts.URL + "/api/search?query=deploy+app&limit=3")
		require.NoError(t, err)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decode[docsearchhttp.SearchResponse](t, resp)
		assert.Equal(t, []docsearchhttp.SearchHit{
			{ID: 2, URL: "https://docs.example.com/b", Title: "B", TotalRelevance: 0.75, Snippet: "snip"},
		}, body.Results)
		assert.Equal(t, 3, gotOpts.Limit)
	})

	t.Run("returns empty list when nothing matches", func(t *testing.T) {
		t.Parallel()

		search := &mock.SearchService{
			SearchFn: func(context.Context, string, docsearch.SearchOptions) ([]*docsearch.SearchResult, error) {
				return []*docsearch.SearchResult{}, nil
			},
		}
		ts := newTestServer(t, search, &mock.CrawlService{})

		resp, err := http.Get(ts.URL + "/api/search?query=nothing")
		require.NoError(t, err)
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"results":[]}`, string(raw))
	})

	t.Run("requires query parameter", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t, &mock.SearchService{}, &mock.CrawlService{})

		resp, err := http.Get(ts.URL + "/api/search")
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Query parameter is required", decode[docsearchhttp.ErrorResponse](t, resp).Error)
	})

	t.Run("rejects query without keywords", func(t *testing.T) {
		t.Parallel()

		search := &mock.SearchService{
			SearchFn: func(context.Context, string, docsearch.SearchOptions) ([]*docsearch.SearchResult, error) {
				return nil, docsearch.ErrQueryTooShort
			},
		}
		ts := newTestServer(t, search, &mock.CrawlService{})

		resp, err := http.Get(ts.URL + "/api/search?query=a+b")
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Query too short", decode[docsearchhttp.ErrorResponse](t, resp).Error)
	})

	t.Run("rejects out of range limit", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t, &mock.SearchService{}, &mock.CrawlService{})

		for _, limit := range []string{"0", "51", "ten"} {
			resp, err := http.Get(ts.URL + "/api/search?query=deploy&limit=" + limit)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, limit)
		}
	})

	t.Run("hides internal error details", func(t *testing.T) {
		t.Parallel()

		search := &mock.SearchService{
			SearchFn: func(context.Context, string, docsearch.SearchOptions) ([]*docsearch.SearchResult, error) {
				return nil, errors.New("pq: connection refused")
			},
		}
		ts := newTestServer(t, search, &mock.CrawlService{})

		resp, err := http.Get(ts.URL + "/api/search?query=deploy")
		require.NoError(t, err)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "Internal error", decode[docsearchhttp.ErrorResponse](t, resp).Error)
	})
}

func TestServer_MCP(t *testing.T) {
	t.Parallel()

	post := func(t *testing.T, ts *httptest.Server, body string) *http.Response {
		t.Helper()
		resp, err := http.Post(ts.URL+"/api/mcp", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		return resp
	}

	t.Run("returns contexts with metadata", func(t *testing.T) {
		t.Parallel()

		search := &mock.SearchService{
			SearchFn: func(_ context.Context, query string, opts docsearch.SearchOptions) ([]*docsearch.SearchResult, error) {
				assert.Equal(t, 5, opts.Limit)
				return []*docsearch.SearchResult{
					{ID: 1, URL: "https://docs.example.com/a", Title: "A", Content: "Alpha content", TotalRelevance: 0.5},
				}, nil
			},
		}
		ts := newTestServer(t, search, &mock.CrawlService{})

		resp := post(t, ts, `{"query":"alpha"}`)
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{
			"contexts": [{"title":"A","content":"Alpha content","url":"https://docs.example.com/a","relevance_score":0.5}],
			"metadata": {
				"source": "Zerops Documentation",
				"timestamp": "2026-05-01T10:00:00Z",
				"query": "alpha",
				"count": 1
			}
		}`, string(raw))
	})

	t.Run("reports missing query in metadata", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t, &mock.SearchService{}, &mock.CrawlService{})

		resp := post(t, ts, `{"query":"   "}`)
		body := decode[docsearchhttp.MCPResponse](t, resp)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, body.Contexts)
		assert.Equal(t, "Query is required", body.Metadata["message"])
	})

	t.Run("reports short query in metadata", func(t *testing.T) {
		t.Parallel()

		search := &mock.SearchService{
			SearchFn: func(context.Context, string, docsearch.SearchOptions) ([]*docsearch.SearchResult, error) {
				return nil, docsearch.ErrQueryTooShort
			},
		}
		ts := newTestServer(t, search, &mock.CrawlService{})

		resp := post(t, ts, `{"query":"abc"}`)
		body := decode[docsearchhttp.MCPResponse](t, resp)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotNil(t, body.Contexts)
		assert.Equal(t, "Query too short", body.Metadata["message"])
	})

	t.Run("reports storage error in metadata", func(t *testing.T) {
		t.Parallel()

		search := &mock.SearchService{
			SearchFn: func(context.Context, string, docsearch.SearchOptions) ([]*docsearch.SearchResult, error) {
				return nil, errors.New("database unavailable")
			},
		}
		ts := newTestServer(t, search, &mock.CrawlService{})

		resp := post(t, ts, `{"query":"deploy"}`)
		body := decode[docsearchhttp.MCPResponse](t, resp)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, body.Contexts)
		assert.Equal(t, "database unavailable", body.Metadata["error"])
	})

	t.Run("reports missing query for empty body", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t, &mock.SearchService{}, &mock.CrawlService{})

		resp := post(t, ts, ``)
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"contexts":[],"metadata":{"message":"Query is required"}}`, string(raw))
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t, &mock.SearchService{}, &mock.CrawlService{})

		resp := post(t, ts, `{`)
		resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestServer_Crawl(t *testing.T) {
	t.Parallel()

	t.Run("starts crawl and returns session ID", func(t *testing.T) {
		t.Parallel()

		crawl := &mock.CrawlService{
			StartCrawlFn: func(context.Context) (string, error) { return "session-1", nil },
		}
		ts := newTestServer(t, &mock.SearchService{}, crawl)

		resp, err := http.Post(ts.URL+"/api/crawl", "application/json", nil)
		require.NoError(t, err)

		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		assert.Equal(t, docsearchhttp.CrawlResponse{Message: "Crawl started", SessionID: "session-1"},
			decode[docsearchhttp.CrawlResponse](t, resp))
	})

	t.Run("returns conflict when a crawl is running", func(t *testing.T) {
		t.Parallel()

		crawl := &mock.CrawlService{
			StartCrawlFn: func(context.Context) (string, error) {
				return "", docsearch.Errorf(docsearch.ECONFLICT, "crawl already in progress")
			},
		}
		ts := newTestServer(t, &mock.SearchService{}, crawl)

		resp, err := http.Post(ts.URL+"/api/crawl", "application/json", nil)
		require.NoError(t, err)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "crawl already in progress", decode[docsearchhttp.ErrorResponse](t, resp).Error)
	})
}

func TestServer_CORS(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &mock.SearchService{}, &mock.CrawlService{})

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_Open(t *testing.T) {
	t.Parallel()

	s := docsearchhttp.NewServer()
	s.Addr = "127.0.0.1:0"
	s.SearchService = &mock.SearchService{}
	s.CrawlService = &mock.CrawlService{}
	s.MetricsHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("metrics"))
	})

	require.NoError(t, s.Open())
	defer s.Close()

	assert.NotZero(t, s.Port())

	resp, err := http.Get(s.URL() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "metrics", string(raw))
}
