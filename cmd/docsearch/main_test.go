package main_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/docsearch"
	main "github.com/fwojciec/docsearch/cmd/docsearch"
	"github.com/fwojciec/docsearch/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sitePages = map[string]string{
	"/": `<html><head><title>Docs</title></head><body>
		<a href="/deploy">Deploy</a> <a href="/build">Build</a>
		<main>Welcome to the documentation portal</main></body></html>`,
	"/deploy": `<html><head><title>Deploy</title></head><body>
		<main>Deploy your application with zerops deploy</main></body></html>`,
	"/build": `<html><head><title>Build</title></head><body>
		<a href="/">Home</a>
		<main>Configure build pipelines for zerops</main></body></html>`,
}

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		html, ok := sitePages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, html)
	}))
	t.Cleanup(ts.Close)
	return ts
}

// testConfig returns a valid configuration backed by a fresh SQLite file.
func testConfig(t *testing.T, docsURL string) *config.Config {
	t.Helper()
	return &config.Config{
		DatabaseURL:    "sqlite://" + filepath.Join(t.TempDir(), "docs.db"),
		DocsURL:        docsURL,
		MaxConcurrency: 2,
		UserAgent:      "docsearch-test",
		FetchTimeout:   5 * time.Second,
		StoreTimeout:   5 * time.Second,
		Fetcher:        config.FetcherHTTP,
		RespectRobots:  true,
		CrawlOverlap:   config.OverlapSkip,
		LogLevel:       "error",
		LogFormat:      "text",
		SourceName:     "Test Docs",
	}
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, string, error) {
	t.Helper()
	m := main.NewMain()
	m.Config = cfg
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	err := m.Run(context.Background(), args, stdout, stderr)
	return stdout.String(), stderr.String(), err
}

func TestMain_Help(t *testing.T) {
	t.Parallel()

	stdout, _, err := run(t, nil, "--help")

	require.NoError(t, err)
	assert.Contains(t, stdout, "serve")
	assert.Contains(t, stdout, "crawl")
	assert.Contains(t, stdout, "search")
}

func TestMain_NoCommand(t *testing.T) {
	t.Parallel()

	_, _, err := run(t, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no command specified")
}

func TestMain_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "https://docs.example.com")
	cfg.DatabaseURL = ""

	_, stderr, err := run(t, cfg, "pages")

	assert.Equal(t, docsearch.EINVALID, docsearch.ErrorCode(err))
	assert.Contains(t, stderr, "Hint:")
}

func TestCrawlThenSearch(t *testing.T) {
	t.Parallel()

	site := newSite(t)
	cfg := testConfig(t, site.URL+"/")

	stdout, _, err := run(t, cfg, "crawl")
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 visited, 3 indexed, 0 failed")

	stdout, _, err = run(t, cfg, "search", "zerops")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1. Build (0.2500)")
	assert.Contains(t, stdout, "2. Deploy (0.1667)")

	stdout, _, err = run(t, cfg, "search", "pipelines", "--full")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Configure build pipelines for zerops")

	stdout, _, err = run(t, cfg, "pages")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Indexed pages (3 total)")
	assert.Contains(t, stdout, site.URL+"/deploy")
}

func TestSearch_QueryTooShort(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "https://docs.example.com")

	_, stderr, err := run(t, cfg, "search", "a b")

	assert.Equal(t, docsearch.EINVALID, docsearch.ErrorCode(err))
	assert.Contains(t, stderr, "Query too short")
}

func TestSearch_NoResults(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "https://docs.example.com")

	stdout, _, err := run(t, cfg, "search", "kubernetes")

	require.NoError(t, err)
	assert.Contains(t, stdout, "No results")
}

func TestPages_Empty(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "https://docs.example.com")

	stdout, _, err := run(t, cfg, "pages")

	require.NoError(t, err)
	assert.Contains(t, stdout, "No pages indexed")
}

func TestCrawl_InvalidRoot(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "https://docs.example.com")

	_, _, err := run(t, cfg, "crawl", "ftp://docs.example.com")

	assert.Equal(t, docsearch.EINVALID, docsearch.ErrorCode(err))
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestServe(t *testing.T) {
	t.Parallel()

	site := newSite(t)
	cfg := testConfig(t, site.URL+"/")
	cfg.Port = freePort(t)
	cfg.CrawlOnStart = true

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		m := main.NewMain()
		m.Config = cfg
		done <- m.Run(ctx, []string{"serve"}, io.Discard, io.Discard)
	}()

	base := fmt.Sprintf("http://127.0.0.1:%d", cfg.Port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	// The initial crawl runs because the index starts empty.
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/api/search?query=zerops")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK && bytes.Contains(body, []byte("/deploy"))
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "docsearch_crawl_pages_total")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not shut down")
	}
}
