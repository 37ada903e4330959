package goquery_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/docsearch"
	"github.com/fwojciec/docsearch/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_Extract_title(t *testing.T) {
	t.Parallel()

	t.Run("uses trimmed title text", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><title>
			Getting Started | Zerops
		</title></head><body><main>Hello</main></body></html>`

		result, err := goquery.NewExtractor().Extract(html, "https://docs.example.com/")

		require.NoError(t, err)
		assert.Equal(t, "Getting Started | Zerops", result.Title)
	})

	t.Run("returns empty title when absent", func(t *testing.T) {
		t.Parallel()

		result, err := goquery.NewExtractor().Extract(`<html><body><main>Hello</main></body></html>`, "https://docs.example.com/")

		require.NoError(t, err)
		assert.Empty(t, result.Title)
	})
}

func TestExtractor_Extract_content(t *testing.T) {
	t.Parallel()

	t.Run("prefers main over later selectors", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<article>Article text</article>
<main>
	<h1>Deploy</h1>
	<p>Run   the    build
	step.</p>
</main>
</body></html>`

		result, err := goquery.NewExtractor().Extract(html, "https://docs.example.com/")

		require.NoError(t, err)
		assert.Equal(t, "Deploy\nRun the build\nstep.", result.Content)
	})

	t.Run("falls through selectors in order", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<div class="prose">Prose text</div>
<div class="markdown-body">Markdown body text</div>
</body></html>`

		result, err := goquery.NewExtractor().Extract(html, "https://docs.example.com/")

		require.NoError(t, err)
		assert.Equal(t, "Markdown body text", result.Content)
	})

	t.Run("removes script and style text", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><style>body { color: red }</style></head><body>
<main>Visible<script>var hidden = 1;</script><noscript>Enable JS</noscript></main>
</body></html>`

		result, err := goquery.NewExtractor().Extract(html, "https://docs.example.com/")

		require.NoError(t, err)
		assert.Equal(t, "Visible", result.Content)
	})

	t.Run("falls back to long body lines when no selector matches", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<div>Home</div>
<div>This paragraph is long enough to be kept as content.</div>
<div>Short footer</div>
<div>` + strings.Repeat("x", 30) + `</div>
<div>` + strings.Repeat("y", 29) + `</div>
</body></html>`

		result, err := goquery.NewExtractor().Extract(html, "https://docs.example.com/")

		require.NoError(t, err)
		assert.Equal(t, "This paragraph is long enough to be kept as content.\n"+strings.Repeat("x", 30), result.Content)
	})

	t.Run("falls back to body when matched selector is blank", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<main>   </main>
<div>Fallback text that is definitely longer than thirty.</div>
</body></html>`

		result, err := goquery.NewExtractor().Extract(html, "https://docs.example.com/")

		require.NoError(t, err)
		assert.Equal(t, "Fallback text that is definitely longer than thirty.", result.Content)
	})

	t.Run("returns empty content for empty page", func(t *testing.T) {
		t.Parallel()

		result, err := goquery.NewExtractor().Extract(`<html><body></body></html>`, "https://docs.example.com/")

		require.NoError(t, err)
		assert.Empty(t, result.Content)
		assert.Empty(t, result.Links)
	})
}

func TestExtractor_Extract_links(t *testing.T) {
	t.Parallel()

	t.Run("keeps same-host links in document order", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<a href="/docs/b">B</a>
<a href="https://docs.example.com/docs/a#setup">A</a>
<a href="c">C</a>
<a href="/docs/b#again">B again</a>
<a href="https://other.example.com/x">External</a>
<a href="https://sub.docs.example.com/y">Subdomain</a>
</body></html>`

		result, err := goquery.NewExtractor().Extract(html, "https://docs.example.com/docs/guide/")

		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://docs.example.com/docs/b",
			"https://docs.example.com/docs/a",
			"https://docs.example.com/docs/guide/c",
		}, result.Links)
	})

	t.Run("skips anchors and non-http schemes", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<a href="">Empty</a>
<a href="#top">Top</a>
<a href="javascript:void(0)">JS</a>
<a href="mailto:team@example.com">Mail</a>
<a href="tel:+123">Phone</a>
<a href="data:text/plain,hi">Data</a>
<a href="ftp://docs.example.com/file">FTP</a>
<a href="/docs/real">Real</a>
</body></html>`

		result, err := goquery.NewExtractor().Extract(html, "https://docs.example.com/")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://docs.example.com/docs/real"}, result.Links)
	})

	t.Run("honours base href", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><base href="/v2/"></head><body>
<a href="intro">Intro</a>
</body></html>`

		result, err := goquery.NewExtractor().Extract(html, "https://docs.example.com/v1/page")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://docs.example.com/v2/intro"}, result.Links)
	})

	t.Run("keeps page host when base href names another host", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><base href="https://mirror.example.org/"></head><body>
<a href="/x">Relative</a>
<a href="https://docs.example.com/keep">Same site</a>
</body></html>`

		result, err := goquery.NewExtractor().Extract(html, "https://docs.example.com/page")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://docs.example.com/keep"}, result.Links)
	})

	t.Run("returns EINVALID for malformed base URL", func(t *testing.T) {
		t.Parallel()

		_, err := goquery.NewExtractor().Extract(`<html></html>`, "://bad")

		assert.Equal(t, docsearch.EINVALID, docsearch.ErrorCode(err))
	})
}

func TestExtractor_DetectSearchControl(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		html     string
		selector string
		found    bool
	}{
		{
			name:     "aria-label containing search",
			html:     `<button aria-label="Open Search">?</button>`,
			selector: `[aria-label="Open Search"]`,
			found:    true,
		},
		{
			name:     "search input type",
			html:     `<input type="search">`,
			selector: `input[type="search"]`,
			found:    true,
		},
		{
			name:     "placeholder",
			html:     `<input type="text" placeholder="Search docs">`,
			selector: `input[placeholder*="search" i]`,
			found:    true,
		},
		{
			name:     "button text",
			html:     `<button>Search</button>`,
			selector: `button:contains("Search")`,
			found:    true,
		},
		{
			name:     "search landmark",
			html:     `<div role="search"></div>`,
			selector: `[role="search"]`,
			found:    true,
		},
		{
			name: "no search control",
			html: `<main><a href="/docs">Docs</a></main>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			selector, found := goquery.NewExtractor().DetectSearchControl(`<html><body>` + tt.html + `</body></html>`)

			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.selector, selector)
		})
	}
}
