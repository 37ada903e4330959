package docsearch_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/docsearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"lowercases", "Kubernetes DEPLOYMENT", []string{"kubernetes", "deployment"}},
		{"drops short tokens", "a bb ccc dddd", []string{"dddd"}},
		{"splits on punctuation", "zerops.yml, build-pipeline!", []string{"zerops", "build", "pipeline"}},
		{"keeps underscores and digits", "env_var http2 2024", []string{"env_var", "http2", "2024"}},
		{"counts runes not bytes", "café über", []string{"café", "über"}},
		{"keeps duplicates", "node node", []string{"node", "node"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := docsearch.Tokenize(tt.text)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeRelevance(t *testing.T) {
	t.Parallel()

	t.Run("relevance is count over total qualifying tokens", func(t *testing.T) {
		t.Parallel()

		// Ten distinct five-letter words, one of them twice: 11 tokens.
		content := "alpha bravo charl delta echos foxtr golfs hotel india julie alpha"

		entries := docsearch.ComputeRelevance(content)

		require.Len(t, entries, 10)
		byKeyword := make(map[string]float64)
		for _, e := range entries {
			byKeyword[e.Keyword] = e.Relevance
		}
		assert.InDelta(t, 2.0/11.0, byKeyword["alpha"], 1e-12)
		assert.InDelta(t, 1.0/11.0, byKeyword["bravo"], 1e-12)
	})

	t.Run("relevances sum to one", func(t *testing.T) {
		t.Parallel()

		content := strings.Repeat("service deployment zerops project runtime build ", 7) + "unique words appear once here"

		var sum float64
		for _, e := range docsearch.ComputeRelevance(content) {
			sum += e.Relevance
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	})

	t.Run("no entries without qualifying tokens", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, docsearch.ComputeRelevance("a an the of"))
		assert.Empty(t, docsearch.ComputeRelevance(""))
	})

	t.Run("entries are sorted by keyword", func(t *testing.T) {
		t.Parallel()

		entries := docsearch.ComputeRelevance("zeta alpha mike")

		require.Len(t, entries, 3)
		assert.Equal(t, "alpha", entries[0].Keyword)
		assert.Equal(t, "mike", entries[1].Keyword)
		assert.Equal(t, "zeta", entries[2].Keyword)
	})
}

func TestHashContent(t *testing.T) {
	t.Parallel()

	a := docsearch.HashContent("hello")
	b := docsearch.HashContent("hello")
	c := docsearch.HashContent("world")

	assert.Len(t, a, 16)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
