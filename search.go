package docsearch

import (
	"context"
	"unicode/utf8"
)

// DefaultSearchLimit is the number of results returned when no limit is given.
const DefaultSearchLimit = 10

// SnippetLength is the number of runes of content carried in a result snippet.
const SnippetLength = 200

// ErrQueryTooShort is returned when a query has no qualifying tokens.
var ErrQueryTooShort = Errorf(EINVALID, "Query too short")

// SearchService answers keyword queries against the index.
type SearchService interface {
	// Search returns pages ordered by the summed relevance of the query
	// keywords, highest first; ties are broken by ascending page ID.
	// Returns ErrQueryTooShort if the query has no qualifying tokens.
	Search(ctx context.Context, query string, opts SearchOptions) ([]*SearchResult, error)
}

// SearchOptions configures search behavior.
type SearchOptions struct {
	// Maximum number of results to return. Defaults to DefaultSearchLimit.
	Limit int `json:"limit,omitempty"`
}

// SearchResult is one ranked page.
type SearchResult struct {
	ID             int64   `json:"id"`
	URL            string  `json:"url"`
	Title          string  `json:"title"`
	Content        string  `json:"content"`
	Snippet        string  `json:"snippet"`
	TotalRelevance float64 `json:"total_relevance"`
}

// QueryKeywords tokenizes a query the same way page content is tokenized and
// removes duplicates, keeping first-occurrence order.
// Returns ErrQueryTooShort if no token qualifies.
func QueryKeywords(query string) ([]string, error) {
	seen := make(map[string]struct{})
	var keywords []string
	for _, tok := range Tokenize(query) {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		keywords = append(keywords, tok)
	}
	if len(keywords) == 0 {
		return nil, ErrQueryTooShort
	}
	return keywords, nil
}

// Snippet returns the first SnippetLength runes of content.
func Snippet(content string) string {
	if utf8.RuneCountInString(content) <= SnippetLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:SnippetLength])
}

// EffectiveLimit returns the limit to apply, falling back to DefaultSearchLimit.
func (o SearchOptions) EffectiveLimit() int {
	if o.Limit <= 0 {
		return DefaultSearchLimit
	}
	return o.Limit
}
