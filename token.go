package docsearch

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

// MinKeywordLength is the length a token must exceed to qualify as a keyword.
const MinKeywordLength = 3

// Tokenize splits text into qualifying tokens: the text is lowercased, every
// rune that is not a letter, digit or underscore separates tokens, and tokens
// of MinKeywordLength runes or fewer are discarded. Duplicates are kept.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})

	tokens := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) > MinKeywordLength {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// ComputeRelevance derives the index entries of a page from its content.
// Each distinct qualifying token gets relevance count/total, so the
// relevances of a page sum to 1. Content without qualifying tokens yields
// no entries. Entries are sorted by keyword and carry no page ID.
func ComputeRelevance(content string) []IndexEntry {
	tokens := Tokenize(content)
	if len(tokens) == 0 {
		return nil
	}

	counts := make(map[string]int)
	for _, tok := range tokens {
		counts[tok]++
	}

	total := float64(len(tokens))
	entries := make([]IndexEntry, 0, len(counts))
	for kw, n := range counts {
		entries = append(entries, IndexEntry{
			Keyword:   kw,
			Relevance: float64(n) / total,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Keyword < entries[j].Keyword
	})
	return entries
}

// HashContent returns the hex-encoded xxHash of content.
func HashContent(content string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(content))
}
