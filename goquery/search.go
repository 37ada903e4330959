package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// searchControlSelectors are checked after aria-label and placeholder
// matches, in order.
var searchControlSelectors = []string{
	`button:contains("Search")`,
	`input[type="search"]`,
	`input[name="search"]`,
	`.search-button`,
	`#search-button`,
	`[role="search"]`,
}

// DetectSearchControl reports whether html contains a search input or
// button, and the selector that matched.
func (e *Extractor) DetectSearchControl(html string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	if label, ok := attrContaining(doc.Find("[aria-label]"), "aria-label", "search"); ok {
		return `[aria-label="` + label + `"]`, true
	}
	if _, ok := attrContaining(doc.Find("input[placeholder]"), "placeholder", "search"); ok {
		return `input[placeholder*="search" i]`, true
	}
	for _, selector := range searchControlSelectors {
		if doc.Find(selector).Length() > 0 {
			return selector, true
		}
	}
	return "", false
}

// attrContaining returns the first value of attr in sel that contains
// substr, ignoring case.
func attrContaining(sel *goquery.Selection, attr, substr string) (string, bool) {
	var value string
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v := s.AttrOr(attr, "")
		if strings.Contains(strings.ToLower(v), substr) {
			value = v
			return false
		}
		return true
	})
	return value, value != ""
}
