// Package goquery implements HTML content extraction with goquery.
package goquery

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/docsearch"
)

// Compile-time interface verification.
var (
	_ docsearch.Extractor             = (*Extractor)(nil)
	_ docsearch.SearchControlDetector = (*Extractor)(nil)
)

// ContentSelectors are tried in order; the first one that matches any
// element provides the page content.
var ContentSelectors = []string{
	"main",
	".main-content",
	"article",
	".documentation-content",
	".content",
	".doc-content",
	".markdown-body",
	".markdown-section",
	".prose",
	".page-content",
}

// MinFallbackLineLength is the rune length a body line needs to survive the
// fallback extraction, which discards navigation and footer fragments.
const MinFallbackLineLength = 30

// noiseSelector matches elements whose text is never page content.
const noiseSelector = "script, style, noscript, template"

// Extractor extracts title, text content and same-host links from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses html fetched from baseURL. Relative links resolve against
// baseURL unless the document declares a <base href>.
func (e *Extractor) Extract(html string, baseURL string) (*docsearch.ExtractResult, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, docsearch.Errorf(docsearch.EINVALID, "invalid base URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, docsearch.Errorf(docsearch.EINVALID, "failed to parse HTML: %v", err)
	}

	doc.Find(noiseSelector).Remove()

	return &docsearch.ExtractResult{
		Title:   strings.TrimSpace(doc.Find("title").First().Text()),
		Content: extractContent(doc),
		Links:   extractLinks(doc, base),
	}, nil
}

func extractContent(doc *goquery.Document) string {
	for _, selector := range ContentSelectors {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			continue
		}
		if content := normalizeText(sel.Text()); content != "" {
			return content
		}
		break
	}

	var lines []string
	for _, line := range strings.Split(normalizeText(doc.Find("body").Text()), "\n") {
		if utf8.RuneCountInString(line) >= MinFallbackLineLength {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// normalizeText collapses whitespace runs within each line to a single
// space, trims lines and drops blank ones.
func normalizeText(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// extractLinks returns links on the page's own host in document order,
// fragment-stripped and deduplicated. A <base href> changes how relative
// references resolve but never which host counts as the site.
func extractLinks(doc *goquery.Document, page *url.URL) []string {
	base := page
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			base = page.ResolveReference(ref)
		}
	}

	seen := make(map[string]struct{})
	links := []string{}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || isNonHTTPLink(href) {
			return
		}

		resolved := resolveURL(base, page.Host, href)
		if resolved == "" {
			return
		}
		if _, ok := seen[resolved]; ok {
			return
		}
		seen[resolved] = struct{}{}
		links = append(links, resolved)
	})
	return links
}

// resolveURL resolves href against base and returns it without fragment.
// Returns empty string for malformed, non-http(s) or URLs not on host.
func resolveURL(base *url.URL, host, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	if resolved.Host == "" || resolved.Host != host {
		return ""
	}
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String()
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(href)
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
