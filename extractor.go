package docsearch

// ExtractResult holds the structured data extracted from a page.
type ExtractResult struct {
	// Title is the page's declared title, or "" if absent.
	Title string

	// Content is the normalized text of the main content region.
	Content string

	// Links are absolute, fragment-free, same-host URLs in document order,
	// without duplicates.
	Links []string
}

// Extractor turns raw page bytes into structured page data.
// Implementations are pure: no I/O and no state.
type Extractor interface {
	// Extract parses html and returns its title, content and links.
	// Relative links are resolved against baseURL and links to another
	// host than baseURL's are dropped.
	Extract(html string, baseURL string) (*ExtractResult, error)
}

// SearchControlDetector reports whether a page exposes a search control.
type SearchControlDetector interface {
	// DetectSearchControl returns the selector that matched, if any.
	DetectSearchControl(html string) (selector string, found bool)
}
