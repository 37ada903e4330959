package mock

import "github.com/fwojciec/docsearch"

var (
	_ docsearch.Extractor             = (*Extractor)(nil)
	_ docsearch.SearchControlDetector = (*Extractor)(nil)
)

// Extractor is a mock implementation of docsearch.Extractor and
// docsearch.SearchControlDetector.
type Extractor struct {
	ExtractFn             func(html, baseURL string) (*docsearch.ExtractResult, error)
	DetectSearchControlFn func(html string) (string, bool)
}

func (e *Extractor) Extract(html, baseURL string) (*docsearch.ExtractResult, error) {
	return e.ExtractFn(html, baseURL)
}

// DetectSearchControl reports not found when DetectSearchControlFn is nil.
func (e *Extractor) DetectSearchControl(html string) (string, bool) {
	if e.DetectSearchControlFn == nil {
		return "", false
	}
	return e.DetectSearchControlFn(html)
}
