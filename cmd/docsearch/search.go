package main

import (
	"fmt"

	"github.com/fwojciec/docsearch"
)

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	results, err := deps.Search.Search(deps.Ctx, c.Query, docsearch.SearchOptions{Limit: c.Limit})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docsearch.ErrorMessage(err))
		return err
	}

	if len(results) == 0 {
		fmt.Fprintf(deps.Stdout, "No results for %q.\n", c.Query)
		return nil
	}

	for i, r := range results {
		title := r.Title
		if title == "" {
			title = r.URL
		}
		fmt.Fprintf(deps.Stdout, "%d. %s (%.4f)\n   %s\n", i+1, title, r.TotalRelevance, r.URL)
		if c.Full {
			fmt.Fprintf(deps.Stdout, "\n%s\n\n", r.Content)
		} else if r.Snippet != "" {
			fmt.Fprintf(deps.Stdout, "   %s\n", r.Snippet)
		}
	}
	return nil
}
