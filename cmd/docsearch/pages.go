package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/docsearch"
)

// Run executes the pages command.
func (c *PagesCmd) Run(deps *Dependencies) error {
	total, err := deps.Pages.CountPages(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docsearch.ErrorMessage(err))
		return err
	}

	pages, err := deps.Pages.FindPages(deps.Ctx, docsearch.PageFilter{Offset: c.Offset, Limit: c.Limit})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docsearch.ErrorMessage(err))
		return err
	}

	if total == 0 {
		fmt.Fprintln(deps.Stdout, "No pages indexed. Use 'docsearch crawl' to index the documentation.")
		return nil
	}

	fmt.Fprintf(deps.Stdout, "Indexed pages (%d total):\n\n", total)
	for _, p := range pages {
		fmt.Fprintf(deps.Stdout, "%5d  %s  %s\n       %s\n", p.ID, p.LastCrawledAt.Format(time.DateTime), p.URL, p.Title)
	}
	return nil
}
