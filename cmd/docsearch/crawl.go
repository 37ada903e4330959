package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/docsearch"
)

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	root := c.URL
	if root == "" {
		root = deps.Config.DocsURL
	}

	result, err := deps.Scheduler.Crawl(deps.Ctx, root, deps.Lock)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docsearch.ErrorMessage(err))
		if result == nil {
			return err
		}
	}

	fmt.Fprintf(deps.Stdout, "Crawled %s: %d visited, %d indexed, %d failed in %s\n",
		root, result.Visited, result.Indexed, result.Failed, result.Duration.Round(time.Millisecond))
	return err
}
