package main

import (
	"fmt"

	"github.com/fwojciec/docsearch/crawl"
	docshttp "github.com/fwojciec/docsearch/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run executes the serve command. It blocks until the context is canceled.
func (c *ServeCmd) Run(deps *Dependencies) error {
	cfg := deps.Config

	trigger := crawl.NewTrigger(deps.Scheduler, cfg.DocsURL)
	trigger.Lock = deps.Lock
	trigger.Interval = cfg.CrawlInterval()
	defer trigger.Close()

	server := docshttp.NewServer()
	server.Addr = fmt.Sprintf(":%d", cfg.Port)
	server.SourceName = cfg.SourceName
	server.Logger = deps.Logger
	server.SearchService = deps.Search
	server.CrawlService = trigger
	server.Instrument = deps.Metrics.Middleware
	server.MetricsHandler = promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})

	if err := trigger.Open(); err != nil {
		return err
	}
	if err := server.Open(); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", server.Addr, err)
	}
	defer server.Close()

	deps.Logger.Info("server listening", "url", server.URL(), "docs", cfg.DocsURL, "interval", trigger.Interval)

	if cfg.CrawlOnStart {
		n, err := deps.Pages.CountPages(deps.Ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			id, err := trigger.StartCrawl(deps.Ctx)
			if err != nil {
				return err
			}
			deps.Logger.Info("index empty, initial crawl started", "session", id)
		}
	}

	<-deps.Ctx.Done()
	deps.Logger.Info("shutting down")
	return nil
}
