package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/docsearch"
	"github.com/fwojciec/docsearch/config"
	"github.com/fwojciec/docsearch/crawl"
	docsprom "github.com/fwojciec/docsearch/prometheus"
	promclient "github.com/prometheus/client_golang/prometheus"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Config *config.Config
	Logger *slog.Logger

	Pages  docsearch.PageService
	Search docsearch.SearchService

	// Crawl pipeline, wired only for serve and crawl.
	Scheduler *crawl.Scheduler
	Lock      docsearch.CrawlLock

	Registry *promclient.Registry
	Metrics  *docsprom.Metrics
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	EnvFile string `name:"env-file" default:".env" help:"Optional dotenv file read before the environment"`

	Serve  ServeCmd  `cmd:"" help:"Serve the search API and crawl on a schedule"`
	Crawl  CrawlCmd  `cmd:"" help:"Run one crawl session in the foreground"`
	Search SearchCmd `cmd:"" help:"Search the index"`
	Pages  PagesCmd  `cmd:"" help:"List indexed pages"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct{}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	URL string `arg:"" optional:"" help:"Root URL (defaults to DOCS_URL)"`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Query string `arg:"" help:"Search query"`
	Limit int    `short:"n" default:"10" help:"Maximum number of results"`
	Full  bool   `help:"Show full page content"`
}

// PagesCmd is the "pages" subcommand.
type PagesCmd struct {
	Offset int `help:"Number of pages to skip"`
	Limit  int `default:"50" help:"Maximum number of pages to list (0 lists all)"`
}
