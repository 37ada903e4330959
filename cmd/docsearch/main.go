package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/docsearch"
	"github.com/fwojciec/docsearch/config"
	"github.com/fwojciec/docsearch/crawl"
	"github.com/fwojciec/docsearch/goquery"
	docshttp "github.com/fwojciec/docsearch/http"
	"github.com/fwojciec/docsearch/index"
	"github.com/fwojciec/docsearch/postgres"
	docsprom "github.com/fwojciec/docsearch/prometheus"
	"github.com/fwojciec/docsearch/redis"
	"github.com/fwojciec/docsearch/rod"
	docslog "github.com/fwojciec/docsearch/slog"
	"github.com/fwojciec/docsearch/sqlite"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Config overrides loading from the environment when set before Run().
	Config *config.Config

	// Storage backends; only one of SQLite and Postgres is open.
	SQLite   *sqlite.DB
	Postgres *postgres.DB
	Redis    *goredis.Client

	// Services for end-to-end testing.
	PageService   docsearch.PageService
	SearchService docsearch.SearchService
}

// NewMain returns a new instance of Main.
func NewMain() *Main {
	return &Main{}
}

// Close releases storage connections.
func (m *Main) Close() error {
	var err error
	if m.Redis != nil {
		err = m.Redis.Close()
	}
	if m.Postgres != nil {
		if e := m.Postgres.Close(); err == nil {
			err = e
		}
	}
	if m.SQLite != nil {
		if e := m.SQLite.Close(); err == nil {
			err = e
		}
	}
	return err
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("docsearch"),
		kong.Description("Crawl a documentation site and serve keyword search over it."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'docsearch --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg := m.Config
	if cfg == nil {
		if cfg, err = config.Load(cli.EnvFile); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, "Hint: settings are read from the environment and from .env")
		return err
	}
	deps.Config = cfg
	deps.Logger = newLogger(cfg, stderr)

	if err := m.openStorage(ctx, cfg); err != nil {
		return err
	}
	defer m.Close()

	deps.Registry = promclient.NewRegistry()
	deps.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.Metrics = docsprom.NewMetrics(deps.Registry)

	deps.Pages = m.PageService
	deps.Search = docsprom.NewInstrumentedSearchService(
		docslog.NewLoggingSearchService(m.SearchService, deps.Logger),
		deps.Metrics,
	)

	if cmd == "serve" || cmd == "crawl" {
		sched, err := newScheduler(cfg, deps.Logger, m.PageService, deps.Metrics)
		if err != nil {
			if cfg.Fetcher == config.FetcherBrowser {
				fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed for FETCHER=browser")
			}
			return err
		}
		defer sched.Fetcher.Close()
		deps.Scheduler = sched

		if deps.Lock, err = m.crawlLock(ctx, cfg, deps.Logger); err != nil {
			return err
		}
	}

	return kongCtx.Run(deps)
}

// openStorage opens the backend named by DATABASE_URL and probes it.
// A failed probe is fatal.
func (m *Main) openStorage(ctx context.Context, cfg *config.Config) error {
	if cfg.IsSQLite() {
		m.SQLite = sqlite.NewDB(cfg.SQLitePath())
		if err := m.SQLite.Open(); err != nil {
			return fmt.Errorf("failed to open database at %q: %w", cfg.SQLitePath(), err)
		}
		if err := m.SQLite.Ping(ctx); err != nil {
			return fmt.Errorf("database probe failed: %w", err)
		}
		m.PageService = sqlite.NewPageService(m.SQLite)
		m.SearchService = sqlite.NewSearchService(m.SQLite)
		return nil
	}

	m.Postgres = postgres.NewDB(cfg.DatabaseURL)
	if err := m.Postgres.Open(ctx); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := m.Postgres.Ping(ctx); err != nil {
		return fmt.Errorf("database probe failed: %w", err)
	}
	m.PageService = postgres.NewPageService(m.Postgres)
	m.SearchService = postgres.NewSearchService(m.Postgres)
	return nil
}

// crawlLock returns the single-flight lock for the configured overlap
// policy, or nil when sessions may overlap.
func (m *Main) crawlLock(ctx context.Context, cfg *config.Config, logger *slog.Logger) (docsearch.CrawlLock, error) {
	if cfg.CrawlOverlap == config.OverlapAllow {
		return nil, nil
	}
	if cfg.RedisURL == "" {
		return &crawl.LocalLock{}, nil
	}
	client, err := redis.Open(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	m.Redis = client
	lock := redis.NewLock(client)
	lock.Logger = logger
	return lock, nil
}

// newScheduler wires the fetch, extract and index pipeline with logging
// and metrics decorators.
func newScheduler(cfg *config.Config, logger *slog.Logger, pages docsearch.PageService, metrics *docsprom.Metrics) (*crawl.Scheduler, error) {
	var fetcher docsearch.Fetcher
	switch cfg.Fetcher {
	case config.FetcherBrowser:
		f, err := rod.NewFetcher(
			rod.WithFetchTimeout(cfg.FetchTimeout),
			rod.WithUserAgent(cfg.UserAgent),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}
		fetcher = f
	default:
		opts := []docshttp.Option{
			docshttp.WithTimeout(cfg.FetchTimeout),
			docshttp.WithUserAgent(cfg.UserAgent),
		}
		if cfg.RespectRobots {
			opts = append(opts, docshttp.WithRobots())
		}
		fetcher = docshttp.NewFetcher(opts...)
	}

	var indexer docsearch.Indexer = index.NewIndexer(pages)
	indexer = docslog.NewLoggingIndexer(indexer, logger)
	indexer = docsprom.NewInstrumentedIndexer(indexer, metrics)

	return &crawl.Scheduler{
		Fetcher:      docsprom.NewInstrumentedFetcher(docslog.NewLoggingFetcher(fetcher, logger), metrics),
		Extractor:    goquery.NewExtractor(),
		Indexer:      indexer,
		Observer:     metrics,
		Logger:       logger,
		Concurrency:  cfg.MaxConcurrency,
		Cooldown:     cfg.CrawlDelay,
		MaxPages:     cfg.CrawlMaxPages,
		IndexTimeout: cfg.StoreTimeout,
	}, nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
