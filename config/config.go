// Package config loads service settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/fwojciec/docsearch"
	"github.com/spf13/viper"
)

// Fetcher backends.
const (
	FetcherHTTP    = "http"
	FetcherBrowser = "browser"
)

// Crawl overlap policies.
const (
	OverlapSkip  = "skip"
	OverlapAllow = "allow"
)

// Config stores all configuration for the service.
type Config struct {
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	Port               int           `mapstructure:"PORT"`
	DocsURL            string        `mapstructure:"DOCS_URL"`
	CrawlIntervalHours int           `mapstructure:"CRAWL_INTERVAL_HOURS"`
	MaxConcurrency     int           `mapstructure:"MAX_CONCURRENT_REQUESTS"`
	UserAgent          string        `mapstructure:"USER_AGENT"`
	CrawlDelay         time.Duration `mapstructure:"CRAWL_DELAY"`
	CrawlMaxPages      int           `mapstructure:"CRAWL_MAX_PAGES"`
	FetchTimeout       time.Duration `mapstructure:"FETCH_TIMEOUT"`
	StoreTimeout       time.Duration `mapstructure:"STORE_TIMEOUT"`
	Fetcher            string        `mapstructure:"FETCHER"`
	RespectRobots      bool          `mapstructure:"RESPECT_ROBOTS"`
	CrawlOverlap       string        `mapstructure:"CRAWL_OVERLAP"`
	RedisURL           string        `mapstructure:"REDIS_URL"`
	CrawlOnStart       bool          `mapstructure:"CRAWL_ON_START"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	LogFormat          string        `mapstructure:"LOG_FORMAT"`
	SourceName         string        `mapstructure:"SOURCE_NAME"`
}

var defaults = map[string]any{
	"DATABASE_URL":            "",
	"PORT":                    3000,
	"DOCS_URL":                "https://docs.zerops.io",
	"CRAWL_INTERVAL_HOURS":    24,
	"MAX_CONCURRENT_REQUESTS": 5,
	"USER_AGENT":              "ZeropsDocsMCP/1.0",
	"CRAWL_DELAY":             "1s",
	"CRAWL_MAX_PAGES":         0,
	"FETCH_TIMEOUT":           "10s",
	"STORE_TIMEOUT":           "30s",
	"FETCHER":                 FetcherHTTP,
	"RESPECT_ROBOTS":          true,
	"CRAWL_OVERLAP":           OverlapSkip,
	"REDIS_URL":               "",
	"CRAWL_ON_START":          true,
	"LOG_LEVEL":               "info",
	"LOG_FORMAT":              "json",
	"SOURCE_NAME":             "Zerops Documentation",
}

// Load reads envFile (if it exists) and then the environment, which takes
// precedence. An empty envFile skips the file.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}
	v.AutomaticEnv()

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		// A missing file is fine; the environment alone is a valid source.
		if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
			return nil, docsearch.Errorf(docsearch.EINVALID, "invalid config file %s: %v", envFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, docsearch.Errorf(docsearch.EINVALID, "invalid configuration: %v", err)
	}
	return &cfg, nil
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.DatabaseURL == "":
		return docsearch.Errorf(docsearch.EINVALID, "DATABASE_URL is required")
	case c.Port < 0 || c.Port > 65535:
		return docsearch.Errorf(docsearch.EINVALID, "PORT must be between 0 and 65535")
	case c.DocsURL == "":
		return docsearch.Errorf(docsearch.EINVALID, "DOCS_URL is required")
	case c.CrawlIntervalHours < 0:
		return docsearch.Errorf(docsearch.EINVALID, "CRAWL_INTERVAL_HOURS must not be negative")
	case c.MaxConcurrency < 1:
		return docsearch.Errorf(docsearch.EINVALID, "MAX_CONCURRENT_REQUESTS must be at least 1")
	case c.CrawlDelay < 0:
		return docsearch.Errorf(docsearch.EINVALID, "CRAWL_DELAY must not be negative")
	case c.CrawlMaxPages < 0:
		return docsearch.Errorf(docsearch.EINVALID, "CRAWL_MAX_PAGES must not be negative")
	case c.FetchTimeout <= 0:
		return docsearch.Errorf(docsearch.EINVALID, "FETCH_TIMEOUT must be positive")
	case c.StoreTimeout <= 0:
		return docsearch.Errorf(docsearch.EINVALID, "STORE_TIMEOUT must be positive")
	case c.Fetcher != FetcherHTTP && c.Fetcher != FetcherBrowser:
		return docsearch.Errorf(docsearch.EINVALID, "FETCHER must be %q or %q", FetcherHTTP, FetcherBrowser)
	case c.CrawlOverlap != OverlapSkip && c.CrawlOverlap != OverlapAllow:
		return docsearch.Errorf(docsearch.EINVALID, "CRAWL_OVERLAP must be %q or %q", OverlapSkip, OverlapAllow)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return docsearch.Errorf(docsearch.EINVALID, "LOG_FORMAT must be \"json\" or \"text\"")
	}
	return nil
}

// CrawlInterval returns the period between scheduled crawls. Zero disables them.
func (c *Config) CrawlInterval() time.Duration {
	return time.Duration(c.CrawlIntervalHours) * time.Hour
}

// IsSQLite reports whether DatabaseURL names a SQLite database.
func (c *Config) IsSQLite() bool {
	u := c.DatabaseURL
	return strings.HasPrefix(u, "sqlite://") ||
		strings.HasPrefix(u, "file:") ||
		strings.HasSuffix(u, ".db") ||
		u == ":memory:"
}

// SQLitePath returns the SQLite file path from DatabaseURL.
func (c *Config) SQLitePath() string {
	u := strings.TrimPrefix(c.DatabaseURL, "sqlite://")
	return strings.TrimPrefix(u, "file:")
}
