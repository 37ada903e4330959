// Package redis provides a crawl lock shared across server instances.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fwojciec/docsearch"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

var _ docsearch.CrawlLock = (*Lock)(nil)

// Lock defaults.
const (
	DefaultKey = "docsearch:crawl-lock"
	DefaultTTL = 30 * time.Second
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// refreshScript extends the expiry only if the key still holds our token.
var refreshScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Lock is a single-flight crawl lock backed by a Redis key.
// The holder refreshes the key's expiry until release, so a crashed holder
// frees the lock after TTL.
type Lock struct {
	client *goredis.Client
	Key    string
	TTL    time.Duration
	Logger *slog.Logger
}

// NewLock returns a lock on DefaultKey using client.
func NewLock(client *goredis.Client) *Lock {
	return &Lock{
		client: client,
		Key:    DefaultKey,
		TTL:    DefaultTTL,
	}
}

// Open connects to the Redis server at url and returns its client.
func Open(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, docsearch.Errorf(docsearch.EINVALID, "invalid redis URL: %v", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// TryLock sets the key if absent. Returns ECONFLICT if another holder has it.
// ctx bounds only the acquisition; the lock lives until release is called.
func (l *Lock) TryLock(ctx context.Context) (func(), error) {
	token := uuid.New().String()
	ttl := l.ttl()

	ok, err := l.client.SetNX(ctx, l.Key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire crawl lock: %w", err)
	}
	if !ok {
		return nil, docsearch.Errorf(docsearch.ECONFLICT, "crawl already in progress")
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.refresh(token, ttl, done)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
			ctx, cancel := context.WithTimeout(context.Background(), ttl)
			defer cancel()
			if err := releaseScript.Run(ctx, l.client, []string{l.Key}, token).Err(); err != nil {
				l.logger().Error("release crawl lock", "key", l.Key, "err", err)
			}
		})
	}, nil
}

func (l *Lock) refresh(token string, ttl time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), ttl/3)
			n, err := refreshScript.Run(ctx, l.client, []string{l.Key}, token, ttl.Milliseconds()).Int()
			cancel()
			switch {
			case err != nil && !errors.Is(err, goredis.Nil):
				l.logger().Warn("refresh crawl lock", "key", l.Key, "err", err)
			case n == 0:
				l.logger().Warn("crawl lock lost", "key", l.Key)
				return
			}
		}
	}
}

func (l *Lock) ttl() time.Duration {
	if l.TTL <= 0 {
		return DefaultTTL
	}
	return l.TTL
}

func (l *Lock) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.Logger
}
