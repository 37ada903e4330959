package http

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// robotsCache holds parsed robots.txt files per scheme and host.
// A nil entry means everything is allowed.
type robotsCache struct {
	mu    sync.RWMutex
	sites map[string]*robotstxt.RobotsData
}

func (c *robotsCache) allowed(ctx context.Context, client *http.Client, userAgent, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	key := u.Scheme + "://" + u.Host

	c.mu.RLock()
	robots, ok := c.sites[key]
	c.mu.RUnlock()

	if !ok {
		robots = fetchRobots(ctx, client, userAgent, key+"/robots.txt")
		c.mu.Lock()
		if c.sites == nil {
			c.sites = make(map[string]*robotstxt.RobotsData)
		}
		c.sites[key] = robots
		c.mu.Unlock()
	}

	if robots == nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return robots.TestAgent(path, userAgent)
}

// fetchRobots returns nil when robots.txt is missing or unreadable.
func fetchRobots(ctx context.Context, client *http.Client, userAgent, robotsURL string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	robots, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return robots
}
