// Package rod fetches JavaScript-rendered pages with a headless Chrome
// browser driven by go-rod.
package rod

import (
	"fmt"
	"sync"

	"github.com/fwojciec/docsearch"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// DefaultRecycleAfter is the number of pages served by one browser process
// before it is replaced.
const DefaultRecycleAfter = 75

// generation is one launched browser process and the pages still open on it.
type generation struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	active   int
	retired  bool
}

func (g *generation) close() error {
	err := g.browser.Close()
	g.launcher.Kill()
	return err
}

// BrowserManager hands out a shared browser and replaces it after
// RecycleAfter pages, since Chrome's resident memory only grows.
// A retired browser is closed once its last page is released.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	RecycleAfter int

	mu      sync.Mutex
	current *generation
	served  int
	closed  bool
}

// NewBrowserManager launches a headless browser.
// Close must be called when the manager is no longer needed.
func NewBrowserManager() (*BrowserManager, error) {
	g, err := launch()
	if err != nil {
		return nil, err
	}
	return &BrowserManager{RecycleAfter: DefaultRecycleAfter, current: g}, nil
}

// Acquire returns the browser to open one page on and a release func that
// must be called once the page is closed.
func (bm *BrowserManager) Acquire() (*rod.Browser, func(), error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil, nil, docsearch.Errorf(docsearch.EINVALID, "browser closed")
	}
	if bm.RecycleAfter > 0 && bm.served >= bm.RecycleAfter {
		bm.recycle()
	}

	g := bm.current
	g.active++
	bm.served++

	var once sync.Once
	return g.browser, func() {
		once.Do(func() {
			bm.mu.Lock()
			defer bm.mu.Unlock()
			g.active--
			if g.retired && g.active == 0 {
				_ = g.close()
			}
		})
	}, nil
}

// Close shuts down the browser. Safe to call more than once.
func (bm *BrowserManager) Close() error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil
	}
	bm.closed = true
	return bm.current.close()
}

// LauncherPID returns the process ID of the current browser launcher.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return bm.current.launcher.PID()
}

// recycle swaps in a fresh browser. If the launch fails the old browser
// keeps serving. Must be called with mu held.
func (bm *BrowserManager) recycle() {
	next, err := launch()
	if err != nil {
		return
	}
	old := bm.current
	old.retired = true
	if old.active == 0 {
		_ = old.close()
	}
	bm.current = next
	bm.served = 0
}

func launch() (*generation, error) {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Leakless(true).
		Headless(true)

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	return &generation{browser: browser, launcher: l}, nil
}
