package rod

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/adsift"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Manager defaults.
const (
	DefaultMaxPages          = 75
	DefaultNavigationTimeout = 30 * time.Second
)

// BrowserManager manages browser lifecycle with automatic recycling to prevent
// memory accumulation. Chrome accumulates memory over time (~0.5MB/s under load),
// and the baseline never returns to initial levels even with proper page cleanup.
// Recycling the browser periodically addresses this issue.
//
// A manager attached to a remote browser never recycles it and never kills
// it on Close.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	browser    *rod.Browser
	launcher   *launcher.Launcher
	pageCount  int64
	maxPages   int64
	headless   bool
	stealth    bool
	remote     string
	navTimeout time.Duration
	mu         sync.Mutex
	closed     atomic.Bool
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets the maximum number of pages before the browser is recycled.
// Defaults to 75 if not specified.
func WithMaxPages(n int64) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxPages = n
	}
}

// WithHeadless controls whether a launched browser shows a window.
// Defaults to true.
func WithHeadless(headless bool) ManagerOption {
	return func(bm *BrowserManager) {
		bm.headless = headless
	}
}

// WithStealth controls whether new pages get the stealth evasions applied.
// Defaults to true.
func WithStealth(enabled bool) ManagerOption {
	return func(bm *BrowserManager) {
		bm.stealth = enabled
	}
}

// WithRemote attaches to an already running browser at the DevTools
// control URL instead of launching one.
func WithRemote(controlURL string) ManagerOption {
	return func(bm *BrowserManager) {
		bm.remote = controlURL
	}
}

// WithNavigationTimeout bounds navigation and load in Open.
// Defaults to 30s.
func WithNavigationTimeout(d time.Duration) ManagerOption {
	return func(bm *BrowserManager) {
		bm.navTimeout = d
	}
}

// NewBrowserManager creates a new BrowserManager that launches a Chrome browser,
// or connects to the remote one given with WithRemote.
// The browser will be recycled after maxPages (default 75) pages have been processed.
// Close must be called when the BrowserManager is no longer needed.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{
		maxPages:   DefaultMaxPages,
		headless:   true,
		stealth:    true,
		navTimeout: DefaultNavigationTimeout,
	}
	for _, opt := range opts {
		opt(bm)
	}

	if err := bm.launchBrowser(); err != nil {
		return nil, err
	}

	return bm, nil
}

// Browser returns the current browser instance, recycling if the page count
// has reached maxPages. Callers should call IncrementPageCount after using
// the browser to process a page.
func (bm *BrowserManager) Browser() *rod.Browser {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.remote == "" && atomic.LoadInt64(&bm.pageCount) >= bm.maxPages {
		bm.recycleBrowser()
	}

	return bm.browser
}

// IncrementPageCount increments the page counter. Call this after successfully
// processing a page to track progress toward the recycling threshold.
func (bm *BrowserManager) IncrementPageCount() {
	atomic.AddInt64(&bm.pageCount, 1)
}

// NewPage creates a blank page, with stealth evasions unless disabled.
func (bm *BrowserManager) NewPage() (*rod.Page, error) {
	if bm.closed.Load() {
		return nil, adsift.Errorf(adsift.EINVALID, "browser manager is closed")
	}
	b := bm.Browser()
	if b == nil {
		return nil, adsift.Errorf(adsift.EINTERNAL, "no active browser")
	}

	var (
		page *rod.Page
		err  error
	)
	if bm.stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, fmt.Errorf("creating page: %w", err)
	}
	return page, nil
}

// Open creates a page and navigates it to url, waiting for the load event.
// The caller owns the returned page and must close it.
func (bm *BrowserManager) Open(ctx context.Context, url string) (*rod.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := bm.NewPage()
	if err != nil {
		return nil, err
	}

	navCtx, cancel := context.WithTimeout(ctx, bm.navTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(url); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("navigating to %s: %w", url, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("waiting for %s to load: %w", url, err)
	}

	bm.IncrementPageCount()
	return page.Context(ctx), nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	if !bm.closed.CompareAndSwap(false, true) {
		return nil
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()

	return bm.closeBrowser()
}

// launchBrowser starts a new browser instance with stability flags, or
// connects to the remote browser.
func (bm *BrowserManager) launchBrowser() error {
	if bm.remote != "" {
		browser := rod.New().ControlURL(bm.remote)
		if err := browser.Connect(); err != nil {
			return fmt.Errorf("connecting to remote browser: %w", err)
		}
		bm.browser = browser
		return nil
	}

	lnchr := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(bm.headless)

	u, err := lnchr.Launch()
	if err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		lnchr.Kill()
		return fmt.Errorf("connecting to browser: %w", err)
	}

	bm.browser = browser
	bm.launcher = lnchr
	return nil
}

// closeBrowser shuts down the current browser and launcher.
// Must be called with mu held.
func (bm *BrowserManager) closeBrowser() error {
	if bm.remote != "" {
		bm.browser = nil
		return nil
	}

	var err error
	if bm.browser != nil {
		err = bm.browser.Close()
		bm.browser = nil
	}
	if bm.launcher != nil {
		bm.launcher.Kill()
		bm.launcher = nil
	}
	return err
}

// recycleBrowser starts a fresh browser and closes the old one.
// If launching the new browser fails, the old browser is kept.
// Must be called with mu held.
func (bm *BrowserManager) recycleBrowser() {
	oldBrowser := bm.browser
	oldLauncher := bm.launcher
	bm.browser = nil
	bm.launcher = nil

	if err := bm.launchBrowser(); err != nil {
		bm.browser = oldBrowser
		bm.launcher = oldLauncher
		return
	}

	if oldBrowser != nil {
		_ = oldBrowser.Close()
	}
	if oldLauncher != nil {
		oldLauncher.Kill()
	}
	atomic.StoreInt64(&bm.pageCount, 0)
}

// LauncherPID returns the process ID of the browser launcher.
// This method exists for testing purposes to verify proper cleanup.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.launcher == nil {
		return 0
	}
	return bm.launcher.PID()
}
