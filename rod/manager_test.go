//go:build integration

package rod_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fwojciec/adsift/rod"
	gorod "github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// launchRemote starts a browser the test owns, as a user would before
// running watch --remote.
func launchRemote(t *testing.T) (controlURL string, l *launcher.Launcher) {
	t.Helper()
	l = launcher.New().Leakless(true).Headless(true)
	u, err := l.Launch()
	require.NoError(t, err)
	t.Cleanup(l.Kill)
	return u, l
}

func webdriver(t *testing.T, manager *rod.BrowserManager) bool {
	t.Helper()
	page, err := manager.Open(context.Background(), "about:blank")
	require.NoError(t, err)
	defer page.Close()

	res, err := page.Eval(`() => navigator.webdriver`)
	require.NoError(t, err)
	return res.Value.Bool()
}

func TestBrowserManager_Stealth(t *testing.T) {
	t.Parallel()

	t.Run("stealth pages hide automation", func(t *testing.T) {
		t.Parallel()

		manager, err := rod.NewBrowserManager()
		require.NoError(t, err)
		defer manager.Close()

		assert.False(t, webdriver(t, manager))
	})

	t.Run("plain pages when stealth is off", func(t *testing.T) {
		t.Parallel()

		manager, err := rod.NewBrowserManager(rod.WithStealth(false))
		require.NoError(t, err)
		defer manager.Close()

		assert.True(t, webdriver(t, manager))
	})
}

func TestBrowserManager_Open_NavigationTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(5 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	manager, err := rod.NewBrowserManager(rod.WithNavigationTimeout(200 * time.Millisecond))
	require.NoError(t, err)
	defer manager.Close()

	start := time.Now()
	page, err := manager.Open(context.Background(), srv.URL)

	require.Error(t, err)
	assert.Nil(t, page)
	assert.Less(t, time.Since(start), 4*time.Second, "stalled feed gives up at the navigation timeout")
}

func TestBrowserManager_Open_RecyclesAfterMaxPages(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager(rod.WithMaxPages(2))
	require.NoError(t, err)
	defer manager.Close()

	first := manager.Browser()
	firstPID := manager.LauncherPID()
	require.NotZero(t, firstPID)

	page, err := manager.Open(context.Background(), "about:blank")
	require.NoError(t, err)
	require.NoError(t, page.Close())
	assert.Same(t, first, manager.Browser(), "one page is below the limit")

	page, err = manager.Open(context.Background(), "about:blank")
	require.NoError(t, err)
	require.NoError(t, page.Close())

	assert.NotSame(t, first, manager.Browser(), "the limit swaps in a fresh browser")
	assert.NotEqual(t, firstPID, manager.LauncherPID())
}

func TestBrowserManager_Remote(t *testing.T) {
	t.Parallel()

	controlURL, _ := launchRemote(t)

	manager, err := rod.NewBrowserManager(rod.WithRemote(controlURL), rod.WithMaxPages(1))
	require.NoError(t, err)

	assert.Zero(t, manager.LauncherPID(), "nothing was launched")
	attached := manager.Browser()

	for range 2 {
		page, err := manager.Open(context.Background(), "about:blank")
		require.NoError(t, err)
		require.NoError(t, page.Close())
	}
	assert.Same(t, attached, manager.Browser(), "a remote browser is never recycled")

	require.NoError(t, manager.Close())

	other := gorod.New().ControlURL(controlURL)
	require.NoError(t, other.Connect(), "the remote browser outlives the manager")
	_, err = other.Pages()
	assert.NoError(t, err)
}
