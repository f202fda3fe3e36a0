//go:build integration && !windows

package rod_test

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/fwojciec/adsift/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// running reports whether pid is a live process. Signal 0 only probes.
func running(pid int) bool {
	return syscall.Kill(pid, syscall.Signal(0)) == nil
}

func TestBrowserManager_Recycle_KillsOldLauncher(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager(rod.WithMaxPages(1))
	require.NoError(t, err)
	defer manager.Close()

	old := manager.LauncherPID()
	require.True(t, running(old))

	page, err := manager.Open(context.Background(), "about:blank")
	require.NoError(t, err)
	require.NoError(t, page.Close())
	manager.Browser()

	assert.Eventually(t, func() bool { return !running(old) }, 5*time.Second, 50*time.Millisecond)
	assert.True(t, running(manager.LauncherPID()))
}

func TestFetcher_Close_KillsLauncher(t *testing.T) {
	t.Parallel()

	fetcher, err := rod.NewFetcher()
	require.NoError(t, err)

	pid := fetcher.LauncherPID()
	require.True(t, running(pid))

	require.NoError(t, fetcher.Close())

	assert.Eventually(t, func() bool { return !running(pid) }, 5*time.Second, 50*time.Millisecond)
}

func TestBrowserManager_Remote_CloseLeavesBrowserRunning(t *testing.T) {
	t.Parallel()

	controlURL, l := launchRemote(t)

	manager, err := rod.NewBrowserManager(rod.WithRemote(controlURL))
	require.NoError(t, err)
	require.NoError(t, manager.Close())

	time.Sleep(200 * time.Millisecond)
	assert.True(t, running(l.PID()))
}
