package main_test

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/adsift"
	main "github.com/fwojciec/adsift/cmd/adsift"
	"github.com/fwojciec/adsift/csv"
	"github.com/fwojciec/adsift/goquery"
	"github.com/fwojciec/adsift/mock"
	"github.com/fwojciec/adsift/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type watchFixture struct {
	deps    *main.Dependencies
	doc     *goquery.Document
	stdout  *syncBuffer
	control *mock.Control

	mu    sync.Mutex
	click func()
}

func newWatchFixture(t *testing.T) *watchFixture {
	t.Helper()

	doc, err := goquery.NewDocument(feedHTML, "https://news.test/feed")
	require.NoError(t, err)

	f := &watchFixture{doc: doc, stdout: &syncBuffer{}}
	f.control = &mock.Control{
		PresentFn: func(context.Context) (bool, error) { return true, nil },
		InjectFn:  func(context.Context) error { return nil },
		OnClickFn: func(_ context.Context, fn func()) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.click = fn
			return nil
		},
	}
	f.deps = &main.Dependencies{
		Stdout:    f.stdout,
		Stderr:    &bytes.Buffer{},
		Logger:    quiet,
		Selectors: adsift.DefaultSelectors(),
		Metrics:   prometheus.NewMetrics(),
		Encoder:   csv.NewEncoder(),
		Saver: &mock.Saver{
			SaveFn: func(_ context.Context, name string, _ []byte) (string, error) {
				return "/exports/" + name, nil
			},
		},
	}
	return f
}

func (f *watchFixture) clickFn() func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.click
}

func (f *watchFixture) run(t *testing.T, cmd *main.WatchCmd) (cancel func()) {
	t.Helper()

	ctx, cancelCtx := context.WithCancel(context.Background())
	f.deps.Ctx = ctx
	observer := &mock.Observer{
		ObserveFn: func(context.Context, func(adsift.MutationBatch)) error { return nil },
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Watch(f.deps, f.doc, observer, f.control)
	}()

	return func() {
		cancelCtx()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("watch did not stop")
		}
	}
}

func TestWatchCmd_Watch_ExportsOnClick(t *testing.T) {
	t.Parallel()

	f := newWatchFixture(t)
	stop := f.run(t, &main.WatchCmd{HealInterval: time.Hour})

	require.Eventually(t, func() bool { return f.clickFn() != nil }, 5*time.Second, 10*time.Millisecond)

	f.clickFn()()
	require.Eventually(t, func() bool {
		return strings.Contains(f.stdout.String(), "Exported 1 ads (1 new)")
	}, 5*time.Second, 10*time.Millisecond)

	f.clickFn()()
	require.Eventually(t, func() bool {
		return strings.Contains(f.stdout.String(), "Exported 1 ads (0 new)")
	}, 5*time.Second, 10*time.Millisecond)

	stop()

	nodes := f.doc.Root().Find("#verified")
	require.Len(t, nodes, 1)
	assert.True(t, nodes[0].Hidden(), "startup pass hides verified cards")
}

func TestWatchCmd_Watch_ExportsOnTimer(t *testing.T) {
	t.Parallel()

	f := newWatchFixture(t)
	stop := f.run(t, &main.WatchCmd{HealInterval: time.Hour, ExportEvery: 20 * time.Millisecond})
	defer stop()

	require.Eventually(t, func() bool {
		return strings.Count(f.stdout.String(), "Exported 1 ads") >= 2
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, f.stdout.String(), "to /exports/ad_data_")
}
