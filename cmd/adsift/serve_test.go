package main_test

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/fwojciec/adsift"
	main "github.com/fwojciec/adsift/cmd/adsift"
	adsifthttp "github.com/fwojciec/adsift/http"
	"github.com/fwojciec/adsift/mock"
	"github.com/fwojciec/adsift/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCmd_Serve(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := prometheus.NewMetrics()
	deps := &main.Dependencies{
		Ctx:    ctx,
		Stdout: &syncBuffer{},
		Stderr: &bytes.Buffer{},
		Logger: quiet,
		Resolver: prometheus.NewMetricsResolver(&mock.Resolver{
			ResolveFn: func(_ context.Context, req adsift.ResolveRequest) (*adsift.ResolveResponse, error) {
				return &adsift.ResolveResponse{OK: true, URL: req.URL + "/final"}, nil
			},
		}, metrics),
		Metrics: metrics,
	}

	done := make(chan error, 1)
	go func() {
		done <- (&main.ServeCmd{}).Serve(deps, ln)
	}()

	base := "http://" + ln.Addr().String()
	client := adsifthttp.NewClient(base)

	var resp *adsift.ResolveResponse
	require.Eventually(t, func() bool {
		resp, err = client.Resolve(ctx, adsift.ResolveRequest{Type: adsift.MessageResolveURL, URL: "https://click.test/a"})
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, &adsift.ResolveResponse{OK: true, URL: "https://click.test/a/final"}, resp)

	res, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestServeCmd_Run_RequiresResolver(t *testing.T) {
	t.Parallel()

	deps := &main.Dependencies{Ctx: context.Background(), Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}

	err := (&main.ServeCmd{Addr: "127.0.0.1:0"}).Run(deps)

	require.Error(t, err)
	assert.Equal(t, adsift.EINTERNAL, adsift.ErrorCode(err))
}
