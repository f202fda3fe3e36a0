package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/adsift"
	adsifthttp "github.com/fwojciec/adsift/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver(t *testing.T, opts ...adsifthttp.ResolverOption) *adsifthttp.RedirectResolver {
	t.Helper()
	r, err := adsifthttp.NewRedirectResolver(opts...)
	require.NoError(t, err)
	return r
}

func resolveReq(url string) adsift.ResolveRequest {
	return adsift.ResolveRequest{Type: adsift.MessageResolveURL, URL: url}
}

func TestRedirectResolver_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("follows redirect chain", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/click", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/hop", http.StatusFound)
		})
		mux.HandleFunc("/hop", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/landing?utm=1", http.StatusMovedPermanently)
		})
		mux.HandleFunc("/landing", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		resp, err := newResolver(t).Resolve(context.Background(), resolveReq(server.URL+"/click"))

		require.NoError(t, err)
		assert.True(t, resp.OK)
		assert.Equal(t, server.URL+"/landing?utm=1", resp.URL)
		assert.Empty(t, resp.Error)
	})

	t.Run("falls back to GET when HEAD is rejected", func(t *testing.T) {
		t.Parallel()

		var (
			mu      sync.Mutex
			methods []string
		)
		mux := http.NewServeMux()
		mux.HandleFunc("/click", func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			methods = append(methods, r.Method)
			mu.Unlock()
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			http.Redirect(w, r, "/landing", http.StatusFound)
		})
		mux.HandleFunc("/landing", func(w http.ResponseWriter, r *http.Request) {})
		server := httptest.NewServer(mux)
		defer server.Close()

		resp, err := newResolver(t).Resolve(context.Background(), resolveReq(server.URL+"/click"))

		require.NoError(t, err)
		assert.True(t, resp.OK)
		assert.Equal(t, server.URL+"/landing", resp.URL)
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{http.MethodHead, http.MethodGet}, methods)
	})

	t.Run("keeps cookies along the chain", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/click", func(w http.ResponseWriter, r *http.Request) {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
			http.Redirect(w, r, "/gate", http.StatusFound)
		})
		mux.HandleFunc("/gate", func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie("session"); err == nil && c.Value == "abc" {
				http.Redirect(w, r, "/landing", http.StatusFound)
				return
			}
			http.Redirect(w, r, "/blocked", http.StatusFound)
		})
		mux.HandleFunc("/landing", func(w http.ResponseWriter, r *http.Request) {})
		mux.HandleFunc("/blocked", func(w http.ResponseWriter, r *http.Request) {})
		server := httptest.NewServer(mux)
		defer server.Close()

		resp, err := newResolver(t).Resolve(context.Background(), resolveReq(server.URL+"/click"))

		require.NoError(t, err)
		assert.Equal(t, server.URL+"/landing", resp.URL)
	})

	t.Run("reports redirect loops as failure", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, r.URL.Path, http.StatusFound)
		}))
		defer server.Close()

		resp, err := newResolver(t, adsifthttp.WithMaxRedirects(3)).Resolve(context.Background(), resolveReq(server.URL+"/loop"))

		require.NoError(t, err)
		assert.False(t, resp.OK)
		assert.Equal(t, server.URL+"/loop", resp.URL)
		assert.NotEmpty(t, resp.Error)
	})

	t.Run("reports transport failure with original URL", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := server.URL + "/gone"
		server.Close()

		resp, err := newResolver(t, adsifthttp.WithResolveTimeout(time.Second)).Resolve(context.Background(), resolveReq(url))

		require.NoError(t, err)
		assert.False(t, resp.OK)
		assert.Equal(t, url, resp.URL)
		assert.NotEmpty(t, resp.Error)
	})

	t.Run("rejects non-http schemes without a request", func(t *testing.T) {
		t.Parallel()

		resp, err := newResolver(t).Resolve(context.Background(), resolveReq("javascript:alert(1)"))

		require.NoError(t, err)
		assert.False(t, resp.OK)
		assert.Equal(t, "javascript:alert(1)", resp.URL)
	})

	t.Run("rejects invalid requests", func(t *testing.T) {
		t.Parallel()

		_, err := newResolver(t).Resolve(context.Background(), adsift.ResolveRequest{Type: "PING", URL: "https://x.test"})

		require.Error(t, err)
		assert.Equal(t, adsift.EINVALID, adsift.ErrorCode(err))
	})

	t.Run("sends user agent", func(t *testing.T) {
		t.Parallel()

		var ua atomic.Value
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ua.Store(r.UserAgent())
		}))
		defer server.Close()

		_, err := newResolver(t, adsifthttp.WithUserAgent("adsift/1")).Resolve(context.Background(), resolveReq(server.URL))

		require.NoError(t, err)
		assert.Equal(t, "adsift/1", ua.Load())
	})
}

func TestHostLimiter_Wait(t *testing.T) {
	t.Parallel()

	t.Run("throttles the same host", func(t *testing.T) {
		t.Parallel()

		l := adsifthttp.NewHostLimiter(20)
		start := time.Now()
		for range 3 {
			require.NoError(t, l.Wait(context.Background(), "a.test"))
		}
		assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	})

	t.Run("hosts are independent", func(t *testing.T) {
		t.Parallel()

		l := adsifthttp.NewHostLimiter(1)
		start := time.Now()
		require.NoError(t, l.Wait(context.Background(), "a.test"))
		require.NoError(t, l.Wait(context.Background(), "b.test"))
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})

	t.Run("zero rate never blocks", func(t *testing.T) {
		t.Parallel()

		l := adsifthttp.NewHostLimiter(0)
		for range 10 {
			require.NoError(t, l.Wait(context.Background(), "a.test"))
		}
	})

	t.Run("returns on cancelled context", func(t *testing.T) {
		t.Parallel()

		l := adsifthttp.NewHostLimiter(0.001)
		require.NoError(t, l.Wait(context.Background(), "a.test"))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Error(t, l.Wait(ctx, "a.test"))
	})
}
