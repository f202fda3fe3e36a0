package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/fwojciec/adsift"
	"golang.org/x/net/publicsuffix"
)

// Resolver defaults.
const (
	DefaultResolveTimeout = 10 * time.Second
	DefaultMaxRedirects   = 10
)

// Ensure RedirectResolver implements adsift.Resolver at compile time.
var _ adsift.Resolver = (*RedirectResolver)(nil)

// RedirectResolver follows a link's redirect chain and reports the final
// URL. It tries HEAD first and falls back to GET when the server fails or
// rejects HEAD. Response bodies are never read.
type RedirectResolver struct {
	client       *http.Client
	limiter      *HostLimiter
	timeout      time.Duration
	maxRedirects int
	userAgent    string
}

// ResolverOption configures a RedirectResolver.
type ResolverOption func(*RedirectResolver)

// WithResolveTimeout bounds one resolution, redirects included.
// Defaults to DefaultResolveTimeout (10s).
func WithResolveTimeout(d time.Duration) ResolverOption {
	return func(r *RedirectResolver) {
		r.timeout = d
	}
}

// WithRateLimit throttles requests to rps per host. Zero disables
// throttling, which is the default.
func WithRateLimit(rps float64) ResolverOption {
	return func(r *RedirectResolver) {
		r.limiter = NewHostLimiter(rps)
	}
}

// WithMaxRedirects caps the redirect chain length.
// Defaults to DefaultMaxRedirects (10).
func WithMaxRedirects(n int) ResolverOption {
	return func(r *RedirectResolver) {
		r.maxRedirects = n
	}
}

// WithUserAgent sets the User-Agent header on resolution requests.
func WithUserAgent(ua string) ResolverOption {
	return func(r *RedirectResolver) {
		r.userAgent = ua
	}
}

// NewRedirectResolver creates a RedirectResolver. Cookies set along a
// redirect chain are kept for the rest of the chain.
func NewRedirectResolver(opts ...ResolverOption) (*RedirectResolver, error) {
	r := &RedirectResolver{
		timeout:      DefaultResolveTimeout,
		maxRedirects: DefaultMaxRedirects,
	}
	for _, opt := range opts {
		opt(r)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	r.client = &http.Client{
		Timeout: r.timeout,
		Jar:     jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= r.maxRedirects {
				return fmt.Errorf("stopped after %d redirects", r.maxRedirects)
			}
			return nil
		},
	}
	return r, nil
}

// Resolve returns the final destination of req.URL. Network failures are
// reported in the response with OK false; only an invalid request returns
// an error.
func (r *RedirectResolver) Resolve(ctx context.Context, req adsift.ResolveRequest) (*adsift.ResolveResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return failed(req.URL, fmt.Errorf("unsupported URL %q", req.URL)), nil
	}

	if err := r.limiter.Wait(ctx, u.Hostname()); err != nil {
		return failed(req.URL, err), nil
	}

	final, status, err := r.follow(ctx, http.MethodHead, req.URL)
	if err != nil || status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented {
		final, _, err = r.follow(ctx, http.MethodGet, req.URL)
	}
	if err != nil {
		return failed(req.URL, err), nil
	}

	return &adsift.ResolveResponse{OK: true, URL: final}, nil
}

// follow issues one request and returns the URL of the last request in the
// redirect chain.
func (r *RedirectResolver) follow(ctx context.Context, method, rawURL string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return "", 0, err
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.Request == nil || resp.Request.URL == nil {
		return "", resp.StatusCode, errors.New("response has no request URL")
	}
	return resp.Request.URL.String(), resp.StatusCode, nil
}

func failed(rawURL string, err error) *adsift.ResolveResponse {
	return &adsift.ResolveResponse{OK: false, URL: rawURL, Error: err.Error()}
}
