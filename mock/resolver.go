package mock

import (
	"context"

	"github.com/fwojciec/adsift"
)

var _ adsift.Resolver = (*Resolver)(nil)

// Resolver is a mock implementation of adsift.Resolver.
type Resolver struct {
	ResolveFn func(ctx context.Context, req adsift.ResolveRequest) (*adsift.ResolveResponse, error)
}

func (r *Resolver) Resolve(ctx context.Context, req adsift.ResolveRequest) (*adsift.ResolveResponse, error) {
	return r.ResolveFn(ctx, req)
}

var _ adsift.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of adsift.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (string, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}
