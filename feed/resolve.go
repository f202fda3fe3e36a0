package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/adsift"
	"golang.org/x/sync/errgroup"
)

// DefaultResolveTimeout bounds a single link resolution.
const DefaultResolveTimeout = 10 * time.Second

// ResolveAll resolves every record's link concurrently and waits for all
// of them to settle. A failed, malformed, slow or missing resolution
// leaves Destination equal to Link. A nil resolver skips resolution.
//
// limit caps the number of in-flight resolutions; 0 means one per record.
func ResolveAll(ctx context.Context, r adsift.Resolver, records []adsift.AdRecord, timeout time.Duration, limit int) []adsift.ResolvedAdRecord {
	out := make([]adsift.ResolvedAdRecord, len(records))
	for i, rec := range records {
		out[i] = adsift.ResolvedAdRecord{AdRecord: rec, Destination: rec.Link}
	}
	if r == nil {
		return out
	}
	if timeout <= 0 {
		timeout = DefaultResolveTimeout
	}

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := range out {
		link := out[i].Link
		if link == "" {
			continue
		}
		g.Go(func() error {
			out[i].Destination = resolveOne(ctx, r, link, timeout)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

type resolveResult struct {
	resp *adsift.ResolveResponse
	err  error
}

// resolveOne never waits longer than timeout, even when the resolver
// ignores its context.
func resolveOne(ctx context.Context, r adsift.Resolver, link string, timeout time.Duration) string {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch := make(chan resolveResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- resolveResult{err: fmt.Errorf("resolver panic: %v", p)}
			}
		}()
		resp, err := r.Resolve(ctx, adsift.ResolveRequest{Type: adsift.MessageResolveURL, URL: link})
		ch <- resolveResult{resp: resp, err: err}
	}()

	select {
	case res := <-ch:
		return adsift.Destination(link, res.resp, res.err)
	case <-ctx.Done():
		return link
	}
}
