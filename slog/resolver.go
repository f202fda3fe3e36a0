package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/adsift"
)

// Ensure LoggingResolver implements adsift.Resolver.
var _ adsift.Resolver = (*LoggingResolver)(nil)

// LoggingResolver wraps a Resolver with debug logging. Resolution failures
// are expected and never surface to the user, so they log at Debug too.
type LoggingResolver struct {
	next   adsift.Resolver
	logger *slog.Logger
}

// NewLoggingResolver creates a new LoggingResolver.
func NewLoggingResolver(next adsift.Resolver, logger *slog.Logger) *LoggingResolver {
	return &LoggingResolver{next: next, logger: logger}
}

// Resolve delegates to the wrapped resolver and logs the outcome.
func (r *LoggingResolver) Resolve(ctx context.Context, req adsift.ResolveRequest) (resp *adsift.ResolveResponse, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"url", req.URL,
			"duration", time.Since(begin),
		}
		if resp != nil {
			attrs = append(attrs, "ok", resp.OK, "destination", resp.URL)
			if resp.Error != "" {
				attrs = append(attrs, "reason", resp.Error)
			}
		}
		if err != nil {
			attrs = append(attrs, "err", err)
		}
		r.logger.Debug("resolve", attrs...)
	}(time.Now())
	return r.next.Resolve(ctx, req)
}
