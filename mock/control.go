package mock

import (
	"context"

	"github.com/fwojciec/adsift"
)

var _ adsift.Observer = (*Observer)(nil)

// Observer is a mock implementation of adsift.Observer.
type Observer struct {
	ObserveFn func(ctx context.Context, fn func(adsift.MutationBatch)) error
}

func (o *Observer) Observe(ctx context.Context, fn func(adsift.MutationBatch)) error {
	return o.ObserveFn(ctx, fn)
}

var _ adsift.Control = (*Control)(nil)

// Control is a mock implementation of adsift.Control.
type Control struct {
	PresentFn func(ctx context.Context) (bool, error)
	InjectFn  func(ctx context.Context) error
	OnClickFn func(ctx context.Context, fn func()) error
}

func (c *Control) Present(ctx context.Context) (bool, error) {
	return c.PresentFn(ctx)
}

func (c *Control) Inject(ctx context.Context) error {
	return c.InjectFn(ctx)
}

func (c *Control) OnClick(ctx context.Context, fn func()) error {
	return c.OnClickFn(ctx, fn)
}
