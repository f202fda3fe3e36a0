package rod

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/fwojciec/adsift"
	"github.com/go-rod/rod"
	"github.com/ysmood/gson"
)

//go:embed control.js
var controlJS string

// Control defaults.
const (
	DefaultControlLabel = "Export Ads CSV"
	DefaultClickHandler = "__adsiftExport"
)

const controlCSS = `#%[1]s {
  position: fixed;
  right: 16px;
  bottom: 16px;
  z-index: 2147483647;
  background: #111827;
  color: #ffffff;
  border: none;
  border-radius: 6px;
  padding: 10px 14px;
  font-size: 13px;
  font-family: ui-sans-serif, system-ui, -apple-system, Segoe UI, Roboto, Helvetica, Arial;
  cursor: pointer;
  box-shadow: 0 4px 12px rgba(0,0,0,0.15);
}
#%[1]s:hover {
  background: #1f2937;
}`

// Ensure Control implements adsift.Control at compile time.
var _ adsift.Control = (*Control)(nil)

// Control is a fixed-position export button injected into a page. Clicks
// reach Go through a page binding.
type Control struct {
	page    *rod.Page
	id      string
	label   string
	handler string
	logger  *slog.Logger
}

// ControlOption configures a Control.
type ControlOption func(*Control)

// WithControlLabel sets the button text.
func WithControlLabel(label string) ControlOption {
	return func(c *Control) {
		c.label = label
	}
}

// WithClickHandler sets the window function name the button calls.
func WithClickHandler(name string) ControlOption {
	return func(c *Control) {
		c.handler = name
	}
}

// WithControlLogger sets the logger used for binding failures.
func WithControlLogger(logger *slog.Logger) ControlOption {
	return func(c *Control) {
		c.logger = logger
	}
}

// NewControl creates a Control for page with the given element ID.
func NewControl(page *rod.Page, id string, opts ...ControlOption) *Control {
	c := &Control{
		page:    page,
		id:      id,
		label:   DefaultControlLabel,
		handler: DefaultClickHandler,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Present reports whether an element with the control's ID is in the page.
func (c *Control) Present(ctx context.Context) (bool, error) {
	res, err := c.page.Context(ctx).Eval(`(id) => !!document.getElementById(id)`, c.id)
	if err != nil {
		return false, fmt.Errorf("checking control: %w", err)
	}
	return res.Value.Bool(), nil
}

// Inject adds the button, replacing any element that already has its ID.
func (c *Control) Inject(ctx context.Context) error {
	css := fmt.Sprintf(controlCSS, c.id)
	res, err := c.page.Context(ctx).Eval(controlJS, c.id, c.id+"-style", c.label, css, c.handler)
	if err != nil {
		return fmt.Errorf("injecting control: %w", err)
	}
	if !res.Value.Bool() {
		return adsift.Errorf(adsift.ENOTREADY, "document has no mount point for the control")
	}
	return nil
}

// OnClick exposes the click handler to the page and calls fn for every
// click until ctx is done. The binding survives reloads.
func (c *Control) OnClick(ctx context.Context, fn func()) error {
	stop, err := c.page.Expose(c.handler, func(gson.JSON) (interface{}, error) {
		fn()
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("exposing click handler: %w", err)
	}
	go func() {
		<-ctx.Done()
		if err := stop(); err != nil {
			c.logger.Debug("remove click handler", "err", err)
		}
	}()
	return nil
}
