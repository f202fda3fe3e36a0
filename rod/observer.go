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

//go:embed observer.js
var observerJS string

// Observer names on the page's window object.
const (
	DefaultQueueName = "__adsiftMutations"
	DefaultWakeName  = "__adsiftWake"
)

// Ensure Observer implements adsift.Observer at compile time.
var _ adsift.Observer = (*Observer)(nil)

// Observer watches a page with an injected MutationObserver. The page parks
// affected elements in a queue on window and wakes Go through a binding;
// Go then drains the queue into element handles.
//
// Attribute changes are limited to class, aria-label and data-* names.
// Inline style writes never wake the observer.
type Observer struct {
	page   *rod.Page
	queue  string
	wake   string
	logger *slog.Logger
}

// ObserverOption configures an Observer.
type ObserverOption func(*Observer)

// WithObserverLogger sets the logger used for drain failures.
func WithObserverLogger(logger *slog.Logger) ObserverOption {
	return func(o *Observer) {
		o.logger = logger
	}
}

// NewObserver creates an Observer for page.
func NewObserver(page *rod.Page, opts ...ObserverOption) *Observer {
	o := &Observer{
		page:  page,
		queue: DefaultQueueName,
		wake:  DefaultWakeName,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// Observe installs the page-side observer, in the current document and in
// every document loaded later, and delivers drained batches to fn until
// ctx is done. Batches are delivered one at a time from a single goroutine.
func (o *Observer) Observe(ctx context.Context, fn func(adsift.MutationBatch)) error {
	wakeCh := make(chan struct{}, 1)
	stop, err := o.page.Expose(o.wake, func(gson.JSON) (interface{}, error) {
		select {
		case wakeCh <- struct{}{}:
		default:
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("exposing wake binding: %w", err)
	}

	install := fmt.Sprintf("(%s)(%q, %q)", observerJS, o.queue, o.wake)
	remove, err := o.page.EvalOnNewDocument(install)
	if err != nil {
		_ = stop()
		return fmt.Errorf("registering observer script: %w", err)
	}
	if _, err := o.page.Context(ctx).Eval(observerJS, o.queue, o.wake); err != nil {
		_ = remove()
		_ = stop()
		return fmt.Errorf("installing observer: %w", err)
	}

	go func() {
		defer func() {
			if err := remove(); err != nil {
				o.logger.Debug("remove observer script", "err", err)
			}
			if err := stop(); err != nil {
				o.logger.Debug("remove wake binding", "err", err)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case <-wakeCh:
			}
			batches, err := o.drain(ctx)
			if err != nil {
				if ctx.Err() == nil {
					o.logger.Warn("drain mutations", "err", err)
				}
				continue
			}
			for _, b := range batches {
				fn(b)
			}
		}
	}()
	return nil
}

// drain takes everything parked in the page queue. The kinds and the element
// handles are read in two calls; the first moves the queue aside so that
// mutations arriving in between wait for the next drain.
func (o *Observer) drain(ctx context.Context) ([]adsift.MutationBatch, error) {
	page := o.page.Context(ctx)
	pending := o.queue + "Pending"

	res, err := page.Eval(`(q, p) => {
		const taken = window[q] || [];
		window[q] = [];
		window[p] = taken;
		return taken.map((b) => b.map((e) => e.kind));
	}`, o.queue, pending)
	if err != nil {
		return nil, err
	}
	kinds := res.Value.Arr()
	if len(kinds) == 0 {
		return nil, nil
	}

	els, err := page.ElementsByJS(rod.Eval(`(p) => {
		const taken = window[p] || [];
		window[p] = [];
		return taken.flat().map((e) => e.node);
	}`, pending))
	if err != nil {
		return nil, err
	}

	return group(kinds, els), nil
}

// group rebuilds batches from per-batch kind lists and the flat element
// list. Consecutive entries of the same kind share one Mutation. Delivered
// nodes own their handle; ReleasingHider frees it after the node's pass.
func group(kinds []gson.JSON, els rod.Elements) []adsift.MutationBatch {
	batches := make([]adsift.MutationBatch, 0, len(kinds))
	i := 0
	for _, b := range kinds {
		var batch adsift.MutationBatch
		for _, k := range b.Arr() {
			if i >= len(els) {
				break
			}
			kind := adsift.MutationKind(k.Str())
			node := &Node{el: els[i], owned: true}
			i++
			if n := len(batch); n > 0 && batch[n-1].Kind == kind {
				batch[n-1].Nodes = append(batch[n-1].Nodes, node)
				continue
			}
			batch = append(batch, adsift.Mutation{Kind: kind, Nodes: []adsift.Node{node}})
		}
		if len(batch) > 0 {
			batches = append(batches, batch)
		}
	}
	for _, el := range els[i:] {
		_ = el.Release()
	}
	return batches
}
