package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/adsift"
)

// Loop defaults.
const (
	DefaultHealInterval = 1500 * time.Millisecond
	DefaultRetryDelay   = 100 * time.Millisecond
)

// EventKind identifies the source of a loop event.
type EventKind int

// Event sources feeding the loop.
const (
	EventReady EventKind = iota
	EventMutations
	EventTick
	EventRetryInject
	EventExport
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventMutations:
		return "mutations"
	case EventTick:
		return "tick"
	case EventRetryInject:
		return "retry-inject"
	case EventExport:
		return "export"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is one unit of work for the loop.
type Event struct {
	Kind  EventKind
	Batch adsift.MutationBatch
}

// State is the loop's reaction state.
type State int32

// Loop states.
const (
	StateIdle State = iota
	StateReacting
)

// ExportFunc receives the outcome of each export run.
type ExportFunc func(*adsift.Export, error)

// Loop keeps hiding and the export control applied to a document while it
// changes. Mutation batches, heal ticks and export clicks all pass through
// one dispatcher, one event at a time.
//
// Hiding and injection failures are logged and swallowed so that no single
// failure stops later passes.
type Loop struct {
	doc      adsift.Document
	hider    adsift.Hider
	observer adsift.Observer
	control  adsift.Control
	exporter adsift.Exporter
	onExport ExportFunc

	healInterval time.Duration
	retryDelay   time.Duration
	logger       *slog.Logger

	events       chan Event
	state        atomic.Int32
	retryPending atomic.Bool
	exports      sync.WaitGroup
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithExporter enables export on control clicks and EventExport.
func WithExporter(e adsift.Exporter) LoopOption {
	return func(l *Loop) {
		l.exporter = e
	}
}

// WithExportFunc sets a callback invoked after every export run.
func WithExportFunc(fn ExportFunc) LoopOption {
	return func(l *Loop) {
		l.onExport = fn
	}
}

// WithHealInterval sets the control presence check period.
// Defaults to DefaultHealInterval (1.5s).
func WithHealInterval(d time.Duration) LoopOption {
	return func(l *Loop) {
		l.healInterval = d
	}
}

// WithRetryDelay sets the delay before retrying an injection that found
// the document not ready. Defaults to DefaultRetryDelay (100ms).
func WithRetryDelay(d time.Duration) LoopOption {
	return func(l *Loop) {
		l.retryDelay = d
	}
}

// WithLogger sets the loop's logger.
func WithLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		l.logger = logger
	}
}

// NewLoop creates a Loop for doc. The observer and control may be nil, in
// which case the loop only hides on ready and on delivered batches.
func NewLoop(doc adsift.Document, hider adsift.Hider, observer adsift.Observer, control adsift.Control, opts ...LoopOption) *Loop {
	l := &Loop{
		doc:          doc,
		hider:        hider,
		observer:     observer,
		control:      control,
		healInterval: DefaultHealInterval,
		retryDelay:   DefaultRetryDelay,
		events:       make(chan Event, 64),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	if l.healInterval <= 0 {
		l.healInterval = DefaultHealInterval
	}
	return l
}

// State returns the current reaction state.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Send queues an event for the dispatcher. It blocks until the event is
// queued or ctx is done.
func (l *Loop) Send(ctx context.Context, ev Event) bool {
	select {
	case l.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// Run starts the loop and blocks until ctx is done. Export runs still in
// flight are awaited before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	defer l.exports.Wait()

	ticker := time.NewTicker(l.healInterval)
	defer ticker.Stop()

	l.dispatch(ctx, Event{Kind: EventReady})

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-l.events:
			l.dispatch(ctx, ev)
		case <-ticker.C:
			l.dispatch(ctx, Event{Kind: EventTick})
		}
	}
}

func (l *Loop) dispatch(ctx context.Context, ev Event) {
	switch ev.Kind {
	case EventReady:
		l.start(ctx)
	case EventMutations:
		l.react(ctx, ev.Batch)
	case EventTick:
		l.ensureControl(ctx)
	case EventRetryInject:
		l.retryPending.Store(false)
		l.ensureControl(ctx)
	case EventExport:
		l.export(ctx)
	default:
		l.logger.Warn("unknown loop event", "kind", ev.Kind)
	}
}

// start runs the full-document pass, attaches the observer, and injects
// the control, in that order.
func (l *Loop) start(ctx context.Context) {
	if root := l.doc.Root(); root != nil {
		l.hide(root)
	}

	if l.observer != nil {
		err := l.observer.Observe(ctx, func(b adsift.MutationBatch) {
			l.Send(ctx, Event{Kind: EventMutations, Batch: b})
		})
		if err != nil {
			l.logger.Error("attach observer", "err", err)
		}
	}

	if l.control != nil {
		err := l.control.OnClick(ctx, func() {
			l.Send(ctx, Event{Kind: EventExport})
		})
		if err != nil {
			l.logger.Error("listen for export clicks", "err", err)
		}
		l.inject(ctx)
	}
}

func (l *Loop) react(ctx context.Context, batch adsift.MutationBatch) {
	l.state.Store(int32(StateReacting))
	defer l.state.Store(int32(StateIdle))

	for _, m := range batch {
		for _, n := range m.Nodes {
			if n == nil {
				continue
			}
			l.hide(n)
			l.ensureControl(ctx)
		}
	}
}

func (l *Loop) ensureControl(ctx context.Context) {
	if l.control == nil {
		return
	}
	var present bool
	err := l.guard("check control", func() error {
		var err error
		present, err = l.control.Present(ctx)
		return err
	})
	if err != nil || present {
		return
	}
	l.inject(ctx)
}

func (l *Loop) inject(ctx context.Context) {
	err := l.guard("inject control", func() error {
		return l.control.Inject(ctx)
	})
	if adsift.ErrorCode(err) != adsift.ENOTREADY {
		return
	}
	if !l.retryPending.CompareAndSwap(false, true) {
		return
	}
	time.AfterFunc(l.retryDelay, func() {
		if !l.Send(ctx, Event{Kind: EventRetryInject}) {
			l.retryPending.Store(false)
		}
	})
}

func (l *Loop) hide(n adsift.Node) {
	_ = l.guard("hide", func() error {
		l.hider.Apply(n)
		return nil
	})
}

func (l *Loop) export(ctx context.Context) {
	if l.exporter == nil {
		l.logger.Warn("export requested but no exporter configured")
		return
	}
	l.exports.Add(1)
	go func() {
		defer l.exports.Done()

		var (
			exp *adsift.Export
			err error
		)
		err = l.guard("export", func() error {
			exp, err = l.exporter.Export(ctx, l.doc)
			return err
		})
		switch {
		case err != nil:
			l.logger.Error("export failed", "err", err)
		case exp != nil:
			l.logger.Info("export", "id", exp.ID, "records", len(exp.Records), "path", exp.Path)
		}
		if l.onExport != nil {
			l.onExport(exp, err)
		}
	}()
}

// guard runs fn, converting a panic into an error. Errors other than
// ENOTREADY are logged.
func (l *Loop) guard(op string, fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%s: panic: %v", op, p)
			l.logger.Error("recovered", "op", op, "panic", p)
		}
	}()
	err = fn()
	if err != nil && adsift.ErrorCode(err) != adsift.ENOTREADY {
		l.logger.Warn(op, "err", err)
	}
	return err
}
