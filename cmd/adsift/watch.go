package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/fwojciec/adsift"
	"github.com/fwojciec/adsift/bloom"
	"github.com/fwojciec/adsift/feed"
	adsifthttp "github.com/fwojciec/adsift/http"
	"github.com/fwojciec/adsift/prometheus"
	"github.com/fwojciec/adsift/rod"
	adsiftslog "github.com/fwojciec/adsift/slog"
)

// Novelty filter sizing for one watch session.
const (
	seenCapacity = 10000
	seenFPRate   = 0.001
)

// Run executes the watch command.
func (c *WatchCmd) Run(deps *Dependencies) error {
	if deps.Browser == nil {
		return adsift.Errorf(adsift.EINTERNAL, "no browser configured")
	}

	page, err := deps.Browser.Open(deps.Ctx, c.URL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", adsift.ErrorMessage(err))
		return err
	}
	defer page.Close()

	logger := deps.logger()

	if c.MetricsAddr != "" && deps.Metrics != nil {
		stop := serveMetrics(deps, c.MetricsAddr)
		defer stop()
	}

	doc := rod.NewDocument(page)
	observer := rod.NewObserver(page, rod.WithObserverLogger(logger))
	control := rod.NewControl(page, deps.Selectors.ControlID, rod.WithControlLogger(logger))

	return c.Watch(deps, doc, observer, control)
}

// Watch keeps hiding applied to doc and exports on clicks, and on a timer
// when ExportEvery is set, until deps.Ctx is done.
func (c *WatchCmd) Watch(deps *Dependencies, doc adsift.Document, observer adsift.Observer, control adsift.Control) error {
	logger := deps.logger()

	var hider adsift.Hider = feed.NewHider(deps.Selectors, logger)
	hider = adsiftslog.NewLoggingHider(hider, logger)
	var exporter adsift.Exporter = deps.exporter()
	if deps.Metrics != nil {
		hider = prometheus.NewMetricsHider(hider, deps.Metrics)
		exporter = prometheus.NewMetricsExporter(exporter, deps.Metrics)
	}
	// Live passes free their element handles when they finish.
	hider = rod.NewReleasingHider(hider)
	exporter = rod.NewReleasingExporter(exporter)

	seen := bloom.NewFilter(seenCapacity, seenFPRate)
	var mu sync.Mutex

	loop := feed.NewLoop(doc, hider, observer, control,
		feed.WithExporter(exporter),
		feed.WithHealInterval(c.HealInterval),
		feed.WithLogger(logger),
		feed.WithExportFunc(func(exp *adsift.Export, err error) {
			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				fmt.Fprintf(deps.Stderr, "export failed: %s\n", adsift.ErrorMessage(err))
				return
			}
			if exp == nil {
				return
			}
			fresh := seen.Observe(exp.Records)
			if deps.Metrics != nil {
				deps.Metrics.ExportNewAdsTotal.Add(float64(fresh))
			}
			logger.Info("new ads", "id", exp.ID, "new", fresh, "seen", seen.EstimatedCount())
			fmt.Fprintf(deps.Stdout, "Exported %d ads (%d new) to %s\n", len(exp.Records), fresh, exp.Path)
		}),
	)

	ctx, cancel := context.WithCancel(deps.Ctx)
	defer cancel()

	if c.ExportEvery > 0 {
		go func() {
			ticker := time.NewTicker(c.ExportEvery)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					loop.Send(ctx, feed.Event{Kind: feed.EventExport})
				}
			}
		}()
	}

	logger.Info("watching", "url", doc.URL())
	return loop.Run(ctx)
}

// serveMetrics exposes the metrics and health endpoints in the background.
// The returned function shuts the server down.
func serveMetrics(deps *Dependencies, addr string) func() {
	logger := deps.logger()
	srv := &http.Server{
		Addr: addr,
		Handler: adsifthttp.NewHandler(deps.Resolver,
			adsifthttp.WithMetricsHandler(deps.Metrics.Handler()),
			adsifthttp.WithLogger(logger),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "addr", addr, "err", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
