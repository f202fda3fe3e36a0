package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/adsift"
	"github.com/fwojciec/adsift/feed"
	adsifthttp "github.com/fwojciec/adsift/http"
	"github.com/fwojciec/adsift/prometheus"
	"github.com/fwojciec/adsift/rod"
	"github.com/fwojciec/adsift/yaml"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	Config    *yaml.Config
	Selectors adsift.Selectors
	Metrics   *prometheus.Metrics

	Ads      adsift.AdStore
	Resolver adsift.Resolver
	Encoder  adsift.Encoder
	Saver    adsift.Saver
	Fetcher  adsift.Fetcher
	Browser  *rod.BrowserManager

	ResolveTimeout time.Duration
	Concurrency    int
}

// logger returns deps.Logger, or the default logger when unset.
func (d *Dependencies) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// exporter builds the export pipeline shared by watch and scan.
func (d *Dependencies) exporter() *feed.Exporter {
	return &feed.Exporter{
		Collector:      feed.NewCollector(d.Selectors),
		Resolver:       d.Resolver,
		Encoder:        d.Encoder,
		Saver:          d.Saver,
		Store:          d.Ads,
		ResolveTimeout: d.ResolveTimeout,
		Concurrency:    d.Concurrency,
		Logger:         d.logger(),
	}
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  string `short:"C" env:"ADSIFT_CONFIG" help:"YAML configuration file"`
	DB      string `default:"${defaultDB}" env:"ADSIFT_DB" help:"Ad archive database path"`
	Verbose bool   `short:"v" help:"Enable debug logging"`

	Out       string `short:"o" env:"ADSIFT_OUT" help:"Export directory (default: current directory)"`
	Format    string `short:"f" default:"csv" enum:"csv,xlsx" help:"Export file format"`
	NoArchive bool   `help:"Do not record exports in the ad archive"`

	ResolverURL    string        `env:"ADSIFT_RESOLVER_URL" help:"Base URL of a running 'adsift serve' to resolve links through"`
	NoResolve      bool          `help:"Export links without resolving redirects"`
	ResolveTimeout time.Duration `help:"Timeout per link resolution (default: 10s)"`
	ResolverRate   float64       `help:"Resolution requests per second per host (0: unlimited)"`
	Concurrency    int           `short:"c" help:"Concurrent link resolutions (0: unlimited)"`

	Watch   WatchCmd   `cmd:"" help:"Open a feed in Chrome and keep verified-publisher cards hidden"`
	Scan    ScanCmd    `cmd:"" help:"Clean and export a saved or fetched feed snapshot"`
	Serve   ServeCmd   `cmd:"" help:"Run the link resolver service"`
	History HistoryCmd `cmd:"" help:"List archived ads"`
}

// applyConfig fills flags left unset from the configuration file, then
// from built-in defaults.
func (c *CLI) applyConfig(cfg *yaml.Config) {
	if c.Out == "" {
		c.Out = firstNonEmpty(cfg.ExportDir, ".")
	}
	if c.ResolveTimeout == 0 {
		c.ResolveTimeout = cfg.ResolveTimeout
	}
	if c.ResolveTimeout == 0 {
		c.ResolveTimeout = adsifthttp.DefaultResolveTimeout
	}
	if c.ResolverRate == 0 {
		c.ResolverRate = cfg.ResolverRate
	}
	if c.Watch.HealInterval == 0 {
		c.Watch.HealInterval = cfg.HealInterval
	}
	if c.Watch.HealInterval == 0 {
		c.Watch.HealInterval = feed.DefaultHealInterval
	}
	if c.Watch.ExportEvery == 0 {
		c.Watch.ExportEvery = cfg.ExportEvery
	}
}

// WatchCmd is the "watch" subcommand.
type WatchCmd struct {
	URL          string        `arg:"" help:"Feed URL"`
	HealInterval time.Duration `help:"Export control presence check period (default: 1.5s)"`
	ExportEvery  time.Duration `help:"Also export on this period (0: only on click)"`
	Headful      bool          `help:"Show the browser window"`
	Remote       string        `env:"ADSIFT_REMOTE" help:"DevTools URL of a running browser to attach to"`
	MetricsAddr  string        `help:"Serve /metrics and /healthz on this address"`
}

// ScanCmd is the "scan" subcommand.
type ScanCmd struct {
	Source  string        `arg:"" help:"Feed URL or saved HTML file"`
	BaseURL string        `help:"Base URL for resolving links in a saved file"`
	HTMLOut string        `help:"Write the cleaned HTML to this file"`
	Render  bool          `help:"Render the URL in Chrome before scanning"`
	Timeout time.Duration `default:"30s" help:"Fetch timeout"`
	Export  bool          `default:"true" negatable:"" help:"Export the snapshot's ads"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr string `default:"127.0.0.1:8765" env:"ADSIFT_ADDR" help:"Listen address"`
}

// HistoryCmd is the "history" subcommand.
type HistoryCmd struct {
	Page  string `help:"Only ads exported from this page URL"`
	Limit int    `short:"n" default:"50" help:"Maximum number of ads to list (0: all)"`
}
