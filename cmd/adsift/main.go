package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/adsift"
	"github.com/fwojciec/adsift/csv"
	"github.com/fwojciec/adsift/fs"
	adsifthttp "github.com/fwojciec/adsift/http"
	"github.com/fwojciec/adsift/prometheus"
	"github.com/fwojciec/adsift/rod"
	adsiftslog "github.com/fwojciec/adsift/slog"
	"github.com/fwojciec/adsift/sqlite"
	"github.com/fwojciec/adsift/xlsx"
	"github.com/fwojciec/adsift/yaml"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// SQLite database used by the ad archive.
	DB *sqlite.DB

	// Services for end-to-end testing. Fields left nil are built from flags.
	Ads      adsift.AdStore
	Resolver adsift.Resolver
	Fetcher  adsift.Fetcher
	Saver    adsift.Saver
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("adsift"),
		kong.Description("Hide verified-publisher cards on a news feed and export its ads"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
		kong.Vars{"defaultDB": defaultDBPath()},
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'adsift --help' to see available commands")
	}

	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := strings.Fields(kongCtx.Command())[0]

	deps.Logger = newLogger(stderr, cli.Verbose)
	deps.Metrics = prometheus.NewMetrics()

	cfg := &yaml.Config{}
	if cli.Config != "" {
		if cfg, err = yaml.LoadConfig(cli.Config); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}
	if deps.Selectors, err = cfg.ApplySelectors(adsift.DefaultSelectors()); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	deps.Config = cfg
	cli.applyConfig(cfg)

	if cmd == "history" || (cmd != "serve" && !cli.NoArchive) {
		if err := m.openArchive(cli.DB, stderr); err != nil {
			return err
		}
		defer m.Close()
		deps.Ads = m.Ads
	}

	if cmd == "watch" || cmd == "scan" {
		resolver, err := m.resolver(cli)
		if err != nil {
			return err
		}
		if resolver != nil {
			resolver = adsiftslog.NewLoggingResolver(resolver, deps.Logger)
			resolver = prometheus.NewMetricsResolver(resolver, deps.Metrics)
		}
		deps.Resolver = resolver

		encoder, err := newEncoder(cli.Format)
		if err != nil {
			return err
		}
		deps.Encoder = encoder

		saver := m.Saver
		if saver == nil {
			saver = fs.NewSaver(cli.Out)
		}
		deps.Saver = adsiftslog.NewLoggingSaver(saver, deps.Logger)
	}

	if cmd == "serve" {
		resolver := m.Resolver
		if resolver == nil {
			resolver, err = adsifthttp.NewRedirectResolver(
				adsifthttp.WithResolveTimeout(cli.ResolveTimeout),
				adsifthttp.WithRateLimit(cli.ResolverRate),
			)
			if err != nil {
				return fmt.Errorf("failed to create resolver: %w", err)
			}
		}
		resolver = adsiftslog.NewLoggingResolver(resolver, deps.Logger)
		deps.Resolver = prometheus.NewMetricsResolver(resolver, deps.Metrics)
	}

	if cmd == "scan" {
		fetcher := m.Fetcher
		if fetcher == nil && isURL(cli.Scan.Source) {
			if cli.Scan.Render {
				fetcher, err = rod.NewFetcher()
				if err != nil {
					fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
					return fmt.Errorf("failed to start browser: %w", err)
				}
			} else {
				fetcher = adsifthttp.NewFetcher(adsifthttp.WithTimeout(cli.Scan.Timeout))
			}
		}
		if fetcher != nil {
			fetcher = adsiftslog.NewLoggingFetcher(fetcher, deps.Logger)
			defer fetcher.Close()
		}
		deps.Fetcher = fetcher
	}

	if cmd == "watch" {
		opts := []rod.ManagerOption{rod.WithHeadless(!cli.Watch.Headful)}
		if remote := firstNonEmpty(cli.Watch.Remote, cfg.Browser.Remote); remote != "" {
			opts = append(opts, rod.WithRemote(remote))
		}
		if cfg.Browser.MaxPages > 0 {
			opts = append(opts, rod.WithMaxPages(cfg.Browser.MaxPages))
		}
		browser, err := rod.NewBrowserManager(opts...)
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed, or pass --remote")
			return fmt.Errorf("failed to start browser: %w", err)
		}
		defer browser.Close()
		deps.Browser = browser
	}

	deps.ResolveTimeout = cli.ResolveTimeout
	deps.Concurrency = cli.Concurrency

	return kongCtx.Run(deps)
}

// openArchive opens the SQLite archive unless an AdStore was injected.
func (m *Main) openArchive(path string, stderr io.Writer) error {
	if m.Ads != nil {
		return nil
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	m.DB = sqlite.NewDB(path)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set ADSIFT_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", path, err)
	}
	m.Ads = sqlite.NewAdStore(m.DB)
	return nil
}

// resolver picks the resolver for export runs: none, a remote resolver
// service, or in-process redirect following.
func (m *Main) resolver(cli *CLI) (adsift.Resolver, error) {
	switch {
	case cli.NoResolve:
		return nil, nil
	case m.Resolver != nil:
		return m.Resolver, nil
	case cli.ResolverURL != "":
		return adsifthttp.NewClient(cli.ResolverURL), nil
	}
	r, err := adsifthttp.NewRedirectResolver(
		adsifthttp.WithResolveTimeout(cli.ResolveTimeout),
		adsifthttp.WithRateLimit(cli.ResolverRate),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver: %w", err)
	}
	return r, nil
}

func newEncoder(format string) (adsift.Encoder, error) {
	switch format {
	case "", "csv":
		return csv.NewEncoder(), nil
	case "xlsx":
		return xlsx.NewEncoder(), nil
	}
	return nil, adsift.Errorf(adsift.EINVALID, "unsupported format %q", format)
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "adsift.db"
	}
	return filepath.Join(home, ".adsift", "adsift.db")
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
