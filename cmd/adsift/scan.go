package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/fwojciec/adsift"
	"github.com/fwojciec/adsift/feed"
	"github.com/fwojciec/adsift/fs"
	"github.com/fwojciec/adsift/goquery"
	"github.com/fwojciec/adsift/prometheus"
	adsiftslog "github.com/fwojciec/adsift/slog"
)

// Run executes the scan command.
func (c *ScanCmd) Run(deps *Dependencies) error {
	ctx := deps.Ctx
	logger := deps.logger()

	html, base, err := c.load(deps)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", adsift.ErrorMessage(err))
		return err
	}

	doc, err := goquery.NewDocument(html, base)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", adsift.ErrorMessage(err))
		return err
	}
	doc.AttachInlineFrames()

	var hider adsift.Hider = feed.NewHider(deps.Selectors, logger)
	hider = adsiftslog.NewLoggingHider(hider, logger)
	if deps.Metrics != nil {
		hider = prometheus.NewMetricsHider(hider, deps.Metrics)
	}
	hider.Apply(doc.Root())

	if c.HTMLOut != "" {
		cleaned, err := doc.HTML()
		if err != nil {
			return fmt.Errorf("rendering cleaned HTML: %w", err)
		}
		saver := fs.NewSaver(filepath.Dir(c.HTMLOut))
		path, err := saver.Save(ctx, filepath.Base(c.HTMLOut), []byte(cleaned))
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", adsift.ErrorMessage(err))
			return err
		}
		fmt.Fprintf(deps.Stdout, "Wrote cleaned HTML to %s\n", path)
	}

	if !c.Export {
		return nil
	}

	var exporter adsift.Exporter = deps.exporter()
	if deps.Metrics != nil {
		exporter = prometheus.NewMetricsExporter(exporter, deps.Metrics)
	}
	exp, err := exporter.Export(ctx, doc)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", adsift.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Exported %d ads to %s\n", len(exp.Records), exp.Path)
	return nil
}

// load returns the snapshot HTML and the base URL to resolve it against.
func (c *ScanCmd) load(deps *Dependencies) (string, string, error) {
	if isURL(c.Source) {
		if deps.Fetcher == nil {
			return "", "", adsift.Errorf(adsift.EINTERNAL, "no fetcher configured")
		}
		html, err := deps.Fetcher.Fetch(deps.Ctx, c.Source)
		if err != nil {
			return "", "", err
		}
		return html, firstNonEmpty(c.BaseURL, c.Source), nil
	}

	data, err := os.ReadFile(c.Source)
	if os.IsNotExist(err) {
		return "", "", adsift.Errorf(adsift.ENOTFOUND, "file %s not found", c.Source)
	} else if err != nil {
		return "", "", err
	}

	base := c.BaseURL
	if base == "" {
		abs, err := filepath.Abs(c.Source)
		if err != nil {
			return "", "", err
		}
		base = (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
	}
	return string(data), base, nil
}
