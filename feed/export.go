package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fwojciec/adsift"
	"github.com/google/uuid"
)

var _ adsift.Exporter = (*Exporter)(nil)

// Exporter collects ad cards, resolves their destinations, encodes them
// and saves the file. Each call is an independent run; concurrent calls
// do not coordinate.
type Exporter struct {
	Collector adsift.Collector
	Resolver  adsift.Resolver // nil skips resolution
	Encoder   adsift.Encoder
	Saver     adsift.Saver
	Store     adsift.AdStore // optional archive

	ResolveTimeout time.Duration
	Concurrency    int

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// Export runs the pipeline for doc. Encoding and saving errors are
// returned; resolution and archive errors are not.
func (e *Exporter) Export(ctx context.Context, doc adsift.Document) (*adsift.Export, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	records := e.Collector.Collect(doc)
	resolved := ResolveAll(ctx, e.Resolver, records, e.ResolveTimeout, e.Concurrency)

	data, err := e.Encoder.Encode(resolved)
	if err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}

	createdAt := now()
	path, err := e.Saver.Save(ctx, adsift.ExportFilename(createdAt, e.Encoder.Ext()), data)
	if err != nil {
		return nil, fmt.Errorf("saving export: %w", err)
	}

	export := &adsift.Export{
		ID:        uuid.New().String(),
		PageURL:   doc.URL(),
		Path:      path,
		Records:   resolved,
		CreatedAt: createdAt,
	}

	if e.Store != nil {
		if err := e.Store.SaveExport(ctx, export); err != nil {
			e.logger().Warn("archive export", "id", export.ID, "err", err)
		}
	}

	return export, nil
}

func (e *Exporter) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
