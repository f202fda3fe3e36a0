package mock

import (
	"context"

	"github.com/fwojciec/adsift"
)

var _ adsift.Exporter = (*Exporter)(nil)

// Exporter is a mock implementation of adsift.Exporter.
type Exporter struct {
	ExportFn func(ctx context.Context, doc adsift.Document) (*adsift.Export, error)
}

func (e *Exporter) Export(ctx context.Context, doc adsift.Document) (*adsift.Export, error) {
	return e.ExportFn(ctx, doc)
}

var _ adsift.Encoder = (*Encoder)(nil)

// Encoder is a mock implementation of adsift.Encoder.
type Encoder struct {
	EncodeFn func(records []adsift.ResolvedAdRecord) ([]byte, error)
	ExtFn    func() string
}

func (e *Encoder) Encode(records []adsift.ResolvedAdRecord) ([]byte, error) {
	return e.EncodeFn(records)
}

func (e *Encoder) Ext() string {
	return e.ExtFn()
}

var _ adsift.Saver = (*Saver)(nil)

// Saver is a mock implementation of adsift.Saver.
type Saver struct {
	SaveFn func(ctx context.Context, name string, data []byte) (string, error)
}

func (s *Saver) Save(ctx context.Context, name string, data []byte) (string, error) {
	return s.SaveFn(ctx, name, data)
}

var _ adsift.AdStore = (*AdStore)(nil)

// AdStore is a mock implementation of adsift.AdStore.
type AdStore struct {
	SaveExportFn func(ctx context.Context, export *adsift.Export) error
	FindAdsFn    func(ctx context.Context, filter adsift.AdFilter) ([]*adsift.ArchivedAd, error)
}

func (s *AdStore) SaveExport(ctx context.Context, export *adsift.Export) error {
	return s.SaveExportFn(ctx, export)
}

func (s *AdStore) FindAds(ctx context.Context, filter adsift.AdFilter) ([]*adsift.ArchivedAd, error) {
	return s.FindAdsFn(ctx, filter)
}
