package adsift

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// AdRecord is one ad card scraped from the page.
type AdRecord struct {
	Headline string `json:"headline"`
	Link     string `json:"link"`
	Image    string `json:"image"`
}

// Empty reports whether the record carries no data at all.
func (r AdRecord) Empty() bool {
	return r.Headline == "" && r.Link == "" && r.Image == ""
}

// Key returns the composite identity of the record. Each field is length
// prefixed, so separators inside a field cannot make two records collide.
func (r AdRecord) Key() string {
	return fmt.Sprintf("%d:%s|%d:%s|%d:%s",
		len(r.Link), r.Link, len(r.Image), r.Image, len(r.Headline), r.Headline)
}

// ResolvedAdRecord is an AdRecord with its final click-through destination.
// Destination equals Link when resolution failed or was skipped.
type ResolvedAdRecord struct {
	AdRecord
	Destination string `json:"destination"`
}

// Export is the result of one export run.
type Export struct {
	ID        string             `json:"id"`
	PageURL   string             `json:"pageUrl"`
	Path      string             `json:"path"`
	Records   []ResolvedAdRecord `json:"records"`
	CreatedAt time.Time          `json:"createdAt"`
}

// Exporter runs the collect, resolve, encode and save pipeline.
type Exporter interface {
	Export(ctx context.Context, doc Document) (*Export, error)
}

// Encoder serialises resolved records into a downloadable file body.
type Encoder interface {
	Encode(records []ResolvedAdRecord) ([]byte, error)

	// Ext returns the file extension without the leading dot.
	Ext() string
}

// Saver stores an exported file and returns where it was written.
type Saver interface {
	Save(ctx context.Context, name string, data []byte) (path string, err error)
}

// ExportFilename returns a filesystem-safe export file name stamped with t.
func ExportFilename(t time.Time, ext string) string {
	stamp := t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return "ad_data_" + stamp + "." + ext
}
