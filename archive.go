package adsift

import (
	"context"
	"time"
)

// ArchivedAd is an ad remembered across export runs.
type ArchivedAd struct {
	Fingerprint string    `json:"fingerprint"`
	Headline    string    `json:"headline"`
	Link        string    `json:"link"`
	Image       string    `json:"image"`
	Destination string    `json:"destination"`
	FirstSeen   time.Time `json:"firstSeen"`
	LastSeen    time.Time `json:"lastSeen"`
	SeenCount   int       `json:"seenCount"`
}

// AdFilter represents a filter for FindAds.
type AdFilter struct {
	// PageURL restricts results to ads exported from that page.
	PageURL string

	Limit  int
	Offset int
}

// AdStore persists export runs and the ads they contained.
type AdStore interface {
	// SaveExport records the run and upserts each of its ads.
	SaveExport(ctx context.Context, export *Export) error

	// FindAds returns archived ads, most recently seen first.
	FindAds(ctx context.Context, filter AdFilter) ([]*ArchivedAd, error)
}
