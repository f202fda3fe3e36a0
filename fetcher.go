package adsift

import "context"

// Fetcher retrieves page HTML for offline scans.
// Implementations may render JavaScript before returning.
type Fetcher interface {
	// Fetch returns the HTML of the page at url.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases any resources held by the fetcher.
	Close() error
}
