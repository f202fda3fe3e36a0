// Package bloom tracks which ads have already been seen in a session.
package bloom

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/fwojciec/adsift"
)

// Filter remembers ad fingerprints using a Bloom filter. A record reported
// as seen may occasionally be new (false positive); a record reported as
// new never was seen before.
//
// Filter is safe for concurrent use.
type Filter struct {
	mu sync.Mutex
	f  *bloom.BloomFilter
}

// NewFilter creates a filter sized for n expected ads with the given false
// positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add records the ad.
func (f *Filter) Add(r adsift.AdRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.f.AddString(r.Key())
}

// Test reports whether the ad might have been added.
func (f *Filter) Test(r adsift.AdRecord) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.f.TestString(r.Key())
}

// Observe adds every record and returns how many were new.
func (f *Filter) Observe(records []adsift.ResolvedAdRecord) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, r := range records {
		if !f.f.TestAndAddString(r.Key()) {
			n++
		}
	}
	return n
}

// EstimatedCount returns the approximate number of distinct ads added.
func (f *Filter) EstimatedCount() uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint(f.f.ApproximatedSize())
}
