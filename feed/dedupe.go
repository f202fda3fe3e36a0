package feed

import (
	"github.com/fwojciec/adsift"
)

// Dedupe drops records whose (link, image, headline) was already seen,
// keeping first-seen order. Records are compared field by field.
func Dedupe(records []adsift.AdRecord) []adsift.AdRecord {
	seen := make(map[adsift.AdRecord]struct{}, len(records))
	out := make([]adsift.AdRecord, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
