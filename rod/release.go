package rod

import (
	"context"

	"github.com/fwojciec/adsift"
)

// Ensure ReleasingHider implements adsift.Hider at compile time.
var _ adsift.Hider = (*ReleasingHider)(nil)

// ReleasingHider runs each pass over a live node in its own handle scope
// and releases every element handle the pass created. Nodes delivered by
// Observer are released too once their pass is done. Other node types pass
// through untouched.
type ReleasingHider struct {
	next adsift.Hider
}

// NewReleasingHider wraps next.
func NewReleasingHider(next adsift.Hider) *ReleasingHider {
	return &ReleasingHider{next: next}
}

// Apply delegates to the wrapped hider.
func (h *ReleasingHider) Apply(root adsift.Node) {
	n, ok := root.(*Node)
	if !ok {
		h.next.Apply(root)
		return
	}

	scoped := n.scoped()
	defer func() {
		scoped.pool.release()
		if n.owned {
			_ = n.el.Release()
		}
	}()
	h.next.Apply(scoped)
}

// Ensure ReleasingExporter implements adsift.Exporter at compile time.
var _ adsift.Exporter = (*ReleasingExporter)(nil)

// ReleasingExporter runs each export of a live document in its own handle
// scope, so the cards, anchors and frames it visits are released when the
// run ends.
type ReleasingExporter struct {
	next adsift.Exporter
}

// NewReleasingExporter wraps next.
func NewReleasingExporter(next adsift.Exporter) *ReleasingExporter {
	return &ReleasingExporter{next: next}
}

// Export delegates to the wrapped exporter.
func (e *ReleasingExporter) Export(ctx context.Context, doc adsift.Document) (*adsift.Export, error) {
	d, ok := doc.(*Document)
	if !ok {
		return e.next.Export(ctx, doc)
	}

	scoped := d.scoped()
	defer scoped.pool.release()
	return e.next.Export(ctx, scoped)
}
