package feed

import (
	"log/slog"
	"strings"

	"github.com/fwojciec/adsift"
)

var _ adsift.Hider = (*Hider)(nil)

// Hider hides verified-publisher cards, publisher bars and decorative
// sections below a subtree root. Ads are never hidden.
//
// Elements that are already hidden are left alone, so a second pass over
// an unchanged subtree writes nothing.
type Hider struct {
	selectors adsift.Selectors
	logger    *slog.Logger
}

// NewHider creates a Hider for the given selectors.
// A nil logger discards hide failures silently.
func NewHider(selectors adsift.Selectors, logger *slog.Logger) *Hider {
	return &Hider{selectors: selectors, logger: logger}
}

// Apply runs the card, bar and section sweeps over root's descendants.
func (h *Hider) Apply(root adsift.Node) {
	if root == nil {
		return
	}
	h.hideVerifiedCards(root)
	h.hideBars(root)
	h.hideSections(root)
}

func (h *Hider) hideVerifiedCards(root adsift.Node) {
	for _, el := range root.Find(h.selectors.Candidates) {
		if el.Hidden() {
			continue
		}
		// Ads stay visible even when they carry a verified label.
		if isAd(el, h.selectors.AdMarker) {
			continue
		}
		if IsVerifiedPublisher(el) || h.hasVerifiedBadge(el) {
			h.hide(el)
		}
	}
}

func (h *Hider) hasVerifiedBadge(el adsift.Node) bool {
	if h.selectors.VerifiedMarker == "" {
		return false
	}
	return len(el.Find(h.selectors.VerifiedMarker)) > 0
}

func (h *Hider) hideBars(root adsift.Node) {
	if h.selectors.Bar == "" {
		return
	}
	for _, bar := range root.Find(h.selectors.Bar) {
		h.hide(bar)

		if !strings.Contains(strings.ToLower(bar.Text()), "verified publisher") {
			continue
		}

		container := bar.Closest(h.selectors.Container)
		if container == nil {
			container = bar.Parent()
		}
		// The ancestor is checked, not the bar.
		if container != nil && !isAd(container, h.selectors.AdMarker) {
			h.hide(container)
		}
	}
}

func (h *Hider) hideSections(root adsift.Node) {
	if h.selectors.Section == "" {
		return
	}
	for _, sec := range root.Find(h.selectors.Section) {
		h.hide(sec)
	}
}

func (h *Hider) hide(n adsift.Node) {
	if n.Hidden() {
		return
	}
	if err := n.Hide(); err != nil && h.logger != nil {
		h.logger.Debug("hide failed", "err", err)
	}
}
