package adsift

// Selectors is the DOM contract consumed from the host page. The host owns
// this markup and may change it without notice.
type Selectors struct {
	// Card matches one ad card container.
	Card string
	// Headline matches the headline element inside a card.
	Headline string
	// ClickThrough matches the preferred click-through anchor.
	ClickThrough string
	// Anchor matches any anchor usable as a fallback link.
	Anchor string
	// Image matches the card's foreground image.
	Image string
	// ImageFallback is tried when Image matches nothing.
	ImageFallback string

	// Candidates matches feed cards considered for hiding.
	Candidates string
	// VerifiedMarker matches nested verified badges.
	VerifiedMarker string
	// AdMarker matches descendants that mark an element as an ad.
	AdMarker string
	// Bar matches the publisher bar that is always hidden.
	Bar string
	// Container matches the card enclosing a verified-publisher bar.
	Container string
	// Section matches decorative sections that are always hidden.
	Section string

	// ControlID is the element ID of the injected export control.
	ControlID string
}

// DefaultSelectors returns the selectors for the current feed markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Card:          ".ad-card-container",
		Headline:      "h3.ad-headline, .ad-headline",
		ClickThrough:  "a.mspai-click-through[href]",
		Anchor:        "a[href]",
		Image:         "img.ad-foreground, .ad-foreground",
		ImageFallback: ".ad-image-container img",

		Candidates: `article, [data-testid*="card" i], [class*="card" i], [class*="feed" i] > *, ` +
			`[class*="post" i], section, li, div`,
		VerifiedMarker: `[aria-label*="verified" i], [class*="verified" i]`,
		AdMarker:       `iframe, [id*="ad" i], [class*="ad" i], [data-ad], [data-ad-slot], [data-ad-client]`,
		Bar:            "div.border-b.border-gray-200",
		Container:      `article, li, section, [data-testid*="card" i], [class*="card" i], [class*="post" i]`,
		Section:        "section.flex.flex-row.items-start.my-1",

		ControlID: "nb-export-ads-btn",
	}
}

// Merge returns s with every non-empty field of o applied on top.
func (s Selectors) Merge(o Selectors) Selectors {
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&s.Card, o.Card)
	pick(&s.Headline, o.Headline)
	pick(&s.ClickThrough, o.ClickThrough)
	pick(&s.Anchor, o.Anchor)
	pick(&s.Image, o.Image)
	pick(&s.ImageFallback, o.ImageFallback)
	pick(&s.Candidates, o.Candidates)
	pick(&s.VerifiedMarker, o.VerifiedMarker)
	pick(&s.AdMarker, o.AdMarker)
	pick(&s.Bar, o.Bar)
	pick(&s.Container, o.Container)
	pick(&s.Section, o.Section)
	pick(&s.ControlID, o.ControlID)
	return s
}

// Validate returns an error if a required selector is missing.
func (s *Selectors) Validate() error {
	switch {
	case s.Card == "":
		return Errorf(EINVALID, "card selector required")
	case s.Candidates == "":
		return Errorf(EINVALID, "candidates selector required")
	case s.AdMarker == "":
		return Errorf(EINVALID, "ad marker selector required")
	case s.ControlID == "":
		return Errorf(EINVALID, "control ID required")
	}
	return nil
}
