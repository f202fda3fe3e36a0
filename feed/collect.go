package feed

import (
	"strings"

	"github.com/fwojciec/adsift"
)

// maxFrameDepth bounds recursion into nested frames.
const maxFrameDepth = 8

var _ adsift.Collector = (*Collector)(nil)

// Collector extracts ad cards from a document and every readable frame
// nested in it.
type Collector struct {
	selectors adsift.Selectors
}

// NewCollector creates a Collector for the given selectors.
func NewCollector(selectors adsift.Selectors) *Collector {
	return &Collector{selectors: selectors}
}

// Collect returns the deduplicated ad records in document order.
// Cards without a headline, link or image are dropped.
func (c *Collector) Collect(doc adsift.Document) []adsift.AdRecord {
	var records []adsift.AdRecord
	for _, d := range documents(doc, 0) {
		root := d.Root()
		if root == nil {
			continue
		}
		for _, card := range root.Find(c.selectors.Card) {
			r := c.extract(d, card)
			if r.Empty() {
				continue
			}
			records = append(records, r)
		}
	}
	return Dedupe(records)
}

func (c *Collector) extract(doc adsift.Document, card adsift.Node) adsift.AdRecord {
	return adsift.AdRecord{
		Headline: c.headline(card),
		Link:     c.link(doc, card),
		Image:    c.image(doc, card),
	}
}

func (c *Collector) headline(card adsift.Node) string {
	el := first(card.Find(c.selectors.Headline))
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}

// link prefers the marked click-through anchor, searching descendants
// before ancestors, then falls back to any anchor with an href.
func (c *Collector) link(doc adsift.Document, card adsift.Node) string {
	for _, sel := range []string{c.selectors.ClickThrough, c.selectors.Anchor} {
		if sel == "" {
			continue
		}
		if href := attr(first(card.Find(sel)), "href"); href != "" {
			return doc.Resolve(href)
		}
		if href := attr(card.Closest(sel), "href"); href != "" {
			return doc.Resolve(href)
		}
	}
	return ""
}

func (c *Collector) image(doc adsift.Document, card adsift.Node) string {
	for _, sel := range []string{c.selectors.Image, c.selectors.ImageFallback} {
		if sel == "" {
			continue
		}
		if src := attr(first(card.Find(sel)), "src"); src != "" {
			return doc.Resolve(src)
		}
	}
	return ""
}

// documents flattens doc and its readable frames, depth first.
func documents(doc adsift.Document, depth int) []adsift.Document {
	if doc == nil {
		return nil
	}
	docs := []adsift.Document{doc}
	if depth >= maxFrameDepth {
		return docs
	}
	for _, f := range doc.Frames() {
		docs = append(docs, documents(f, depth+1)...)
	}
	return docs
}

func first(nodes []adsift.Node) adsift.Node {
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

func attr(n adsift.Node, name string) string {
	if n == nil {
		return ""
	}
	v, _ := n.Attr(name)
	return strings.TrimSpace(v)
}
