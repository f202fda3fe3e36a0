package goquery

import (
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/adsift"
)

// Ensure Document implements adsift.Document at compile time.
var _ adsift.Document = (*Document)(nil)

// Document is a parsed HTML snapshot. Hiding an element writes a
// display:none style attribute into the tree, so the cleaned markup can be
// rendered back with HTML.
type Document struct {
	doc    *goquery.Document
	base   *url.URL
	frames []*Document
}

// NewDocument parses html with baseURL as its location.
func NewDocument(html string, baseURL string) (*Document, error) {
	return NewDocumentFromReader(strings.NewReader(html), baseURL)
}

// NewDocumentFromReader parses HTML from r with baseURL as its location.
// A <base href> element in the document overrides baseURL for resolving
// relative references.
func NewDocumentFromReader(r io.Reader, baseURL string) (*Document, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, adsift.Errorf(adsift.EINVALID, "invalid base URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, adsift.Errorf(adsift.EINVALID, "failed to parse HTML: %v", err)
	}
	doc.Url = base

	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			base = base.ResolveReference(ref)
		}
	}

	return &Document{doc: doc, base: base}, nil
}

// AttachFrame embeds f as a frame of d. Frames from another origin cannot
// be read and are skipped; AttachFrame reports whether f was attached.
func (d *Document) AttachFrame(f *Document) bool {
	if f == nil || !sameOrigin(d.base, f.base) {
		return false
	}
	d.frames = append(d.frames, f)
	return true
}

// AttachInlineFrames parses the srcdoc of every iframe in d and attaches
// it as a frame. Inline frames share the parent's location. It returns the
// number of frames attached.
func (d *Document) AttachInlineFrames() int {
	n := 0
	d.doc.Find("iframe[srcdoc]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("srcdoc")
		f, err := NewDocument(src, d.base.String())
		if err != nil {
			return
		}
		if d.AttachFrame(f) {
			n++
		}
	})
	return n
}

// Root returns the document node.
func (d *Document) Root() adsift.Node {
	return newNode(d.doc.Selection)
}

// URL returns the document's location.
func (d *Document) URL() string {
	return d.doc.Url.String()
}

// Frames returns the attached same-origin frames.
func (d *Document) Frames() []adsift.Document {
	frames := make([]adsift.Document, len(d.frames))
	for i, f := range d.frames {
		frames[i] = f
	}
	return frames
}

// Resolve returns ref as an absolute URL against the document base.
func (d *Document) Resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return d.base.ResolveReference(u).String()
}

// HTML renders the document, including any hiding applied to it.
func (d *Document) HTML() (string, error) {
	return d.doc.Html()
}

func sameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) && strings.EqualFold(a.Host, b.Host)
}
