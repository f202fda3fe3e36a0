package rod

import (
	"net/url"
	"strings"
	"sync"

	"github.com/fwojciec/adsift"
	"github.com/go-rod/rod"
)

// Ensure Node implements adsift.Node at compile time.
var _ adsift.Node = (*Node)(nil)

// Node is a live element in a Chrome page. Every method is a round trip to
// the browser; a failed round trip reads as "no match".
//
// Elements returned by Find, Closest and Parent are page-side handles. They
// stay alive until released, so passes over live nodes should run through
// ReleasingHider or ReleasingExporter.
type Node struct {
	el    *rod.Element
	pool  *handles
	owned bool
}

// NewNode wraps el. Handles derived from the node are not tracked.
func NewNode(el *rod.Element) *Node {
	return &Node{el: el}
}

// handles collects the element handles created during one pass.
type handles struct {
	mu  sync.Mutex
	els []*rod.Element
}

func (h *handles) track(el *rod.Element) *rod.Element {
	if h == nil {
		return el
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.els = append(h.els, el)
	return el
}

// release frees every tracked handle and returns how many there were.
func (h *handles) release() int {
	h.mu.Lock()
	els := h.els
	h.els = nil
	h.mu.Unlock()

	for _, el := range els {
		_ = el.Release()
	}
	return len(els)
}

// scoped returns a copy of n that tracks derived handles in a fresh pool.
func (n *Node) scoped() *Node {
	return &Node{el: n.el, pool: &handles{}}
}

// Element returns the underlying rod element.
func (n *Node) Element() *rod.Element {
	return n.el
}

// Find returns the descendant elements matching selector.
func (n *Node) Find(selector string) []adsift.Node {
	if selector == "" {
		return nil
	}
	els, err := n.el.Elements(selector)
	if err != nil {
		return nil
	}
	return n.wrap(els)
}

// Closest returns the nearest ancestor-or-self matching selector.
func (n *Node) Closest(selector string) adsift.Node {
	if selector == "" {
		return nil
	}
	el, err := n.el.ElementByJS(rod.Eval(`(s) => this.closest(s)`, selector))
	if err != nil {
		return nil
	}
	return n.derive(el)
}

// Parent returns the parent element.
func (n *Node) Parent() adsift.Node {
	el, err := n.el.Parent()
	if err != nil {
		return nil
	}
	return n.derive(el)
}

// Attr returns the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	v, err := n.el.Attribute(name)
	if err != nil || v == nil {
		return "", false
	}
	return *v, true
}

// Attrs returns the element's attributes in source order.
func (n *Node) Attrs() []adsift.Attribute {
	res, err := n.el.Eval(`() => Array.from(this.attributes || [], (a) => [a.name, a.value])`)
	if err != nil {
		return nil
	}
	pairs := res.Value.Arr()
	attrs := make([]adsift.Attribute, 0, len(pairs))
	for _, p := range pairs {
		kv := p.Arr()
		if len(kv) != 2 {
			continue
		}
		attrs = append(attrs, adsift.Attribute{Name: kv[0].Str(), Value: kv[1].Str()})
	}
	return attrs
}

// Text returns the element's text content.
func (n *Node) Text() string {
	res, err := n.el.Eval(`() => this.textContent || ""`)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// Hidden reports whether the inline style sets display:none.
func (n *Node) Hidden() bool {
	res, err := n.el.Eval(`() => !!this.style && this.style.display === "none"`)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

// Hide sets display:none on the element's inline style.
func (n *Node) Hide() error {
	_, err := n.el.Eval(`() => { this.style.display = "none" }`)
	if err != nil {
		return adsift.Errorf(adsift.EINTERNAL, "hide element: %v", err)
	}
	return nil
}

func (n *Node) derive(el *rod.Element) *Node {
	return &Node{el: n.pool.track(el), pool: n.pool}
}

func (n *Node) wrap(els rod.Elements) []adsift.Node {
	if len(els) == 0 {
		return nil
	}
	nodes := make([]adsift.Node, len(els))
	for i, el := range els {
		nodes[i] = n.derive(el)
	}
	return nodes
}

// Ensure Document implements adsift.Document at compile time.
var _ adsift.Document = (*Document)(nil)

// Document is the live document of a page, or of a same-origin frame
// inside it.
type Document struct {
	page *rod.Page
	root *rod.Element
	pool *handles
}

// NewDocument returns the top-level document of page.
func NewDocument(page *rod.Page) *Document {
	return &Document{page: page}
}

// Root returns the document element, or nil if the page has none.
func (d *Document) Root() adsift.Node {
	el := d.rootElement()
	if el == nil {
		return nil
	}
	return &Node{el: el, pool: d.pool}
}

// rootElement looks the document element up. Scoped documents keep the
// handle for the rest of the pass and release it with the pool.
func (d *Document) rootElement() *rod.Element {
	if d.root != nil {
		return d.root
	}
	el, err := d.page.Sleeper(rod.NotFoundSleeper).ElementByJS(rod.Eval(`() => document.documentElement`))
	if err != nil {
		return nil
	}
	if d.pool == nil {
		return el
	}
	d.root = d.pool.track(el)
	return d.root
}

// scoped returns a copy of d whose handles are tracked in a fresh pool.
func (d *Document) scoped() *Document {
	if d.root != nil {
		return &Document{page: d.page, root: d.root, pool: &handles{}}
	}
	return &Document{page: d.page, pool: &handles{}}
}

// URL returns the document's base URL.
func (d *Document) URL() string {
	el := d.rootElement()
	if el == nil {
		return ""
	}
	res, err := el.Eval(`() => this.ownerDocument.baseURI`)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// Frames returns the documents of iframes whose content is readable from
// this document. Cross-origin frames have no readable content document and
// are left out.
func (d *Document) Frames() []adsift.Document {
	el := d.rootElement()
	if el == nil {
		return nil
	}
	roots, err := el.ElementsByJS(rod.Eval(`() => Array.from(this.ownerDocument.querySelectorAll("iframe, frame"))
		.map((f) => { try { return f.contentDocument && f.contentDocument.documentElement } catch (e) { return null } })
		.filter(Boolean)`))
	if err != nil {
		return nil
	}
	frames := make([]adsift.Document, 0, len(roots))
	for _, r := range roots {
		frames = append(frames, &Document{page: d.page, root: d.pool.track(r), pool: d.pool})
	}
	return frames
}

// Resolve returns ref as an absolute URL against the document's base URL.
func (d *Document) Resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	base, err := url.Parse(d.URL())
	if err != nil {
		return ""
	}
	return base.ResolveReference(r).String()
}
