package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/adsift"
	"golang.org/x/net/html"
)

// Ensure Node implements adsift.Node at compile time.
var _ adsift.Node = (*Node)(nil)

// Node wraps a single-node goquery selection.
type Node struct {
	sel *goquery.Selection
}

func newNode(sel *goquery.Selection) *Node {
	return &Node{sel: sel}
}

// Find returns the descendant elements matching selector.
func (n *Node) Find(selector string) []adsift.Node {
	if selector == "" {
		return nil
	}
	var nodes []adsift.Node
	n.sel.Find(selector).Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, newNode(s))
	})
	return nodes
}

// Closest returns the nearest ancestor-or-self matching selector.
func (n *Node) Closest(selector string) adsift.Node {
	if selector == "" {
		return nil
	}
	s := n.sel.Closest(selector)
	if s.Length() == 0 {
		return nil
	}
	return newNode(s)
}

// Parent returns the parent element, or nil when the parent is the
// document itself.
func (n *Node) Parent() adsift.Node {
	p := n.sel.Parent()
	if p.Length() == 0 || p.Get(0).Type != html.ElementNode {
		return nil
	}
	return newNode(p)
}

// Attr returns the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

// Attrs returns the element's attributes. The document node has none.
func (n *Node) Attrs() []adsift.Attribute {
	if n.sel.Length() == 0 {
		return nil
	}
	node := n.sel.Get(0)
	if node.Type != html.ElementNode {
		return nil
	}
	attrs := make([]adsift.Attribute, len(node.Attr))
	for i, a := range node.Attr {
		attrs[i] = adsift.Attribute{Name: a.Key, Value: a.Val}
	}
	return attrs
}

// Text returns the combined text of the element and its descendants.
func (n *Node) Text() string {
	return n.sel.Text()
}

// Hidden reports whether the inline style sets display:none.
func (n *Node) Hidden() bool {
	style, _ := n.sel.Attr("style")
	return hasDisplayNone(style)
}

// Hide appends display:none to the inline style.
func (n *Node) Hide() error {
	if n.sel.Length() == 0 || n.sel.Get(0).Type != html.ElementNode {
		return adsift.Errorf(adsift.EINVALID, "cannot hide a non-element node")
	}
	style, _ := n.sel.Attr("style")
	style = strings.TrimRight(strings.TrimSpace(style), ";")
	if style == "" {
		n.sel.SetAttr("style", "display: none")
		return nil
	}
	n.sel.SetAttr("style", style+"; display: none")
	return nil
}

func hasDisplayNone(style string) bool {
	for _, decl := range strings.Split(style, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(prop), "display") &&
			strings.EqualFold(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(val), "!important")), "none") {
			return true
		}
	}
	return false
}
