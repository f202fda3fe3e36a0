package mock

import "github.com/fwojciec/adsift"

var _ adsift.Node = (*Node)(nil)

// Node is a mock implementation of adsift.Node.
type Node struct {
	FindFn    func(selector string) []adsift.Node
	ClosestFn func(selector string) adsift.Node
	ParentFn  func() adsift.Node
	AttrFn    func(name string) (string, bool)
	AttrsFn   func() []adsift.Attribute
	TextFn    func() string
	HiddenFn  func() bool
	HideFn    func() error
}

func (n *Node) Find(selector string) []adsift.Node {
	return n.FindFn(selector)
}

func (n *Node) Closest(selector string) adsift.Node {
	return n.ClosestFn(selector)
}

func (n *Node) Parent() adsift.Node {
	return n.ParentFn()
}

func (n *Node) Attr(name string) (string, bool) {
	return n.AttrFn(name)
}

func (n *Node) Attrs() []adsift.Attribute {
	return n.AttrsFn()
}

func (n *Node) Text() string {
	return n.TextFn()
}

func (n *Node) Hidden() bool {
	return n.HiddenFn()
}

func (n *Node) Hide() error {
	return n.HideFn()
}

var _ adsift.Document = (*Document)(nil)

// Document is a mock implementation of adsift.Document.
type Document struct {
	RootFn    func() adsift.Node
	URLFn     func() string
	FramesFn  func() []adsift.Document
	ResolveFn func(ref string) string
}

func (d *Document) Root() adsift.Node {
	return d.RootFn()
}

func (d *Document) URL() string {
	return d.URLFn()
}

func (d *Document) Frames() []adsift.Document {
	return d.FramesFn()
}

func (d *Document) Resolve(ref string) string {
	return d.ResolveFn(ref)
}

var _ adsift.Hider = (*Hider)(nil)

// Hider is a mock implementation of adsift.Hider.
type Hider struct {
	ApplyFn func(root adsift.Node)
}

func (h *Hider) Apply(root adsift.Node) {
	h.ApplyFn(root)
}

var _ adsift.Collector = (*Collector)(nil)

// Collector is a mock implementation of adsift.Collector.
type Collector struct {
	CollectFn func(doc adsift.Document) []adsift.AdRecord
}

func (c *Collector) Collect(doc adsift.Document) []adsift.AdRecord {
	return c.CollectFn(doc)
}
