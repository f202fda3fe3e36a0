package adsift

// Attribute is a single name/value pair on an element.
type Attribute struct {
	Name  string
	Value string
}

// Node is the capability set the heuristics need from a DOM element.
// Implementations exist for parsed snapshots and for live browser pages.
//
// Methods never fail loudly: an element that cannot report attributes or
// text reports none, so classification falls back to "no match".
type Node interface {
	// Find returns the descendants matching the CSS selector in document
	// order. The node itself is never included. An invalid selector
	// matches nothing.
	Find(selector string) []Node

	// Closest returns the nearest ancestor-or-self matching the selector,
	// or nil if there is none.
	Closest(selector string) Node

	// Parent returns the parent element, or nil at the top of the tree.
	Parent() Node

	// Attr returns the value of the named attribute.
	Attr(name string) (string, bool)

	// Attrs returns all attributes in source order.
	Attrs() []Attribute

	// Text returns the element's text content.
	Text() string

	// Hidden reports whether the element is already hidden.
	Hidden() bool

	// Hide sets display:none on the element.
	Hide() error
}

// Document is a DOM tree with a base URL, plus the same-origin frames
// embedded in it.
type Document interface {
	// Root returns the document element.
	Root() Node

	// URL returns the document's base URL.
	URL() string

	// Frames returns the documents of embedded frames that can be read.
	// Cross-origin frames are left out.
	Frames() []Document

	// Resolve returns ref as an absolute URL against the document's base
	// URL. Returns "" for empty or unparsable references.
	Resolve(ref string) string
}

// Hider hides the verified-publisher elements below a subtree root.
type Hider interface {
	Apply(root Node)
}

// Collector extracts ad records from a document and its frames.
type Collector interface {
	Collect(doc Document) []AdRecord
}
