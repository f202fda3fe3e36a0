package adsift

import "context"

// MutationKind is the kind of a DOM mutation record.
type MutationKind string

// Mutation kinds delivered by observers.
const (
	MutationChildList  MutationKind = "childList"
	MutationAttributes MutationKind = "attributes"
)

// Mutation is one observed change. Nodes holds the added element nodes for
// child-list mutations and the mutated element for attribute mutations.
type Mutation struct {
	Kind  MutationKind
	Nodes []Node
}

// MutationBatch is the set of mutations delivered in one notification.
type MutationBatch []Mutation

// Observer watches a document for structural and attribute changes.
type Observer interface {
	// Observe starts delivering batches to fn until ctx is done.
	// fn is never called concurrently with itself.
	Observe(ctx context.Context, fn func(MutationBatch)) error
}

// Control is the export trigger injected into the page.
type Control interface {
	// Present reports whether the control is currently in the document.
	Present(ctx context.Context) (bool, error)

	// Inject adds the control, replacing a stale copy if one exists.
	// Returns ENOTREADY when the document has nowhere to mount it yet.
	Inject(ctx context.Context) error

	// OnClick starts delivering activations of the control to fn until
	// ctx is done.
	OnClick(ctx context.Context, fn func()) error
}
