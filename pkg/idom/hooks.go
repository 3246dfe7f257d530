package idom

import (
	"context"
	"time"
)

// MutationKind classifies a primitive tree mutation for hooks.
type MutationKind uint8

const (
	MutationCreate MutationKind = iota
	MutationMove
	MutationRemove
	MutationSetAttr
	MutationRemoveAttr
	MutationSetText
)

// String returns the string representation of the MutationKind.
func (k MutationKind) String() string {
	switch k {
	case MutationCreate:
		return "create"
	case MutationMove:
		return "move"
	case MutationRemove:
		return "remove"
	case MutationSetAttr:
		return "set_attr"
	case MutationRemoveAttr:
		return "remove_attr"
	case MutationSetText:
		return "set_text"
	default:
		return "unknown"
	}
}

// PatchStats summarises one Patch invocation.
type PatchStats struct {
	Depth    int // Nesting level; 0 for a top-level patch
	Created  int
	Moved    int
	Removed  int
	AttrSets int
	AttrDels int
	Texts    int
	Duration time.Duration
}

// Mutations returns the number of mutations of every kind.
func (s PatchStats) Mutations() int {
	return s.Created + s.Moved + s.Removed + s.AttrSets + s.AttrDels + s.Texts
}

// Hooks observe the engine. Implementations must not call back into the
// Patcher.
type Hooks interface {
	// PatchStart is called before the render callback runs. The returned
	// context is passed to PatchEnd.
	PatchStart(ctx context.Context, depth int) context.Context

	// PatchEnd is called after cleanup with the outcome of the patch.
	PatchEnd(ctx context.Context, stats PatchStats, err error)

	// Mutation is called for every primitive mutation applied to the tree.
	Mutation(kind MutationKind, tag string)

	// SequencingError is called when a call violates the call-stream order.
	SequencingError(err *SequencingError)
}

// NopHooks implements Hooks with no-ops. Embed it to implement a subset.
type NopHooks struct{}

func (NopHooks) PatchStart(ctx context.Context, _ int) context.Context { return ctx }
func (NopHooks) PatchEnd(context.Context, PatchStats, error)           {}
func (NopHooks) Mutation(MutationKind, string)                         {}
func (NopHooks) SequencingError(*SequencingError)                      {}

// multiHooks fans out to several hooks.
type multiHooks []Hooks

func (m multiHooks) PatchStart(ctx context.Context, depth int) context.Context {
	for _, h := range m {
		ctx = h.PatchStart(ctx, depth)
	}
	return ctx
}

func (m multiHooks) PatchEnd(ctx context.Context, stats PatchStats, err error) {
	for i := len(m) - 1; i >= 0; i-- {
		m[i].PatchEnd(ctx, stats, err)
	}
}

func (m multiHooks) Mutation(kind MutationKind, tag string) {
	for _, h := range m {
		h.Mutation(kind, tag)
	}
}

func (m multiHooks) SequencingError(err *SequencingError) {
	for _, h := range m {
		h.SequencingError(err)
	}
}
