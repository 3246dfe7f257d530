package protocol

import (
	"sync"

	"github.com/vango-dev/idom/pkg/idom"
)

// Recorder wraps an idom.Tree, forwarding every call and recording the
// mutating ones as wire mutations.
//
// Nodes get IDs in creation order. A node the Recorder did not create,
// such as the patch root, gets an ID the first time a mutation refers to
// it; the receiving side is expected to know such nodes by other means
// (the preview client maps ID 1 to its mount point).
//
// Recording is safe to read from other goroutines through Flush; the tree
// calls themselves follow the Patcher's single-goroutine contract.
type Recorder[N comparable] struct {
	inner idom.Tree[N]
	text  idom.TextTree[N]

	mu      sync.Mutex
	ids     map[N]uint64
	next    uint64
	seq     uint64
	pending []Mutation
}

// NewRecorder creates a Recorder forwarding to tree.
func NewRecorder[N comparable](tree idom.Tree[N]) *Recorder[N] {
	r := &Recorder[N]{
		inner: tree,
		ids:   make(map[N]uint64),
	}
	if tt, ok := tree.(idom.TextTree[N]); ok {
		r.text = tt
	}
	return r
}

// Tree returns the capability to hand to idom.New. It supports text nodes
// exactly when the wrapped tree does.
func (r *Recorder[N]) Tree() idom.Tree[N] {
	if r.text != nil {
		return textRecorder[N]{r}
	}
	return r
}

// ID returns the wire ID of node, assigning one if needed. The zero node
// has ID 0.
func (r *Recorder[N]) ID(node N) uint64 {
	var zero N
	if node == zero {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.idLocked(node)
}

func (r *Recorder[N]) idLocked(node N) uint64 {
	var zero N
	if node == zero {
		return 0
	}
	if id, ok := r.ids[node]; ok {
		return id
	}
	r.next++
	r.ids[node] = r.next
	return r.next
}

func (r *Recorder[N]) record(m Mutation) {
	r.mu.Lock()
	r.pending = append(r.pending, m)
	r.mu.Unlock()
}

// Pending returns the number of mutations recorded since the last Flush.
func (r *Recorder[N]) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Flush returns the pending mutations as the next frame, or nil when
// nothing was recorded.
func (r *Recorder[N]) Flush() *Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pending) == 0 {
		return nil
	}
	r.seq++
	f := &Frame{Seq: r.seq, Mutations: r.pending}
	r.pending = nil
	return f
}

func (r *Recorder[N]) CreateNode(tag, key string) N {
	node := r.inner.CreateNode(tag, key)
	r.mu.Lock()
	r.pending = append(r.pending, Mutation{Op: OpCreateNode, Node: r.idLocked(node), Tag: tag, Key: key})
	r.mu.Unlock()
	return node
}

func (r *Recorder[N]) GetAttribute(node N, name string) (idom.Value, bool) {
	return r.inner.GetAttribute(node, name)
}

func (r *Recorder[N]) SetAttribute(node N, name string, value idom.Value) {
	r.inner.SetAttribute(node, name, value)
	r.record(Mutation{Op: OpSetAttr, Node: r.ID(node), Name: name, Value: value})
}

func (r *Recorder[N]) RemoveAttribute(node N, name string) {
	r.inner.RemoveAttribute(node, name)
	r.record(Mutation{Op: OpRemoveAttr, Node: r.ID(node), Name: name})
}

func (r *Recorder[N]) InsertBefore(parent, node, ref N) {
	r.inner.InsertBefore(parent, node, ref)
	r.record(Mutation{Op: OpInsertBefore, Node: r.ID(node), Parent: r.ID(parent), Ref: r.ID(ref)})
}

func (r *Recorder[N]) RemoveChild(parent, node N) {
	r.inner.RemoveChild(parent, node)
	r.record(Mutation{Op: OpRemoveChild, Node: r.ID(node), Parent: r.ID(parent)})
}

func (r *Recorder[N]) FirstChild(node N) N  { return r.inner.FirstChild(node) }
func (r *Recorder[N]) NextSibling(node N) N { return r.inner.NextSibling(node) }
func (r *Recorder[N]) Tag(node N) string    { return r.inner.Tag(node) }
func (r *Recorder[N]) Key(node N) string    { return r.inner.Key(node) }

// textRecorder adds the text capability to a Recorder.
type textRecorder[N comparable] struct {
	*Recorder[N]
}

func (r textRecorder[N]) CreateText(value string) N {
	node := r.text.CreateText(value)
	r.mu.Lock()
	r.pending = append(r.pending, Mutation{Op: OpCreateText, Node: r.idLocked(node), Text: value})
	r.mu.Unlock()
	return node
}

func (r textRecorder[N]) SetText(node N, value string) {
	r.text.SetText(node, value)
	r.record(Mutation{Op: OpSetText, Node: r.ID(node), Text: value})
}
