package protocol

import (
	"errors"
	"fmt"

	"github.com/vango-dev/idom/pkg/idom"
)

// MountID is the ID a Recorder assigns to the first node it is asked
// about, conventionally the patch root.
const MountID = 1

// ErrUnknownNode is returned when a mutation refers to an ID the replica
// has not seen.
var ErrUnknownNode = errors.New("protocol: unknown node")

// Replica applies decoded frames to another tree, rebuilding the
// recorded one. Node MountID maps to the mount node given to NewReplica.
type Replica[N comparable] struct {
	tree    idom.TextTree[N]
	nodes   map[uint64]N
	lastSeq uint64
}

// NewReplica creates a Replica writing into tree below mount.
func NewReplica[N comparable](tree idom.TextTree[N], mount N) *Replica[N] {
	return &Replica[N]{
		tree:  tree,
		nodes: map[uint64]N{MountID: mount},
	}
}

// Apply applies every mutation of f in order. Frames must arrive in
// sequence order.
func (r *Replica[N]) Apply(f *Frame) error {
	if f.Seq <= r.lastSeq {
		return fmt.Errorf("protocol: frame %d out of order (last %d)", f.Seq, r.lastSeq)
	}
	for i := range f.Mutations {
		if err := r.apply(&f.Mutations[i]); err != nil {
			return fmt.Errorf("frame %d mutation %d: %w", f.Seq, i, err)
		}
	}
	r.lastSeq = f.Seq
	return nil
}

func (r *Replica[N]) apply(m *Mutation) error {
	switch m.Op {
	case OpCreateNode:
		r.nodes[m.Node] = r.tree.CreateNode(m.Tag, m.Key)
		return nil
	case OpCreateText:
		r.nodes[m.Node] = r.tree.CreateText(m.Text)
		return nil
	}

	node, err := r.lookup(m.Node)
	if err != nil {
		return err
	}
	switch m.Op {
	case OpSetAttr:
		r.tree.SetAttribute(node, m.Name, m.Value)
	case OpRemoveAttr:
		r.tree.RemoveAttribute(node, m.Name)
	case OpSetText:
		r.tree.SetText(node, m.Text)
	case OpInsertBefore:
		parent, err := r.lookup(m.Parent)
		if err != nil {
			return err
		}
		var ref N
		if m.Ref != 0 {
			if ref, err = r.lookup(m.Ref); err != nil {
				return err
			}
		}
		r.tree.InsertBefore(parent, node, ref)
	case OpRemoveChild:
		parent, err := r.lookup(m.Parent)
		if err != nil {
			return err
		}
		r.tree.RemoveChild(parent, node)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOp, m.Op)
	}
	return nil
}

func (r *Replica[N]) lookup(id uint64) (N, error) {
	n, ok := r.nodes[id]
	if !ok {
		var zero N
		return zero, fmt.Errorf("%w: #%d", ErrUnknownNode, id)
	}
	return n, nil
}
