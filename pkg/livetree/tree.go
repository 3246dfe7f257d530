package livetree

import (
	"github.com/vango-dev/idom/pkg/idom"
)

// Op names a primitive mutation applied through Tree.
type Op string

const (
	OpCreate       Op = "create"
	OpCreateText   Op = "createText"
	OpSetAttr      Op = "setAttribute"
	OpRemoveAttr   Op = "removeAttribute"
	OpInsertBefore Op = "insertBefore"
	OpRemoveChild  Op = "removeChild"
	OpSetText      Op = "setText"
)

// Mutation is one recorded call of the tree capability.
type Mutation struct {
	Op    Op
	Tag   string // Tag of the target node
	Name  string // Attribute name
	Value string // Attribute value or text
}

// Tree adapts Nodes to the idom capability and records every mutation.
type Tree struct {
	log    []Mutation
	counts map[Op]int
}

// NewTree creates a Tree.
func NewTree() *Tree {
	return &Tree{counts: make(map[Op]int)}
}

var _ idom.TextTree[*Node] = (*Tree)(nil)

func (t *Tree) record(m Mutation) {
	t.log = append(t.log, m)
	t.counts[m.Op]++
}

// Log returns the mutations recorded since the last Reset.
func (t *Tree) Log() []Mutation {
	out := make([]Mutation, len(t.log))
	copy(out, t.log)
	return out
}

// Count returns how many mutations of op were recorded since the last Reset.
func (t *Tree) Count(op Op) int {
	return t.counts[op]
}

// Total returns the number of mutations recorded since the last Reset.
func (t *Tree) Total() int {
	return len(t.log)
}

// Reset clears the mutation log.
func (t *Tree) Reset() {
	t.log = t.log[:0]
	clear(t.counts)
}

// CreateNode implements idom.Tree.
func (t *Tree) CreateNode(tag, key string) *Node {
	t.record(Mutation{Op: OpCreate, Tag: tag, Name: key})
	n := NewElement(tag)
	n.Key = key
	return n
}

// CreateText implements idom.TextTree.
func (t *Tree) CreateText(value string) *Node {
	t.record(Mutation{Op: OpCreateText, Tag: idom.TextTag, Value: value})
	return NewText(value)
}

// SetText implements idom.TextTree.
func (t *Tree) SetText(node *Node, value string) {
	t.record(Mutation{Op: OpSetText, Tag: idom.TextTag, Value: value})
	node.Data = value
}

// GetAttribute implements idom.Tree.
func (t *Tree) GetAttribute(node *Node, name string) (idom.Value, bool) {
	return node.Attr(name)
}

// SetAttribute implements idom.Tree.
func (t *Tree) SetAttribute(node *Node, name string, value idom.Value) {
	t.record(Mutation{Op: OpSetAttr, Tag: node.Tag, Name: name, Value: value.String()})
	node.SetAttr(name, value)
}

// RemoveAttribute implements idom.Tree.
func (t *Tree) RemoveAttribute(node *Node, name string) {
	t.record(Mutation{Op: OpRemoveAttr, Tag: node.Tag, Name: name})
	node.RemoveAttr(name)
}

// InsertBefore implements idom.Tree.
func (t *Tree) InsertBefore(parent, node, ref *Node) {
	t.record(Mutation{Op: OpInsertBefore, Tag: t.Tag(node)})
	parent.InsertBefore(node, ref)
}

// RemoveChild implements idom.Tree.
func (t *Tree) RemoveChild(parent, node *Node) {
	t.record(Mutation{Op: OpRemoveChild, Tag: t.Tag(node)})
	parent.RemoveChild(node)
}

// FirstChild implements idom.Tree.
func (t *Tree) FirstChild(node *Node) *Node {
	return node.FirstChild
}

// NextSibling implements idom.Tree.
func (t *Tree) NextSibling(node *Node) *Node {
	return node.NextSibling
}

// Tag implements idom.Tree.
func (t *Tree) Tag(node *Node) string {
	if node.Type == TextNode {
		return idom.TextTag
	}
	return node.Tag
}

// Key implements idom.Tree.
func (t *Tree) Key(node *Node) string {
	return node.Key
}
