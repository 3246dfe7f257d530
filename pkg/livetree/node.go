package livetree

import (
	"github.com/vango-dev/idom/pkg/idom"
)

// NodeType is the node type discriminator.
type NodeType uint8

const (
	ElementNode NodeType = iota // <div>, <button>, etc.
	TextNode                    // Plain text
)

// String returns the string representation of the NodeType.
func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "Element"
	case TextNode:
		return "Text"
	default:
		return "Unknown"
	}
}

// Node is a node of the in-memory tree. Children form a doubly linked
// list, like the DOM and golang.org/x/net/html.
type Node struct {
	Type NodeType
	Tag  string // Element tag name
	Key  string // Reconciliation key
	Data string // Text content for TextNode

	attrs []idom.Attr

	Parent, FirstChild, LastChild, PrevSibling, NextSibling *Node
}

// NewElement creates a detached element.
func NewElement(tag string) *Node {
	return &Node{Type: ElementNode, Tag: tag}
}

// NewText creates a detached text node.
func NewText(data string) *Node {
	return &Node{Type: TextNode, Data: data}
}

// Attr returns the value of an attribute.
func (n *Node) Attr(name string) (idom.Value, bool) {
	for _, a := range n.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return idom.Value{}, false
}

// AttrString returns the serialised value of an attribute, or "".
func (n *Node) AttrString(name string) string {
	v, _ := n.Attr(name)
	return v.String()
}

// HasAttr reports whether the attribute is set.
func (n *Node) HasAttr(name string) bool {
	_, ok := n.Attr(name)
	return ok
}

// Attributes returns a copy of the attributes in insertion order.
func (n *Node) Attributes() []idom.Attr {
	out := make([]idom.Attr, len(n.attrs))
	copy(out, n.attrs)
	return out
}

// SetAttr sets an attribute, keeping the position of an existing one.
func (n *Node) SetAttr(name string, value idom.Value) {
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs[i].Value = value
			return
		}
	}
	n.attrs = append(n.attrs, idom.Attr{Name: name, Value: value})
}

// RemoveAttr removes an attribute if present.
func (n *Node) RemoveAttr(name string) {
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
			return
		}
	}
}

// Children returns the child nodes in order.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// ChildAt returns the i-th child, or nil.
func (n *Node) ChildAt(i int) *Node {
	c := n.FirstChild
	for ; c != nil && i > 0; i-- {
		c = c.NextSibling
	}
	return c
}

// InsertBefore inserts child before ref, or appends it when ref is nil.
// A child that already has a parent is detached first.
func (n *Node) InsertBefore(child, ref *Node) {
	if child == ref {
		return
	}
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	var prev, next *Node
	if ref != nil {
		prev, next = ref.PrevSibling, ref
	} else {
		prev = n.LastChild
	}
	if prev != nil {
		prev.NextSibling = child
	} else {
		n.FirstChild = child
	}
	if next != nil {
		next.PrevSibling = child
	} else {
		n.LastChild = child
	}
	child.Parent = n
	child.PrevSibling = prev
	child.NextSibling = next
}

// AppendChild appends child.
func (n *Node) AppendChild(child *Node) {
	n.InsertBefore(child, nil)
}

// RemoveChild detaches child. It panics if child is not a child of n.
func (n *Node) RemoveChild(child *Node) {
	if child.Parent != n {
		panic("livetree: RemoveChild called for a non-child Node")
	}
	if n.FirstChild == child {
		n.FirstChild = child.NextSibling
	}
	if child.NextSibling != nil {
		child.NextSibling.PrevSibling = child.PrevSibling
	}
	if n.LastChild == child {
		n.LastChild = child.PrevSibling
	}
	if child.PrevSibling != nil {
		child.PrevSibling.NextSibling = child.NextSibling
	}
	child.Parent = nil
	child.PrevSibling = nil
	child.NextSibling = nil
}

// FindByID returns the first element in the subtree with the given id
// attribute, searching depth-first.
func (n *Node) FindByID(id string) *Node {
	if n.Type == ElementNode {
		if v, ok := n.Attr("id"); ok && v.String() == id {
			return n
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := c.FindByID(id); found != nil {
			return found
		}
	}
	return nil
}

// Count returns the number of nodes in the subtree, n included.
func (n *Node) Count() int {
	total := 1
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		total += c.Count()
	}
	return total
}
