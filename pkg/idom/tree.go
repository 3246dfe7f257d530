package idom

// Tree is the live-tree capability the engine mutates.
//
// N identifies a node; its zero value means "no node", both as the
// result of FirstChild/NextSibling and as the reference of InsertBefore
// (append at the end).
type Tree[N comparable] interface {
	// CreateNode creates a detached element node.
	CreateNode(tag, key string) N

	// GetAttribute returns the attribute currently set on the node.
	GetAttribute(node N, name string) (Value, bool)

	// SetAttribute sets an attribute on the node.
	SetAttribute(node N, name string, value Value)

	// RemoveAttribute removes an attribute from the node.
	RemoveAttribute(node N, name string)

	// InsertBefore inserts node into parent before ref, or at the end when
	// ref is the zero node. A node that already has a parent is moved.
	InsertBefore(parent, node, ref N)

	// RemoveChild detaches node from parent.
	RemoveChild(parent, node N)

	// FirstChild returns the first child of node.
	FirstChild(node N) N

	// NextSibling returns the sibling following node.
	NextSibling(node N) N

	// Tag returns the tag name of node.
	Tag(node N) string

	// Key returns the reconciliation key of node, or "".
	Key(node N) string
}

// TextTree is implemented by trees that support text nodes.
// Text nodes report TextTag from Tag and an empty key.
type TextTree[N comparable] interface {
	Tree[N]

	// CreateText creates a detached text node.
	CreateText(value string) N

	// SetText replaces the content of a text node.
	SetText(node N, value string)
}

// TextTag is the tag reported for text nodes.
const TextTag = "#text"
