package livetree

import (
	"bytes"
	"io"
	"strings"

	"github.com/vango-dev/idom/pkg/idom"
)

// RenderOptions configures HTML serialisation.
type RenderOptions struct {
	// Pretty enables indented output with one element per line.
	Pretty bool

	// Indent is the string used for each indentation level in pretty mode.
	// Defaults to two spaces if not specified.
	Indent string

	// Keys renders reconciliation keys as a key="..." attribute.
	Keys bool
}

// voidElements have no closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// HTML renders the children of n as compact HTML.
func (n *Node) HTML() string {
	return RenderChildren(n, RenderOptions{})
}

// OuterHTML renders n itself as compact HTML.
func (n *Node) OuterHTML() string {
	var buf bytes.Buffer
	_ = Render(&buf, n, RenderOptions{})
	return buf.String()
}

// RenderChildren renders the children of n to a string.
func RenderChildren(n *Node, opts RenderOptions) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = Render(&buf, c, opts)
	}
	return buf.String()
}

// Render writes n and its subtree to w as HTML.
func Render(w io.Writer, n *Node, opts RenderOptions) error {
	if opts.Indent == "" {
		opts.Indent = "  "
	}
	r := &renderer{w: w, opts: opts}
	r.node(n, 0)
	return r.err
}

type renderer struct {
	w    io.Writer
	opts RenderOptions
	err  error
}

func (r *renderer) write(s string) {
	if r.err != nil {
		return
	}
	_, r.err = io.WriteString(r.w, s)
}

func (r *renderer) indent(depth int) {
	if r.opts.Pretty {
		r.write(strings.Repeat(r.opts.Indent, depth))
	}
}

func (r *renderer) newline() {
	if r.opts.Pretty {
		r.write("\n")
	}
}

func (r *renderer) node(n *Node, depth int) {
	if n.Type == TextNode {
		r.indent(depth)
		r.write(escapeHTML(n.Data))
		r.newline()
		return
	}

	r.indent(depth)
	r.write("<")
	r.write(n.Tag)
	if r.opts.Keys && n.Key != "" {
		r.write(` key="`)
		r.write(escapeAttr(n.Key))
		r.write(`"`)
	}
	for _, a := range n.attrs {
		r.attr(a)
	}
	r.write(">")

	if voidElements[n.Tag] {
		r.newline()
		return
	}
	if n.FirstChild != nil {
		r.newline()
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			r.node(c, depth+1)
		}
		r.indent(depth)
	}
	r.write("</")
	r.write(n.Tag)
	r.write(">")
	r.newline()
}

// attr writes one attribute. Refs have no markup form; true booleans
// render as bare attributes.
func (r *renderer) attr(a idom.Attr) {
	switch a.Value.Kind() {
	case idom.KindRef, idom.KindAbsent:
		return
	case idom.KindBool:
		if a.Value.BoolValue() {
			r.write(" ")
			r.write(a.Name)
		}
		return
	}
	r.write(" ")
	r.write(a.Name)
	r.write(`="`)
	r.write(escapeAttr(a.Value.String()))
	r.write(`"`)
}

// escapeHTML escapes text for safe inclusion in HTML content.
func escapeHTML(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}

// escapeAttr escapes text for a double-quoted attribute value.
func escapeAttr(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\n':
			buf.WriteString("&#10;")
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}
