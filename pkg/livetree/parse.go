package livetree

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vango-dev/idom/pkg/idom"
)

// KeyAttr is the attribute read as the reconciliation key when parsing.
const KeyAttr = "key"

// ParseHTML parses an HTML fragment into the children of a new root
// element with the given tag. Whitespace-only text is dropped; a key
// attribute becomes the node key.
func ParseHTML(r io.Reader, rootTag string) (*Node, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}
	nodes, err := html.ParseFragment(r, context)
	if err != nil {
		return nil, fmt.Errorf("livetree: parse html: %w", err)
	}

	root := NewElement(rootTag)
	for _, hn := range nodes {
		if n := convert(hn); n != nil {
			root.AppendChild(n)
		}
	}
	return root, nil
}

// ParseHTMLString is ParseHTML over a string.
func ParseHTMLString(s, rootTag string) (*Node, error) {
	return ParseHTML(strings.NewReader(s), rootTag)
}

func convert(hn *html.Node) *Node {
	switch hn.Type {
	case html.TextNode:
		if strings.TrimSpace(hn.Data) == "" {
			return nil
		}
		return NewText(hn.Data)
	case html.ElementNode:
		n := NewElement(hn.Data)
		for _, a := range hn.Attr {
			if a.Key == KeyAttr {
				n.Key = a.Val
				continue
			}
			n.SetAttr(a.Key, idom.String(a.Val))
		}
		for c := hn.FirstChild; c != nil; c = c.NextSibling {
			if child := convert(c); child != nil {
				n.AppendChild(child)
			}
		}
		return n
	default:
		return nil
	}
}
