package livetree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHTML(t *testing.T) {
	root, err := ParseHTMLString(`
		<ul class="list">
			<li key="a" data-id="1">A</li>
			<li key="b">B</li>
		</ul>
		tail`, "section")
	require.NoError(t, err)

	assert.Equal(t, "section", root.Tag)
	require.Len(t, root.Children(), 2)

	ul := root.ChildAt(0)
	assert.Equal(t, "list", ul.AttrString("class"))
	items := ul.Children()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Key)
	assert.False(t, items[0].HasAttr(KeyAttr))
	assert.Equal(t, "1", items[0].AttrString("data-id"))
	assert.Equal(t, "B", items[1].FirstChild.Data)

	tail := root.ChildAt(1)
	assert.Equal(t, TextNode, tail.Type)
	assert.Contains(t, tail.Data, "tail")
}

func TestParseHTMLDropsComments(t *testing.T) {
	root, err := ParseHTMLString(`<!-- note --><b>x</b>`, "div")
	require.NoError(t, err)
	assert.Equal(t, "<b>x</b>", root.HTML())
}
