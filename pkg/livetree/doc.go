// Package livetree is an in-memory live tree for the idom engine.
//
// Node mirrors the DOM shape (parent and sibling links, ordered
// attributes) and Tree adapts it to idom.TextTree while recording every
// mutation, which makes it suitable both as a test double and as the
// backing store of the idom CLI.
//
//	root, _ := livetree.ParseHTMLString(`<ul><li key="a">A</li></ul>`, "div")
//	tree := livetree.NewTree()
//	p := idom.New[*livetree.Node](tree)
//	_ = p.Patch(ctx, root, render)
//	fmt.Println(root.HTML(), tree.Total())
package livetree
