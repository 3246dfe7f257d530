// Package idom is an incremental tree-patching engine.
//
// A render callback describes the desired children of a root node as a
// stream of calls, and the engine mutates the live tree in place so it
// matches, reusing existing nodes and touching only what changed.
//
// # Call Stream
//
//	p := idom.New[*livetree.Node](tree)
//	err := p.Patch(ctx, root, func() error {
//	    p.ElementOpenStart("div", "", idom.Attrs("data-static", "world"))
//	    if expanded != "" {
//	        p.Attr("data-expanded", expanded)
//	    }
//	    p.ElementOpenEnd()
//	    p.ElementClose("div")
//	    return nil
//	})
//
// Attributes declared between ElementOpenStart and ElementOpenEnd are
// virtual: they are diffed against the previous pass, and a falsy value
// removes the attribute. Statics are applied once, when the node is
// created.
//
// # Matching
//
// At each position the node under the cursor is reused if tag and key
// match. A keyed element is otherwise searched among the following old
// siblings and moved into place. Unmatched elements are created; old
// children left unvisited when a scope closes are removed.
//
// # Errors
//
// Calls made out of order fail with a *SequencingError whose message is
// fixed (see the Msg constants). The first error aborts the walk: later
// calls return it without touching the tree, and Patch reports it. Walk
// state is always restored when Patch returns, so the next Patch starts
// clean.
package idom
