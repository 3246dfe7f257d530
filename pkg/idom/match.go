package idom

// open resolves the node for (tag, key) in the current scope, reconciles
// its dynamic attributes and pushes a scope for its children.
func (p *Patcher[N]) open(w *walk[N], tag, key string, statics, attrs []Attr) N {
	sc := w.stack.top()
	node, fresh := p.match(w, sc, tag, key, statics, attrs)
	p.diffAttrs(w, node, attrs)

	var cursor N
	if !fresh {
		cursor = p.tree.FirstChild(node)
	}
	w.stack.push(scope[N]{parent: node, cursor: cursor, tag: tag})
	return node
}

// match returns the node to use for (tag, key) at the scope's cursor and
// whether it was just created.
//
// The node at the cursor is reused when both tag and key match. Otherwise
// a keyed request scans forward for the first sibling with the same key
// and moves it before the cursor; a sibling with the key but another tag
// ends the scan and is left for removal. Unkeyed requests never scan.
// Anything else creates a node before the cursor, leaving the cursor node
// pending.
func (p *Patcher[N]) match(w *walk[N], sc *scope[N], tag, key string, statics, attrs []Attr) (N, bool) {
	var zero N
	cur := sc.cursor

	if cur != zero && p.tree.Tag(cur) == tag && p.tree.Key(cur) == key {
		return cur, false
	}

	if key != "" {
		for n := cur; n != zero; n = p.tree.NextSibling(n) {
			if p.tree.Key(n) != key {
				continue
			}
			if p.tree.Tag(n) != tag {
				break
			}
			p.tree.InsertBefore(sc.parent, n, cur)
			w.stats.Moved++
			p.hooks.Mutation(MutationMove, tag)
			p.logger.Debug("node moved", "tag", tag, "key", key)
			return n, false
		}
	}

	node := p.create(w, tag, key, statics, attrs)
	p.tree.InsertBefore(sc.parent, node, cur)
	return node, true
}

// create makes a node and applies its statics. A static is skipped when a
// dynamic attribute of the same name is declared, since the dynamic one
// takes precedence.
func (p *Patcher[N]) create(w *walk[N], tag, key string, statics, attrs []Attr) N {
	node := p.tree.CreateNode(tag, key)
	w.stats.Created++
	p.hooks.Mutation(MutationCreate, tag)
	p.logger.Debug("node created", "tag", tag, "key", key)

	for _, s := range statics {
		if !s.Value.Truthy() || declares(attrs, s.Name) {
			continue
		}
		p.tree.SetAttribute(node, s.Name, s.Value)
		w.stats.AttrSets++
		p.hooks.Mutation(MutationSetAttr, tag)
	}
	p.data[node] = &nodeData{attrs: map[string]Value{}}
	return node
}

func declares(attrs []Attr, name string) bool {
	for _, a := range attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}

// clearFrom removes every child of parent from node to the end.
func (p *Patcher[N]) clearFrom(w *walk[N], parent, node N) {
	var zero N
	for node != zero {
		next := p.tree.NextSibling(node)
		tag := p.tree.Tag(node)
		p.forget(node)
		p.tree.RemoveChild(parent, node)
		w.stats.Removed++
		p.hooks.Mutation(MutationRemove, tag)
		p.logger.Debug("node removed", "tag", tag)
		node = next
	}
}

// forget drops bookkeeping for node and its descendants.
func (p *Patcher[N]) forget(node N) {
	if len(p.data) == 0 {
		return
	}
	var zero N
	delete(p.data, node)
	for c := p.tree.FirstChild(node); c != zero; c = p.tree.NextSibling(c) {
		p.forget(c)
	}
}
