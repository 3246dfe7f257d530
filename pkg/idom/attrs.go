package idom

// diffAttrs reconciles the dynamic attributes of node with attrs and
// records the new snapshot. Names in attrs are unique.
//
// Without a snapshot (a node the engine did not create or reconcile yet)
// the live attributes are consulted instead, so values already in place
// are not rewritten.
func (p *Patcher[N]) diffAttrs(w *walk[N], node N, attrs []Attr) {
	d := p.data[node]
	known := d != nil && d.attrs != nil
	if d == nil {
		d = &nodeData{}
		p.data[node] = d
	}
	tag := p.tree.Tag(node)

	next := make(map[string]Value, len(attrs))
	order := make([]string, 0, len(attrs))
	for _, a := range attrs {
		if !a.Value.Truthy() {
			continue
		}
		next[a.Name] = a.Value
		order = append(order, a.Name)

		var prev Value
		var had bool
		if known {
			prev, had = d.attrs[a.Name]
		} else {
			prev, had = p.tree.GetAttribute(node, a.Name)
		}
		if had && prev.Equal(a.Value) {
			continue
		}
		p.tree.SetAttribute(node, a.Name, a.Value)
		w.stats.AttrSets++
		p.hooks.Mutation(MutationSetAttr, tag)
	}

	if known {
		for _, name := range d.order {
			if _, keep := next[name]; keep {
				continue
			}
			p.removeAttr(w, node, tag, name)
		}
	} else {
		for _, a := range attrs {
			if a.Value.Truthy() {
				continue
			}
			if _, had := p.tree.GetAttribute(node, a.Name); had {
				p.removeAttr(w, node, tag, a.Name)
			}
		}
	}

	d.attrs = next
	d.order = order
}

func (p *Patcher[N]) removeAttr(w *walk[N], node N, tag, name string) {
	p.tree.RemoveAttribute(node, name)
	w.stats.AttrDels++
	p.hooks.Mutation(MutationRemoveAttr, tag)
}
