package idom

// ElementOpenStart begins declaring an element whose dynamic attributes
// follow as Attr calls, terminated by ElementOpenEnd.
func (p *Patcher[N]) ElementOpenStart(tag, key string, statics []Attr) error {
	w, err := p.active()
	if err != nil {
		return err
	}
	if w.builder.building() {
		return p.fail(w, newSequencingError(OpElementOpenStart, MsgOpenStartInsideBuild))
	}
	w.builder.start(tag, key, statics)
	return nil
}

// Attr buffers a dynamic attribute of the element being declared. A falsy
// value declares the attribute absent for this pass.
func (p *Patcher[N]) Attr(name string, value any) error {
	w, err := p.active()
	if err != nil {
		return err
	}
	if !w.builder.building() {
		return p.fail(w, newSequencingError(OpAttr, MsgAttrOutsideBuild))
	}
	w.builder.set(name, ValueOf(value))
	return nil
}

// ElementOpenEnd finishes the declaration started by ElementOpenStart,
// matches or creates the element, reconciles its attributes and enters it.
func (p *Patcher[N]) ElementOpenEnd() (N, error) {
	w, err := p.active()
	if err != nil {
		var zero N
		return zero, err
	}
	if !w.builder.building() {
		var zero N
		return zero, p.fail(w, newSequencingError(OpElementOpenEnd, MsgOpenEndWithoutStart))
	}
	b := &w.builder
	node := p.open(w, b.tag, b.key, b.statics, b.attrs)
	b.reset()
	return node, nil
}

// ElementOpen declares an element and enters it. attrs are dynamic
// attributes, reconciled like Attr calls.
func (p *Patcher[N]) ElementOpen(tag, key string, statics []Attr, attrs ...Attr) (N, error) {
	w, err := p.active()
	if err != nil {
		var zero N
		return zero, err
	}
	if w.builder.building() {
		var zero N
		return zero, p.fail(w, newSequencingError(OpElementOpen, MsgOpenInsideBuild))
	}
	return p.open(w, tag, key, statics, dedupe(attrs)), nil
}

// ElementVoid declares an element without children.
func (p *Patcher[N]) ElementVoid(tag, key string, statics []Attr, attrs ...Attr) (N, error) {
	node, err := p.ElementOpen(tag, key, statics, attrs...)
	if err != nil {
		return node, err
	}
	return p.ElementClose(tag)
}

// ElementClose leaves the current element, removing any of its old
// children that were not visited, and returns it. tag is only checked in
// debug mode and may be empty.
func (p *Patcher[N]) ElementClose(tag string) (N, error) {
	var zero N
	w, err := p.active()
	if err != nil {
		return zero, err
	}
	if w.builder.building() {
		return zero, p.fail(w, newSequencingError(OpElementClose, MsgCloseInsideBuild))
	}
	if w.stack.depth() <= 1 {
		return zero, p.fail(w, newSequencingError(OpElementClose, MsgCloseWithoutOpen))
	}
	if open := w.stack.top().tag; p.debug && tag != "" && tag != open {
		return zero, p.fail(w, errCloseMismatch(tag, open))
	}

	closed := w.stack.pop()
	p.clearFrom(w, closed.parent, closed.cursor)
	w.stack.top().cursor = p.tree.NextSibling(closed.parent)
	return closed.parent, nil
}

// Text declares a text node at the current position.
func (p *Patcher[N]) Text(value string) (N, error) {
	var zero N
	w, err := p.active()
	if err != nil {
		return zero, err
	}
	if w.builder.building() {
		return zero, p.fail(w, newSequencingError(OpText, MsgTextInsideBuild))
	}
	if p.text == nil {
		return zero, ErrNoTextSupport
	}

	sc := w.stack.top()
	node := sc.cursor
	if node != zero && p.tree.Tag(node) == TextTag {
		d := p.data[node]
		if d == nil {
			d = &nodeData{}
			p.data[node] = d
			p.setText(w, node, value)
		} else if d.text != value {
			p.setText(w, node, value)
		}
		d.text = value
	} else {
		node = p.text.CreateText(value)
		p.tree.InsertBefore(sc.parent, node, sc.cursor)
		p.data[node] = &nodeData{text: value}
		w.stats.Created++
		p.hooks.Mutation(MutationCreate, TextTag)
	}
	sc.cursor = p.tree.NextSibling(node)
	return node, nil
}

func (p *Patcher[N]) setText(w *walk[N], node N, value string) {
	p.text.SetText(node, value)
	w.stats.Texts++
	p.hooks.Mutation(MutationSetText, TextTag)
}

// Skip keeps the remaining old children of the current element as they are.
func (p *Patcher[N]) Skip() error {
	w, err := p.active()
	if err != nil {
		return err
	}
	if w.builder.building() {
		return p.fail(w, newSequencingError(OpSkip, MsgSkipInsideBuild))
	}
	var zero N
	w.stack.top().cursor = zero
	return nil
}

// dedupe resolves repeated names in attrs to the last value, keeping the
// position of the first occurrence.
func dedupe(attrs []Attr) []Attr {
	if len(attrs) < 2 {
		return attrs
	}
	var b attrBuilder
	b.start("", "", nil)
	for _, a := range attrs {
		b.set(a.Name, a.Value)
	}
	return b.attrs
}
