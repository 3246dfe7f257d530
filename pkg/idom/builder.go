package idom

// buildMode is the state of the virtual attribute builder.
type buildMode uint8

const (
	modeIdle buildMode = iota
	modeBuilding
)

// attrBuilder buffers the element being declared between
// elementOpenStart and elementOpenEnd.
type attrBuilder struct {
	mode    buildMode
	tag     string
	key     string
	statics []Attr
	// attrs holds one entry per name in first-declaration order.
	attrs []Attr
	index map[string]int
}

func (b *attrBuilder) building() bool {
	return b.mode == modeBuilding
}

// start enters the Building state.
func (b *attrBuilder) start(tag, key string, statics []Attr) {
	b.mode = modeBuilding
	b.tag = tag
	b.key = key
	b.statics = statics
	b.attrs = b.attrs[:0]
	if b.index == nil {
		b.index = make(map[string]int)
	} else {
		clear(b.index)
	}
}

// set upserts a dynamic attribute; the last write for a name wins.
func (b *attrBuilder) set(name string, value Value) {
	if i, ok := b.index[name]; ok {
		b.attrs[i].Value = value
		return
	}
	b.index[name] = len(b.attrs)
	b.attrs = append(b.attrs, Attr{Name: name, Value: value})
}

// reset returns to Idle and drops buffered state.
func (b *attrBuilder) reset() {
	b.mode = modeIdle
	b.tag = ""
	b.key = ""
	b.statics = nil
	for i := range b.attrs {
		b.attrs[i] = Attr{}
	}
	b.attrs = b.attrs[:0]
	clear(b.index)
}
