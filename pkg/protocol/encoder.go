package protocol

import (
	"encoding/binary"
	"math"

	"github.com/vango-dev/idom/pkg/idom"
)

// Encoder appends mutations to a growing buffer. Node IDs and lengths are
// unsigned varints, floats are big-endian IEEE 754.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an encoder sized for a typical frame.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 256)}
}

// Bytes returns the encoded frame data. It aliases the internal buffer.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Op starts a mutation record.
func (e *Encoder) Op(op MutationOp, node uint64) {
	e.buf = append(e.buf, byte(op))
	e.buf = binary.AppendUvarint(e.buf, node)
}

// Uvarint appends a count or node reference.
func (e *Encoder) Uvarint(v uint64) {
	e.buf = binary.AppendUvarint(e.buf, v)
}

// Text appends a length-prefixed string.
func (e *Encoder) Text(s string) {
	e.buf = binary.AppendUvarint(e.buf, uint64(len(s)))
	e.buf = append(e.buf, s...)
}

// Value appends an attribute value as a kind byte followed by its payload.
// Refs carry only their Go type name.
func (e *Encoder) Value(v idom.Value) {
	e.buf = append(e.buf, byte(v.Kind()))
	switch v.Kind() {
	case idom.KindString:
		e.Text(v.Str())
	case idom.KindBool:
		if v.BoolValue() {
			e.buf = append(e.buf, 1)
		} else {
			e.buf = append(e.buf, 0)
		}
	case idom.KindNumber:
		e.buf = binary.BigEndian.AppendUint64(e.buf, math.Float64bits(v.Num()))
	case idom.KindRef:
		e.Text(refName(v.Interface()))
	}
}
