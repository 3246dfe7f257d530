package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/vango-dev/idom/pkg/idom"
)

// Limits applied to untrusted frame data.
const (
	// DefaultMaxAllocation bounds a single string or frame (4MB).
	DefaultMaxAllocation = 4 * 1024 * 1024

	// MaxCollectionCount bounds the number of mutations in a frame.
	MaxCollectionCount = 100_000
)

var (
	ErrVarintOverflow     = errors.New("protocol: varint overflow")
	ErrInvalidBool        = errors.New("protocol: invalid boolean value")
	ErrAllocationTooLarge = errors.New("protocol: allocation size exceeds limit")
	ErrCollectionTooLarge = errors.New("protocol: collection count exceeds limit")
)

// Decoder reads frame data produced by Encoder.
type Decoder struct {
	buf []byte
	pos int
}

func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

// EOF reports whether all input has been consumed.
func (d *Decoder) EOF() bool {
	return d.pos >= len(d.buf)
}

func (d *Decoder) readByte() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

// ReadOp reads the header of a mutation record: its op byte and target
// node. The op is not validated.
func (d *Decoder) ReadOp() (MutationOp, uint64, error) {
	op, err := d.readByte()
	if err != nil {
		return 0, 0, err
	}
	node, err := d.ReadUvarint()
	return MutationOp(op), node, err
}

// ReadUvarint reads an unsigned varint.
func (d *Decoder) ReadUvarint() (uint64, error) {
	v, n := binary.Uvarint(d.buf[d.pos:])
	switch {
	case n < 0:
		return 0, ErrVarintOverflow
	case n == 0:
		return 0, io.ErrUnexpectedEOF
	}
	d.pos += n
	return v, nil
}

// ReadString reads a length-prefixed string.
func (d *Decoder) ReadString() (string, error) {
	b, err := d.next()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// next reads a length prefix and returns that many bytes without copying.
func (d *Decoder) next() ([]byte, error) {
	length, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if length > DefaultMaxAllocation {
		return nil, ErrAllocationTooLarge
	}
	if length > uint64(d.Remaining()) {
		return nil, io.ErrUnexpectedEOF
	}
	b := d.buf[d.pos : d.pos+int(length)]
	d.pos += int(length)
	return b, nil
}

// ReadValue reads an attribute value written by Encoder.Value. Refs come
// back as OpaqueRef holding the sender's type name.
func (d *Decoder) ReadValue() (idom.Value, error) {
	kind, err := d.readByte()
	if err != nil {
		return idom.Value{}, err
	}
	switch idom.ValueKind(kind) {
	case idom.KindAbsent:
		return idom.Absent(), nil
	case idom.KindString:
		s, err := d.ReadString()
		return idom.String(s), err
	case idom.KindBool:
		b, err := d.readByte()
		if err != nil {
			return idom.Value{}, err
		}
		if b > 1 {
			return idom.Value{}, ErrInvalidBool
		}
		return idom.Bool(b == 1), nil
	case idom.KindNumber:
		if d.Remaining() < 8 {
			return idom.Value{}, io.ErrUnexpectedEOF
		}
		u := binary.BigEndian.Uint64(d.buf[d.pos:])
		d.pos += 8
		return idom.Number(math.Float64frombits(u)), nil
	case idom.KindRef:
		s, err := d.ReadString()
		return idom.Ref(OpaqueRef(s)), err
	default:
		return idom.Value{}, fmt.Errorf("%w: 0x%02x", ErrUnknownValueKind, kind)
	}
}

// ReadCollectionCount reads a count and checks it against
// MaxCollectionCount and the remaining input, assuming at least one byte
// per item.
func (d *Decoder) ReadCollectionCount() (int, error) {
	count, err := d.ReadUvarint()
	if err != nil {
		return 0, err
	}
	if count > MaxCollectionCount {
		return 0, ErrCollectionTooLarge
	}
	if count > uint64(d.Remaining()) {
		return 0, io.ErrUnexpectedEOF
	}
	return int(count), nil
}
