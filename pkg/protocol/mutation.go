package protocol

import (
	"errors"
	"fmt"

	"github.com/vango-dev/idom/pkg/idom"
)

// MutationOp identifies a primitive tree mutation.
type MutationOp uint8

const (
	OpCreateNode   MutationOp = 0x01
	OpCreateText   MutationOp = 0x02
	OpSetAttr      MutationOp = 0x03
	OpRemoveAttr   MutationOp = 0x04
	OpInsertBefore MutationOp = 0x05
	OpRemoveChild  MutationOp = 0x06
	OpSetText      MutationOp = 0x07
)

// String returns the string representation of the op.
func (op MutationOp) String() string {
	switch op {
	case OpCreateNode:
		return "CreateNode"
	case OpCreateText:
		return "CreateText"
	case OpSetAttr:
		return "SetAttr"
	case OpRemoveAttr:
		return "RemoveAttr"
	case OpInsertBefore:
		return "InsertBefore"
	case OpRemoveChild:
		return "RemoveChild"
	case OpSetText:
		return "SetText"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(op))
	}
}

// ErrUnknownOp is returned when decoding an unknown mutation op.
var ErrUnknownOp = errors.New("protocol: unknown mutation op")

// ErrUnknownValueKind is returned when decoding an unknown value kind.
var ErrUnknownValueKind = errors.New("protocol: unknown value kind")

// Mutation is one primitive mutation. Which fields are meaningful
// depends on Op.
type Mutation struct {
	Op     MutationOp
	Node   uint64
	Parent uint64 // InsertBefore, RemoveChild
	Ref    uint64 // InsertBefore; 0 appends
	Tag    string // CreateNode
	Key    string // CreateNode
	Name   string // SetAttr, RemoveAttr
	Value  idom.Value
	Text   string // CreateText, SetText
}

// String formats the mutation for logs and the decode command.
func (m Mutation) String() string {
	switch m.Op {
	case OpCreateNode:
		if m.Key != "" {
			return fmt.Sprintf("%s #%d <%s key=%q>", m.Op, m.Node, m.Tag, m.Key)
		}
		return fmt.Sprintf("%s #%d <%s>", m.Op, m.Node, m.Tag)
	case OpCreateText, OpSetText:
		return fmt.Sprintf("%s #%d %q", m.Op, m.Node, m.Text)
	case OpSetAttr:
		return fmt.Sprintf("%s #%d %s=%#v", m.Op, m.Node, m.Name, m.Value)
	case OpRemoveAttr:
		return fmt.Sprintf("%s #%d %s", m.Op, m.Node, m.Name)
	case OpInsertBefore:
		return fmt.Sprintf("%s #%d parent=#%d ref=#%d", m.Op, m.Node, m.Parent, m.Ref)
	case OpRemoveChild:
		return fmt.Sprintf("%s #%d parent=#%d", m.Op, m.Node, m.Parent)
	default:
		return m.Op.String()
	}
}

// OpaqueRef stands in for a reference value received over the wire. Refs
// have no portable encoding; only their Go type name is transmitted.
type OpaqueRef string

// EncodeMutationTo encodes a mutation using the provided encoder.
func EncodeMutationTo(e *Encoder, m *Mutation) {
	e.Op(m.Op, m.Node)

	switch m.Op {
	case OpCreateNode:
		e.Text(m.Tag)
		e.Text(m.Key)
	case OpCreateText, OpSetText:
		e.Text(m.Text)
	case OpSetAttr:
		e.Text(m.Name)
		e.Value(m.Value)
	case OpRemoveAttr:
		e.Text(m.Name)
	case OpInsertBefore:
		e.Uvarint(m.Parent)
		e.Uvarint(m.Ref)
	case OpRemoveChild:
		e.Uvarint(m.Parent)
	}
}

// DecodeMutationFrom decodes a mutation from a decoder.
func DecodeMutationFrom(d *Decoder) (Mutation, error) {
	var m Mutation
	var err error
	if m.Op, m.Node, err = d.ReadOp(); err != nil {
		return m, err
	}

	switch m.Op {
	case OpCreateNode:
		if m.Tag, err = d.ReadString(); err != nil {
			return m, err
		}
		m.Key, err = d.ReadString()
	case OpCreateText, OpSetText:
		m.Text, err = d.ReadString()
	case OpSetAttr:
		if m.Name, err = d.ReadString(); err != nil {
			return m, err
		}
		m.Value, err = d.ReadValue()
	case OpRemoveAttr:
		m.Name, err = d.ReadString()
	case OpInsertBefore:
		if m.Parent, err = d.ReadUvarint(); err != nil {
			return m, err
		}
		m.Ref, err = d.ReadUvarint()
	case OpRemoveChild:
		m.Parent, err = d.ReadUvarint()
	default:
		return m, fmt.Errorf("%w: 0x%02x", ErrUnknownOp, byte(m.Op))
	}
	return m, err
}

func refName(v any) string {
	if r, ok := v.(OpaqueRef); ok {
		return string(r)
	}
	return fmt.Sprintf("%T", v)
}
