package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrFrameTooLarge is returned when a length-prefixed frame exceeds
// DefaultMaxAllocation.
var ErrFrameTooLarge = errors.New("protocol: frame too large")

// Frame is a sequenced batch of mutations, usually the output of one patch.
type Frame struct {
	Seq       uint64
	Mutations []Mutation
}

// EncodeFrame encodes a Frame to bytes.
func EncodeFrame(f *Frame) []byte {
	e := NewEncoder()
	EncodeFrameTo(e, f)
	return e.Bytes()
}

// EncodeFrameTo encodes a Frame using the provided encoder.
func EncodeFrameTo(e *Encoder, f *Frame) {
	e.Uvarint(f.Seq)
	e.Uvarint(uint64(len(f.Mutations)))
	for i := range f.Mutations {
		EncodeMutationTo(e, &f.Mutations[i])
	}
}

// DecodeFrame decodes a Frame from bytes. Trailing bytes are an error.
func DecodeFrame(data []byte) (*Frame, error) {
	d := NewDecoder(data)
	f, err := DecodeFrameFrom(d)
	if err != nil {
		return nil, err
	}
	if !d.EOF() {
		return nil, errors.New("protocol: trailing bytes after frame")
	}
	return f, nil
}

// DecodeFrameFrom decodes a Frame from a decoder.
func DecodeFrameFrom(d *Decoder) (*Frame, error) {
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}

	f := &Frame{Seq: seq, Mutations: make([]Mutation, 0, count)}
	for i := 0; i < count; i++ {
		m, err := DecodeMutationFrom(d)
		if err != nil {
			return nil, err
		}
		f.Mutations = append(f.Mutations, m)
	}
	return f, nil
}

// WriteFrame writes f to w prefixed with its varint length.
func WriteFrame(w io.Writer, f *Frame) error {
	payload := EncodeFrame(f)
	if _, err := w.Write(binary.AppendUvarint(nil, uint64(len(payload)))); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrames decodes a stream of frames written by WriteFrame.
func ReadFrames(data []byte) ([]*Frame, error) {
	var frames []*Frame
	d := NewDecoder(data)
	for !d.EOF() {
		length, err := d.ReadUvarint()
		if err != nil {
			return frames, err
		}
		if length > DefaultMaxAllocation {
			return frames, ErrFrameTooLarge
		}
		if length > uint64(d.Remaining()) {
			return frames, io.ErrUnexpectedEOF
		}
		payload := d.buf[d.pos : d.pos+int(length)]
		d.pos += int(length)
		f, err := DecodeFrame(payload)
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)
	}
	return frames, nil
}
