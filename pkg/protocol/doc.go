// Package protocol encodes the mutations an idom patch applies as a
// compact binary stream.
//
// A Recorder wraps any idom.Tree, forwards every call to it and records
// the call as a Mutation addressed by numeric node IDs. Flush batches the
// recorded mutations into a sequenced Frame that can be sent to a remote
// replica (the preview server broadcasts them over a WebSocket) or written
// to a file.
//
// # Encoding
//
//   - Varint: compact encoding for IDs, counts and lengths (protobuf-style)
//   - Length-prefixed: strings prefixed with a varint length
//   - Big-endian: fixed-width numbers (float64 attribute values)
//
// # Frames
//
//	[Seq: varint][Count: varint][Mutation]...
//
// Each mutation starts with its op byte and target node ID, followed by
// op-specific fields:
//
//	CreateNode   [0x01][Node][Tag: string][Key: string]
//	CreateText   [0x02][Node][Text: string]
//	SetAttr      [0x03][Node][Name: string][Value]
//	RemoveAttr   [0x04][Node][Name: string]
//	InsertBefore [0x05][Node][Parent][Ref]
//	RemoveChild  [0x06][Node][Parent]
//	SetText      [0x07][Node][Text: string]
//
// Node ID 0 means "none": an InsertBefore with Ref 0 appends.
//
// Frame streams written by WriteFrame prefix every frame with its varint
// length.
package protocol
