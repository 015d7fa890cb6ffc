// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package forest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/zeebo/errs"
)

// ErrNodeRef is used when something goes wrong with a node reference.
var ErrNodeRef = errs.Class("node reference error")

// NodeKind describes how a node is backed.
type NodeKind byte

const (
	// Ordinary nodes are physically stored in a block.
	Ordinary NodeKind = 0
	// Special nodes are sentinel nodes without physical backing.
	Special NodeKind = 1
	// InMemory nodes have been created but not yet flushed to any block.
	// They are transient and never participate in block bookkeeping.
	InMemory NodeKind = 2
)

// String representation of the node kind.
func (kind NodeKind) String() string {
	switch kind {
	case Ordinary:
		return "ordinary"
	case Special:
		return "special"
	case InMemory:
		return "in-memory"
	}
	return fmt.Sprintf("unknown(%d)", byte(kind))
}

// RefEncodedSize is the length of the binary encoding of a node reference.
const RefEncodedSize = 1 + len(BlockID{}) + 4 + 8

// NodeRef is the identity of a node. Ordinary references encode the owning
// block and the intra-block offset; special and in-memory references carry
// only an opaque handle and have no block-derivable component.
type NodeRef struct {
	Kind   NodeKind
	Block  BlockID // ordinary references only
	Offset uint32  // ordinary references only
	Handle uint64  // special and in-memory references only
}

// NewOrdinaryRef builds the reference of a node stored in block at offset.
func NewOrdinaryRef(block BlockID, offset uint32) NodeRef {
	return NodeRef{Kind: Ordinary, Block: block, Offset: offset}
}

// NewSpecialRef builds a sentinel node reference.
func NewSpecialRef(handle uint64) NodeRef {
	return NodeRef{Kind: Special, Handle: handle}
}

// NewInMemoryRef builds the reference of a node not yet flushed to a block.
func NewInMemoryRef(handle uint64) NodeRef {
	return NodeRef{Kind: InMemory, Handle: handle}
}

// BlockID derives the id of the block owning the node. The second return is
// false for special and in-memory references, which have no owning block.
func (ref NodeRef) BlockID() (BlockID, bool) {
	if ref.Kind != Ordinary {
		return BlockID{}, false
	}
	return ref.Block, true
}

// IsZero returns whether the reference is unset.
func (ref NodeRef) IsZero() bool {
	return ref == NodeRef{}
}

// Bytes returns the fixed-size binary encoding of the reference.
func (ref NodeRef) Bytes() []byte {
	var data [RefEncodedSize]byte
	data[0] = byte(ref.Kind)
	copy(data[1:], ref.Block[:])
	binary.BigEndian.PutUint32(data[1+len(BlockID{}):], ref.Offset)
	binary.BigEndian.PutUint64(data[1+len(BlockID{})+4:], ref.Handle)
	return data[:]
}

// NodeRefFromBytes decodes a reference encoded with Bytes.
func NodeRefFromBytes(data []byte) (NodeRef, error) {
	if len(data) != RefEncodedSize {
		return NodeRef{}, ErrNodeRef.New("not enough bytes to make a node reference; have %d, need %d", len(data), RefEncodedSize)
	}

	var ref NodeRef
	ref.Kind = NodeKind(data[0])
	copy(ref.Block[:], data[1:])
	ref.Offset = binary.BigEndian.Uint32(data[1+len(BlockID{}):])
	ref.Handle = binary.BigEndian.Uint64(data[1+len(BlockID{})+4:])

	switch ref.Kind {
	case Ordinary, Special, InMemory:
	default:
		return NodeRef{}, ErrNodeRef.New("unknown node kind %d", data[0])
	}
	return ref, nil
}

// String representation of the reference.
func (ref NodeRef) String() string {
	switch ref.Kind {
	case Ordinary:
		return fmt.Sprintf("%s:%d", ref.Block, ref.Offset)
	default:
		return fmt.Sprintf("%s:%d", ref.Kind, ref.Handle)
	}
}

// Less returns whether ref is smaller than other in the content order. The
// content order is a total order over the binary encoding, so it is stable
// across processes and runs.
func (ref NodeRef) Less(other NodeRef) bool {
	return bytes.Compare(ref.Bytes(), other.Bytes()) < 0
}

// SortRefs sorts references in the content order.
func SortRefs(refs []NodeRef) {
	sort.Slice(refs, func(i, k int) bool {
		return refs[i].Less(refs[k])
	})
}
