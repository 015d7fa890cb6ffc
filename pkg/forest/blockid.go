// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package forest

import (
	"encoding/hex"

	"github.com/zeebo/errs"
)

// ErrBlockID is used when something goes wrong with a block id.
var ErrBlockID = errs.Class("block id error")

// BlockID identifies an append-only, immutable block file that physically
// stores a set of ordinary nodes. It is content-derived by the writer.
type BlockID [32]byte

// BlockIDFromBytes converts a byte slice to a block id.
func BlockIDFromBytes(data []byte) (BlockID, error) {
	if len(data) != len(BlockID{}) {
		return BlockID{}, ErrBlockID.New("not enough bytes to make a block id; have %d, need %d", len(data), len(BlockID{}))
	}

	var id BlockID
	copy(id[:], data)
	return id, nil
}

// BlockIDFromString decodes a hex encoded block id string.
func BlockIDFromString(s string) (BlockID, error) {
	data, err := hex.DecodeString(s)
	if err != nil {
		return BlockID{}, ErrBlockID.Wrap(err)
	}
	return BlockIDFromBytes(data)
}

// IsZero returns whether the block id is unset.
func (id BlockID) IsZero() bool {
	return id == BlockID{}
}

// String representation of the block id.
func (id BlockID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the block id as a byte slice.
func (id BlockID) Bytes() []byte {
	return id[:]
}

// Less returns whether id is smaller than other in lexicographic order.
func (id BlockID) Less(other BlockID) bool {
	for k, v := range id {
		if v < other[k] {
			return true
		} else if v > other[k] {
			return false
		}
	}
	return false
}
