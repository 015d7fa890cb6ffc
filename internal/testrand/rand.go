// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

// Package testrand implements generating random base types for testing.
package testrand

import (
	"math/rand"

	"forestdb.io/forestgc/pkg/forest"
)

// Intn returns, as an int, a non-negative pseudo-random number in [0,n)
// from the default Source.
// It panics if n <= 0.
func Intn(n int) int {
	return rand.Intn(n)
}

// Read reads pseudo-random data into data.
func Read(data []byte) {
	_, _ = rand.Read(data)
}

// BlockID creates a random block id.
func BlockID() forest.BlockID {
	var id forest.BlockID
	Read(id[:])
	return id
}

// ServerID creates a random server id.
func ServerID() forest.ServerID {
	var id forest.ServerID
	Read(id[:])
	return id
}

// NodeRef creates a random ordinary node reference.
func NodeRef() forest.NodeRef {
	return forest.NewOrdinaryRef(BlockID(), rand.Uint32())
}

// NodeRefInBlock creates a random ordinary node reference inside block.
func NodeRefInBlock(block forest.BlockID) forest.NodeRef {
	return forest.NewOrdinaryRef(block, rand.Uint32())
}
