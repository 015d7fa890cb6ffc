// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package forest

import (
	"encoding/hex"

	"github.com/zeebo/errs"
)

// ErrServerID is used when something goes wrong with a server id.
var ErrServerID = errs.Class("server id error")

// ServerID identifies a block server in the storage network.
type ServerID [32]byte

// ServerIDList is a list of server ids.
type ServerIDList []ServerID

// ServerIDFromBytes converts a byte slice to a server id.
func ServerIDFromBytes(data []byte) (ServerID, error) {
	if len(data) != len(ServerID{}) {
		return ServerID{}, ErrServerID.New("not enough bytes to make a server id; have %d, need %d", len(data), len(ServerID{}))
	}

	var id ServerID
	copy(id[:], data)
	return id, nil
}

// IsZero returns whether the server id is unset.
func (id ServerID) IsZero() bool {
	return id == ServerID{}
}

// String representation of the server id.
func (id ServerID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the server id as a byte slice.
func (id ServerID) Bytes() []byte {
	return id[:]
}

// Contains returns whether the list contains the given id.
func (list ServerIDList) Contains(id ServerID) bool {
	for _, other := range list {
		if other == id {
			return true
		}
	}
	return false
}
