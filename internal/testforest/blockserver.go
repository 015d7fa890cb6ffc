// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package testforest

import (
	"sync"

	"forestdb.io/forestgc/gc"
	"forestdb.io/forestgc/pkg/forest"
)

// BlockServer is an in-memory block server. It stores the ordinary nodes of
// the blocks it is responsible for and compacts them when it receives a
// preserve request.
type BlockServer struct {
	mu          sync.Mutex
	id          forest.ServerID
	stored      map[forest.BlockID]map[forest.NodeRef]bool
	unreachable bool

	preserves   int
	compactions int
}

// ID returns the server identity.
func (server *BlockServer) ID() forest.ServerID {
	return server.id
}

// SetUnreachable makes every preserve request to the server fail.
func (server *BlockServer) SetUnreachable(unreachable bool) {
	server.mu.Lock()
	defer server.mu.Unlock()
	server.unreachable = unreachable
}

// Live returns the references still stored in a block, in content order.
func (server *BlockServer) Live(block forest.BlockID) []forest.NodeRef {
	server.mu.Lock()
	defer server.mu.Unlock()

	refs := make([]forest.NodeRef, 0, len(server.stored[block]))
	for ref := range server.stored[block] {
		refs = append(refs, ref)
	}
	forest.SortRefs(refs)
	return refs
}

// Preserves returns how many preserve requests the server accepted.
func (server *BlockServer) Preserves() int {
	server.mu.Lock()
	defer server.mu.Unlock()
	return server.preserves
}

// Compactions returns how many accepted preserve requests actually deleted
// nodes. Repeated delivery of the same live set must not increase this.
func (server *BlockServer) Compactions() int {
	server.mu.Lock()
	defer server.mu.Unlock()
	return server.compactions
}

func (server *BlockServer) store(ref forest.NodeRef) {
	block, ok := ref.BlockID()
	if !ok {
		return
	}

	server.mu.Lock()
	defer server.mu.Unlock()
	if server.stored[block] == nil {
		server.stored[block] = make(map[forest.NodeRef]bool)
	}
	server.stored[block][ref] = true
}

func (server *BlockServer) preserve(req *gc.PreserveRequest) error {
	server.mu.Lock()
	defer server.mu.Unlock()

	if server.unreachable {
		return Error.New("server %s unreachable", server.id)
	}
	server.preserves++

	deleted := 0
	for ref := range server.stored[req.Block] {
		if req.Keep(ref) {
			continue
		}
		delete(server.stored[req.Block], ref)
		deleted++
	}
	if deleted > 0 {
		server.compactions++
	}
	return nil
}
