// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

// Package testforest implements an in-memory forest of versioned paths,
// copy-on-write trees, and compacting block servers for testing garbage
// collection end to end without any network.
package testforest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/zeebo/errs"

	"forestdb.io/forestgc/gc"
	"forestdb.io/forestgc/internal/testrand"
	"forestdb.io/forestgc/pkg/forest"
)

// Error is the testforest error class.
var Error = errs.Class("testforest error")

var (
	_ gc.Snapshots = (*Forest)(nil)
	_ gc.Trees     = (*Forest)(nil)
	_ gc.Placement = (*Forest)(nil)
	_ gc.Preserver = (*Forest)(nil)
)

type pathState struct {
	current forest.Snapshot
	history forest.SnapshotList
}

// Forest is an in-memory forest implementing every collaborator interface
// the gc service consumes, with fault injection and call accounting.
type Forest struct {
	mu sync.Mutex

	paths    map[string]*pathState
	nodes    map[forest.NodeRef][]forest.NodeRef
	handles  uint64
	children map[forest.NodeRef]int

	servers    map[forest.ServerID]*BlockServer
	serverList forest.ServerIDList
	placement  map[forest.BlockID]forest.ServerIDList

	failedPaths map[string]bool
	failedRefs  map[forest.NodeRef]bool
}

// New creates an empty forest.
func New() *Forest {
	return &Forest{
		paths:    make(map[string]*pathState),
		nodes:    make(map[forest.NodeRef][]forest.NodeRef),
		children: make(map[forest.NodeRef]int),

		servers:   make(map[forest.ServerID]*BlockServer),
		placement: make(map[forest.BlockID]forest.ServerIDList),

		failedPaths: make(map[string]bool),
		failedRefs:  make(map[forest.NodeRef]bool),
	}
}

// AddServer adds a block server to the forest. Unless placement is pinned
// with PlaceBlock, every server is responsible for every block.
func (f *Forest) AddServer() *BlockServer {
	f.mu.Lock()
	defer f.mu.Unlock()

	server := &BlockServer{
		id:     testrand.ServerID(),
		stored: make(map[forest.BlockID]map[forest.NodeRef]bool),
	}
	f.servers[server.id] = server
	f.serverList = append(f.serverList, server.id)
	return server
}

// Node creates an ordinary node stored in block at offset with the given
// children, and stores it on every server responsible for the block.
func (f *Forest) Node(block forest.BlockID, offset uint32, children ...forest.NodeRef) forest.NodeRef {
	f.mu.Lock()
	defer f.mu.Unlock()

	ref := forest.NewOrdinaryRef(block, offset)
	f.nodes[ref] = children
	for _, id := range f.responsible(block) {
		f.servers[id].store(ref)
	}
	return ref
}

// Special creates a sentinel node with the given children.
func (f *Forest) Special(children ...forest.NodeRef) forest.NodeRef {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.handles++
	ref := forest.NewSpecialRef(f.handles)
	f.nodes[ref] = children
	return ref
}

// InMemory creates a not-yet-flushed node with the given children.
func (f *Forest) InMemory(children ...forest.NodeRef) forest.NodeRef {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.handles++
	ref := forest.NewInMemoryRef(f.handles)
	f.nodes[ref] = children
	return ref
}

// Commit makes root the current snapshot of path, pushing the previous
// current snapshot into the history. The path is created when missing.
func (f *Forest) Commit(path string, root forest.NodeRef, committed time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	state, ok := f.paths[path]
	if !ok {
		state = &pathState{}
		f.paths[path] = state
	} else {
		state.history = append(state.history, state.current)
	}
	state.current = forest.Snapshot{Root: root, Committed: committed}
}

// PlaceBlock pins the replica set of a block.
func (f *Forest) PlaceBlock(block forest.BlockID, servers ...*BlockServer) {
	f.mu.Lock()
	defer f.mu.Unlock()

	list := make(forest.ServerIDList, 0, len(servers))
	for _, server := range servers {
		list = append(list, server.id)
	}
	f.placement[block] = list
}

// FailPath makes snapshot queries for the path fail.
func (f *Forest) FailPath(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failedPaths[path] = true
}

// FailChildren makes child enumeration fail at the given node, so a walk
// reaching it aborts mid-traversal.
func (f *Forest) FailChildren(ref forest.NodeRef) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failedRefs[ref] = true
}

// ChildrenCalls returns how many times the children of ref were enumerated.
func (f *Forest) ChildrenCalls(ref forest.NodeRef) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.children[ref]
}

// responsible must be called with the mutex held.
func (f *Forest) responsible(block forest.BlockID) forest.ServerIDList {
	if list, ok := f.placement[block]; ok {
		return list
	}
	return f.serverList
}

// ListPaths returns the names of all paths, sorted.
func (f *Forest) ListPaths(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	paths := make([]string, 0, len(f.paths))
	for path := range f.paths {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

// Current returns the current snapshot of a path.
func (f *Forest) Current(ctx context.Context, path string) (forest.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failedPaths[path] {
		return forest.Snapshot{}, Error.New("path %q unreachable", path)
	}
	state, ok := f.paths[path]
	if !ok {
		return forest.Snapshot{}, Error.New("unknown path %q", path)
	}
	return state.current, nil
}

// History returns the historical snapshots of a path committed at or after
// since, oldest first.
func (f *Forest) History(ctx context.Context, path string, since time.Time) (forest.SnapshotList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failedPaths[path] {
		return nil, Error.New("path %q unreachable", path)
	}
	state, ok := f.paths[path]
	if !ok {
		return nil, Error.New("unknown path %q", path)
	}

	var history forest.SnapshotList
	for _, snapshot := range state.history {
		if snapshot.Committed.Before(since) {
			continue
		}
		history = append(history, snapshot)
	}
	history.SortByCommitTime()
	return history, nil
}

// Children returns the direct child references of a node.
func (f *Forest) Children(ctx context.Context, ref forest.NodeRef) ([]forest.NodeRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.children[ref]++
	if f.failedRefs[ref] {
		return nil, Error.New("node %s unreachable", ref)
	}
	children, ok := f.nodes[ref]
	if !ok {
		return nil, Error.New("unknown node %s", ref)
	}
	return children, nil
}

// Lookup returns the replica set of a block.
func (f *Forest) Lookup(ctx context.Context, block forest.BlockID) (forest.ServerIDList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.responsible(block), nil
}

// Preserve delivers a preserve request to a block server.
func (f *Forest) Preserve(ctx context.Context, server forest.ServerID, req *gc.PreserveRequest) error {
	f.mu.Lock()
	target, ok := f.servers[server]
	f.mu.Unlock()

	if !ok {
		return Error.New("unknown server %s", server)
	}
	return target.preserve(req)
}
