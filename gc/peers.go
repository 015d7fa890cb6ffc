// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package gc

import (
	"context"
	"sort"
	"time"

	"forestdb.io/forestgc/pkg/bloomfilter"
	"forestdb.io/forestgc/pkg/forest"
)

// Snapshots provides access to the paths of the forest and their snapshot
// histories.
type Snapshots interface {
	// ListPaths returns the names of all known paths.
	ListPaths(ctx context.Context) ([]string, error)
	// Current returns the current snapshot of a path.
	Current(ctx context.Context, path string) (forest.Snapshot, error)
	// History returns the historical snapshots of a path committed at or
	// after since, oldest first.
	History(ctx context.Context, path string, since time.Time) (forest.SnapshotList, error)
}

// Trees enumerates tree structure lazily, on demand.
type Trees interface {
	// Children returns the direct child references of a node.
	Children(ctx context.Context, ref forest.NodeRef) ([]forest.NodeRef, error)
}

// Placement resolves the replica set of servers currently responsible for a
// block against the live network topology.
type Placement interface {
	Lookup(ctx context.Context, block forest.BlockID) (forest.ServerIDList, error)
}

// Preserver delivers preserve-and-compact instructions to block servers.
// Delivery is fire-and-report; the compaction itself happens asynchronously
// on the server.
type Preserver interface {
	Preserve(ctx context.Context, server forest.ServerID, req *PreserveRequest) error
}

// PreserveRequest instructs a block server to compact a block down to its
// live set. The request is idempotent: repeated delivery with the same live
// set is a no-op beyond the first successful compaction. The server must
// never discard a node the request keeps and may discard any node it does
// not.
type PreserveRequest struct {
	Block     forest.BlockID
	CreatedAt time.Time

	// Count is the number of live references in the block.
	Count int

	// Refs is the exact live set in content order. It is nil when the live
	// set was summarized into Filter instead.
	Refs []forest.NodeRef

	// Filter is a bloom filter summary of the live set, used for blocks
	// whose exact live set would be too large to send. Matching the filter
	// over-preserves but never loses a live node. Nil when Refs is present.
	Filter *bloomfilter.Filter
}

// Keep reports whether the receiving server must retain the given node.
func (req *PreserveRequest) Keep(ref forest.NodeRef) bool {
	if req.Filter != nil {
		return req.Filter.Contains(ref)
	}
	i := sort.Search(len(req.Refs), func(k int) bool {
		return !req.Refs[k].Less(ref)
	})
	return i < len(req.Refs) && req.Refs[i] == ref
}
