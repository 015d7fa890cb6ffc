// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package forest

import (
	"sort"
	"time"
)

// Snapshot is an immutable reference to the root of a tree representing a
// path's complete state at one instant.
type Snapshot struct {
	Root      NodeRef
	Committed time.Time
}

// SnapshotList is a list of snapshots.
type SnapshotList []Snapshot

// SortByCommitTime sorts snapshots oldest first.
func (list SnapshotList) SortByCommitTime() {
	sort.Slice(list, func(i, k int) bool {
		return list[i].Committed.Before(list[k].Committed)
	})
}

// Roots returns the deduplicated roots of the snapshots in content order.
// Snapshots of a path produced by small incremental edits frequently share
// the same root when nothing changed between commits.
func (list SnapshotList) Roots() []NodeRef {
	seen := make(map[NodeRef]struct{}, len(list))
	roots := make([]NodeRef, 0, len(list))
	for _, snapshot := range list {
		if _, ok := seen[snapshot.Root]; ok {
			continue
		}
		seen[snapshot.Root] = struct{}{}
		roots = append(roots, snapshot.Root)
	}
	SortRefs(roots)
	return roots
}
