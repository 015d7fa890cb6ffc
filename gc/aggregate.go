// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package gc

import (
	"forestdb.io/forestgc/pkg/forest"
)

// aggregate consumes the final discovered-node set and groups the ordinary
// references by their owning block, producing every block's live set.
// References inserted by a discarded walker are excluded; special and
// in-memory references are dropped because no physical block preserves them.
// Live sets come out sorted in content order so that requests built from
// them are deterministic.
//
// aggregate must only run after every path's walk has finished or aborted.
func aggregate(set *RefSet, discarded map[int]bool) map[forest.BlockID][]forest.NodeRef {
	live := make(map[forest.BlockID][]forest.NodeRef)
	set.Range(func(ref forest.NodeRef, owner int) bool {
		if discarded[owner] {
			return true
		}
		block, ok := ref.BlockID()
		if !ok {
			return true
		}
		live[block] = append(live[block], ref)
		return true
	})

	for _, refs := range live {
		forest.SortRefs(refs)
	}
	return live
}
