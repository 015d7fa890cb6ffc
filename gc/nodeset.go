// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package gc

import (
	"sync"

	"forestdb.io/forestgc/pkg/forest"
)

// RefSet is the deduplicating record of every node proven reachable during
// the current run. It only grows; nothing is ever removed. Insert is
// linearizable, so under a race exactly one walker wins a newly inserted
// reference and every loser sees it as already present.
//
// The set also remembers which walker inserted each reference. A walker that
// failed mid-walk has its insertions excluded later, at aggregation, without
// touching the set itself.
type RefSet struct {
	mu   sync.Mutex
	refs map[forest.NodeRef]int
}

// NewRefSet creates an empty discovered-node set.
func NewRefSet() *RefSet {
	return &RefSet{
		refs: make(map[forest.NodeRef]int),
	}
}

// Insert records ref as discovered by walker. It reports whether the
// reference was newly inserted and which walker owns it. When the reference
// was already present the owner is the walker whose insertion won.
func (set *RefSet) Insert(ref forest.NodeRef, walker int) (newlyInserted bool, owner int) {
	set.mu.Lock()
	defer set.mu.Unlock()

	if owner, ok := set.refs[ref]; ok {
		return false, owner
	}
	set.refs[ref] = walker
	return true, walker
}

// Contains returns whether the reference has been discovered.
func (set *RefSet) Contains(ref forest.NodeRef) bool {
	set.mu.Lock()
	defer set.mu.Unlock()
	_, ok := set.refs[ref]
	return ok
}

// Len returns the number of discovered references.
func (set *RefSet) Len() int {
	set.mu.Lock()
	defer set.mu.Unlock()
	return len(set.refs)
}

// Range calls fn for every discovered reference with the walker that
// inserted it, until fn returns false. It must only be used after all
// inserting walkers have finished.
func (set *RefSet) Range(fn func(ref forest.NodeRef, owner int) bool) {
	set.mu.Lock()
	defer set.mu.Unlock()
	for ref, owner := range set.refs {
		if !fn(ref, owner) {
			return
		}
	}
}
