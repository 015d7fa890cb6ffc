// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package gc

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"forestdb.io/forestgc/internal/testrand"
	"forestdb.io/forestgc/pkg/forest"
)

func TestRefSetBasic(t *testing.T) {
	set := NewRefSet()
	ref := testrand.NodeRef()

	require.False(t, set.Contains(ref))

	newlyInserted, owner := set.Insert(ref, 3)
	require.True(t, newlyInserted)
	require.Equal(t, 3, owner)

	newlyInserted, owner = set.Insert(ref, 5)
	require.False(t, newlyInserted)
	require.Equal(t, 3, owner)

	require.True(t, set.Contains(ref))
	require.Equal(t, 1, set.Len())
}

func TestRefSetConcurrentSingleWinner(t *testing.T) {
	set := NewRefSet()
	ref := testrand.NodeRef()

	const walkers = 16
	var wins int32
	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(walkers)

	for walker := 0; walker < walkers; walker++ {
		walker := walker
		go func() {
			defer done.Done()
			start.Wait()
			if newlyInserted, _ := set.Insert(ref, walker); newlyInserted {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	start.Done()
	done.Wait()

	require.Equal(t, int32(1), wins)
	require.Equal(t, 1, set.Len())

	// every loser observes the single winner as owner
	_, owner := set.Insert(ref, walkers)
	for walker := 0; walker < walkers; walker++ {
		_, again := set.Insert(ref, walker)
		require.Equal(t, owner, again)
	}
}

func TestDiscardedWalkersClosure(t *testing.T) {
	failed := Error.New("walk failed")
	marks := []pathMark{
		{path: "a", walker: 0, err: failed},
		{path: "b", walker: 1, prunedOn: map[int]struct{}{0: {}}},
		{path: "c", walker: 2, prunedOn: map[int]struct{}{1: {}}},
		{path: "d", walker: 3, prunedOn: map[int]struct{}{}},
	}

	discarded := discardedWalkers(marks)
	require.True(t, discarded[0])
	require.True(t, discarded[1])
	require.True(t, discarded[2])
	require.False(t, discarded[3])
}

func TestAggregateSkipsDiscardedAndNonOrdinary(t *testing.T) {
	set := NewRefSet()

	block := testrand.BlockID()
	kept := forest.NewOrdinaryRef(block, 1)
	dropped := forest.NewOrdinaryRef(block, 2)
	special := forest.NewSpecialRef(7)

	set.Insert(kept, 0)
	set.Insert(dropped, 1)
	set.Insert(special, 0)

	live := aggregate(set, map[int]bool{1: true})
	require.Len(t, live, 1)
	require.Equal(t, []forest.NodeRef{kept}, live[block])
}
