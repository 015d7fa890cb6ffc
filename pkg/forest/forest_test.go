// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package forest_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forestdb.io/forestgc/internal/testrand"
	"forestdb.io/forestgc/pkg/forest"
)

func TestBlockID(t *testing.T) {
	id := testrand.BlockID()

	decoded, err := forest.BlockIDFromBytes(id.Bytes())
	require.NoError(t, err)
	assert.Equal(t, id, decoded)

	decoded, err = forest.BlockIDFromString(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, decoded)

	_, err = forest.BlockIDFromBytes(id.Bytes()[:16])
	assert.Error(t, err)
	_, err = forest.BlockIDFromString("not hex")
	assert.Error(t, err)

	assert.False(t, id.IsZero())
	assert.True(t, forest.BlockID{}.IsZero())
}

func TestNodeRefEncoding(t *testing.T) {
	refs := []forest.NodeRef{
		forest.NewOrdinaryRef(testrand.BlockID(), 42),
		forest.NewSpecialRef(7),
		forest.NewInMemoryRef(13),
	}

	for _, ref := range refs {
		data := ref.Bytes()
		require.Len(t, data, forest.RefEncodedSize)

		decoded, err := forest.NodeRefFromBytes(data)
		require.NoError(t, err)
		assert.Equal(t, ref, decoded)
	}

	_, err := forest.NodeRefFromBytes([]byte{0, 1, 2})
	assert.Error(t, err)

	bad := refs[0].Bytes()
	bad[0] = 9
	_, err = forest.NodeRefFromBytes(bad)
	assert.Error(t, err)
}

func TestNodeRefBlockID(t *testing.T) {
	id := testrand.BlockID()

	block, ok := forest.NewOrdinaryRef(id, 0).BlockID()
	assert.True(t, ok)
	assert.Equal(t, id, block)

	_, ok = forest.NewSpecialRef(1).BlockID()
	assert.False(t, ok)
	_, ok = forest.NewInMemoryRef(1).BlockID()
	assert.False(t, ok)
}

func TestContentOrder(t *testing.T) {
	var small, large forest.BlockID
	small[0], large[0] = 1, 2

	// ordinary sorts before special before in-memory, then by block and
	// offset within a block
	refs := []forest.NodeRef{
		forest.NewInMemoryRef(0),
		forest.NewSpecialRef(0),
		forest.NewOrdinaryRef(large, 0),
		forest.NewOrdinaryRef(small, 7),
		forest.NewOrdinaryRef(small, 3),
	}
	forest.SortRefs(refs)

	assert.Equal(t, []forest.NodeRef{
		forest.NewOrdinaryRef(small, 3),
		forest.NewOrdinaryRef(small, 7),
		forest.NewOrdinaryRef(large, 0),
		forest.NewSpecialRef(0),
		forest.NewInMemoryRef(0),
	}, refs)
}

func TestSnapshotListRoots(t *testing.T) {
	var small, large forest.BlockID
	small[0], large[0] = 1, 2

	now := time.Now()
	rootA := forest.NewOrdinaryRef(large, 0)
	rootB := forest.NewOrdinaryRef(small, 0)

	list := forest.SnapshotList{
		{Root: rootA, Committed: now.Add(-time.Hour)},
		{Root: rootA, Committed: now.Add(-time.Minute)},
		{Root: rootB, Committed: now},
	}

	// duplicates collapse and the rest comes out in content order, not in
	// commit order
	assert.Equal(t, []forest.NodeRef{rootB, rootA}, list.Roots())
}

func TestSnapshotListSort(t *testing.T) {
	now := time.Now()
	list := forest.SnapshotList{
		{Committed: now},
		{Committed: now.Add(-time.Hour)},
		{Committed: now.Add(-time.Minute)},
	}
	list.SortByCommitTime()

	for i := 1; i < len(list); i++ {
		assert.True(t, list[i-1].Committed.Before(list[i].Committed))
	}
}
