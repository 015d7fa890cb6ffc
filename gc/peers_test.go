// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package gc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"forestdb.io/forestgc/gc"
	"forestdb.io/forestgc/internal/testrand"
	"forestdb.io/forestgc/pkg/bloomfilter"
	"forestdb.io/forestgc/pkg/forest"
)

func TestPreserveRequestKeepExact(t *testing.T) {
	block := testrand.BlockID()
	refs := []forest.NodeRef{
		forest.NewOrdinaryRef(block, 1),
		forest.NewOrdinaryRef(block, 3),
		forest.NewOrdinaryRef(block, 5),
	}

	req := &gc.PreserveRequest{Block: block, Count: len(refs), Refs: refs}

	for _, ref := range refs {
		require.True(t, req.Keep(ref))
	}
	require.False(t, req.Keep(forest.NewOrdinaryRef(block, 0)))
	require.False(t, req.Keep(forest.NewOrdinaryRef(block, 2)))
	require.False(t, req.Keep(forest.NewOrdinaryRef(block, 6)))
}

func TestPreserveRequestKeepSummarized(t *testing.T) {
	block := testrand.BlockID()

	filter := bloomfilter.NewOptimal(100, 0.1)
	refs := make([]forest.NodeRef, 0, 100)
	for i := uint32(0); i < 100; i++ {
		ref := forest.NewOrdinaryRef(block, i)
		refs = append(refs, ref)
		filter.Add(ref)
	}

	req := &gc.PreserveRequest{Block: block, Count: len(refs), Filter: filter}
	for _, ref := range refs {
		require.True(t, req.Keep(ref))
	}
}
