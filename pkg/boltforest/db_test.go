// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package boltforest_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"forestdb.io/forestgc/gc"
	"forestdb.io/forestgc/internal/testcontext"
	"forestdb.io/forestgc/internal/testrand"
	"forestdb.io/forestgc/pkg/boltforest"
	"forestdb.io/forestgc/pkg/forest"
)

func TestBookkeeping(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	db, err := boltforest.Open(zaptest.NewLogger(t), ctx.File("db", "forest.db"))
	require.NoError(t, err)
	defer ctx.Check(db.Close)

	block := testrand.BlockID()
	leaf := forest.NewOrdinaryRef(block, 0)
	root := forest.NewOrdinaryRef(block, 1)
	require.NoError(t, db.PutNode(leaf))
	require.NoError(t, db.PutNode(root, leaf))
	require.Error(t, db.PutNode(forest.NewInMemoryRef(1)))

	now := time.Now().UTC()
	require.NoError(t, db.Commit("alpha", leaf, now.Add(-time.Hour)))
	require.NoError(t, db.Commit("alpha", root, now))
	require.Error(t, db.Commit("", root, now))

	paths, err := db.ListPaths(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"alpha"}, paths)

	current, err := db.Current(ctx, "alpha")
	require.NoError(t, err)
	require.Equal(t, root, current.Root)
	require.True(t, current.Committed.Equal(now))

	history, err := db.History(ctx, "alpha", time.Time{})
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, leaf, history[0].Root)

	history, err = db.History(ctx, "alpha", now)
	require.NoError(t, err)
	require.Empty(t, history)

	children, err := db.Children(ctx, root)
	require.NoError(t, err)
	require.Equal(t, []forest.NodeRef{leaf}, children)

	_, err = db.Children(ctx, forest.NewOrdinaryRef(block, 9))
	require.Error(t, err)

	// in-memory nodes have no durable children
	children, err = db.Children(ctx, forest.NewInMemoryRef(5))
	require.NoError(t, err)
	require.Empty(t, children)

	servers, err := db.Lookup(ctx, block)
	require.NoError(t, err)
	require.Equal(t, forest.ServerIDList{db.ServerID()}, servers)
}

func TestServerIDPersists(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	log := zaptest.NewLogger(t)
	path := ctx.File("db", "forest.db")

	db, err := boltforest.Open(log, path)
	require.NoError(t, err)
	id := db.ServerID()
	require.False(t, id.IsZero())
	require.NoError(t, db.Close())

	db, err = boltforest.Open(log, path)
	require.NoError(t, err)
	require.Equal(t, id, db.ServerID())
	require.NoError(t, db.Close())
}

func TestCollectEndToEnd(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	log := zaptest.NewLogger(t)
	db, err := boltforest.Open(log, ctx.File("db", "forest.db"))
	require.NoError(t, err)
	defer ctx.Check(db.Close)

	now := time.Now().UTC()
	require.NoError(t, db.Seed(boltforest.SeedConfig{
		Paths:     2,
		Snapshots: 4,
		Depth:     3,
		Fanout:    4,
	}, now))

	paths, err := db.ListPaths(ctx)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	// remember the oldest root of every path before collecting
	oldRoots := make(map[string]forest.NodeRef)
	for _, path := range paths {
		history, err := db.History(ctx, path, time.Time{})
		require.NoError(t, err)
		require.Len(t, history, 3)
		oldRoots[path] = history[0].Root
	}

	// seeded commits are 24 hours apart, so a 36 hour window keeps only
	// the current snapshot of every path
	config := gc.Config{
		Interval:            time.Hour,
		Enabled:             true,
		RetentionPeriod:     36 * time.Hour,
		MarkConcurrency:     2,
		DispatchConcurrency: 2,
		MaxExactLiveRefs:    1 << 20,
		FalsePositiveRate:   0.1,
	}
	service, err := gc.NewService(log, config, db, db, db, db)
	require.NoError(t, err)

	report, err := service.Collect(ctx)
	require.NoError(t, err)
	require.Equal(t, gc.StatusSuccess, report.Status)
	require.Len(t, report.PathsProcessed, 2)
	require.NotZero(t, report.BlocksTouched)
	require.Empty(t, report.UnpreservedBlocks())

	// every current snapshot stays fully traversable after compaction
	for _, path := range paths {
		current, err := db.Current(ctx, path)
		require.NoError(t, err)
		require.NotZero(t, countReachable(ctx, t, db, current.Root))
	}

	// roots outside the retention window were compacted away
	for _, path := range paths {
		_, err := db.Children(ctx, oldRoots[path])
		require.Error(t, err)
	}

	oldBlock, ok := oldRoots[paths[0]].BlockID()
	require.True(t, ok)
	generation, err := db.BlockGeneration(oldBlock)
	require.NoError(t, err)
	require.Equal(t, 1, generation)

	// a second run discovers the same set and compacts nothing further
	again, err := service.Collect(ctx)
	require.NoError(t, err)
	require.Equal(t, gc.StatusSuccess, again.Status)
	require.Equal(t, report.NodesDiscovered, again.NodesDiscovered)

	generation, err = db.BlockGeneration(oldBlock)
	require.NoError(t, err)
	require.Equal(t, 1, generation)
}

func countReachable(ctx *testcontext.Context, t *testing.T, db *boltforest.DB, root forest.NodeRef) int {
	children, err := db.Children(ctx, root)
	require.NoError(t, err)

	count := 1
	for _, child := range children {
		count += countReachable(ctx, t, db, child)
	}
	return count
}
