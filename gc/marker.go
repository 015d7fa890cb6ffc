// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package gc

import (
	"context"

	"go.uber.org/zap"

	"forestdb.io/forestgc/internal/sync2"
	"forestdb.io/forestgc/pkg/forest"
)

// marker walks the trees of every preserved snapshot, recording each visited
// node in the shared discovered-node set. Paths are marked concurrently; the
// set's linearizable insert decides a single winner per node, and the losing
// walker prunes the whole subtree instead of re-descending.
type marker struct {
	log   *zap.Logger
	trees Trees
	set   *RefSet
}

// pathMark is the outcome of marking a single path.
type pathMark struct {
	path   string
	walker int
	err    error

	// prunedOn records the walkers whose insertions this walk pruned on.
	// If one of them is later discarded, this walk is truncated too and
	// must be discarded along with it.
	prunedOn map[int]struct{}
}

// markPaths walks every path window with bounded concurrency and waits for
// all walks to finish. This is the synchronization barrier: aggregation must
// not read the set before markPaths returns.
func (marker *marker) markPaths(ctx context.Context, windows []pathWindow, concurrency int) []pathMark {
	limiter := sync2.NewLimiter(concurrency)
	marks := make([]pathMark, len(windows))

	for i := range windows {
		i := i
		started := limiter.Go(ctx, func() {
			marks[i] = marker.markPath(ctx, i, windows[i])
		})
		if !started {
			marks[i] = pathMark{
				path:   windows[i].path,
				walker: i,
				err:    ctx.Err(),
			}
		}
	}
	limiter.Wait()

	return marks
}

// markPath walks every selected root of one path. Roots are visited in
// content order so that snapshots produced by small incremental edits share
// as much pruning as possible: once a subtree's root is discovered, sibling
// snapshots with the same unmodified subtree stop descending immediately.
func (marker *marker) markPath(ctx context.Context, walker int, window pathWindow) pathMark {
	mark := pathMark{
		path:     window.path,
		walker:   walker,
		prunedOn: make(map[int]struct{}),
	}

	roots := window.snapshots.Roots()
	for _, root := range roots {
		// cancellation is cooperative: finish the current root, then stop
		if err := ctx.Err(); err != nil {
			mark.err = err
			return mark
		}
		if err := marker.walk(ctx, root, &mark); err != nil {
			marker.log.Warn("walk failed, discarding path contribution",
				zap.String("path", window.path),
				zap.Stringer("root", root),
				zap.Error(err))
			mark.err = err
			return mark
		}
	}
	return mark
}

// walk performs an iterative depth-first traversal from root. Every node is
// inserted into the set; special and in-memory nodes are inserted for
// traversal completeness even though they never reach a block's live set.
func (marker *marker) walk(ctx context.Context, root forest.NodeRef, mark *pathMark) error {
	stack := []forest.NodeRef{root}
	for len(stack) > 0 {
		ref := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		newlyInserted, owner := marker.set.Insert(ref, mark.walker)
		if !newlyInserted {
			// The subtree was already proven reachable by a previous walk
			// in this run.
			if owner != mark.walker {
				mark.prunedOn[owner] = struct{}{}
			}
			continue
		}

		children, err := marker.trees.Children(ctx, ref)
		if err != nil {
			return err
		}
		stack = append(stack, children...)
	}
	return nil
}

// discardedWalkers computes which walkers' contributions must be excluded
// from aggregation. A walker is discarded if its walk failed, or if it pruned
// on a node inserted by a discarded walker: that walker's failure means the
// node's subtree may be incomplete in the set, so the pruning walk is
// truncated as well. The closure keeps every surviving walk provably
// complete, which prevents under-preserving a block.
func discardedWalkers(marks []pathMark) map[int]bool {
	discarded := make(map[int]bool)
	for _, mark := range marks {
		if mark.err != nil {
			discarded[mark.walker] = true
		}
	}

	for changed := true; changed; {
		changed = false
		for _, mark := range marks {
			if discarded[mark.walker] {
				continue
			}
			for owner := range mark.prunedOn {
				if discarded[owner] {
					discarded[mark.walker] = true
					changed = true
					break
				}
			}
		}
	}
	return discarded
}
