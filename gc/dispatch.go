// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package gc

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"forestdb.io/forestgc/internal/sync2"
	"forestdb.io/forestgc/pkg/bloomfilter"
	"forestdb.io/forestgc/pkg/forest"
)

// dispatcher resolves block placement and sends preserve-and-compact
// instructions to the responsible servers. Dispatch is fire-and-report: it
// does not wait for compaction to complete, and a failure for one block never
// aborts the others.
type dispatcher struct {
	log       *zap.Logger
	config    Config
	placement Placement
	preserver Preserver
}

// dispatchAll sends the live set of every block to its replica set with
// bounded concurrency and returns a per-block outcome, sorted by block id.
func (dispatcher *dispatcher) dispatchAll(ctx context.Context, createdAt time.Time, live map[forest.BlockID][]forest.NodeRef) (_ []BlockOutcome, err error) {
	defer mon.Task()(&ctx)(&err)

	limiter := sync2.NewLimiter(dispatcher.config.DispatchConcurrency)

	var mu sync.Mutex
	outcomes := make([]BlockOutcome, 0, len(live))

	for block, refs := range live {
		block, refs := block, refs
		started := limiter.Go(ctx, func() {
			outcome := dispatcher.dispatchBlock(ctx, createdAt, block, refs)
			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
		})
		if !started {
			mu.Lock()
			outcomes = append(outcomes, BlockOutcome{
				Block:    block,
				LiveRefs: len(refs),
				Error:    ctx.Err().Error(),
			})
			mu.Unlock()
		}
	}
	limiter.Wait()

	sort.Slice(outcomes, func(i, k int) bool {
		return outcomes[i].Block.Less(outcomes[k].Block)
	})
	return outcomes, nil
}

// dispatchBlock resolves the replica set of one block and delivers the
// preserve request to every replica. The block counts as preserved when at
// least one replica acknowledged; zero acknowledgments are reported so
// operators can retry.
func (dispatcher *dispatcher) dispatchBlock(ctx context.Context, createdAt time.Time, block forest.BlockID, refs []forest.NodeRef) BlockOutcome {
	outcome := BlockOutcome{
		Block:    block,
		LiveRefs: len(refs),
	}

	servers, err := dispatcher.placement.Lookup(ctx, block)
	if err != nil {
		outcome.Error = Error.New("placement lookup failed: %v", err).Error()
		return outcome
	}
	outcome.Replicas = len(servers)
	if len(servers) == 0 {
		outcome.Error = Error.New("no responsible servers").Error()
		return outcome
	}

	req := dispatcher.makeRequest(createdAt, block, refs)
	outcome.Summarized = req.Filter != nil

	var group errs.Group
	for _, server := range servers {
		if err := dispatcher.preserver.Preserve(ctx, server, req); err != nil {
			dispatcher.log.Warn("preserve request failed",
				zap.Stringer("block", block),
				zap.Stringer("server", server),
				zap.Error(err))
			group.Add(err)
			continue
		}
		outcome.Acked++
	}

	outcome.Preserved = outcome.Acked > 0
	if !outcome.Preserved {
		outcome.Error = group.Err().Error()
	}
	return outcome
}

// makeRequest builds the preserve request for a block. Live sets above the
// configured threshold are summarized with a bloom filter to bound the
// request size; summarization can only over-preserve.
func (dispatcher *dispatcher) makeRequest(createdAt time.Time, block forest.BlockID, refs []forest.NodeRef) *PreserveRequest {
	req := &PreserveRequest{
		Block:     block,
		CreatedAt: createdAt,
		Count:     len(refs),
	}

	if len(refs) > dispatcher.config.MaxExactLiveRefs {
		filter := bloomfilter.NewOptimal(len(refs), dispatcher.config.FalsePositiveRate)
		for _, ref := range refs {
			filter.Add(ref)
		}
		req.Filter = filter
		return req
	}

	req.Refs = refs
	return req
}
