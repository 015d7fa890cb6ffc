// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package gc

import (
	"context"
	"time"

	"github.com/zeebo/errs"
	"go.uber.org/zap"
	monkit "gopkg.in/spacemonkeygo/monkit.v2"

	"forestdb.io/forestgc/internal/sync2"
)

var (
	// Error defines the gc service errors class.
	Error = errs.Class("gc error")
	mon   = monkit.Package()
)

// Service implements the snapshot-retention garbage collection service.
type Service struct {
	log    *zap.Logger
	config Config
	Loop   *sync2.Cycle

	snapshots Snapshots
	trees     Trees
	placement Placement
	preserver Preserver
}

// NewService creates a new instance of the gc service. Configuration errors
// are fatal and reported here, before any run begins.
func NewService(log *zap.Logger, config Config, snapshots Snapshots, trees Trees, placement Placement, preserver Preserver) (*Service, error) {
	if err := config.Verify(); err != nil {
		return nil, err
	}

	return &Service{
		log:    log,
		config: config,
		Loop:   sync2.NewCycle(config.Interval),

		snapshots: snapshots,
		trees:     trees,
		placement: placement,
		preserver: preserver,
	}, nil
}

// Run starts the periodic gc loop.
func (service *Service) Run(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)

	if !service.config.Enabled {
		service.log.Info("garbage collection is disabled")
		return nil
	}

	return service.Loop.Run(ctx, func(ctx context.Context) error {
		report, err := service.Collect(ctx)
		if err != nil {
			return Error.Wrap(err)
		}
		service.log.Info("garbage collection run finished",
			zap.String("status", string(report.Status)),
			zap.Int("paths processed", len(report.PathsProcessed)),
			zap.Int("paths skipped", len(report.PathsSkipped)),
			zap.Int("nodes discovered", report.NodesDiscovered),
			zap.Int("blocks touched", report.BlocksTouched))
		return nil
	})
}

// Collect performs a single garbage collection run:
//
//	SELECTING_WINDOWS -> MARKING -> AGGREGATING -> DISPATCHING -> DONE
//
// The run performs no destructive action itself; only block servers compact,
// asynchronously. A crash at any point leaves data untouched or a prefix of
// blocks compacted, and rerunning is always safe because dispatch is
// idempotent.
func (service *Service) Collect(ctx context.Context) (_ *Report, err error) {
	defer mon.Task()(&ctx)(&err)

	now := time.Now().UTC()
	report := &Report{
		Started:         now,
		RetentionPeriod: service.config.RetentionPeriod,
	}

	service.log.Debug("selecting retention windows")
	windows, err := service.selectWindows(ctx, now, report)
	if err != nil {
		return nil, err
	}

	service.log.Debug("marking reachable nodes", zap.Int("paths", len(windows)))
	set := NewRefSet()
	marker := &marker{
		log:   service.log.Named("marker"),
		trees: service.trees,
		set:   set,
	}
	marks := marker.markPaths(ctx, windows, service.config.MarkConcurrency)

	discarded := discardedWalkers(marks)
	for _, mark := range marks {
		switch {
		case mark.err != nil:
			report.skipPath(mark.path, mark.err.Error())
		case discarded[mark.walker]:
			report.skipPath(mark.path, "walk pruned on a failed path's discovery")
		default:
			report.PathsProcessed = append(report.PathsProcessed, mark.path)
		}
	}
	if err := ctx.Err(); err != nil {
		report.finish(time.Now().UTC())
		return report, Error.Wrap(err)
	}

	service.log.Debug("aggregating live sets")
	live := aggregate(set, discarded)
	report.NodesDiscovered = set.Len()
	report.BlocksTouched = len(live)

	service.log.Debug("dispatching preserve requests", zap.Int("blocks", len(live)))
	dispatcher := &dispatcher{
		log:       service.log.Named("dispatcher"),
		config:    service.config,
		placement: service.placement,
		preserver: service.preserver,
	}
	report.Blocks, err = dispatcher.dispatchAll(ctx, now, live)
	if err != nil {
		return nil, err
	}

	report.finish(time.Now().UTC())

	mon.IntVal("gc_nodes_discovered").Observe(int64(report.NodesDiscovered))
	mon.IntVal("gc_blocks_touched").Observe(int64(report.BlocksTouched))
	mon.IntVal("gc_paths_skipped").Observe(int64(len(report.PathsSkipped)))
	mon.IntVal("gc_blocks_unpreserved").Observe(int64(len(report.UnpreservedBlocks())))

	return report, nil
}
