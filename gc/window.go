// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package gc

import (
	"context"
	"time"

	"go.uber.org/zap"

	"forestdb.io/forestgc/pkg/forest"
)

// pathWindow holds the snapshots of one path selected for preservation by
// this run.
type pathWindow struct {
	path      string
	snapshots forest.SnapshotList
}

// selectWindows computes, per path, the set of snapshot roots that must be
// preserved: the current snapshot unconditionally, plus every historical
// snapshot committed within the retention period. Paths whose snapshots
// cannot be fetched are skipped with a warning and recorded in the report;
// they never abort the run.
func (service *Service) selectWindows(ctx context.Context, now time.Time, report *Report) (_ []pathWindow, err error) {
	defer mon.Task()(&ctx)(&err)

	paths, err := service.snapshots.ListPaths(ctx)
	if err != nil {
		return nil, Error.New("unable to enumerate paths: %v", err)
	}

	since := now.Add(-service.config.RetentionPeriod)
	targets := service.config.targetSet()

	windows := make([]pathWindow, 0, len(paths))
	for _, path := range paths {
		if targets != nil && !targets[path] {
			continue
		}

		window, err := service.selectWindow(ctx, path, since)
		if err != nil {
			service.log.Warn("skipping path",
				zap.String("path", path),
				zap.Error(err))
			report.skipPath(path, err.Error())
			continue
		}
		windows = append(windows, window)
	}
	return windows, nil
}

func (service *Service) selectWindow(ctx context.Context, path string, since time.Time) (pathWindow, error) {
	// The current snapshot is always preserved regardless of age. Omitting
	// it would make live data collectible.
	current, err := service.snapshots.Current(ctx, path)
	if err != nil {
		return pathWindow{}, Error.New("unable to fetch current snapshot: %v", err)
	}

	history, err := service.snapshots.History(ctx, path, since)
	if err != nil {
		return pathWindow{}, Error.New("unable to fetch snapshot history: %v", err)
	}

	snapshots := make(forest.SnapshotList, 0, len(history)+1)
	snapshots = append(snapshots, current)
	snapshots = append(snapshots, history...)
	return pathWindow{path: path, snapshots: snapshots}, nil
}
