// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package gc

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"forestdb.io/forestgc/pkg/forest"
)

// Status is the terminal status of a garbage collection run.
type Status string

const (
	// StatusSuccess means every targeted path was marked and every touched
	// block was preserved on at least one replica.
	StatusSuccess Status = "success"
	// StatusPartialFailure means the run completed but skipped paths or
	// failed to preserve blocks; the details are in the report.
	StatusPartialFailure Status = "partial-failure"
)

// SkippedPath records a path excluded from this run and why.
type SkippedPath struct {
	Path   string
	Reason string
}

// BlockOutcome records the dispatch result for a single block.
type BlockOutcome struct {
	Block      forest.BlockID
	LiveRefs   int
	Replicas   int
	Acked      int
	Preserved  bool
	Summarized bool
	Error      string
}

// Report is the structured result of one garbage collection run. The tool
// always completes with a report; only fatal configuration or topology
// errors terminate a run without one.
type Report struct {
	Started         time.Time
	Finished        time.Time
	RetentionPeriod time.Duration

	PathsProcessed []string
	PathsSkipped   []SkippedPath

	NodesDiscovered int
	BlocksTouched   int
	Blocks          []BlockOutcome

	Status Status
}

func (report *Report) skipPath(path, reason string) {
	report.PathsSkipped = append(report.PathsSkipped, SkippedPath{
		Path:   path,
		Reason: reason,
	})
}

// finish computes the terminal status.
func (report *Report) finish(now time.Time) {
	report.Finished = now
	report.Status = StatusSuccess
	if len(report.PathsSkipped) > 0 {
		report.Status = StatusPartialFailure
	}
	for _, outcome := range report.Blocks {
		if !outcome.Preserved {
			report.Status = StatusPartialFailure
			break
		}
	}

	sort.Strings(report.PathsProcessed)
}

// UnpreservedBlocks returns the blocks with zero successful replica
// acknowledgments, so operators can retry them.
func (report *Report) UnpreservedBlocks() []forest.BlockID {
	var blocks []forest.BlockID
	for _, outcome := range report.Blocks {
		if !outcome.Preserved {
			blocks = append(blocks, outcome.Block)
		}
	}
	return blocks
}

// String renders a human readable summary of the run.
func (report *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "status: %s\n", report.Status)
	fmt.Fprintf(&b, "duration: %v\n", report.Finished.Sub(report.Started))
	fmt.Fprintf(&b, "paths processed: %d\n", len(report.PathsProcessed))
	fmt.Fprintf(&b, "paths skipped: %d\n", len(report.PathsSkipped))
	for _, skipped := range report.PathsSkipped {
		fmt.Fprintf(&b, "  %s: %s\n", skipped.Path, skipped.Reason)
	}
	fmt.Fprintf(&b, "nodes discovered: %d\n", report.NodesDiscovered)
	fmt.Fprintf(&b, "blocks touched: %d\n", report.BlocksTouched)
	for _, outcome := range report.Blocks {
		if outcome.Preserved {
			continue
		}
		fmt.Fprintf(&b, "  block %s not preserved: %s\n", outcome.Block, outcome.Error)
	}
	return b.String()
}
