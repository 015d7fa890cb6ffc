// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package gc

import (
	"time"
)

// Config contains configurable values for garbage collection.
type Config struct {
	Interval time.Duration `help:"the time between garbage collection runs" releaseDefault:"168h" devDefault:"10m"`
	Enabled  bool          `help:"set if garbage collection is enabled or not" releaseDefault:"true" devDefault:"true"`

	RetentionPeriod time.Duration `help:"how long historical snapshots remain preserved regardless of reachability" default:"336h"`
	TargetPaths     []string      `help:"optional subset of paths to collect instead of all paths" default:""`

	MarkConcurrency     int `help:"the number of paths to mark concurrently" default:"4"`
	DispatchConcurrency int `help:"the number of preserve requests to keep in flight concurrently" default:"8"`

	MaxExactLiveRefs  int     `help:"live sets larger than this are sent as a bloom filter summary instead of an exact list" default:"100000"`
	FalsePositiveRate float64 `help:"the false positive rate used when summarizing a live set" default:"0.1"`
}

// Verify checks the configuration. Errors here are fatal: the run must abort
// before marking begins.
func (config Config) Verify() error {
	if config.RetentionPeriod <= 0 {
		return Error.New("retention period must be positive, got %v", config.RetentionPeriod)
	}
	if config.MarkConcurrency < 1 {
		return Error.New("mark concurrency must be at least 1, got %d", config.MarkConcurrency)
	}
	if config.DispatchConcurrency < 1 {
		return Error.New("dispatch concurrency must be at least 1, got %d", config.DispatchConcurrency)
	}
	if config.MaxExactLiveRefs < 1 {
		return Error.New("max exact live refs must be at least 1, got %d", config.MaxExactLiveRefs)
	}
	if config.FalsePositiveRate <= 0 || config.FalsePositiveRate >= 1 {
		return Error.New("false positive rate must be in (0, 1), got %v", config.FalsePositiveRate)
	}
	return nil
}

// targetSet returns the configured path filter as a set, or nil when all
// paths are targeted.
func (config Config) targetSet() map[string]bool {
	if len(config.TargetPaths) == 0 {
		return nil
	}
	targets := make(map[string]bool, len(config.TargetPaths))
	for _, path := range config.TargetPaths {
		targets[path] = true
	}
	return targets
}
