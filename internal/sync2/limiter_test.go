// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package sync2_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"forestdb.io/forestgc/internal/sync2"
)

func TestLimiterLimiting(t *testing.T) {
	const n, limit = 1000, 10

	ctx := context.Background()
	limiter := sync2.NewLimiter(limit)

	var current, peak int32
	for i := 0; i < n; i++ {
		started := limiter.Go(ctx, func() {
			concurrent := atomic.AddInt32(&current, 1)
			for {
				observed := atomic.LoadInt32(&peak)
				if concurrent <= observed {
					break
				}
				if atomic.CompareAndSwapInt32(&peak, observed, concurrent) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&current, -1)
		})
		require.True(t, started)
	}
	limiter.Wait()

	require.True(t, peak <= int32(limit))
	require.Equal(t, int32(0), current)
}

func TestLimiterCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	limiter := sync2.NewLimiter(1)

	block := make(chan struct{})
	started := limiter.Go(ctx, func() { <-block })
	require.True(t, started)

	cancel()
	started = limiter.Go(ctx, func() {
		t.Error("should not start after cancellation")
	})
	require.False(t, started)

	close(block)
	limiter.Wait()
}
