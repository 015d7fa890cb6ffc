// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package sync2

import (
	"context"
	"sync"
)

// Limiter limits the number of concurrent operations.
type Limiter struct {
	limit   chan struct{}
	working sync.WaitGroup
}

// NewLimiter creates a new limiter for the given amount of concurrent
// operations.
func NewLimiter(limit int) *Limiter {
	return &Limiter{
		limit: make(chan struct{}, limit),
	}
}

// Go tries to start fn as a goroutine.
// When the limit is reached it will wait until it can run it
// or the context is canceled. Returns false when ctx was canceled
// before the goroutine could be started.
func (limiter *Limiter) Go(ctx context.Context, fn func()) bool {
	select {
	case limiter.limit <- struct{}{}:
	case <-ctx.Done():
		return false
	}

	limiter.working.Add(1)
	go func() {
		defer func() {
			<-limiter.limit
			limiter.working.Done()
		}()
		fn()
	}()

	return true
}

// Wait waits for all running goroutines to finish.
func (limiter *Limiter) Wait() {
	limiter.working.Wait()
}
