package main

import (
	"context"
	"time"
)

// startBlockSignal emits one signal per mined block to each of n listeners.
// A listener that has not consumed the previous signal is skipped.
func startBlockSignal(ctx context.Context, blockTime time.Duration, n int) []<-chan struct{} {
	if blockTime <= 0 || n < 1 {
		return make([]<-chan struct{}, n)
	}

	notify := make([]chan struct{}, n)
	out := make([]<-chan struct{}, n)
	for i := range notify {
		notify[i] = make(chan struct{}, 1)
		out[i] = notify[i]
	}

	go func() {
		ticker := time.NewTicker(blockTime)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			for _, ch := range notify {
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()

	return out
}
