// Package batcher buffers items and hands them to a flush callback in batches.
package batcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

// ErrStopped is returned by Add once Stop has been called.
var ErrStopped = errors.New("batcher stopped")

// Config controls when a batch is flushed. RPS limits flushes per second; zero means
// unlimited.
type Config struct {
	FlushSize     int
	FlushInterval time.Duration
	RPS           int
}

// Batcher flushes when the buffer reaches FlushSize or every FlushInterval, whichever
// comes first. The slice passed to the callback is reused afterwards and must not be
// retained.
type Batcher[T any] struct {
	flush  func(context.Context, []T) error
	items  chan T
	cfg    Config
	rl     ratelimit.Limiter
	logger *zap.Logger

	wg       sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once
}

func New[T any](cfg Config, flush func(context.Context, []T) error, logger *zap.Logger) (*Batcher[T], error) {
	if flush == nil {
		return nil, errors.New("batcher flush callback is required")
	}
	if cfg.FlushSize < 1 {
		return nil, errors.New("batcher flush size must be positive")
	}
	if cfg.FlushInterval <= 0 {
		return nil, errors.New("batcher flush interval must be positive")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	rl := ratelimit.NewUnlimited()
	if cfg.RPS > 0 {
		rl = ratelimit.New(cfg.RPS)
	}
	return &Batcher[T]{
		flush:  flush,
		items:  make(chan T, cfg.FlushSize*2),
		cfg:    cfg,
		rl:     rl,
		logger: logger,
		stop:   make(chan struct{}),
	}, nil
}

// Start begins the background flushing loop.
func (b *Batcher[T]) Start(ctx context.Context) {
	b.wg.Add(1)
	go b.run(ctx)
}

// Stop flushes what is buffered and waits for the loop to exit. It is safe to call
// more than once.
func (b *Batcher[T]) Stop() {
	b.stopOnce.Do(func() {
		close(b.stop)
	})
	b.wg.Wait()
}

// Add queues an item, blocking while the queue is full.
func (b *Batcher[T]) Add(ctx context.Context, item T) error {
	select {
	case <-b.stop:
		return ErrStopped
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.stop:
		return ErrStopped
	case b.items <- item:
		return nil
	}
}

func (b *Batcher[T]) run(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.cfg.FlushInterval)
	defer ticker.Stop()

	buf := make([]T, 0, b.cfg.FlushSize)

	flush := func(ctx context.Context) {
		if len(buf) == 0 {
			return
		}
		b.rl.Take()
		if err := b.flush(ctx, buf); err != nil {
			b.logger.Error("batch not flushed", zap.Int("size", len(buf)), zap.Error(err))
		} else {
			b.logger.Debug("batch flushed", zap.Int("size", len(buf)))
		}
		buf = buf[:0]
	}

	// drain moves whatever is still queued into the final flush.
	drain := func() {
		for {
			select {
			case item := <-b.items:
				buf = append(buf, item)
			default:
				return
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			drain()
			flush(context.WithoutCancel(ctx))
			return

		case <-b.stop:
			drain()
			flush(context.WithoutCancel(ctx))
			return

		case item := <-b.items:
			buf = append(buf, item)
			if len(buf) >= b.cfg.FlushSize {
				flush(ctx)
			}

		case <-ticker.C:
			flush(ctx)
		}
	}
}
