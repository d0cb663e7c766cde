// Package journal persists every contract event published on the bus.
package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/rafflekeeper/internal/event"
	"github.com/goodnatureofminers/rafflekeeper/internal/model"
	"github.com/goodnatureofminers/rafflekeeper/pkg/batcher"
)

const defaultBuffer = 1024

type Config struct {
	// Buffer is the bus subscription capacity; events beyond it are dropped.
	Buffer int
	Batch  batcher.Config
}

type Service struct {
	logger  *zap.Logger
	bus     Bus
	sub     *event.Subscription
	repo    Repository
	metrics Metrics
	writer  EventWriter
}

// NewService subscribes to bus immediately, so events published before Run are kept
// as long as they fit in the buffer.
func NewService(cfg Config, bus Bus, repo Repository, metrics Metrics, logger *zap.Logger) (*Service, error) {
	if bus == nil {
		return nil, errors.New("journal bus is required")
	}
	if repo == nil {
		return nil, errors.New("journal repository is required")
	}
	if metrics == nil {
		return nil, errors.New("journal metrics is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Buffer < 1 {
		cfg.Buffer = defaultBuffer
	}

	s := &Service{
		logger:  logger.Named("journal"),
		bus:     bus,
		repo:    repo,
		metrics: metrics,
	}
	writer, err := batcher.New(cfg.Batch, s.flush, s.logger.Named("batcher"))
	if err != nil {
		return nil, fmt.Errorf("journal batcher: %w", err)
	}
	s.writer = writer
	s.sub = bus.Subscribe(cfg.Buffer)
	return s, nil
}

// Run journals events until ctx is canceled, then writes what is still queued.
func (s *Service) Run(ctx context.Context) error {
	// Inserts outlive ctx so the final batch is not lost on shutdown.
	writeCtx := context.WithoutCancel(ctx)
	s.writer.Start(writeCtx)
	defer s.writer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.close(writeCtx)
			return ctx.Err()
		case evt, ok := <-s.sub.C():
			if !ok {
				return nil
			}
			s.add(writeCtx, evt)
		}
	}
}

// close unsubscribes and hands the events still in the subscription to the writer.
func (s *Service) close(ctx context.Context) {
	dropped := s.bus.Unsubscribe(s.sub)
	s.metrics.AddDropped(dropped)
	if dropped > 0 {
		s.logger.Warn("journal missed events", zap.Uint64("dropped", dropped))
	}
	for evt := range s.sub.C() {
		s.add(ctx, evt)
	}
}

func (s *Service) add(ctx context.Context, evt model.Event) {
	if err := s.writer.Add(ctx, evt); err != nil {
		s.logger.Error("queue event failed", zap.String("kind", string(evt.Kind)), zap.Error(err))
	}
}

func (s *Service) flush(ctx context.Context, events []model.Event) error {
	started := time.Now()
	err := s.repo.InsertEvents(ctx, events)
	s.metrics.ObserveFlush(err, len(events), started)
	return err
}
