// Package keeper runs the off-chain automation that closes raffle rounds.
package keeper

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/rafflekeeper/internal/clock"
	"github.com/goodnatureofminers/rafflekeeper/internal/raffle"
)

const defaultBackoff = 5 * time.Second

// Service polls CheckUpkeep and calls PerformUpkeep when it reports true.
type Service struct {
	logger       *zap.Logger
	raffle       Raffle
	metrics      Metrics
	sleep        func(context.Context, time.Duration) error
	pollInterval time.Duration
	backoff      time.Duration
	blockSignal  <-chan struct{}
}

// NewService builds a keeper for raffle. blockSignal may be nil; when set, each
// signal triggers an early check.
func NewService(
	r Raffle,
	metrics Metrics,
	pollInterval time.Duration,
	logger *zap.Logger,
	blockSignal <-chan struct{},
) (*Service, error) {
	if r == nil {
		return nil, errors.New("keeper raffle is required")
	}
	if metrics == nil {
		return nil, errors.New("keeper metrics is required")
	}
	if pollInterval <= 0 {
		return nil, errors.New("keeper poll interval must be positive")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		logger:       logger.Named("keeper"),
		raffle:       r,
		metrics:      metrics,
		sleep:        clock.SleepWithContext,
		pollInterval: pollInterval,
		backoff:      max(defaultBackoff, pollInterval),
		blockSignal:  blockSignal,
	}, nil
}

// Run checks upkeep until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.run(ctx); err != nil {
			s.logger.Warn("upkeep failed, backing off", zap.Error(err), zap.Duration("sleep", s.backoff))
			if sleepErr := s.wait(ctx, s.backoff); sleepErr != nil {
				return sleepErr
			}
		}
	}
}

func (s *Service) run(ctx context.Context) error {
	needed := s.raffle.CheckUpkeep(ctx)
	s.metrics.ObserveCheck(needed)
	if !needed {
		return s.wait(ctx, s.pollInterval)
	}

	started := time.Now()
	requestID, err := s.raffle.PerformUpkeep(ctx)
	if errors.Is(err, raffle.ErrUpkeepNotNeeded) {
		// Someone else closed the round between check and perform.
		s.metrics.ObserveUpkeep(nil, true, started)
		s.logger.Debug("upkeep no longer needed", zap.Error(err))
		return s.wait(ctx, s.pollInterval)
	}
	s.metrics.ObserveUpkeep(err, false, started)
	if err != nil {
		return err
	}

	s.logger.Info("winner requested", zap.Uint64("request_id", requestID))
	return s.wait(ctx, s.pollInterval)
}

func (s *Service) wait(ctx context.Context, d time.Duration) error {
	if s.blockSignal == nil {
		return s.sleep(ctx, d)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.blockSignal:
		return nil
	case <-timer.C:
		return nil
	}
}
