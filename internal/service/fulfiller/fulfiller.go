// Package fulfiller plays the VRF node on development chains: it answers pending
// randomness requests once they are old enough.
package fulfiller

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/rafflekeeper/internal/clock"
	"github.com/goodnatureofminers/rafflekeeper/internal/vrf"
	"github.com/goodnatureofminers/rafflekeeper/pkg/workerpool"
)

const defaultWorkers = 4

type Config struct {
	// MinConfirmations is the floor for a request's own confirmation count.
	MinConfirmations uint16
	// BlockTime is how long one confirmation takes.
	BlockTime    time.Duration
	PollInterval time.Duration
	Workers      int
}

// Service fulfils every request whose confirmation delay has elapsed.
type Service struct {
	logger      *zap.Logger
	coordinator Coordinator
	metrics     Metrics
	clock       clock.Clock
	sleep       func(context.Context, time.Duration) error
	cfg         Config
	blockSignal <-chan struct{}
}

func NewService(
	cfg Config,
	coordinator Coordinator,
	clk clock.Clock,
	metrics Metrics,
	logger *zap.Logger,
	blockSignal <-chan struct{},
) (*Service, error) {
	if coordinator == nil {
		return nil, errors.New("fulfiller coordinator is required")
	}
	if clk == nil {
		return nil, errors.New("fulfiller clock is required")
	}
	if metrics == nil {
		return nil, errors.New("fulfiller metrics is required")
	}
	if cfg.PollInterval <= 0 {
		return nil, errors.New("fulfiller poll interval must be positive")
	}
	if cfg.BlockTime < 0 {
		return nil, errors.New("fulfiller block time must not be negative")
	}
	if cfg.Workers < 1 {
		cfg.Workers = defaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		logger:      logger.Named("fulfiller"),
		coordinator: coordinator,
		metrics:     metrics,
		clock:       clk,
		sleep:       clock.SleepWithContext,
		cfg:         cfg,
		blockSignal: blockSignal,
	}, nil
}

// Run fulfils requests until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.run(ctx); err != nil {
			s.logger.Warn("fulfilment round failed, backing off", zap.Error(err), zap.Duration("sleep", s.cfg.PollInterval))
			if sleepErr := s.wait(ctx, s.cfg.PollInterval); sleepErr != nil {
				return sleepErr
			}
		}
	}
}

func (s *Service) run(ctx context.Context) error {
	pending := s.coordinator.PendingRequests()
	s.metrics.SetPending(len(pending))

	ready := s.ready(pending)
	if len(ready) == 0 {
		return s.wait(ctx, s.cfg.PollInterval)
	}

	s.logger.Debug("fulfilling requests", zap.Int("ready", len(ready)), zap.Int("pending", len(pending)))
	if err := workerpool.Process(ctx, s.cfg.Workers, ready, s.fulfill); err != nil {
		return err
	}
	return s.wait(ctx, s.cfg.PollInterval)
}

// ready returns the requests that have waited out their confirmations.
func (s *Service) ready(pending []vrf.Request) []vrf.Request {
	now := s.clock.Now()
	out := make([]vrf.Request, 0, len(pending))
	for _, req := range pending {
		if !now.Before(req.RequestedAt.Add(s.delay(req))) {
			out = append(out, req)
		}
	}
	return out
}

func (s *Service) delay(req vrf.Request) time.Duration {
	confirmations := max(req.Confirmations, s.cfg.MinConfirmations)
	return time.Duration(confirmations) * s.cfg.BlockTime
}

func (s *Service) fulfill(ctx context.Context, req vrf.Request) error {
	logger := s.logger.With(zap.Uint64("request_id", req.ID), zap.Stringer("consumer", req.Consumer))

	started := time.Now()
	f, err := s.coordinator.FulfillRandomWords(ctx, req.ID, req.Consumer)
	switch {
	case errors.Is(err, vrf.ErrNonexistentRequest):
		logger.Debug("request already fulfilled")
		return nil
	case err != nil:
		s.metrics.ObserveFulfillment(err, false, started)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// One unpayable request must not hold up the rest.
		logger.Error("fulfilment failed", zap.Error(err))
		return nil
	}

	s.metrics.ObserveFulfillment(nil, f.Success, started)
	if !f.Success {
		logger.Warn("consumer rejected randomness", zap.Error(f.Err))
		return nil
	}
	logger.Info("request fulfilled", zap.Stringer("payment", f.Payment))
	return nil
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
