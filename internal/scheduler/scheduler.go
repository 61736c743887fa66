package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Relayer republishes notifications that were stored but never reached the broker.
type Relayer interface {
	RelayPending(ctx context.Context, batch int) (int, error)
}

type Scheduler struct {
	relayer  Relayer
	interval time.Duration
	batch    int
	timeout  time.Duration
	logger   *slog.Logger
}

func NewScheduler(relayer Relayer, interval time.Duration, batch int, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		relayer:  relayer,
		interval: interval,
		batch:    batch,
		timeout:  time.Minute,
		logger:   logger.With("component", "relay"),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("relay scheduler started", "interval", s.interval, "batch", s.batch)

	s.runRelay(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("relay scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runRelay(ctx)
		}
	}
}

func (s *Scheduler) runRelay(ctx context.Context) {
	relayCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.relayer.RelayPending(relayCtx, s.batch); err != nil {
		s.logger.Error("relay failed", "error", err)
	}
}
