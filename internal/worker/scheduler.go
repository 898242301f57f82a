package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/Nicolas95JB/PriceWatcher/internal/domain"
)

// CycleRunner is what the scheduler drives; satisfied by usecase.Verifier.
type CycleRunner interface {
	RunCycle(ctx context.Context) (*domain.CycleReport, error)
}

// Scheduler runs verification cycles on a fixed interval. The first cycle
// starts immediately, and Kick squeezes in an extra one on demand.
type Scheduler struct {
	verifier CycleRunner
	interval time.Duration
	logger   *slog.Logger

	kick chan struct{}
}

func NewScheduler(verifier CycleRunner, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &Scheduler{
		verifier: verifier,
		interval: interval,
		logger:   logger,
		kick:     make(chan struct{}, 1),
	}
}

// Kick requests an immediate cycle, for the bot's /check command. It never
// blocks; while a kick is already pending another one changes nothing.
func (s *Scheduler) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler started", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.kick:
			s.runOnce(ctx)
			// a manual check counts as a full one
			ticker.Reset(s.interval)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.verifier.RunCycle(ctx); err != nil {
		s.logger.Error("cycle aborted", slog.String("error", err.Error()))
	}
}
