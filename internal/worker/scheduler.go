package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scheduler re-runs a submission job every interval, so a long-running
// server can keep announcing a fixed URL list without an external cron.
// A run that is still in flight when the next tick fires delays that tick;
// runs never overlap.
type Scheduler struct {
	interval time.Duration
	job      func(ctx context.Context)
	logger   *zap.Logger
}

func NewScheduler(interval time.Duration, job func(ctx context.Context), logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{interval: interval, job: job, logger: logger}
}

// Run ticks every interval and invokes the job. It returns when ctx is
// cancelled. A non-positive interval returns immediately.
func (s *Scheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled run panicked", zap.Any("panic", r))
		}
	}()
	s.job(ctx)
	s.logger.Debug("scheduled run finished", zap.Duration("elapsed", time.Since(start)))
}
