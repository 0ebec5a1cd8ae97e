package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs the relabel-and-retrain pass on a cron schedule. Specs
// accept an optional leading seconds field.
type Scheduler struct {
	cron    *cron.Cron
	refresh *Refresher
	timeout time.Duration
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a stopped scheduler. timeout bounds one pass.
func NewScheduler(refresh *Refresher, timeout time.Duration, logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Scheduler{
		cron:    cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		refresh: refresh,
		timeout: timeout,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Schedule registers the refresh pass under spec.
func (s *Scheduler) Schedule(spec string) error {
	_, err := s.cron.AddFunc(spec, s.runOnce)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	s.logger.Info("Refresh scheduled", zap.String("schedule", spec))
	return nil
}

// Start begins running scheduled passes.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels a running pass and waits for it to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runOnce() {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	s.logger.Info("Scheduled refresh started")
	if _, err := s.refresh.Run(ctx); err != nil {
		s.logger.Error("Scheduled refresh failed", zap.Error(err))
		return
	}
	s.logger.Info("Scheduled refresh completed", zap.Duration("took", time.Since(start)))
}
