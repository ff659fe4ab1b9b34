package usecase

import (
	"context"
	"fmt"
	"time"

	"FinEnrich/internal/domain/models"
	applogger "FinEnrich/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers pipeline runs on a cron expression.
type Scheduler struct {
	runner  *Runner
	cron    *cron.Cron
	timeout time.Duration
	logger  *applogger.Logger
}

// NewScheduler creates a scheduler evaluating expressions in loc.
func NewScheduler(runner *Runner, loc *time.Location, timeout time.Duration, logger *applogger.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = applogger.Nop()
	}
	return &Scheduler{
		runner:  runner,
		cron:    cron.New(cron.WithLocation(loc)),
		timeout: timeout,
		logger:  logger,
	}
}

// Start registers the schedule and starts the cron loop.
func (s *Scheduler) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.runScheduled); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started", applogger.String("schedule", schedule))
	return nil
}

// Stop stops the cron loop and waits for a running job to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// Next returns the next planned activation, or zero if nothing is scheduled.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) runScheduled() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	sum, err := s.runner.Trigger(ctx, models.TriggerSchedule)
	if err != nil {
		if IsInProgress(err) {
			s.logger.Warn("scheduled run skipped, previous run still active")
			return
		}
		s.logger.Error("scheduled run failed", applogger.Error(err))
		return
	}
	s.logger.Info("scheduled run completed",
		applogger.String("run_id", sum.ID),
		applogger.Int("records", sum.Enriched),
	)
}
