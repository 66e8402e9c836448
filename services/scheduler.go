package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs the periodic jobs: package expiry and lesson reminders.
type Scheduler struct {
	cron      *cron.Cron
	reminders *ReminderService
	packages  *PackageService
	logger    *zap.Logger
}

func NewScheduler(reminders *ReminderService, packages *PackageService, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		reminders: reminders,
		packages:  packages,
		logger:    logger,
	}
}

func (s *Scheduler) Start(reminderSpec, expirySpec string) error {
	if _, err := s.cron.AddFunc(expirySpec, s.expirePackages); err != nil {
		return errors.Wrapf(err, "schedule package expiry %q", expirySpec)
	}
	if _, err := s.cron.AddFunc(reminderSpec, s.sendReminders); err != nil {
		return errors.Wrapf(err, "schedule reminders %q", reminderSpec)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started",
		zap.String("reminders", reminderSpec),
		zap.String("expiry", expirySpec))
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) expirePackages() {
	if _, err := s.packages.ExpirePackages(time.Now()); err != nil {
		s.logger.Error("Package expiry failed", zap.Error(err))
	}
}

func (s *Scheduler) sendReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	if _, err := s.reminders.SendUpcomingReminders(ctx, time.Now()); err != nil {
		s.logger.Error("Reminder run failed", zap.Error(err))
	}
}
