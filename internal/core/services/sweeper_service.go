package services

import (
	"context"
	"log"
	"time"

	"loansuite/internal/adapters/persistence/repositories"
	"loansuite/internal/config"

	"github.com/robfig/cron/v3"
)

// jobTimeout bounds one sweep or reminder pass
const jobTimeout = 2 * time.Minute

// SweeperService schedules the periodic EMI jobs: the overdue sweep and the
// due-soon reminder pass. Both jobs are conditional-update idempotent, so
// overlapping runs across instances are safe; at-least-once is fine.
type SweeperService struct {
	cron   *cron.Cron
	emi    *EmiService
	notify *NotificationService
	tokens repositories.RefreshTokenRepository
	cfg    config.EngineConfig
}

// NewSweeperService creates a new sweeper service
func NewSweeperService(emi *EmiService, notify *NotificationService,
	tokens repositories.RefreshTokenRepository, cfg config.EngineConfig) *SweeperService {
	return &SweeperService{
		cron:   cron.New(),
		emi:    emi,
		notify: notify,
		tokens: tokens,
		cfg:    cfg,
	}
}

// Start registers and launches the cron jobs
func (s *SweeperService) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.SweepCron, s.RunSweep); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.ReminderCron, s.RunReminders); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.SweepCron, s.RunTokenCleanup); err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("🚀 Sweeper started [sweep: %q, reminders: %q]", s.cfg.SweepCron, s.cfg.ReminderCron)
	return nil
}

// Stop stops the cron scheduler and waits for running jobs
func (s *SweeperService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 Sweeper stopped")
}

// RunSweep executes one overdue sweep pass
func (s *SweeperService) RunSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	flagged, err := s.emi.SweepOverdue(ctx)
	if err != nil {
		log.Printf("❌ Overdue sweep failed: %v", err)
		return
	}
	log.Printf("✅ Overdue sweep completed: %d flagged", flagged)
}

// RunReminders sends due-soon reminders for upcoming installments
func (s *SweeperService) RunReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	rows, err := s.emi.Upcoming(ctx, s.cfg.ReminderDaysAhead)
	if err != nil {
		log.Printf("❌ Reminder query failed: %v", err)
		return
	}

	for _, row := range rows {
		s.notify.NotifyEmiDueSoon(row)
	}

	if len(rows) > 0 {
		log.Printf("✅ Sent %d EMI reminder(s)", len(rows))
	}
}

// RunTokenCleanup purges expired refresh tokens alongside the nightly sweep
func (s *SweeperService) RunTokenCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.tokens.DeleteExpired(ctx); err != nil {
		log.Printf("❌ Refresh token cleanup failed: %v", err)
		return
	}
	log.Println("✅ Expired refresh tokens purged")
}
