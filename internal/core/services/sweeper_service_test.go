package services_test

import (
	"testing"
	"time"

	"loansuite/internal/adapters/persistence/models"
	"loansuite/internal/config"
	"loansuite/internal/core/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSweeper(scheduleRepo *mockEmiScheduleRepository, tokenRepo *mockRefreshTokenRepository) *services.SweeperService {
	emi := services.NewEmiService(scheduleRepo, &mockEmiPaymentRepository{}, nil, d("0.01"))
	notify := services.NewNotificationService(config.NotifyConfig{})
	return services.NewSweeperService(emi, notify, tokenRepo, config.EngineConfig{
		SweepCron:         "5 0 * * *",
		ReminderCron:      "0 8 * * *",
		ReminderDaysAhead: 7,
	})
}

func TestSweeperStartStop(t *testing.T) {
	t.Run("Valid Cron Specs", func(t *testing.T) {
		sweeper := newSweeper(&mockEmiScheduleRepository{}, &mockRefreshTokenRepository{})

		require.NoError(t, sweeper.Start())
		sweeper.Stop()
	})

	t.Run("Invalid Sweep Spec", func(t *testing.T) {
		emi := services.NewEmiService(&mockEmiScheduleRepository{}, &mockEmiPaymentRepository{}, nil, d("0.01"))
		notify := services.NewNotificationService(config.NotifyConfig{})
		sweeper := services.NewSweeperService(emi, notify, &mockRefreshTokenRepository{}, config.EngineConfig{
			SweepCron:    "not a cron spec",
			ReminderCron: "0 8 * * *",
		})

		assert.Error(t, sweeper.Start())
	})
}

func TestSweeperRunSweep(t *testing.T) {
	scheduleRepo := &mockEmiScheduleRepository{MockSweptRows: 2}
	sweeper := newSweeper(scheduleRepo, &mockRefreshTokenRepository{})

	sweeper.RunSweep()

	assert.False(t, scheduleRepo.SweptBefore.IsZero(), "sweep must reach the repository")
}

func TestSweeperRunTokenCleanup(t *testing.T) {
	tokenRepo := &mockRefreshTokenRepository{}
	sweeper := newSweeper(&mockEmiScheduleRepository{}, tokenRepo)

	sweeper.RunTokenCleanup()

	assert.Equal(t, 1, tokenRepo.DeleteExpiredCalls)
}

func TestSweeperRunReminders(t *testing.T) {
	due := pendingRow(1, 42, "10549.91")
	due.DueDate = time.Now().AddDate(0, 0, 2)
	scheduleRepo := &mockEmiScheduleRepository{MockRows: []*models.EmiSchedule{due}}
	sweeper := newSweeper(scheduleRepo, &mockRefreshTokenRepository{})

	// Webhook unset, so reminders are a no-op; the pass itself must not fail
	sweeper.RunReminders()
}
