package services

import (
	"context"

	"loansuite/internal/adapters/persistence/models"
)

// LoanCloser is the loan-service collaborator the EMI engine signals when
// every installment of a loan has been paid. The engine calls it
// best-effort: failures are logged and never fail the payment that
// triggered the signal.
type LoanCloser interface {
	OnAllInstallmentsPaid(ctx context.Context, loanID uint) error
}

// ScheduleGenerator is the EMI-engine collaborator the loan service calls on
// disbursement.
type ScheduleGenerator interface {
	GenerateSchedule(ctx context.Context, input *GenerateScheduleInput) ([]*models.EmiSchedule, error)
}
