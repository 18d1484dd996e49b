package services

import (
	"context"
	"errors"
	"log"
	"time"

	"loansuite/internal/adapters/persistence/models"
	"loansuite/internal/adapters/persistence/repositories"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EMI engine errors
var (
	ErrScheduleExists          = errors.New("schedule already exists for loan")
	ErrScheduleNotFound        = errors.New("emi schedule not found")
	ErrAlreadyPaid             = errors.New("installment already paid")
	ErrInvalidAmount           = errors.New("payment amount must be greater than zero")
	ErrInsufficientPayment     = errors.New("payment amount below installment amount")
	ErrDuplicateTransactionRef = errors.New("transaction reference already recorded")
	ErrInvalidDaysAhead        = errors.New("days ahead must be greater than zero")
)

// closureTimeout bounds the loan-closure collaborator call
const closureTimeout = 5 * time.Second

// EmiService owns the persisted amortization schedule: generation, payment
// recording, the overdue sweep and the query surface.
type EmiService struct {
	scheduleRepo repositories.EmiScheduleRepository
	paymentRepo  repositories.EmiPaymentRepository
	loanCloser   LoanCloser
	notify       *NotificationService
	tolerance    decimal.Decimal
}

// NewEmiService creates a new EMI service
func NewEmiService(
	scheduleRepo repositories.EmiScheduleRepository,
	paymentRepo repositories.EmiPaymentRepository,
	notify *NotificationService,
	tolerance decimal.Decimal,
) *EmiService {
	return &EmiService{
		scheduleRepo: scheduleRepo,
		paymentRepo:  paymentRepo,
		notify:       notify,
		tolerance:    tolerance,
	}
}

// SetLoanCloser binds the loan-closure collaborator. Bound after
// construction because the loan service and the engine reference each other.
func (s *EmiService) SetLoanCloser(closer LoanCloser) {
	s.loanCloser = closer
}

// GenerateScheduleInput represents schedule generation input
type GenerateScheduleInput struct {
	LoanID            uint            `json:"loan_id"`
	CustomerID        uint            `json:"customer_id"`
	Principal         decimal.Decimal `json:"principal"`
	AnnualRatePercent decimal.Decimal `json:"interest_rate"`
	TenureMonths      int             `json:"tenure_months"`
	StartDate         time.Time       `json:"start_date"`
}

// GenerateSchedule computes and persists the amortization schedule for a
// loan. Generation is at-most-once per loan: a second call fails with
// ErrScheduleExists, enforced both by an existence check and by the
// composite unique index under concurrent generation.
func (s *EmiService) GenerateSchedule(ctx context.Context, input *GenerateScheduleInput) ([]*models.EmiSchedule, error) {
	exists, err := s.scheduleRepo.ExistsByLoanID(ctx, input.LoanID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrScheduleExists
	}

	installments, err := GenerateAmortizationSchedule(
		input.Principal,
		input.AnnualRatePercent,
		input.TenureMonths,
		input.StartDate,
	)
	if err != nil {
		return nil, err
	}

	rows := make([]*models.EmiSchedule, 0, len(installments))
	for _, inst := range installments {
		rows = append(rows, &models.EmiSchedule{
			LoanID:             input.LoanID,
			CustomerID:         input.CustomerID,
			EmiNumber:          inst.EmiNumber,
			EmiAmount:          inst.EmiAmount,
			PrincipalComponent: inst.PrincipalComponent,
			InterestComponent:  inst.InterestComponent,
			DueDate:            inst.DueDate,
			OutstandingBalance: inst.OutstandingBalance,
			Status:             models.EmiStatusPending,
		})
	}

	if err := s.scheduleRepo.BulkCreate(ctx, rows); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race against a concurrent generation
			return nil, ErrScheduleExists
		}
		return nil, err
	}

	log.Printf("✅ EMI schedule generated: loan=%d installments=%d emi=%s",
		input.LoanID, len(rows), rows[0].EmiAmount)

	if s.notify != nil {
		s.notify.NotifyScheduleGenerated(input.LoanID, len(rows), rows[0].EmiAmount)
	}

	return rows, nil
}

// RecordPaymentInput represents payment recording input
type RecordPaymentInput struct {
	EmiScheduleID  uint            `json:"emi_schedule_id"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentDate    time.Time       `json:"payment_date"`
	Method         string          `json:"method"`
	TransactionRef string          `json:"transaction_reference,omitempty"`
	Remarks        string          `json:"remarks,omitempty"`
	PaidBy         uint            `json:"-"`
}

// RecordPayment settles one installment. The amount must match the
// installment amount within the configured tolerance; lower amounts are
// rejected, higher amounts are accepted and flagged as overpaid. The
// PENDING/OVERDUE status guard on the update serializes concurrent payment
// attempts; the loser observes zero affected rows and gets ErrAlreadyPaid.
// The outstanding balance is the calculator's projection and is not
// recomputed from the paid amount.
func (s *EmiService) RecordPayment(ctx context.Context, input *RecordPaymentInput) (*models.EmiPayment, *models.EmiSchedule, error) {
	if !input.Amount.IsPositive() {
		return nil, nil, ErrInvalidAmount
	}

	row, err := s.scheduleRepo.GetByID(ctx, input.EmiScheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrScheduleNotFound
		}
		return nil, nil, err
	}

	if row.Status == models.EmiStatusPaid {
		return nil, nil, ErrAlreadyPaid
	}

	if input.Amount.LessThan(row.EmiAmount.Sub(s.tolerance)) {
		return nil, nil, ErrInsufficientPayment
	}
	overpaid := input.Amount.GreaterThan(row.EmiAmount.Add(s.tolerance))

	paidAt := time.Now()
	affected, err := s.scheduleRepo.MarkPaid(ctx, row.ID, paidAt)
	if err != nil {
		return nil, nil, err
	}
	if affected == 0 {
		// Another payment won the conditional update
		return nil, nil, ErrAlreadyPaid
	}

	payment := &models.EmiPayment{
		EmiScheduleID: row.ID,
		LoanID:        row.LoanID,
		Amount:        input.Amount,
		PaymentDate:   input.PaymentDate,
		Method:        input.Method,
		PaidBy:        input.PaidBy,
		Overpaid:      overpaid,
		Remarks:       input.Remarks,
	}
	if input.TransactionRef != "" {
		payment.TransactionRef = &input.TransactionRef
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		// The row is already PAID but no ledger entry exists. Roll the
		// status back so the installment stays payable.
		if revertErr := s.scheduleRepo.RevertPaid(ctx, row.ID, row.Status); revertErr != nil {
			log.Printf("❌ Failed to revert installment %d to %s after ledger error: %v",
				row.ID, row.Status, revertErr)
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, ErrDuplicateTransactionRef
		}
		return nil, nil, err
	}

	row.Status = models.EmiStatusPaid
	row.PaidAt = &paidAt

	if overpaid {
		log.Printf("⚠️ Overpayment recorded: emi=%d amount=%s expected=%s",
			row.ID, input.Amount, row.EmiAmount)
	} else {
		log.Printf("✅ Payment recorded: emi=%d loan=%d amount=%s", row.ID, row.LoanID, input.Amount)
	}

	s.signalClosureIfSettled(row.LoanID)

	if s.notify != nil {
		s.notify.NotifyPaymentReceived(payment)
	}

	return payment, row, nil
}

// signalClosureIfSettled fires the loan-closure signal when the last open
// installment of a loan is paid. Best-effort: a failed signal is logged and
// never rolls back the payment.
func (s *EmiService) signalClosureIfSettled(loanID uint) {
	ctx, cancel := context.WithTimeout(context.Background(), closureTimeout)
	defer cancel()

	open, err := s.scheduleRepo.CountOpenByLoanID(ctx, loanID)
	if err != nil {
		log.Printf("❌ Open installment count failed for loan %d: %v", loanID, err)
		return
	}
	if open > 0 || s.loanCloser == nil {
		return
	}

	if err := s.loanCloser.OnAllInstallmentsPaid(ctx, loanID); err != nil {
		log.Printf("❌ Loan closure signal failed for loan %d: %v", loanID, err)
		return
	}
	log.Printf("✅ All installments settled, closure signalled: loan=%d", loanID)
}

// SweepOverdue flags every lapsed PENDING installment as OVERDUE. The
// conditional update makes the sweep idempotent and safe under concurrent
// sweeps; re-running with no new lapses affects zero rows.
func (s *EmiService) SweepOverdue(ctx context.Context) (int64, error) {
	today := truncateToDate(time.Now())

	flagged, err := s.scheduleRepo.MarkOverdueBefore(ctx, today)
	if err != nil {
		return 0, err
	}

	if flagged > 0 {
		log.Printf("⚠️ Overdue sweep flagged %d installment(s)", flagged)
		if s.notify != nil {
			s.notify.NotifyOverdueFlagged(flagged)
		}
	}

	return flagged, nil
}

// GetSchedule returns a loan's full schedule ordered by installment number
func (s *EmiService) GetSchedule(ctx context.Context, loanID uint) ([]*models.EmiSchedule, error) {
	rows, err := s.scheduleRepo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrScheduleNotFound
	}
	return rows, nil
}

// GetCustomerSchedule returns all schedule rows across a customer's loans
func (s *EmiService) GetCustomerSchedule(ctx context.Context, customerID uint) ([]*models.EmiSchedule, error) {
	return s.scheduleRepo.GetByCustomerID(ctx, customerID)
}

// Upcoming returns PENDING installments due within [today, today+daysAhead],
// the feed the reminder job runs on.
func (s *EmiService) Upcoming(ctx context.Context, daysAhead int) ([]*models.EmiSchedule, error) {
	if daysAhead < 1 {
		return nil, ErrInvalidDaysAhead
	}

	today := truncateToDate(time.Now())
	return s.scheduleRepo.ListUpcoming(ctx, today, today.AddDate(0, 0, daysAhead))
}

// GetPayments returns the payment ledger for a loan
func (s *EmiService) GetPayments(ctx context.Context, loanID uint) ([]*models.EmiPayment, error) {
	return s.paymentRepo.GetByLoanID(ctx, loanID)
}

// PaymentsForInstallment returns the ledger entries recorded against one
// installment
func (s *EmiService) PaymentsForInstallment(ctx context.Context, scheduleID uint) ([]*models.EmiPayment, error) {
	if _, err := s.scheduleRepo.GetByID(ctx, scheduleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return s.paymentRepo.GetByScheduleID(ctx, scheduleID)
}

// EmiSummary aggregates a loan's schedule state
type EmiSummary struct {
	LoanID            uint            `json:"loan_id"`
	TotalEmis         int             `json:"total_emis"`
	PaidEmis          int             `json:"paid_emis"`
	PendingEmis       int             `json:"pending_emis"`
	OverdueEmis       int             `json:"overdue_emis"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
}

// Summary aggregates schedule counts and amounts for one loan
func (s *EmiService) Summary(ctx context.Context, loanID uint) (*EmiSummary, error) {
	rows, err := s.GetSchedule(ctx, loanID)
	if err != nil {
		return nil, err
	}

	summary := &EmiSummary{
		LoanID:            loanID,
		TotalEmis:         len(rows),
		TotalAmount:       decimal.Zero,
		PaidAmount:        decimal.Zero,
		OutstandingAmount: decimal.Zero,
	}

	for _, row := range rows {
		summary.TotalAmount = summary.TotalAmount.Add(row.EmiAmount)
		switch row.Status {
		case models.EmiStatusPaid:
			summary.PaidEmis++
			summary.PaidAmount = summary.PaidAmount.Add(row.EmiAmount)
		case models.EmiStatusOverdue:
			summary.OverdueEmis++
			summary.OutstandingAmount = summary.OutstandingAmount.Add(row.EmiAmount)
		default:
			summary.PendingEmis++
			summary.OutstandingAmount = summary.OutstandingAmount.Add(row.EmiAmount)
		}
	}

	return summary, nil
}

// truncateToDate drops the time-of-day component
func truncateToDate(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
