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

// Loan service errors
var (
	ErrLoanNotFound        = errors.New("loan not found")
	ErrLoanTypeNotFound    = errors.New("loan type not found")
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrLoanAlreadyDecided  = errors.New("loan already approved or rejected")
	ErrLoanNotApproved     = errors.New("loan is not in approved state")
	ErrLoanNotDisbursed    = errors.New("loan is not in disbursed state")
	ErrAmountOutOfRange    = errors.New("amount outside loan type limits")
	ErrTenureOutOfRange    = errors.New("tenure outside loan type limits")
)

// LoanService handles the loan application lifecycle. Disbursement asserts
// the disbursed precondition and then hands off to the EMI engine for
// schedule generation; the engine signals back through OnAllInstallmentsPaid
// when the last installment settles.
type LoanService struct {
	loanRepo     repositories.LoanRepository
	loanTypeRepo repositories.LoanTypeRepository
	customerRepo repositories.CustomerRepository
	eventRepo    repositories.LoanEventRepository
	scheduler    ScheduleGenerator
	notify       *NotificationService
}

// NewLoanService creates a new loan service
func NewLoanService(
	loanRepo repositories.LoanRepository,
	loanTypeRepo repositories.LoanTypeRepository,
	customerRepo repositories.CustomerRepository,
	eventRepo repositories.LoanEventRepository,
	scheduler ScheduleGenerator,
	notify *NotificationService,
) *LoanService {
	return &LoanService{
		loanRepo:     loanRepo,
		loanTypeRepo: loanTypeRepo,
		customerRepo: customerRepo,
		eventRepo:    eventRepo,
		scheduler:    scheduler,
		notify:       notify,
	}
}

// ApplyInput represents loan application input
type ApplyInput struct {
	CustomerID   uint            `json:"customer_id"`
	LoanTypeID   uint            `json:"loan_type_id"`
	Principal    decimal.Decimal `json:"principal"`
	TenureMonths int             `json:"tenure_months"`
	Purpose      string          `json:"purpose,omitempty"`
}

// Apply creates a new loan application in PENDING state
func (s *LoanService) Apply(ctx context.Context, input *ApplyInput, actorID uint) (*models.Loan, error) {
	exists, err := s.customerRepo.Exists(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrCustomerNotFound
	}

	loanType, err := s.loanTypeRepo.GetByID(ctx, input.LoanTypeID)
	if err != nil {
		return nil, ErrLoanTypeNotFound
	}

	if input.Principal.LessThan(loanType.MinAmount) || input.Principal.GreaterThan(loanType.MaxAmount) {
		return nil, ErrAmountOutOfRange
	}
	if input.TenureMonths < 1 || input.TenureMonths > loanType.MaxTenureMonths {
		return nil, ErrTenureOutOfRange
	}

	loan := &models.Loan{
		CustomerID:   input.CustomerID,
		LoanTypeID:   input.LoanTypeID,
		Principal:    input.Principal,
		InterestRate: loanType.InterestRate,
		TenureMonths: input.TenureMonths,
		Purpose:      input.Purpose,
		Status:       models.LoanStatusPending,
	}

	if err := s.loanRepo.Create(ctx, loan); err != nil {
		return nil, err
	}

	s.recordEvent(ctx, loan.ID, models.LoanEventApplied, "", models.LoanStatusPending, actorID, input.Purpose)

	log.Printf("✅ Loan application created: loan=%d customer=%d amount=%s",
		loan.ID, loan.CustomerID, loan.Principal)

	return loan, nil
}

// DecisionInput represents approve/reject input
type DecisionInput struct {
	Remark string `json:"remark,omitempty"`
}

// Approve approves a pending loan
func (s *LoanService) Approve(ctx context.Context, loanID uint, input *DecisionInput, officerID uint) (*models.Loan, error) {
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if loan.Status != models.LoanStatusPending {
		return nil, ErrLoanAlreadyDecided
	}

	now := time.Now()
	loan.Status = models.LoanStatusApproved
	loan.ApprovedBy = &officerID
	loan.ApprovedAt = &now
	loan.Remark = input.Remark

	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, err
	}

	s.recordEvent(ctx, loan.ID, models.LoanEventApproved, models.LoanStatusPending, models.LoanStatusApproved, officerID, input.Remark)

	if s.notify != nil {
		s.notify.NotifyLoanDecision(loan, true)
	}

	log.Printf("✅ Loan approved: loan=%d officer=%d", loan.ID, officerID)
	return loan, nil
}

// Reject rejects a pending loan
func (s *LoanService) Reject(ctx context.Context, loanID uint, input *DecisionInput, officerID uint) (*models.Loan, error) {
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if loan.Status != models.LoanStatusPending {
		return nil, ErrLoanAlreadyDecided
	}

	loan.Status = models.LoanStatusRejected
	loan.Remark = input.Remark

	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, err
	}

	s.recordEvent(ctx, loan.ID, models.LoanEventRejected, models.LoanStatusPending, models.LoanStatusRejected, officerID, input.Remark)

	if s.notify != nil {
		s.notify.NotifyLoanDecision(loan, false)
	}

	log.Printf("✅ Loan rejected: loan=%d officer=%d", loan.ID, officerID)
	return loan, nil
}

// DisburseInput represents disbursement input
type DisburseInput struct {
	StartDate string `json:"start_date,omitempty"` // YYYY-MM-DD, defaults to today
	Remark    string `json:"remark,omitempty"`
}

// Disburse releases an approved loan and generates its EMI schedule. Only a
// disbursed loan gets a schedule; that precondition is asserted here, on the
// calling side, not inside the engine.
func (s *LoanService) Disburse(ctx context.Context, loanID uint, input *DisburseInput, officerID uint) (*models.Loan, []*models.EmiSchedule, error) {
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, nil, err
	}

	if loan.Status != models.LoanStatusApproved {
		return nil, nil, ErrLoanNotApproved
	}

	startDate := truncateToDate(time.Now())
	if input.StartDate != "" {
		startDate, err = time.Parse("2006-01-02", input.StartDate)
		if err != nil {
			return nil, nil, errors.New("invalid start_date format, use YYYY-MM-DD")
		}
	}

	now := time.Now()
	loan.Status = models.LoanStatusDisbursed
	loan.DisbursedAt = &now
	loan.StartDate = &startDate
	if input.Remark != "" {
		loan.Remark = input.Remark
	}

	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, nil, err
	}

	s.recordEvent(ctx, loan.ID, models.LoanEventDisbursed, models.LoanStatusApproved, models.LoanStatusDisbursed, officerID, input.Remark)

	schedule, err := s.scheduler.GenerateSchedule(ctx, &GenerateScheduleInput{
		LoanID:            loan.ID,
		CustomerID:        loan.CustomerID,
		Principal:         loan.Principal,
		AnnualRatePercent: loan.InterestRate,
		TenureMonths:      loan.TenureMonths,
		StartDate:         startDate,
	})
	if err != nil {
		return nil, nil, err
	}

	log.Printf("✅ Loan disbursed: loan=%d start=%s installments=%d",
		loan.ID, startDate.Format("2006-01-02"), len(schedule))

	return loan, schedule, nil
}

// OnAllInstallmentsPaid closes a disbursed loan once the EMI engine reports
// every installment settled. Implements LoanCloser.
func (s *LoanService) OnAllInstallmentsPaid(ctx context.Context, loanID uint) error {
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return err
	}

	if loan.Status != models.LoanStatusDisbursed {
		return ErrLoanNotDisbursed
	}

	now := time.Now()
	loan.Status = models.LoanStatusClosed
	loan.SettledAt = &now

	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return err
	}

	s.recordEvent(ctx, loan.ID, models.LoanEventClosed, models.LoanStatusDisbursed, models.LoanStatusClosed, 0, "all installments paid")

	if s.notify != nil {
		s.notify.NotifyLoanClosed(loan)
	}

	log.Printf("✅ Loan closed: loan=%d", loan.ID)
	return nil
}

// GetByID gets a loan by ID
func (s *LoanService) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	return s.getLoan(ctx, id)
}

// GetByCustomer gets a customer's loans
func (s *LoanService) GetByCustomer(ctx context.Context, customerID uint) ([]*models.Loan, error) {
	return s.loanRepo.GetByCustomerID(ctx, customerID)
}

// GetCustomerByUserID resolves the customer profile behind a user account
func (s *LoanService) GetCustomerByUserID(ctx context.Context, userID uint) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return customer, nil
}

// ListOutput represents paginated loan list output
type ListOutput struct {
	Loans      []*models.Loan `json:"loans"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

// List lists loans with optional status filter
func (s *LoanService) List(ctx context.Context, status string, page, limit int) (*ListOutput, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	loans, total, err := s.loanRepo.List(ctx, status, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}

	return &ListOutput{
		Loans:      loans,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// GetHistory gets a loan's audit events
func (s *LoanService) GetHistory(ctx context.Context, loanID uint) ([]*models.LoanEvent, error) {
	if _, err := s.getLoan(ctx, loanID); err != nil {
		return nil, err
	}
	return s.eventRepo.GetByLoanID(ctx, loanID)
}

// ListLoanTypes lists active loan products
func (s *LoanService) ListLoanTypes(ctx context.Context) ([]*models.LoanType, error) {
	return s.loanTypeRepo.List(ctx)
}

func (s *LoanService) getLoan(ctx context.Context, id uint) (*models.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

// recordEvent appends an audit row; failures are logged, never propagated
func (s *LoanService) recordEvent(ctx context.Context, loanID uint, eventType, from, to string, actorID uint, remark string) {
	event := &models.LoanEvent{
		LoanID:      loanID,
		EventType:   eventType,
		FromStatus:  from,
		ToStatus:    to,
		PerformedBy: actorID,
		Remark:      remark,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		log.Printf("❌ Failed to record loan event %s for loan %d: %v", eventType, loanID, err)
	}
}
