package services_test

import (
	"context"
	"time"

	"loansuite/internal/adapters/persistence/models"
	"loansuite/internal/core/services"
)

type mockEmiScheduleRepository struct {
	// Fields to control mock behavior
	MockRows         []*models.EmiSchedule
	MockRowByID      *models.EmiSchedule
	MockExists       bool
	MockPaidAffected int64
	MockSweptRows    int64
	MockOpenCount    int64
	MockError        error
	MockCreateError  error

	// Fields to capture calls
	BulkCreated        []*models.EmiSchedule
	MarkPaidCalledWith uint
	MarkPaidAt         time.Time
	RevertedID         uint
	RevertedTo         string
	SweptBefore        time.Time
}

func (m *mockEmiScheduleRepository) BulkCreate(ctx context.Context, rows []*models.EmiSchedule) error {
	if m.MockCreateError != nil {
		return m.MockCreateError
	}
	m.BulkCreated = rows
	return m.MockError
}

func (m *mockEmiScheduleRepository) GetByID(ctx context.Context, id uint) (*models.EmiSchedule, error) {
	if m.MockError != nil {
		return nil, m.MockError
	}
	return m.MockRowByID, nil
}

func (m *mockEmiScheduleRepository) GetByLoanID(ctx context.Context, loanID uint) ([]*models.EmiSchedule, error) {
	return m.MockRows, m.MockError
}

func (m *mockEmiScheduleRepository) GetByCustomerID(ctx context.Context, customerID uint) ([]*models.EmiSchedule, error) {
	return m.MockRows, m.MockError
}

func (m *mockEmiScheduleRepository) ExistsByLoanID(ctx context.Context, loanID uint) (bool, error) {
	return m.MockExists, m.MockError
}

func (m *mockEmiScheduleRepository) MarkPaid(ctx context.Context, id uint, paidAt time.Time) (int64, error) {
	m.MarkPaidCalledWith = id
	m.MarkPaidAt = paidAt
	return m.MockPaidAffected, m.MockError
}

func (m *mockEmiScheduleRepository) RevertPaid(ctx context.Context, id uint, status string) error {
	m.RevertedID = id
	m.RevertedTo = status
	return nil
}

func (m *mockEmiScheduleRepository) MarkOverdueBefore(ctx context.Context, before time.Time) (int64, error) {
	m.SweptBefore = before
	return m.MockSweptRows, m.MockError
}

func (m *mockEmiScheduleRepository) ListUpcoming(ctx context.Context, from, to time.Time) ([]*models.EmiSchedule, error) {
	return m.MockRows, m.MockError
}

func (m *mockEmiScheduleRepository) CountOpenByLoanID(ctx context.Context, loanID uint) (int64, error) {
	return m.MockOpenCount, m.MockError
}

type mockEmiPaymentRepository struct {
	MockPayments    []*models.EmiPayment
	MockError       error
	MockCreateError error

	Created *models.EmiPayment
}

func (m *mockEmiPaymentRepository) Create(ctx context.Context, payment *models.EmiPayment) error {
	if m.MockCreateError != nil {
		return m.MockCreateError
	}
	m.Created = payment
	return nil
}

func (m *mockEmiPaymentRepository) GetByScheduleID(ctx context.Context, scheduleID uint) ([]*models.EmiPayment, error) {
	return m.MockPayments, m.MockError
}

func (m *mockEmiPaymentRepository) GetByLoanID(ctx context.Context, loanID uint) ([]*models.EmiPayment, error) {
	return m.MockPayments, m.MockError
}

type mockLoanRepository struct {
	MockLoan  *models.Loan
	MockLoans []*models.Loan
	MockTotal int64
	MockError error

	Created *models.Loan
	Updated *models.Loan
}

func (m *mockLoanRepository) Create(ctx context.Context, loan *models.Loan) error {
	if m.MockError != nil {
		return m.MockError
	}
	loan.ID = 1
	m.Created = loan
	return nil
}

func (m *mockLoanRepository) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	if m.MockError != nil {
		return nil, m.MockError
	}
	return m.MockLoan, nil
}

func (m *mockLoanRepository) GetByCustomerID(ctx context.Context, customerID uint) ([]*models.Loan, error) {
	return m.MockLoans, m.MockError
}

func (m *mockLoanRepository) List(ctx context.Context, status string, offset, limit int) ([]*models.Loan, int64, error) {
	return m.MockLoans, m.MockTotal, m.MockError
}

func (m *mockLoanRepository) Update(ctx context.Context, loan *models.Loan) error {
	m.Updated = loan
	return m.MockError
}

type mockLoanTypeRepository struct {
	MockLoanType *models.LoanType
	MockList     []*models.LoanType
	MockError    error
}

func (m *mockLoanTypeRepository) GetByID(ctx context.Context, id uint) (*models.LoanType, error) {
	if m.MockError != nil {
		return nil, m.MockError
	}
	return m.MockLoanType, nil
}

func (m *mockLoanTypeRepository) List(ctx context.Context) ([]*models.LoanType, error) {
	return m.MockList, m.MockError
}

type mockCustomerRepository struct {
	MockCustomer *models.Customer
	MockExists   bool
	MockError    error

	Created *models.Customer
	Updated *models.Customer
}

func (m *mockCustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	if m.MockError != nil {
		return m.MockError
	}
	m.Created = customer
	return nil
}

func (m *mockCustomerRepository) GetByID(ctx context.Context, id uint) (*models.Customer, error) {
	if m.MockError != nil {
		return nil, m.MockError
	}
	return m.MockCustomer, nil
}

func (m *mockCustomerRepository) GetByUserID(ctx context.Context, userID uint) (*models.Customer, error) {
	if m.MockError != nil {
		return nil, m.MockError
	}
	return m.MockCustomer, nil
}

func (m *mockCustomerRepository) Update(ctx context.Context, customer *models.Customer) error {
	m.Updated = customer
	return m.MockError
}

func (m *mockCustomerRepository) Exists(ctx context.Context, id uint) (bool, error) {
	return m.MockExists, m.MockError
}

type mockRefreshTokenRepository struct {
	MockToken *models.RefreshToken
	MockError error

	DeleteExpiredCalls int
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	return m.MockError
}

func (m *mockRefreshTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	if m.MockError != nil {
		return nil, m.MockError
	}
	return m.MockToken, nil
}

func (m *mockRefreshTokenRepository) RevokeByTokenHash(ctx context.Context, tokenHash string) error {
	return m.MockError
}

func (m *mockRefreshTokenRepository) RevokeAllByUserID(ctx context.Context, userID uint) error {
	return m.MockError
}

func (m *mockRefreshTokenRepository) DeleteExpired(ctx context.Context) error {
	m.DeleteExpiredCalls++
	return m.MockError
}

type mockLoanEventRepository struct {
	MockEvents []*models.LoanEvent
	MockError  error

	Created []*models.LoanEvent
}

func (m *mockLoanEventRepository) Create(ctx context.Context, event *models.LoanEvent) error {
	if m.MockError != nil {
		return m.MockError
	}
	m.Created = append(m.Created, event)
	return nil
}

func (m *mockLoanEventRepository) GetByLoanID(ctx context.Context, loanID uint) ([]*models.LoanEvent, error) {
	return m.MockEvents, m.MockError
}

type mockScheduleGenerator struct {
	MockSchedule []*models.EmiSchedule
	MockError    error

	GeneratedFor *services.GenerateScheduleInput
}

func (m *mockScheduleGenerator) GenerateSchedule(ctx context.Context, input *services.GenerateScheduleInput) ([]*models.EmiSchedule, error) {
	if m.MockError != nil {
		return nil, m.MockError
	}
	m.GeneratedFor = input
	return m.MockSchedule, nil
}

type mockLoanCloser struct {
	MockError error

	ClosedLoanID uint
	Calls        int
}

func (m *mockLoanCloser) OnAllInstallmentsPaid(ctx context.Context, loanID uint) error {
	m.ClosedLoanID = loanID
	m.Calls++
	return m.MockError
}
