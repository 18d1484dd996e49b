package services_test

import (
	"context"
	"testing"
	"time"

	"loansuite/internal/adapters/persistence/models"
	"loansuite/internal/core/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type loanServiceFixture struct {
	loanRepo     *mockLoanRepository
	loanTypeRepo *mockLoanTypeRepository
	customerRepo *mockCustomerRepository
	eventRepo    *mockLoanEventRepository
	scheduler    *mockScheduleGenerator
	svc          *services.LoanService
}

func newLoanServiceFixture() *loanServiceFixture {
	f := &loanServiceFixture{
		loanRepo: &mockLoanRepository{},
		loanTypeRepo: &mockLoanTypeRepository{
			MockLoanType: &models.LoanType{
				ID:              1,
				Code:            "PERSONAL",
				InterestRate:    d("10"),
				MinAmount:       d("10000"),
				MaxAmount:       d("500000"),
				MaxTenureMonths: 60,
			},
		},
		customerRepo: &mockCustomerRepository{MockExists: true},
		eventRepo:    &mockLoanEventRepository{},
		scheduler:    &mockScheduleGenerator{},
	}
	f.svc = services.NewLoanService(f.loanRepo, f.loanTypeRepo, f.customerRepo, f.eventRepo, f.scheduler, nil)
	return f
}

func TestApply(t *testing.T) {
	input := &services.ApplyInput{
		CustomerID:   7,
		LoanTypeID:   1,
		Principal:    d("120000"),
		TenureMonths: 12,
		Purpose:      "home renovation",
	}

	t.Run("Success", func(t *testing.T) {
		f := newLoanServiceFixture()

		loan, err := f.svc.Apply(context.Background(), input, 99)
		require.NoError(t, err)

		assert.Equal(t, models.LoanStatusPending, loan.Status)
		assert.Equal(t, uint(7), loan.CustomerID)
		assert.True(t, loan.InterestRate.Equal(d("10")), "rate comes from the loan product")

		require.Len(t, f.eventRepo.Created, 1)
		assert.Equal(t, models.LoanEventApplied, f.eventRepo.Created[0].EventType)
		assert.Equal(t, uint(99), f.eventRepo.Created[0].PerformedBy)
	})

	t.Run("Customer Not Found", func(t *testing.T) {
		f := newLoanServiceFixture()
		f.customerRepo.MockExists = false

		_, err := f.svc.Apply(context.Background(), input, 99)
		assert.ErrorIs(t, err, services.ErrCustomerNotFound)
		assert.Nil(t, f.loanRepo.Created)
	})

	t.Run("Amount Below Product Minimum", func(t *testing.T) {
		f := newLoanServiceFixture()

		low := *input
		low.Principal = d("5000")
		_, err := f.svc.Apply(context.Background(), &low, 99)
		assert.ErrorIs(t, err, services.ErrAmountOutOfRange)
	})

	t.Run("Amount Above Product Maximum", func(t *testing.T) {
		f := newLoanServiceFixture()

		high := *input
		high.Principal = d("500000.01")
		_, err := f.svc.Apply(context.Background(), &high, 99)
		assert.ErrorIs(t, err, services.ErrAmountOutOfRange)
	})

	t.Run("Tenure Out Of Range", func(t *testing.T) {
		f := newLoanServiceFixture()

		long := *input
		long.TenureMonths = 61
		_, err := f.svc.Apply(context.Background(), &long, 99)
		assert.ErrorIs(t, err, services.ErrTenureOutOfRange)

		zero := *input
		zero.TenureMonths = 0
		_, err = f.svc.Apply(context.Background(), &zero, 99)
		assert.ErrorIs(t, err, services.ErrTenureOutOfRange)
	})
}

func TestApproveReject(t *testing.T) {
	t.Run("Approve Pending Loan", func(t *testing.T) {
		f := newLoanServiceFixture()
		f.loanRepo.MockLoan = &models.Loan{ID: 1, Status: models.LoanStatusPending}

		loan, err := f.svc.Approve(context.Background(), 1, &services.DecisionInput{Remark: "income verified"}, 50)
		require.NoError(t, err)

		assert.Equal(t, models.LoanStatusApproved, loan.Status)
		require.NotNil(t, loan.ApprovedBy)
		assert.Equal(t, uint(50), *loan.ApprovedBy)
		assert.NotNil(t, loan.ApprovedAt)

		require.Len(t, f.eventRepo.Created, 1)
		assert.Equal(t, models.LoanEventApproved, f.eventRepo.Created[0].EventType)
		assert.Equal(t, models.LoanStatusPending, f.eventRepo.Created[0].FromStatus)
		assert.Equal(t, models.LoanStatusApproved, f.eventRepo.Created[0].ToStatus)
	})

	t.Run("Reject Pending Loan", func(t *testing.T) {
		f := newLoanServiceFixture()
		f.loanRepo.MockLoan = &models.Loan{ID: 1, Status: models.LoanStatusPending}

		loan, err := f.svc.Reject(context.Background(), 1, &services.DecisionInput{Remark: "insufficient income"}, 50)
		require.NoError(t, err)

		assert.Equal(t, models.LoanStatusRejected, loan.Status)
		assert.Equal(t, "insufficient income", loan.Remark)
	})

	t.Run("Approve Already Decided Loan", func(t *testing.T) {
		f := newLoanServiceFixture()
		f.loanRepo.MockLoan = &models.Loan{ID: 1, Status: models.LoanStatusApproved}

		_, err := f.svc.Approve(context.Background(), 1, &services.DecisionInput{}, 50)
		assert.ErrorIs(t, err, services.ErrLoanAlreadyDecided)
	})

	t.Run("Reject Rejected Loan", func(t *testing.T) {
		f := newLoanServiceFixture()
		f.loanRepo.MockLoan = &models.Loan{ID: 1, Status: models.LoanStatusRejected}

		_, err := f.svc.Reject(context.Background(), 1, &services.DecisionInput{}, 50)
		assert.ErrorIs(t, err, services.ErrLoanAlreadyDecided)
	})

	t.Run("Loan Not Found", func(t *testing.T) {
		f := newLoanServiceFixture()
		f.loanRepo.MockError = gorm.ErrRecordNotFound

		_, err := f.svc.Approve(context.Background(), 99, &services.DecisionInput{}, 50)
		assert.ErrorIs(t, err, services.ErrLoanNotFound)
	})
}

func TestDisburse(t *testing.T) {
	approvedLoan := func() *models.Loan {
		return &models.Loan{
			ID:           1,
			CustomerID:   7,
			Principal:    d("120000"),
			InterestRate: d("10"),
			TenureMonths: 12,
			Status:       models.LoanStatusApproved,
		}
	}

	t.Run("Success With Explicit Start Date", func(t *testing.T) {
		f := newLoanServiceFixture()
		f.loanRepo.MockLoan = approvedLoan()
		f.scheduler.MockSchedule = make([]*models.EmiSchedule, 12)

		loan, schedule, err := f.svc.Disburse(context.Background(), 1, &services.DisburseInput{StartDate: "2024-01-15"}, 50)
		require.NoError(t, err)

		assert.Equal(t, models.LoanStatusDisbursed, loan.Status)
		assert.NotNil(t, loan.DisbursedAt)
		require.NotNil(t, loan.StartDate)
		assert.Equal(t, date(2024, time.January, 15), *loan.StartDate)
		assert.Len(t, schedule, 12)

		require.NotNil(t, f.scheduler.GeneratedFor)
		assert.Equal(t, uint(1), f.scheduler.GeneratedFor.LoanID)
		assert.Equal(t, uint(7), f.scheduler.GeneratedFor.CustomerID)
		assert.True(t, f.scheduler.GeneratedFor.Principal.Equal(d("120000")))
		assert.Equal(t, 12, f.scheduler.GeneratedFor.TenureMonths)
		assert.Equal(t, date(2024, time.January, 15), f.scheduler.GeneratedFor.StartDate)
	})

	t.Run("Start Date Defaults To Today", func(t *testing.T) {
		f := newLoanServiceFixture()
		f.loanRepo.MockLoan = approvedLoan()

		loan, _, err := f.svc.Disburse(context.Background(), 1, &services.DisburseInput{}, 50)
		require.NoError(t, err)

		require.NotNil(t, loan.StartDate)
		assert.Equal(t, time.Now().Day(), loan.StartDate.Day())
		assert.Zero(t, loan.StartDate.Hour())
	})

	t.Run("Invalid Start Date Format", func(t *testing.T) {
		f := newLoanServiceFixture()
		f.loanRepo.MockLoan = approvedLoan()

		_, _, err := f.svc.Disburse(context.Background(), 1, &services.DisburseInput{StartDate: "15/01/2024"}, 50)
		assert.Error(t, err)
		assert.Nil(t, f.loanRepo.Updated)
	})

	t.Run("Loan Not Approved", func(t *testing.T) {
		f := newLoanServiceFixture()
		f.loanRepo.MockLoan = &models.Loan{ID: 1, Status: models.LoanStatusPending}

		_, _, err := f.svc.Disburse(context.Background(), 1, &services.DisburseInput{}, 50)
		assert.ErrorIs(t, err, services.ErrLoanNotApproved)
	})

	t.Run("Already Disbursed", func(t *testing.T) {
		f := newLoanServiceFixture()
		f.loanRepo.MockLoan = &models.Loan{ID: 1, Status: models.LoanStatusDisbursed}

		_, _, err := f.svc.Disburse(context.Background(), 1, &services.DisburseInput{}, 50)
		assert.ErrorIs(t, err, services.ErrLoanNotApproved)
	})
}

func TestOnAllInstallmentsPaid(t *testing.T) {
	t.Run("Closes Disbursed Loan", func(t *testing.T) {
		f := newLoanServiceFixture()
		f.loanRepo.MockLoan = &models.Loan{ID: 1, Status: models.LoanStatusDisbursed}

		err := f.svc.OnAllInstallmentsPaid(context.Background(), 1)
		require.NoError(t, err)

		require.NotNil(t, f.loanRepo.Updated)
		assert.Equal(t, models.LoanStatusClosed, f.loanRepo.Updated.Status)
		assert.NotNil(t, f.loanRepo.Updated.SettledAt)

		require.Len(t, f.eventRepo.Created, 1)
		assert.Equal(t, models.LoanEventClosed, f.eventRepo.Created[0].EventType)
	})

	t.Run("Loan Not Disbursed", func(t *testing.T) {
		f := newLoanServiceFixture()
		f.loanRepo.MockLoan = &models.Loan{ID: 1, Status: models.LoanStatusClosed}

		err := f.svc.OnAllInstallmentsPaid(context.Background(), 1)
		assert.ErrorIs(t, err, services.ErrLoanNotDisbursed)
		assert.Nil(t, f.loanRepo.Updated)
	})
}

func TestList(t *testing.T) {
	t.Run("Pagination Math", func(t *testing.T) {
		f := newLoanServiceFixture()
		f.loanRepo.MockLoans = []*models.Loan{{ID: 1}, {ID: 2}}
		f.loanRepo.MockTotal = 25

		out, err := f.svc.List(context.Background(), "", 2, 10)
		require.NoError(t, err)

		assert.Equal(t, int64(25), out.Total)
		assert.Equal(t, 2, out.Page)
		assert.Equal(t, 3, out.TotalPages)
	})

	t.Run("Defaults Applied", func(t *testing.T) {
		f := newLoanServiceFixture()
		f.loanRepo.MockTotal = 5

		out, err := f.svc.List(context.Background(), "PENDING", 0, 0)
		require.NoError(t, err)

		assert.Equal(t, 1, out.Page)
		assert.Equal(t, 10, out.Limit)
	})
}

func TestGetHistory(t *testing.T) {
	t.Run("Returns Audit Events", func(t *testing.T) {
		f := newLoanServiceFixture()
		f.loanRepo.MockLoan = &models.Loan{ID: 1, Status: models.LoanStatusDisbursed}
		f.eventRepo.MockEvents = []*models.LoanEvent{
			{LoanID: 1, EventType: models.LoanEventApplied},
			{LoanID: 1, EventType: models.LoanEventApproved},
		}

		events, err := f.svc.GetHistory(context.Background(), 1)
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})

	t.Run("Unknown Loan", func(t *testing.T) {
		f := newLoanServiceFixture()
		f.loanRepo.MockError = gorm.ErrRecordNotFound

		_, err := f.svc.GetHistory(context.Background(), 99)
		assert.ErrorIs(t, err, services.ErrLoanNotFound)
	})
}
