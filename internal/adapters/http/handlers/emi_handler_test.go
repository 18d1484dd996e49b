package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"loansuite/internal/adapters/http/handlers"
	"loansuite/internal/adapters/http/middleware"
	"loansuite/internal/adapters/persistence/models"
	"loansuite/internal/config"
	"loansuite/internal/core/services"
	"loansuite/internal/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubScheduleRepo struct {
	rows []*models.EmiSchedule
}

func (s *stubScheduleRepo) BulkCreate(ctx context.Context, rows []*models.EmiSchedule) error {
	return nil
}

func (s *stubScheduleRepo) GetByID(ctx context.Context, id uint) (*models.EmiSchedule, error) {
	for _, row := range s.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubScheduleRepo) GetByLoanID(ctx context.Context, loanID uint) ([]*models.EmiSchedule, error) {
	var rows []*models.EmiSchedule
	for _, row := range s.rows {
		if row.LoanID == loanID {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (s *stubScheduleRepo) GetByCustomerID(ctx context.Context, customerID uint) ([]*models.EmiSchedule, error) {
	return s.rows, nil
}

func (s *stubScheduleRepo) ExistsByLoanID(ctx context.Context, loanID uint) (bool, error) {
	return false, nil
}

func (s *stubScheduleRepo) MarkPaid(ctx context.Context, id uint, paidAt time.Time) (int64, error) {
	return 1, nil
}

func (s *stubScheduleRepo) RevertPaid(ctx context.Context, id uint, status string) error {
	return nil
}

func (s *stubScheduleRepo) MarkOverdueBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (s *stubScheduleRepo) ListUpcoming(ctx context.Context, from, to time.Time) ([]*models.EmiSchedule, error) {
	return s.rows, nil
}

func (s *stubScheduleRepo) CountOpenByLoanID(ctx context.Context, loanID uint) (int64, error) {
	return 1, nil
}

type stubPaymentRepo struct {
	payments []*models.EmiPayment
}

func (s *stubPaymentRepo) Create(ctx context.Context, payment *models.EmiPayment) error {
	return nil
}

func (s *stubPaymentRepo) GetByScheduleID(ctx context.Context, scheduleID uint) ([]*models.EmiPayment, error) {
	return s.payments, nil
}

func (s *stubPaymentRepo) GetByLoanID(ctx context.Context, loanID uint) ([]*models.EmiPayment, error) {
	return s.payments, nil
}

type stubLoanRepo struct {
	loans map[uint]*models.Loan
}

func (s *stubLoanRepo) Create(ctx context.Context, loan *models.Loan) error { return nil }

func (s *stubLoanRepo) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	loan, ok := s.loans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return loan, nil
}

func (s *stubLoanRepo) GetByCustomerID(ctx context.Context, customerID uint) ([]*models.Loan, error) {
	return nil, nil
}

func (s *stubLoanRepo) List(ctx context.Context, status string, offset, limit int) ([]*models.Loan, int64, error) {
	return nil, 0, nil
}

func (s *stubLoanRepo) Update(ctx context.Context, loan *models.Loan) error { return nil }

type stubLoanTypeRepo struct{}

func (s *stubLoanTypeRepo) GetByID(ctx context.Context, id uint) (*models.LoanType, error) {
	return &models.LoanType{ID: id}, nil
}

func (s *stubLoanTypeRepo) List(ctx context.Context) ([]*models.LoanType, error) { return nil, nil }

type stubCustomerRepo struct {
	byUser map[uint]*models.Customer
}

func (s *stubCustomerRepo) Create(ctx context.Context, customer *models.Customer) error { return nil }

func (s *stubCustomerRepo) GetByID(ctx context.Context, id uint) (*models.Customer, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCustomerRepo) GetByUserID(ctx context.Context, userID uint) (*models.Customer, error) {
	customer, ok := s.byUser[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return customer, nil
}

func (s *stubCustomerRepo) Update(ctx context.Context, customer *models.Customer) error { return nil }

func (s *stubCustomerRepo) Exists(ctx context.Context, id uint) (bool, error) { return true, nil }

type stubEventRepo struct{}

func (s *stubEventRepo) Create(ctx context.Context, event *models.LoanEvent) error { return nil }

func (s *stubEventRepo) GetByLoanID(ctx context.Context, loanID uint) ([]*models.LoanEvent, error) {
	return nil, nil
}

// newEmiTestApp wires loan 5 (customer 1, owned by user 7) behind the auth
// middleware; user 8 belongs to customer 2.
func newEmiTestApp() (*fiber.App, *config.Config) {
	cfg := &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:          "test-access-secret",
			AccessTokenMins: 15,
		},
	}

	rows := []*models.EmiSchedule{{
		ID:         1,
		LoanID:     5,
		CustomerID: 1,
		EmiNumber:  1,
		EmiAmount:  decimal.RequireFromString("10549.91"),
		DueDate:    time.Now().AddDate(0, 1, 0),
		Status:     models.EmiStatusPending,
	}}

	emiService := services.NewEmiService(
		&stubScheduleRepo{rows: rows},
		&stubPaymentRepo{payments: []*models.EmiPayment{{ID: 1, LoanID: 5}}},
		nil,
		decimal.RequireFromString("0.01"),
	)
	loanService := services.NewLoanService(
		&stubLoanRepo{loans: map[uint]*models.Loan{
			5: {ID: 5, CustomerID: 1, Status: models.LoanStatusDisbursed},
		}},
		&stubLoanTypeRepo{},
		&stubCustomerRepo{byUser: map[uint]*models.Customer{
			7: {ID: 1, UserID: 7},
			8: {ID: 2, UserID: 8},
		}},
		&stubEventRepo{},
		nil,
		nil,
	)

	handler := handlers.NewEmiHandler(emiService, loanService)

	app := fiber.New()
	emis := app.Group("/api/v1/emis", middleware.AuthMiddleware(cfg))
	emis.Get("/loan/:loanId", handler.GetLoanSchedule)
	emis.Get("/loan/:loanId/summary", handler.Summary)
	emis.Get("/loan/:loanId/payments", handler.GetPayments)
	return app, cfg
}

func TestEmiOwnDataScoping(t *testing.T) {
	app, cfg := newEmiTestApp()

	get := func(t *testing.T, path string, userID uint, role string) *http.Response {
		token, err := jwt.GenerateAccessToken(userID, "user", role, cfg.JWT.Secret, cfg.JWT.AccessTokenMins)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("Customer Reads Own Loan Summary", func(t *testing.T) {
		resp := get(t, "/api/v1/emis/loan/5/summary", 7, models.RoleCustomer)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("Customer Blocked From Another Customers Summary", func(t *testing.T) {
		resp := get(t, "/api/v1/emis/loan/5/summary", 8, models.RoleCustomer)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("Customer Reads Own Loan Payments", func(t *testing.T) {
		resp := get(t, "/api/v1/emis/loan/5/payments", 7, models.RoleCustomer)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("Customer Blocked From Another Customers Payments", func(t *testing.T) {
		resp := get(t, "/api/v1/emis/loan/5/payments", 8, models.RoleCustomer)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("Customer Blocked From Another Customers Schedule", func(t *testing.T) {
		resp := get(t, "/api/v1/emis/loan/5", 8, models.RoleCustomer)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("Officer Reads Any Loan Summary", func(t *testing.T) {
		resp := get(t, "/api/v1/emis/loan/5/summary", 50, models.RoleOfficer)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("Unknown Loan Is Not Found", func(t *testing.T) {
		resp := get(t, "/api/v1/emis/loan/99/summary", 50, models.RoleAdmin)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
