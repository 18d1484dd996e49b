package repositories

import (
	"context"
	"time"

	"loansuite/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) error
}

// CustomerRepository defines customer repository interface.
// Collaborating services hold customer IDs only; lookups go through here.
type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, id uint) (*models.Customer, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Customer, error)
	Update(ctx context.Context, customer *models.Customer) error
	Exists(ctx context.Context, id uint) (bool, error)
}

// LoanTypeRepository defines loan type master data interface
type LoanTypeRepository interface {
	GetByID(ctx context.Context, id uint) (*models.LoanType, error)
	List(ctx context.Context) ([]*models.LoanType, error)
}

// LoanRepository defines loan repository interface
type LoanRepository interface {
	Create(ctx context.Context, loan *models.Loan) error
	GetByID(ctx context.Context, id uint) (*models.Loan, error)
	GetByCustomerID(ctx context.Context, customerID uint) ([]*models.Loan, error)
	List(ctx context.Context, status string, offset, limit int) ([]*models.Loan, int64, error)
	Update(ctx context.Context, loan *models.Loan) error
}

// LoanEventRepository defines loan audit event interface
type LoanEventRepository interface {
	Create(ctx context.Context, event *models.LoanEvent) error
	GetByLoanID(ctx context.Context, loanID uint) ([]*models.LoanEvent, error)
}

// EmiScheduleRepository defines EMI schedule repository interface.
// MarkPaid and MarkOverdueBefore are conditional updates guarded by the
// current status so concurrent writers cannot double-apply a transition.
type EmiScheduleRepository interface {
	BulkCreate(ctx context.Context, rows []*models.EmiSchedule) error
	GetByID(ctx context.Context, id uint) (*models.EmiSchedule, error)
	GetByLoanID(ctx context.Context, loanID uint) ([]*models.EmiSchedule, error)
	GetByCustomerID(ctx context.Context, customerID uint) ([]*models.EmiSchedule, error)
	ExistsByLoanID(ctx context.Context, loanID uint) (bool, error)
	MarkPaid(ctx context.Context, id uint, paidAt time.Time) (int64, error)
	RevertPaid(ctx context.Context, id uint, status string) error
	MarkOverdueBefore(ctx context.Context, before time.Time) (int64, error)
	ListUpcoming(ctx context.Context, from, to time.Time) ([]*models.EmiSchedule, error)
	CountOpenByLoanID(ctx context.Context, loanID uint) (int64, error)
}

// EmiPaymentRepository defines the append-only payment ledger interface
type EmiPaymentRepository interface {
	Create(ctx context.Context, payment *models.EmiPayment) error
	GetByScheduleID(ctx context.Context, scheduleID uint) ([]*models.EmiPayment, error)
	GetByLoanID(ctx context.Context, loanID uint) ([]*models.EmiPayment, error)
}
