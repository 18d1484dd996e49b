package repositories

import (
	"context"

	"loansuite/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// loanRepository handles loan data access
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

func (r *loanRepository) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("LoanType").
		Preload("Approver").
		First(&loan, id).Error
	return &loan, err
}

func (r *loanRepository) GetByCustomerID(ctx context.Context, customerID uint) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Preload("LoanType").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&loans).Error
	return loans, err
}

func (r *loanRepository) List(ctx context.Context, status string, offset, limit int) ([]*models.Loan, int64, error) {
	var loans []*models.Loan
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Loan{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	query.Count(&total)

	err := query.
		Preload("Customer").
		Preload("LoanType").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&loans).Error

	return loans, total, err
}

func (r *loanRepository) Update(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Save(loan).Error
}

// loanEventRepository handles loan audit event access
type loanEventRepository struct {
	db *gorm.DB
}

// NewLoanEventRepository creates a new loan event repository
func NewLoanEventRepository(db *gorm.DB) LoanEventRepository {
	return &loanEventRepository{db: db}
}

func (r *loanEventRepository) Create(ctx context.Context, event *models.LoanEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *loanEventRepository) GetByLoanID(ctx context.Context, loanID uint) ([]*models.LoanEvent, error) {
	var events []*models.LoanEvent
	err := r.db.WithContext(ctx).
		Preload("Performer").
		Where("loan_id = ?", loanID).
		Order("created_at DESC").
		Find(&events).Error
	return events, err
}

// loanTypeRepository handles loan type master data access
type loanTypeRepository struct {
	db *gorm.DB
}

// NewLoanTypeRepository creates a new loan type repository
func NewLoanTypeRepository(db *gorm.DB) LoanTypeRepository {
	return &loanTypeRepository{db: db}
}

func (r *loanTypeRepository) GetByID(ctx context.Context, id uint) (*models.LoanType, error) {
	var loanType models.LoanType
	err := r.db.WithContext(ctx).First(&loanType, id).Error
	return &loanType, err
}

func (r *loanTypeRepository) List(ctx context.Context) ([]*models.LoanType, error) {
	var loanTypes []*models.LoanType
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("code ASC").
		Find(&loanTypes).Error
	return loanTypes, err
}
