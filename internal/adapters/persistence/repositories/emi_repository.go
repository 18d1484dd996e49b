package repositories

import (
	"context"
	"time"

	"loansuite/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// emiScheduleRepository handles EMI schedule data access
type emiScheduleRepository struct {
	db *gorm.DB
}

// NewEmiScheduleRepository creates a new EMI schedule repository
func NewEmiScheduleRepository(db *gorm.DB) EmiScheduleRepository {
	return &emiScheduleRepository{db: db}
}

// BulkCreate inserts a full schedule in one statement. The composite unique
// index on (loan_id, emi_number) rejects a second schedule for the same loan
// even under concurrent generation.
func (r *emiScheduleRepository) BulkCreate(ctx context.Context, rows []*models.EmiSchedule) error {
	return r.db.WithContext(ctx).Create(rows).Error
}

func (r *emiScheduleRepository) GetByID(ctx context.Context, id uint) (*models.EmiSchedule, error) {
	var row models.EmiSchedule
	err := r.db.WithContext(ctx).First(&row, id).Error
	return &row, err
}

func (r *emiScheduleRepository) GetByLoanID(ctx context.Context, loanID uint) ([]*models.EmiSchedule, error) {
	var rows []*models.EmiSchedule
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("emi_number ASC").
		Find(&rows).Error
	return rows, err
}

func (r *emiScheduleRepository) GetByCustomerID(ctx context.Context, customerID uint) ([]*models.EmiSchedule, error) {
	var rows []*models.EmiSchedule
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("loan_id ASC, emi_number ASC").
		Find(&rows).Error
	return rows, err
}

func (r *emiScheduleRepository) ExistsByLoanID(ctx context.Context, loanID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.EmiSchedule{}).
		Where("loan_id = ?", loanID).
		Count(&count).Error
	return count > 0, err
}

// MarkPaid transitions one row to PAID, guarded by the current status so two
// concurrent payments cannot both succeed. Returns the number of rows updated.
func (r *emiScheduleRepository) MarkPaid(ctx context.Context, id uint, paidAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.EmiSchedule{}).
		Where("id = ? AND status IN ?", id, []string{models.EmiStatusPending, models.EmiStatusOverdue}).
		Updates(map[string]interface{}{
			"status":  models.EmiStatusPaid,
			"paid_at": paidAt,
		})
	return result.RowsAffected, result.Error
}

// RevertPaid rolls one PAID row back to the given status. Used when the
// ledger insert that accompanied a MarkPaid fails, so a payment is never
// recorded as PAID without its EmiPayment row.
func (r *emiScheduleRepository) RevertPaid(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).Model(&models.EmiSchedule{}).
		Where("id = ? AND status = ?", id, models.EmiStatusPaid).
		Updates(map[string]interface{}{
			"status":  status,
			"paid_at": nil,
		}).Error
}

// MarkOverdueBefore flags all lapsed PENDING rows as OVERDUE. The status
// guard makes repeated and concurrent sweeps idempotent.
func (r *emiScheduleRepository) MarkOverdueBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.EmiSchedule{}).
		Where("status = ? AND due_date < ?", models.EmiStatusPending, before).
		Update("status", models.EmiStatusOverdue)
	return result.RowsAffected, result.Error
}

func (r *emiScheduleRepository) ListUpcoming(ctx context.Context, from, to time.Time) ([]*models.EmiSchedule, error) {
	var rows []*models.EmiSchedule
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date >= ? AND due_date <= ?", models.EmiStatusPending, from, to).
		Order("due_date ASC, loan_id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *emiScheduleRepository) CountOpenByLoanID(ctx context.Context, loanID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.EmiSchedule{}).
		Where("loan_id = ? AND status IN ?", loanID, []string{models.EmiStatusPending, models.EmiStatusOverdue}).
		Count(&count).Error
	return count, err
}

// emiPaymentRepository handles the append-only payment ledger
type emiPaymentRepository struct {
	db *gorm.DB
}

// NewEmiPaymentRepository creates a new EMI payment repository
func NewEmiPaymentRepository(db *gorm.DB) EmiPaymentRepository {
	return &emiPaymentRepository{db: db}
}

func (r *emiPaymentRepository) Create(ctx context.Context, payment *models.EmiPayment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *emiPaymentRepository) GetByScheduleID(ctx context.Context, scheduleID uint) ([]*models.EmiPayment, error) {
	var payments []*models.EmiPayment
	err := r.db.WithContext(ctx).
		Where("emi_schedule_id = ?", scheduleID).
		Order("created_at ASC").
		Find(&payments).Error
	return payments, err
}

func (r *emiPaymentRepository) GetByLoanID(ctx context.Context, loanID uint) ([]*models.EmiPayment, error) {
	var payments []*models.EmiPayment
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("created_at ASC").
		Find(&payments).Error
	return payments, err
}
