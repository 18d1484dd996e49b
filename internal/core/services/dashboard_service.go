package services

import (
	"context"
	"time"

	"loansuite/internal/adapters/persistence/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DashboardService aggregates reporting figures straight off the tables
type DashboardService struct {
	db *gorm.DB
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// ============================================================
// Portfolio
// ============================================================

// PortfolioData represents the loan portfolio dashboard
type PortfolioData struct {
	TotalCustomers int64 `json:"total_customers"`
	TotalLoans     int64 `json:"total_loans"`

	PendingLoans   int64 `json:"pending_loans"`
	ApprovedLoans  int64 `json:"approved_loans"`
	RejectedLoans  int64 `json:"rejected_loans"`
	DisbursedLoans int64 `json:"disbursed_loans"`
	ClosedLoans    int64 `json:"closed_loans"`

	AppliedAmount   decimal.Decimal `json:"applied_amount"`
	DisbursedAmount decimal.Decimal `json:"disbursed_amount"`

	LoansThisMonth  int64           `json:"loans_this_month"`
	AmountThisMonth decimal.Decimal `json:"amount_this_month"`
}

// GetPortfolio returns loan portfolio aggregates
func (s *DashboardService) GetPortfolio(ctx context.Context) (*PortfolioData, error) {
	data := &PortfolioData{}

	s.db.WithContext(ctx).Table("customers").Where("deleted_at IS NULL").Count(&data.TotalCustomers)
	s.db.WithContext(ctx).Table("loans").Where("deleted_at IS NULL").Count(&data.TotalLoans)

	statusCounts := map[string]*int64{
		models.LoanStatusPending:   &data.PendingLoans,
		models.LoanStatusApproved:  &data.ApprovedLoans,
		models.LoanStatusRejected:  &data.RejectedLoans,
		models.LoanStatusDisbursed: &data.DisbursedLoans,
		models.LoanStatusClosed:    &data.ClosedLoans,
	}
	for status, target := range statusCounts {
		s.db.WithContext(ctx).Table("loans").
			Where("status = ? AND deleted_at IS NULL", status).
			Count(target)
	}

	s.db.WithContext(ctx).Table("loans").
		Where("deleted_at IS NULL").
		Select("COALESCE(SUM(principal), 0)").
		Scan(&data.AppliedAmount)

	s.db.WithContext(ctx).Table("loans").
		Where("status IN ? AND deleted_at IS NULL", []string{models.LoanStatusDisbursed, models.LoanStatusClosed}).
		Select("COALESCE(SUM(principal), 0)").
		Scan(&data.DisbursedAmount)

	startOfMonth := time.Now().AddDate(0, 0, -time.Now().Day()+1).Truncate(24 * time.Hour)
	s.db.WithContext(ctx).Table("loans").
		Where("created_at >= ? AND deleted_at IS NULL", startOfMonth).
		Count(&data.LoansThisMonth)

	s.db.WithContext(ctx).Table("loans").
		Where("created_at >= ? AND deleted_at IS NULL", startOfMonth).
		Select("COALESCE(SUM(principal), 0)").
		Scan(&data.AmountThisMonth)

	return data, nil
}

// ============================================================
// Collections
// ============================================================

// CollectionData represents EMI collection aggregates
type CollectionData struct {
	TotalEmis   int64 `json:"total_emis"`
	PaidEmis    int64 `json:"paid_emis"`
	PendingEmis int64 `json:"pending_emis"`
	OverdueEmis int64 `json:"overdue_emis"`

	ScheduledAmount decimal.Decimal `json:"scheduled_amount"`
	CollectedAmount decimal.Decimal `json:"collected_amount"`
	OverdueAmount   decimal.Decimal `json:"overdue_amount"`
}

// GetCollections returns EMI collection aggregates
func (s *DashboardService) GetCollections(ctx context.Context) (*CollectionData, error) {
	data := &CollectionData{}

	s.db.WithContext(ctx).Table("emi_schedules").Where("deleted_at IS NULL").Count(&data.TotalEmis)

	statusCounts := map[string]*int64{
		models.EmiStatusPaid:    &data.PaidEmis,
		models.EmiStatusPending: &data.PendingEmis,
		models.EmiStatusOverdue: &data.OverdueEmis,
	}
	for status, target := range statusCounts {
		s.db.WithContext(ctx).Table("emi_schedules").
			Where("status = ? AND deleted_at IS NULL", status).
			Count(target)
	}

	s.db.WithContext(ctx).Table("emi_schedules").
		Where("deleted_at IS NULL").
		Select("COALESCE(SUM(emi_amount), 0)").
		Scan(&data.ScheduledAmount)

	// Collected amount comes from the payment ledger, not the schedule,
	// so overpayments are counted as received
	s.db.WithContext(ctx).Table("emi_payments").
		Select("COALESCE(SUM(amount), 0)").
		Scan(&data.CollectedAmount)

	s.db.WithContext(ctx).Table("emi_schedules").
		Where("status = ? AND deleted_at IS NULL", models.EmiStatusOverdue).
		Select("COALESCE(SUM(emi_amount), 0)").
		Scan(&data.OverdueAmount)

	return data, nil
}

// ============================================================
// Overdue exposure
// ============================================================

// OverdueLoanExposure represents one loan's overdue position
type OverdueLoanExposure struct {
	LoanID        uint            `json:"loan_id"`
	CustomerID    uint            `json:"customer_id"`
	OverdueEmis   int64           `json:"overdue_emis"`
	OverdueAmount decimal.Decimal `json:"overdue_amount"`
	OldestDueDate time.Time       `json:"oldest_due_date"`
}

// GetOverdueExposure lists loans with overdue installments, worst first
func (s *DashboardService) GetOverdueExposure(ctx context.Context, limit int) ([]*OverdueLoanExposure, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var exposures []*OverdueLoanExposure
	err := s.db.WithContext(ctx).Table("emi_schedules").
		Select("loan_id, customer_id, COUNT(*) AS overdue_emis, COALESCE(SUM(emi_amount), 0) AS overdue_amount, MIN(due_date) AS oldest_due_date").
		Where("status = ? AND deleted_at IS NULL", models.EmiStatusOverdue).
		Group("loan_id, customer_id").
		Order("overdue_amount DESC").
		Limit(limit).
		Scan(&exposures).Error

	return exposures, err
}
