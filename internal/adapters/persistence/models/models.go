package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============================================================
// Auth & Customer Tables
// ============================================================

// User represents users table
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;default:'CUSTOMER'" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// User roles
const (
	RoleCustomer = "CUSTOMER"
	RoleOfficer  = "OFFICER"
	RoleAdmin    = "ADMIN"
)

// UserResponse DTO
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	FullName  string    `json:"full_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// Customer represents customers table. Loans and EMI schedules reference
// customers by plain ID only.
type Customer struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	FullName   string         `gorm:"size:100;not null" json:"full_name"`
	Phone      string         `gorm:"size:20" json:"phone"`
	Address    string         `gorm:"type:text" json:"address"`
	NationalID string         `gorm:"size:30;uniqueIndex" json:"national_id"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Customer) TableName() string {
	return "customers"
}

// ============================================================
// Loan Master Tables
// ============================================================

// LoanType is master data for loan products. LateFeePercent is configured
// here but not applied by the overdue sweeper; overdue rows are flagged only.
type LoanType struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Code            string          `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Name            string          `gorm:"size:100;not null" json:"name"`
	Description     string          `gorm:"type:text" json:"description"`
	InterestRate    decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"interest_rate"`
	MinAmount       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"min_amount"`
	MaxAmount       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"max_amount"`
	MaxTenureMonths int             `gorm:"not null" json:"max_tenure_months"`
	LateFeePercent  decimal.Decimal `gorm:"type:decimal(5,2)" json:"late_fee_percent"`
	IsActive        bool            `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (LoanType) TableName() string {
	return "loan_types"
}

// ============================================================
// Loan Tables
// ============================================================

// Loan statuses
const (
	LoanStatusPending   = "PENDING"
	LoanStatusApproved  = "APPROVED"
	LoanStatusRejected  = "REJECTED"
	LoanStatusDisbursed = "DISBURSED"
	LoanStatusClosed    = "CLOSED"
)

// Loan represents loans table
type Loan struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CustomerID   uint            `gorm:"not null;index" json:"customer_id"`
	LoanTypeID   uint            `gorm:"not null" json:"loan_type_id"`
	Principal    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"principal"`
	InterestRate decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"interest_rate"`
	TenureMonths int             `gorm:"not null" json:"tenure_months"`
	Purpose      string          `gorm:"type:text" json:"purpose"`
	Status       string          `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	ApprovedBy   *uint           `json:"approved_by"`
	ApprovedAt   *time.Time      `json:"approved_at"`
	DisbursedAt  *time.Time      `json:"disbursed_at"`
	StartDate    *time.Time      `json:"start_date"`
	SettledAt    *time.Time      `json:"settled_at"`
	Remark       string          `gorm:"type:text" json:"remark"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relations
	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	LoanType *LoanType `gorm:"foreignKey:LoanTypeID" json:"loan_type,omitempty"`
	Approver *User     `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`
}

func (Loan) TableName() string {
	return "loans"
}

// Loan event types (audit trail)
const (
	LoanEventApplied   = "APPLIED"
	LoanEventApproved  = "APPROVED"
	LoanEventRejected  = "REJECTED"
	LoanEventDisbursed = "DISBURSED"
	LoanEventClosed    = "CLOSED"
)

// LoanEvent represents loan_events table (append-only history)
type LoanEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	LoanID      uint      `gorm:"not null;index" json:"loan_id"`
	EventType   string    `gorm:"size:20;not null" json:"event_type"`
	FromStatus  string    `gorm:"size:20" json:"from_status"`
	ToStatus    string    `gorm:"size:20" json:"to_status"`
	PerformedBy uint      `json:"performed_by"`
	Remark      string    `gorm:"type:text" json:"remark"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	Performer *User `gorm:"foreignKey:PerformedBy" json:"performer,omitempty"`
}

func (LoanEvent) TableName() string {
	return "loan_events"
}

// ============================================================
// EMI Tables
// ============================================================

// EMI schedule statuses. PAID is terminal; PENDING may move to PAID or
// OVERDUE; OVERDUE may move to PAID.
const (
	EmiStatusPending = "PENDING"
	EmiStatusPaid    = "PAID"
	EmiStatusOverdue = "OVERDUE"
)

// EmiSchedule is one installment row of a loan's amortization schedule.
// Amount, split and due date are immutable after generation; only status
// and paid_at are mutated, by the payment recorder and the overdue sweeper.
type EmiSchedule struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	LoanID             uint            `gorm:"not null;uniqueIndex:idx_loan_emi,priority:1" json:"loan_id"`
	CustomerID         uint            `gorm:"not null;index" json:"customer_id"`
	EmiNumber          int             `gorm:"not null;uniqueIndex:idx_loan_emi,priority:2" json:"emi_number"`
	EmiAmount          decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"emi_amount"`
	PrincipalComponent decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"principal_component"`
	InterestComponent  decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"interest_component"`
	DueDate            time.Time       `gorm:"type:date;not null;index" json:"due_date"`
	OutstandingBalance decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"outstanding_balance"`
	Status             string          `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	PaidAt             *time.Time      `json:"paid_at"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (EmiSchedule) TableName() string {
	return "emi_schedules"
}

// IsOpen reports whether the installment still awaits payment.
func (e *EmiSchedule) IsOpen() bool {
	return e.Status == EmiStatusPending || e.Status == EmiStatusOverdue
}

// EmiPayment is an append-only ledger row; one per settled installment.
type EmiPayment struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	EmiScheduleID  uint            `gorm:"not null;index" json:"emi_schedule_id"`
	LoanID         uint            `gorm:"not null;index" json:"loan_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	PaymentDate    time.Time       `gorm:"type:date;not null" json:"payment_date"`
	Method         string          `gorm:"size:30;not null" json:"method"`
	TransactionRef *string         `gorm:"size:100;uniqueIndex" json:"transaction_ref"`
	PaidBy         uint            `json:"paid_by"`
	Overpaid       bool            `gorm:"default:false" json:"overpaid"`
	Remarks        string          `gorm:"type:text" json:"remarks"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (EmiPayment) TableName() string {
	return "emi_payments"
}

// AutoMigrate creates or updates all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Customer{},
		&LoanType{},
		&Loan{},
		&LoanEvent{},
		&EmiSchedule{},
		&EmiPayment{},
	)
}
