package handlers

import (
	"errors"
	"strconv"
	"time"

	"loansuite/internal/adapters/persistence/models"
	"loansuite/internal/core/domain"
	"loansuite/internal/core/services"
	"loansuite/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// EmiHandler handles EMI schedule and payment endpoints
type EmiHandler struct {
	emiService  *services.EmiService
	loanService *services.LoanService
}

// NewEmiHandler creates a new EMI handler
func NewEmiHandler(emiService *services.EmiService, loanService *services.LoanService) *EmiHandler {
	return &EmiHandler{
		emiService:  emiService,
		loanService: loanService,
	}
}

// GenerateScheduleRequest represents standalone schedule generation input,
// used when a loan is managed outside the lifecycle endpoints.
type GenerateScheduleRequest struct {
	LoanID       uint   `json:"loan_id"`
	CustomerID   uint   `json:"customer_id"`
	Principal    string `json:"principal"`
	InterestRate string `json:"interest_rate"`
	TenureMonths int    `json:"tenure_months"`
	StartDate    string `json:"start_date"` // YYYY-MM-DD
}

// GenerateSchedule computes and stores an amortization schedule for a
// disbursed loan (officer/admin)
func (h *EmiHandler) GenerateSchedule(c *fiber.Ctx) error {
	var req GenerateScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.LoanID == 0 {
		return response.BadRequest(c, "Loan ID is required")
	}

	loan, err := h.loanService.GetByID(c.Context(), req.LoanID)
	if err != nil {
		if errors.Is(err, services.ErrLoanNotFound) {
			return response.NotFound(c, "Loan not found")
		}
		return response.InternalServerError(c, "Failed to get loan")
	}
	if loan.Status != models.LoanStatusDisbursed {
		return response.Conflict(c, "Loan is not in disbursed state")
	}

	principal := loan.Principal
	if req.Principal != "" {
		principal, err = decimal.NewFromString(req.Principal)
		if err != nil {
			return response.BadRequest(c, "Invalid principal amount")
		}
	}
	rate := loan.InterestRate
	if req.InterestRate != "" {
		rate, err = decimal.NewFromString(req.InterestRate)
		if err != nil {
			return response.BadRequest(c, "Invalid interest rate")
		}
	}
	tenure := loan.TenureMonths
	if req.TenureMonths > 0 {
		tenure = req.TenureMonths
	}

	startDate := time.Now()
	if loan.StartDate != nil {
		startDate = *loan.StartDate
	}
	if req.StartDate != "" {
		startDate, err = time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return response.BadRequest(c, "Invalid start_date format, use YYYY-MM-DD")
		}
	}

	customerID := loan.CustomerID
	if req.CustomerID != 0 {
		customerID = req.CustomerID
	}

	schedule, err := h.emiService.GenerateSchedule(c.Context(), &services.GenerateScheduleInput{
		LoanID:            req.LoanID,
		CustomerID:        customerID,
		Principal:         principal,
		AnnualRatePercent: rate,
		TenureMonths:      tenure,
		StartDate:         startDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrScheduleExists):
			return response.Conflict(c, "EMI schedule already exists for this loan")
		case errors.Is(err, services.ErrInvalidPrincipal),
			errors.Is(err, services.ErrInvalidRate),
			errors.Is(err, services.ErrInvalidTenure):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to generate EMI schedule")
		}
	}

	return response.Created(c, "EMI schedule generated", schedule)
}

// GetLoanSchedule returns a loan's full EMI schedule
func (h *EmiHandler) GetLoanSchedule(c *fiber.Ctx) error {
	loanID, err := strconv.ParseUint(c.Params("loanId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	rows, err := h.emiService.GetSchedule(c.Context(), uint(loanID))
	if err != nil {
		if errors.Is(err, services.ErrScheduleNotFound) {
			return response.NotFound(c, "EMI schedule not found")
		}
		return response.InternalServerError(c, "Failed to get EMI schedule")
	}

	if !h.canAccessCustomer(c, rows[0].CustomerID) {
		return response.Forbidden(c, "You don't have permission to access this schedule")
	}

	return response.Success(c, "EMI schedule retrieved successfully", rows)
}

// GetCustomerSchedule returns all schedule rows across a customer's loans
func (h *EmiHandler) GetCustomerSchedule(c *fiber.Ctx) error {
	customerID, err := strconv.ParseUint(c.Params("customerId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid customer ID")
	}

	if !h.canAccessCustomer(c, uint(customerID)) {
		return response.Forbidden(c, "You don't have permission to access this schedule")
	}

	rows, err := h.emiService.GetCustomerSchedule(c.Context(), uint(customerID))
	if err != nil {
		return response.InternalServerError(c, "Failed to get EMI schedule")
	}

	return response.Success(c, "EMI schedule retrieved successfully", rows)
}

// Upcoming returns pending installments due within the next N days
// (officer/admin)
func (h *EmiHandler) Upcoming(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)

	rows, err := h.emiService.Upcoming(c.Context(), days)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDaysAhead) {
			return response.BadRequest(c, "Days must be greater than zero")
		}
		return response.InternalServerError(c, "Failed to get upcoming installments")
	}

	return response.Success(c, "Upcoming installments retrieved successfully", rows)
}

// Summary aggregates a loan's schedule state
func (h *EmiHandler) Summary(c *fiber.Ctx) error {
	loanID, err := strconv.ParseUint(c.Params("loanId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	if ok, err := h.canAccessLoan(c, uint(loanID)); err != nil {
		return err
	} else if !ok {
		return response.Forbidden(c, "You don't have permission to access this loan")
	}

	summary, err := h.emiService.Summary(c.Context(), uint(loanID))
	if err != nil {
		if errors.Is(err, services.ErrScheduleNotFound) {
			return response.NotFound(c, "EMI schedule not found")
		}
		return response.InternalServerError(c, "Failed to get EMI summary")
	}

	return response.Success(c, "EMI summary retrieved successfully", summary)
}

// GetPayments returns the payment ledger for a loan
func (h *EmiHandler) GetPayments(c *fiber.Ctx) error {
	loanID, err := strconv.ParseUint(c.Params("loanId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	if ok, err := h.canAccessLoan(c, uint(loanID)); err != nil {
		return err
	} else if !ok {
		return response.Forbidden(c, "You don't have permission to access this loan")
	}

	payments, err := h.emiService.GetPayments(c.Context(), uint(loanID))
	if err != nil {
		return response.InternalServerError(c, "Failed to get payments")
	}

	return response.Success(c, "Payments retrieved successfully", payments)
}

// InstallmentPayments returns the ledger entries recorded against one
// installment (officer/admin)
func (h *EmiHandler) InstallmentPayments(c *fiber.Ctx) error {
	scheduleID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid EMI schedule ID")
	}

	payments, err := h.emiService.PaymentsForInstallment(c.Context(), uint(scheduleID))
	if err != nil {
		if errors.Is(err, services.ErrScheduleNotFound) {
			return response.NotFound(c, "EMI schedule not found")
		}
		return response.InternalServerError(c, "Failed to get payments")
	}

	return response.Success(c, "Payments retrieved successfully", payments)
}

// PaymentRequest represents payment recording request body
type PaymentRequest struct {
	Amount         string `json:"amount"`
	PaymentDate    string `json:"payment_date"` // YYYY-MM-DD, defaults to today
	Method         string `json:"method"`
	TransactionRef string `json:"transaction_reference"`
	Remarks        string `json:"remarks"`
}

// RecordPayment settles one installment
func (h *EmiHandler) RecordPayment(c *fiber.Ctx) error {
	scheduleID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid EMI schedule ID")
	}

	var req PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return response.BadRequest(c, "Amount must be a valid number")
	}

	paymentDate := time.Now()
	if req.PaymentDate != "" {
		paymentDate, err = time.Parse("2006-01-02", req.PaymentDate)
		if err != nil {
			return response.BadRequest(c, "Invalid payment_date format, use YYYY-MM-DD")
		}
	}

	method := req.Method
	if method == "" {
		method = "CASH"
	}

	userID, _ := c.Locals("userID").(uint)

	payment, row, err := h.emiService.RecordPayment(c.Context(), &services.RecordPaymentInput{
		EmiScheduleID:  uint(scheduleID),
		Amount:         amount,
		PaymentDate:    paymentDate,
		Method:         method,
		TransactionRef: req.TransactionRef,
		Remarks:        req.Remarks,
		PaidBy:         userID,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrScheduleNotFound):
			return response.NotFound(c, "EMI schedule not found")
		case errors.Is(err, services.ErrInvalidAmount):
			return response.BadRequest(c, "Payment amount must be greater than zero")
		case errors.Is(err, services.ErrInsufficientPayment):
			return response.ErrorWithCode(c, fiber.StatusUnprocessableEntity,
				domain.CodeInsufficientPayment, "Payment amount is below the installment amount")
		case errors.Is(err, services.ErrAlreadyPaid):
			return response.ErrorWithCode(c, fiber.StatusConflict,
				domain.CodeAlreadyPaid, "Installment has already been paid")
		case errors.Is(err, services.ErrDuplicateTransactionRef):
			return response.Conflict(c, "Transaction reference already recorded")
		default:
			return response.InternalServerError(c, "Failed to record payment")
		}
	}

	return response.Success(c, "Payment recorded successfully", fiber.Map{
		"payment":  payment,
		"schedule": row,
	})
}

// Sweep flags every lapsed pending installment as overdue (officer/admin).
// The scheduled job runs the same operation nightly.
func (h *EmiHandler) Sweep(c *fiber.Ctx) error {
	flagged, err := h.emiService.SweepOverdue(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to run overdue sweep")
	}

	return response.Success(c, "Overdue sweep completed", fiber.Map{
		"flagged": flagged,
	})
}

// canAccessLoan resolves a loan and applies own-data scoping against its
// customer. A non-nil error is an already-written response.
func (h *EmiHandler) canAccessLoan(c *fiber.Ctx, loanID uint) (bool, error) {
	loan, err := h.loanService.GetByID(c.Context(), loanID)
	if err != nil {
		if errors.Is(err, services.ErrLoanNotFound) {
			return false, response.NotFound(c, "Loan not found")
		}
		return false, response.InternalServerError(c, "Failed to get loan")
	}
	return h.canAccessCustomer(c, loan.CustomerID), nil
}

// canAccessCustomer enforces own-data scoping for customers
func (h *EmiHandler) canAccessCustomer(c *fiber.Ctx, customerID uint) bool {
	role, _ := c.Locals("role").(string)
	if role != models.RoleCustomer {
		return true
	}

	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return false
	}

	customer, err := h.loanService.GetCustomerByUserID(c.Context(), userID)
	if err != nil {
		return false
	}
	return customer.ID == customerID
}
