package handlers

import (
	"errors"
	"strconv"

	"loansuite/internal/adapters/persistence/models"
	"loansuite/internal/core/services"
	"loansuite/internal/pkg/pagination"
	"loansuite/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// LoanHandler handles loan lifecycle endpoints
type LoanHandler struct {
	loanService *services.LoanService
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// ApplyRequest represents loan application request body
type ApplyRequest struct {
	CustomerID   uint   `json:"customer_id"`
	LoanTypeID   uint   `json:"loan_type_id"`
	Principal    string `json:"principal"`
	TenureMonths int    `json:"tenure_months"`
	Purpose      string `json:"purpose"`
}

// Apply handles a new loan application. Customers apply for themselves;
// officers may apply on behalf of any customer.
func (h *LoanHandler) Apply(c *fiber.Ctx) error {
	var req ApplyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.LoanTypeID == 0 {
		return response.BadRequest(c, "Loan type is required")
	}
	principal, err := decimal.NewFromString(req.Principal)
	if err != nil || !principal.IsPositive() {
		return response.BadRequest(c, "Principal must be a positive amount")
	}
	if req.TenureMonths < 1 {
		return response.BadRequest(c, "Tenure months must be at least 1")
	}

	userID, _ := c.Locals("userID").(uint)
	role, _ := c.Locals("role").(string)

	customerID := req.CustomerID
	if role == models.RoleCustomer {
		customer, err := h.loanService.GetCustomerByUserID(c.Context(), userID)
		if err != nil {
			return response.NotFound(c, "Customer profile not found")
		}
		customerID = customer.ID
	} else if customerID == 0 {
		return response.BadRequest(c, "Customer ID is required")
	}

	input := &services.ApplyInput{
		CustomerID:   customerID,
		LoanTypeID:   req.LoanTypeID,
		Principal:    principal,
		TenureMonths: req.TenureMonths,
		Purpose:      req.Purpose,
	}

	loan, err := h.loanService.Apply(c.Context(), input, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCustomerNotFound):
			return response.NotFound(c, "Customer not found")
		case errors.Is(err, services.ErrLoanTypeNotFound):
			return response.NotFound(c, "Loan type not found")
		case errors.Is(err, services.ErrAmountOutOfRange):
			return response.BadRequest(c, "Amount outside loan type limits")
		case errors.Is(err, services.ErrTenureOutOfRange):
			return response.BadRequest(c, "Tenure outside loan type limits")
		default:
			return response.InternalServerError(c, "Failed to create loan application")
		}
	}

	return response.Created(c, "Loan application created", loan)
}

// List lists loans with optional status filter (officer/admin)
func (h *LoanHandler) List(c *fiber.Ctx) error {
	status := c.Query("status")
	params := pagination.GetParams(c)

	result, err := h.loanService.List(c.Context(), status, params.Page, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list loans")
	}

	return response.Success(c, "Loans retrieved successfully", result)
}

// Get returns a single loan. Customers can only see their own loans.
func (h *LoanHandler) Get(c *fiber.Ctx) error {
	loanID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	loan, err := h.loanService.GetByID(c.Context(), uint(loanID))
	if err != nil {
		if errors.Is(err, services.ErrLoanNotFound) {
			return response.NotFound(c, "Loan not found")
		}
		return response.InternalServerError(c, "Failed to get loan")
	}

	if !h.canAccessLoan(c, loan) {
		return response.Forbidden(c, "You don't have permission to access this loan")
	}

	return response.Success(c, "Loan retrieved successfully", loan)
}

// MyLoans lists the calling customer's loans
func (h *LoanHandler) MyLoans(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	customer, err := h.loanService.GetCustomerByUserID(c.Context(), userID)
	if err != nil {
		return response.NotFound(c, "Customer profile not found")
	}

	loans, err := h.loanService.GetByCustomer(c.Context(), customer.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list loans")
	}

	return response.Success(c, "Loans retrieved successfully", loans)
}

// History returns a loan's audit events
func (h *LoanHandler) History(c *fiber.Ctx) error {
	loanID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	loan, err := h.loanService.GetByID(c.Context(), uint(loanID))
	if err != nil {
		if errors.Is(err, services.ErrLoanNotFound) {
			return response.NotFound(c, "Loan not found")
		}
		return response.InternalServerError(c, "Failed to get loan")
	}

	if !h.canAccessLoan(c, loan) {
		return response.Forbidden(c, "You don't have permission to access this loan")
	}

	events, err := h.loanService.GetHistory(c.Context(), uint(loanID))
	if err != nil {
		return response.InternalServerError(c, "Failed to get loan history")
	}

	return response.Success(c, "Loan history retrieved successfully", events)
}

// Approve approves a pending loan (officer/admin)
func (h *LoanHandler) Approve(c *fiber.Ctx) error {
	return h.decide(c, true)
}

// Reject rejects a pending loan (officer/admin)
func (h *LoanHandler) Reject(c *fiber.Ctx) error {
	return h.decide(c, false)
}

func (h *LoanHandler) decide(c *fiber.Ctx, approve bool) error {
	loanID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	officerID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.DecisionInput
	if err := c.BodyParser(&input); err != nil && len(c.Body()) > 0 {
		return response.BadRequest(c, "Invalid request body")
	}

	var loan *models.Loan
	if approve {
		loan, err = h.loanService.Approve(c.Context(), uint(loanID), &input, officerID)
	} else {
		loan, err = h.loanService.Reject(c.Context(), uint(loanID), &input, officerID)
	}
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLoanNotFound):
			return response.NotFound(c, "Loan not found")
		case errors.Is(err, services.ErrLoanAlreadyDecided):
			return response.Conflict(c, "Loan has already been decided")
		default:
			return response.InternalServerError(c, "Failed to decide loan")
		}
	}

	if approve {
		return response.Success(c, "Loan approved", loan)
	}
	return response.Success(c, "Loan rejected", loan)
}

// Disburse releases an approved loan and generates its EMI schedule
func (h *LoanHandler) Disburse(c *fiber.Ctx) error {
	loanID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	officerID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.DisburseInput
	if err := c.BodyParser(&input); err != nil && len(c.Body()) > 0 {
		return response.BadRequest(c, "Invalid request body")
	}

	loan, schedule, err := h.loanService.Disburse(c.Context(), uint(loanID), &input, officerID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLoanNotFound):
			return response.NotFound(c, "Loan not found")
		case errors.Is(err, services.ErrLoanNotApproved):
			return response.Conflict(c, "Loan is not in approved state")
		case errors.Is(err, services.ErrScheduleExists):
			return response.Conflict(c, "EMI schedule already exists for this loan")
		default:
			return response.InternalServerError(c, "Failed to disburse loan")
		}
	}

	return response.Success(c, "Loan disbursed", fiber.Map{
		"loan":     loan,
		"schedule": schedule,
	})
}

// ListLoanTypes lists active loan products
func (h *LoanHandler) ListLoanTypes(c *fiber.Ctx) error {
	loanTypes, err := h.loanService.ListLoanTypes(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list loan types")
	}

	return response.Success(c, "Loan types retrieved successfully", loanTypes)
}

// canAccessLoan enforces own-data scoping for customers. Officers and
// admins can see everything.
func (h *LoanHandler) canAccessLoan(c *fiber.Ctx, loan *models.Loan) bool {
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
	return customer.ID == loan.CustomerID
}
