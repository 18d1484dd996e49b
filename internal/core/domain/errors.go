package domain

// Stable error codes carried in API error envelopes
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeAlreadyPaid         = "ALREADY_PAID"
	CodeInsufficientPayment = "INSUFFICIENT_PAYMENT"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeInternal            = "INTERNAL_ERROR"
)
