package response

import (
	"time"

	"loansuite/internal/core/domain"

	"github.com/gofiber/fiber/v2"
)

// Response represents a standard API response. Error responses carry a
// stable code and an RFC3339 timestamp.
type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Code      string      `json:"code,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
}

// Success sends a success response
func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Created sends a 201 created response
func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorWithCode sends an error response with an explicit error code
func ErrorWithCode(c *fiber.Ctx, statusCode int, code, message string) error {
	return c.Status(statusCode).JSON(Response{
		Success:   false,
		Error:     message,
		Code:      code,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// BadRequest sends a 400 validation error response
func BadRequest(c *fiber.Ctx, message string) error {
	return ErrorWithCode(c, fiber.StatusBadRequest, domain.CodeValidation, message)
}

// Unauthorized sends a 401 unauthorized response
func Unauthorized(c *fiber.Ctx, message string) error {
	return ErrorWithCode(c, fiber.StatusUnauthorized, domain.CodeUnauthorized, message)
}

// Forbidden sends a 403 forbidden response
func Forbidden(c *fiber.Ctx, message string) error {
	return ErrorWithCode(c, fiber.StatusForbidden, domain.CodeForbidden, message)
}

// NotFound sends a 404 not found response
func NotFound(c *fiber.Ctx, message string) error {
	return ErrorWithCode(c, fiber.StatusNotFound, domain.CodeNotFound, message)
}

// Conflict sends a 409 conflict response
func Conflict(c *fiber.Ctx, message string) error {
	return ErrorWithCode(c, fiber.StatusConflict, domain.CodeConflict, message)
}

// InternalServerError sends a 500 internal server error response
func InternalServerError(c *fiber.Ctx, message string) error {
	return ErrorWithCode(c, fiber.StatusInternalServerError, domain.CodeInternal, message)
}
