package handlers

import (
	"loansuite/internal/core/services"
	"loansuite/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles reporting endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Portfolio returns loan portfolio aggregates (officer/admin)
func (h *DashboardHandler) Portfolio(c *fiber.Ctx) error {
	data, err := h.dashboardService.GetPortfolio(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to get portfolio data")
	}

	return response.Success(c, "Portfolio data retrieved successfully", data)
}

// Collections returns EMI collection aggregates (officer/admin)
func (h *DashboardHandler) Collections(c *fiber.Ctx) error {
	data, err := h.dashboardService.GetCollections(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to get collection data")
	}

	return response.Success(c, "Collection data retrieved successfully", data)
}

// OverdueExposure returns loans with overdue installments, worst first
// (officer/admin)
func (h *DashboardHandler) OverdueExposure(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)

	data, err := h.dashboardService.GetOverdueExposure(c.Context(), limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to get overdue exposure")
	}

	return response.Success(c, "Overdue exposure retrieved successfully", data)
}
