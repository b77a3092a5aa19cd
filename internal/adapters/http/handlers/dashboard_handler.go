package handlers

import (
	"github.com/libraryhub/circulation/internal/core/domain"
	"github.com/libraryhub/circulation/internal/core/services"
	"github.com/libraryhub/circulation/internal/pkg/pagination"
	"github.com/libraryhub/circulation/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
	loans            services.Ledger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService, loans services.Ledger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		loans:            loans,
	}
}

// GetStats returns circulation counters
// @Summary Circulation stats
// @Description Catalog, patron and loan counters with outstanding fines (Staff only)
// @Tags Dashboard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /dashboard/stats [get]
func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	data, err := h.dashboardService.GetStats(c.Context())
	if err != nil {
		return respondError(c, err, "Failed to get dashboard stats")
	}

	return response.Success(c, "Dashboard stats retrieved successfully", data)
}

// GetOverdue lists overdue loans with live fines
// @Summary Overdue loans
// @Description Active loans past their due date, most overdue first (Staff only)
// @Tags Dashboard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /dashboard/overdue [get]
func (h *DashboardHandler) GetOverdue(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	loans, total, err := h.dashboardService.ListOverdue(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return respondError(c, err, "Failed to list overdue loans")
	}

	loc := h.loans.FinePolicy().Location
	items := make([]*BorrowResponse, len(loans))
	for i, l := range loans {
		items[i] = toBorrowResponse(l.Borrow, domain.FineQuote{DaysOverdue: l.DaysOverdue, Amount: l.Fine}, loc)
	}

	return response.Success(c, "Overdue loans retrieved successfully", pagination.NewResponse(items, params, total))
}
