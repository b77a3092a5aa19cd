package handlers

import (
	"strings"
	"time"

	"github.com/libraryhub/circulation/internal/core/domain"
	"github.com/libraryhub/circulation/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// FineHandler exposes the fine calculator
type FineHandler struct {
	policy domain.FinePolicy
	now    func() time.Time
}

// NewFineHandler creates a new fine handler
func NewFineHandler(policy domain.FinePolicy, now func() time.Time) *FineHandler {
	if now == nil {
		now = time.Now
	}
	return &FineHandler{policy: policy, now: now}
}

// Calculate computes the fine for a due date
// @Summary Calculate fine
// @Description Fine owed for a loan due on `due`, evaluated at `at` (default now)
// @Tags Fines
// @Produce json
// @Param due query string true "Due date (YYYY-MM-DD)"
// @Param at query string false "Reference date (YYYY-MM-DD or RFC3339)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /fines/calculate [get]
func (h *FineHandler) Calculate(c *fiber.Ctx) error {
	due, err := domain.ParseDueDate(c.Query("due"), h.policy.Location)
	if err != nil {
		return respondError(c, err, "Invalid due date")
	}

	at, err := parseReference(c.Query("at"), h.now(), h.policy.Location)
	if err != nil {
		return respondError(c, err, "Invalid reference date")
	}

	quote := h.policy.Calculate(due, at)
	return response.Success(c, "Fine calculated successfully", fiber.Map{
		"due_date":     due.Format(domain.DateLayout),
		"at":           at,
		"days_overdue": quote.DaysOverdue,
		"fine":         quote.Amount,
		"rate_per_day": h.policy.RatePerDay,
	})
}

// parseReference reads an optional reference instant, defaulting to now.
// A bare date is midnight of that day in loc; fines only look at the calendar date.
func parseReference(value string, now time.Time, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(domain.DateLayout, value, loc)
	if err != nil {
		return time.Time{}, domain.InvalidInput("at", "must be YYYY-MM-DD or RFC3339")
	}
	return t, nil
}
