package handlers

import (
	"strconv"
	"time"

	"github.com/libraryhub/circulation/internal/core/services"
	"github.com/libraryhub/circulation/internal/pkg/pagination"
	"github.com/libraryhub/circulation/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BorrowHandler handles loan ledger endpoints
type BorrowHandler struct {
	loans services.Ledger
}

// NewBorrowHandler creates a new borrow handler
func NewBorrowHandler(loans services.Ledger) *BorrowHandler {
	return &BorrowHandler{loans: loans}
}

// ExtendRequest represents extend due date request body
type ExtendRequest struct {
	AdditionalDays int `json:"additional_days"`
}

func (h *BorrowHandler) location() *time.Location {
	return h.loans.FinePolicy().Location
}

// Borrow lends a book
// @Summary Borrow book
// @Description Lend one copy of a book to a patron. book accepts an id or ISBN, patron an id or short code (Staff only)
// @Tags Borrows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.BorrowInput true "Loan data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /borrows [post]
func (h *BorrowHandler) Borrow(c *fiber.Ctx) error {
	var req services.BorrowInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	borrow, err := h.loans.BorrowBook(c.Context(), &req)
	if err != nil {
		return respondError(c, err, "Failed to borrow book")
	}

	return response.Created(c, "Book borrowed successfully", fiber.Map{
		"borrow": toBorrowResponse(borrow, h.loans.FineFor(borrow, h.loans.Now()), h.location()),
	})
}

// Return closes a loan
// @Summary Return book
// @Description Close a loan and charge any overdue fine (Staff only)
// @Tags Borrows
// @Produce json
// @Security BearerAuth
// @Param id path string true "Borrow ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /borrows/{id}/return [post]
func (h *BorrowHandler) Return(c *fiber.Ctx) error {
	result, err := h.loans.ReturnBook(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Failed to return book")
	}

	return response.Success(c, "Book returned successfully", fiber.Map{
		"borrow": toBorrowResponse(result.Borrow, result.Fine, h.location()),
		"fine":   result.Fine,
	})
}

// Extend pushes a due date forward
// @Summary Extend loan
// @Description Extend the due date of an active loan by whole days (Staff only)
// @Tags Borrows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Borrow ID"
// @Param body body ExtendRequest true "Extension"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /borrows/{id}/extend [post]
func (h *BorrowHandler) Extend(c *fiber.Ctx) error {
	var req ExtendRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	borrow, err := h.loans.ExtendDueDate(c.Context(), c.Params("id"), req.AdditionalDays)
	if err != nil {
		return respondError(c, err, "Failed to extend loan")
	}

	return response.Success(c, "Loan extended successfully", fiber.Map{
		"borrow": toBorrowResponse(borrow, h.loans.FineFor(borrow, h.loans.Now()), h.location()),
	})
}

// Get gets a loan
// @Summary Get loan
// @Tags Borrows
// @Produce json
// @Security BearerAuth
// @Param id path string true "Borrow ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /borrows/{id} [get]
func (h *BorrowHandler) Get(c *fiber.Ctx) error {
	borrow, err := h.loans.GetBorrow(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Failed to get loan")
	}

	return response.Success(c, "Loan retrieved successfully", fiber.Map{
		"borrow": toBorrowResponse(borrow, h.loans.FineFor(borrow, h.loans.Now()), h.location()),
	})
}

// List lists loans
// @Summary List loans
// @Tags Borrows
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param status query string false "borrowed or returned"
// @Param patron_id query string false "Patron ID"
// @Param book_id query string false "Book ID"
// @Param overdue query bool false "Only overdue loans"
// @Success 200 {object} response.Response
// @Router /borrows [get]
func (h *BorrowHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	overdue, _ := strconv.ParseBool(c.Query("overdue", "false"))

	borrows, total, err := h.loans.ListBorrows(c.Context(), &services.ListBorrowsInput{
		Status:      c.Query("status"),
		PatronID:    c.Query("patron_id"),
		BookID:      c.Query("book_id"),
		OverdueOnly: overdue,
		Offset:      params.Offset,
		Limit:       params.Limit,
	})
	if err != nil {
		return respondError(c, err, "Failed to list loans")
	}

	now := h.loans.Now()
	items := make([]*BorrowResponse, len(borrows))
	for i, b := range borrows {
		items[i] = toBorrowResponse(b, h.loans.FineFor(b, now), h.location())
	}

	return response.Success(c, "Loans retrieved successfully", pagination.NewResponse(items, params, total))
}

// Fine quotes the fine of a loan
// @Summary Quote loan fine
// @Description Live fine for an active loan, or the fine charged at return
// @Tags Borrows
// @Produce json
// @Security BearerAuth
// @Param id path string true "Borrow ID"
// @Param at query string false "Reference date (YYYY-MM-DD or RFC3339), default now"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /borrows/{id}/fine [get]
func (h *BorrowHandler) Fine(c *fiber.Ctx) error {
	at, err := parseReference(c.Query("at"), h.loans.Now(), h.location())
	if err != nil {
		return respondError(c, err, "Invalid reference date")
	}

	borrow, quote, err := h.loans.QuoteFine(c.Context(), c.Params("id"), at)
	if err != nil {
		return respondError(c, err, "Failed to quote fine")
	}

	return response.Success(c, "Fine calculated successfully", fiber.Map{
		"borrow_id":    borrow.ID,
		"status":       borrow.Status,
		"days_overdue": quote.DaysOverdue,
		"fine":         quote.Amount,
		"rate_per_day": h.loans.FinePolicy().RatePerDay,
	})
}

// Reconcile recomputes patron and book counters from the ledger
// @Summary Reconcile counters
// @Description Recompute borrowed counts and clamp availability (Admin only)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/reconcile [post]
func (h *BorrowHandler) Reconcile(c *fiber.Ctx) error {
	report, err := h.loans.ReconcileCounters(c.Context())
	if err != nil {
		return respondError(c, err, "Failed to reconcile counters")
	}

	return response.Success(c, "Counters reconciled successfully", report)
}
