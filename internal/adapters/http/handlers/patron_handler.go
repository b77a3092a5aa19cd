package handlers

import (
	"github.com/libraryhub/circulation/internal/core/services"
	"github.com/libraryhub/circulation/internal/pkg/pagination"
	"github.com/libraryhub/circulation/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PatronHandler handles patron endpoints
type PatronHandler struct {
	patrons services.Patrons
	loans   services.Ledger
}

// NewPatronHandler creates a new patron handler
func NewPatronHandler(patrons services.Patrons, loans services.Ledger) *PatronHandler {
	return &PatronHandler{patrons: patrons, loans: loans}
}

// Register registers a patron
// @Summary Register patron
// @Description Register a patron. A short code is generated when id_number is empty (Staff only)
// @Tags Patrons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.RegisterPatronInput true "Patron data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /patrons [post]
func (h *PatronHandler) Register(c *fiber.Ctx) error {
	var req services.RegisterPatronInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	patron, err := h.patrons.RegisterPatron(c.Context(), &req)
	if err != nil {
		return respondError(c, err, "Failed to register patron")
	}

	return response.Created(c, "Patron registered successfully", fiber.Map{
		"patron": toPatronResponse(patron),
	})
}

// List lists patrons
// @Summary List patrons
// @Tags Patrons
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param q query string false "Search name, email or code"
// @Success 200 {object} response.Response
// @Router /patrons [get]
func (h *PatronHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	patrons, total, err := h.patrons.ListPatrons(c.Context(), c.Query("q"), params.Offset, params.Limit)
	if err != nil {
		return respondError(c, err, "Failed to list patrons")
	}

	items := make([]*PatronResponse, len(patrons))
	for i, p := range patrons {
		items[i] = toPatronResponse(p)
	}

	return response.Success(c, "Patrons retrieved successfully", pagination.NewResponse(items, params, total))
}

// Get gets a patron by id or short code
// @Summary Get patron
// @Tags Patrons
// @Produce json
// @Security BearerAuth
// @Param ref path string true "Patron ID or short code"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /patrons/{ref} [get]
func (h *PatronHandler) Get(c *fiber.Ctx) error {
	patron, err := h.patrons.GetPatron(c.Context(), c.Params("ref"))
	if err != nil {
		return respondError(c, err, "Failed to get patron")
	}

	return response.Success(c, "Patron retrieved successfully", fiber.Map{
		"patron": toPatronResponse(patron),
	})
}

// Borrows lists a patron's loans with live fines
// @Summary List patron loans
// @Tags Patrons
// @Produce json
// @Security BearerAuth
// @Param ref path string true "Patron ID or short code"
// @Param status query string false "borrowed or returned"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /patrons/{ref}/borrows [get]
func (h *PatronHandler) Borrows(c *fiber.Ctx) error {
	patron, err := h.patrons.GetPatron(c.Context(), c.Params("ref"))
	if err != nil {
		return respondError(c, err, "Failed to get patron")
	}

	params := pagination.GetParams(c)
	borrows, total, err := h.loans.ListBorrows(c.Context(), &services.ListBorrowsInput{
		Status:   c.Query("status"),
		PatronID: patron.ID,
		Offset:   params.Offset,
		Limit:    params.Limit,
	})
	if err != nil {
		return respondError(c, err, "Failed to list loans")
	}

	now := h.loans.Now()
	loc := h.loans.FinePolicy().Location
	items := make([]*BorrowResponse, len(borrows))
	var outstanding int64
	for i, b := range borrows {
		quote := h.loans.FineFor(b, now)
		if b.IsActive() {
			outstanding += quote.Amount
		}
		items[i] = toBorrowResponse(b, quote, loc)
	}

	return response.Success(c, "Loans retrieved successfully", fiber.Map{
		"patron":            toPatronResponse(patron),
		"borrows":           pagination.NewResponse(items, params, total),
		"outstanding_fines": outstanding,
	})
}
