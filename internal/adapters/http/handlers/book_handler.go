package handlers

import (
	"github.com/libraryhub/circulation/internal/core/services"
	"github.com/libraryhub/circulation/internal/pkg/pagination"
	"github.com/libraryhub/circulation/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BookHandler handles catalog endpoints
type BookHandler struct {
	catalog services.Catalog
}

// NewBookHandler creates a new book handler
func NewBookHandler(catalog services.Catalog) *BookHandler {
	return &BookHandler{catalog: catalog}
}

// List lists books
// @Summary List books
// @Description List catalog entries, optionally filtered by category
// @Tags Books
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param category query string false "Category"
// @Param q query string false "Search title, author or ISBN"
// @Success 200 {object} response.Response
// @Router /books [get]
func (h *BookHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	books, total, err := h.catalog.ListBooks(c.Context(), &services.ListBooksInput{
		Search:   c.Query("q"),
		Category: c.Query("category"),
		Offset:   params.Offset,
		Limit:    params.Limit,
	})
	if err != nil {
		return respondError(c, err, "Failed to list books")
	}

	items := make([]*BookResponse, len(books))
	for i, b := range books {
		items[i] = toBookResponse(b)
	}

	return response.Success(c, "Books retrieved successfully", pagination.NewResponse(items, params, total))
}

// Search searches books by title, author or ISBN
// @Summary Search books
// @Tags Books
// @Produce json
// @Param q query string true "Search term"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /books/search [get]
func (h *BookHandler) Search(c *fiber.Ctx) error {
	if c.Query("q") == "" {
		return response.BadRequest(c, "Search term is required")
	}
	return h.List(c)
}

// Get gets a book
// @Summary Get book
// @Tags Books
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id} [get]
func (h *BookHandler) Get(c *fiber.Ctx) error {
	book, err := h.catalog.GetBook(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Failed to get book")
	}

	return response.Success(c, "Book retrieved successfully", fiber.Map{
		"book": toBookResponse(book),
	})
}

// Create creates a book
// @Summary Create book
// @Description Add a title to the catalog (Staff only)
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateBookInput true "Book data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /books [post]
func (h *BookHandler) Create(c *fiber.Ctx) error {
	var req services.CreateBookInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	book, err := h.catalog.CreateBook(c.Context(), &req)
	if err != nil {
		return respondError(c, err, "Failed to create book")
	}

	return response.Created(c, "Book created successfully", fiber.Map{
		"book": toBookResponse(book),
	})
}

// Update updates a book
// @Summary Update book
// @Description Edit a book. A quantity change moves available copies by the same amount (Staff only)
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Book ID"
// @Param body body services.UpdateBookInput true "Fields to change"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id} [put]
func (h *BookHandler) Update(c *fiber.Ctx) error {
	var req services.UpdateBookInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	book, err := h.catalog.UpdateBook(c.Context(), c.Params("id"), &req)
	if err != nil {
		return respondError(c, err, "Failed to update book")
	}

	return response.Success(c, "Book updated successfully", fiber.Map{
		"book": toBookResponse(book),
	})
}

// Delete deletes a book
// @Summary Delete book
// @Description Remove a book with no copies on loan (Staff only)
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param id path string true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /books/{id} [delete]
func (h *BookHandler) Delete(c *fiber.Ctx) error {
	if err := h.catalog.DeleteBook(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err, "Failed to delete book")
	}

	return response.Success(c, "Book deleted successfully", nil)
}
