package services

import (
	"context"
	"log"
	"strings"

	"github.com/libraryhub/circulation/internal/adapters/persistence/models"
	"github.com/libraryhub/circulation/internal/adapters/persistence/repositories"
	"github.com/libraryhub/circulation/internal/core/domain"
	"github.com/libraryhub/circulation/internal/pkg/validator"
)

// CatalogService handles book business logic
type CatalogService struct {
	store repositories.Store
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store repositories.Store) *CatalogService {
	return &CatalogService{store: store}
}

// CreateBookInput represents create book request
type CreateBookInput struct {
	Title      string   `json:"title" validate:"required"`
	Author     string   `json:"author" validate:"required"`
	ISBN       string   `json:"isbn"`
	Category   string   `json:"category"`
	Categories []string `json:"categories"` // legacy clients send a list
	Quantity   int      `json:"quantity"`
}

// UpdateBookInput represents update book request. Nil fields are left unchanged.
type UpdateBookInput struct {
	Title      *string  `json:"title"`
	Author     *string  `json:"author"`
	ISBN       *string  `json:"isbn"`
	Category   *string  `json:"category"`
	Categories []string `json:"categories"`
	Quantity   *int     `json:"quantity"`
}

// ListBooksInput represents catalog query
type ListBooksInput struct {
	Search   string
	Category string
	Offset   int
	Limit    int
}

// NormalizeCategory picks a single category out of the two accepted shapes
func NormalizeCategory(category string, categories []string) string {
	if c := strings.TrimSpace(category); c != "" {
		return c
	}
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return ""
}

func validateBook(v *validator.Validator, title, author, isbn string, quantity int) {
	v.Check(validator.NotBlank(title), "title", "must be provided")
	v.Check(validator.MaxChars(title, 255), "title", "must not be more than 255 characters long")
	v.Check(validator.NotBlank(author), "author", "must be provided")
	v.Check(validator.MaxChars(author, 255), "author", "must not be more than 255 characters long")
	if isbn != "" {
		v.Check(validator.Matches(isbn, validator.ISBNRX), "isbn", "must be a valid ISBN")
	}
	v.Check(quantity >= 0, "quantity", "must not be negative")
}

// CreateBook adds a title to the catalog with every copy on the shelf
func (s *CatalogService) CreateBook(ctx context.Context, input *CreateBookInput) (*domain.Book, error) {
	book := &models.Book{
		Title:    strings.TrimSpace(input.Title),
		Author:   strings.TrimSpace(input.Author),
		ISBN:     strings.TrimSpace(input.ISBN),
		Category: NormalizeCategory(input.Category, input.Categories),
		Quantity: input.Quantity,
	}

	v := validator.New()
	validateBook(v, book.Title, book.Author, book.ISBN, book.Quantity)
	if !v.Valid() {
		return nil, domain.NewValidationError(v.Errors)
	}

	book.Available = book.Quantity
	if err := s.store.Repositories().Books.Create(ctx, book); err != nil {
		return nil, domain.StoreError("create book", err)
	}

	log.Printf("📘 Book created: %s (%d copies)", book.Title, book.Quantity)
	return book.ToDomain(), nil
}

// UpdateBook edits a book. A quantity change moves available by the same delta,
// clamped to [0, quantity].
func (s *CatalogService) UpdateBook(ctx context.Context, id string, input *UpdateBookInput) (*domain.Book, error) {
	var updated *models.Book

	err := s.store.Transaction(ctx, func(repos repositories.Repositories) error {
		book, err := repos.Books.GetByIDForUpdate(ctx, id)
		if err != nil {
			return lookupError("load book", err, domain.ErrBookNotFound)
		}

		if input.Title != nil {
			book.Title = strings.TrimSpace(*input.Title)
		}
		if input.Author != nil {
			book.Author = strings.TrimSpace(*input.Author)
		}
		if input.ISBN != nil {
			book.ISBN = strings.TrimSpace(*input.ISBN)
		}
		if input.Category != nil || input.Categories != nil {
			var category string
			if input.Category != nil {
				category = *input.Category
			}
			book.Category = NormalizeCategory(category, input.Categories)
		}
		newQuantity := book.Quantity
		if input.Quantity != nil {
			newQuantity = *input.Quantity
		}

		v := validator.New()
		validateBook(v, book.Title, book.Author, book.ISBN, newQuantity)
		if !v.Valid() {
			return domain.NewValidationError(v.Errors)
		}

		book.Available = domain.AdjustAvailability(book.Available, book.Quantity, newQuantity)
		book.Quantity = newQuantity

		if err := repos.Books.Update(ctx, book); err != nil {
			return err
		}
		updated = book
		return nil
	})
	if err != nil {
		return nil, txError("update book", err)
	}

	return updated.ToDomain(), nil
}

// DeleteBook removes a book that has no copies on loan
func (s *CatalogService) DeleteBook(ctx context.Context, id string) error {
	err := s.store.Transaction(ctx, func(repos repositories.Repositories) error {
		book, err := repos.Books.GetByIDForUpdate(ctx, id)
		if err != nil {
			return lookupError("load book", err, domain.ErrBookNotFound)
		}

		active, err := repos.Borrows.CountActiveByBook(ctx, book.ID)
		if err != nil {
			return err
		}
		if active > 0 {
			return domain.ErrBookHasActiveLoans
		}

		return repos.Books.Delete(ctx, book.ID)
	})
	if err != nil {
		return txError("delete book", err)
	}

	log.Printf("🗑️ Book deleted: %s", id)
	return nil
}

// GetBook gets a book by ID
func (s *CatalogService) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	book, err := s.store.Repositories().Books.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError("load book", err, domain.ErrBookNotFound)
	}
	return book.ToDomain(), nil
}

// ListBooks lists books with pagination
func (s *CatalogService) ListBooks(ctx context.Context, input *ListBooksInput) ([]*domain.Book, int64, error) {
	filter := repositories.BookFilter{
		Search:   strings.TrimSpace(input.Search),
		Category: strings.TrimSpace(input.Category),
	}

	rows, total, err := s.store.Repositories().Books.List(ctx, filter, input.Offset, input.Limit)
	if err != nil {
		return nil, 0, domain.StoreError("list books", err)
	}

	books := make([]*domain.Book, len(rows))
	for i, row := range rows {
		books[i] = row.ToDomain()
	}
	return books, total, nil
}
