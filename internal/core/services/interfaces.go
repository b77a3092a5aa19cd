package services

import (
	"context"
	"time"

	"github.com/libraryhub/circulation/internal/core/domain"
)

// Note: implementations live in loan_service.go, catalog_service.go and patron_service.go.
// Handlers and the CLI depend on these interfaces so they can be tested with fakes.

// Ledger defines the loan lifecycle operations
type Ledger interface {
	BorrowBook(ctx context.Context, input *BorrowInput) (*domain.Borrow, error)
	ReturnBook(ctx context.Context, borrowID string) (*ReturnResult, error)
	ExtendDueDate(ctx context.Context, borrowID string, additionalDays int) (*domain.Borrow, error)
	GetBorrow(ctx context.Context, borrowID string) (*domain.Borrow, error)
	ListBorrows(ctx context.Context, input *ListBorrowsInput) ([]*domain.Borrow, int64, error)
	QuoteFine(ctx context.Context, borrowID string, at time.Time) (*domain.Borrow, domain.FineQuote, error)
	FineFor(borrow *domain.Borrow, at time.Time) domain.FineQuote
	ReconcileCounters(ctx context.Context) (*ReconcileReport, error)
	Now() time.Time
	FinePolicy() domain.FinePolicy
}

// Catalog defines book management operations
type Catalog interface {
	CreateBook(ctx context.Context, input *CreateBookInput) (*domain.Book, error)
	UpdateBook(ctx context.Context, id string, input *UpdateBookInput) (*domain.Book, error)
	DeleteBook(ctx context.Context, id string) error
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	ListBooks(ctx context.Context, input *ListBooksInput) ([]*domain.Book, int64, error)
}

// Patrons defines patron registration and lookup
type Patrons interface {
	RegisterPatron(ctx context.Context, input *RegisterPatronInput) (*domain.Patron, error)
	GetPatron(ctx context.Context, ref string) (*domain.Patron, error)
	ListPatrons(ctx context.Context, search string, offset, limit int) ([]*domain.Patron, int64, error)
}

var (
	_ Ledger  = (*LoanService)(nil)
	_ Catalog = (*CatalogService)(nil)
	_ Patrons = (*PatronService)(nil)
)
