package repositories

import (
	"context"
	"time"

	"github.com/libraryhub/circulation/internal/adapters/persistence/models"
)

// BookFilter narrows catalog listings
type BookFilter struct {
	Search   string
	Category string
}

// BorrowFilter narrows loan ledger listings
type BorrowFilter struct {
	Status   string
	PatronID string
	BookID   string
	// DueBefore selects loans whose due date is strictly before this instant
	DueBefore *time.Time
}

// CatalogTotals aggregates copy counters across the catalog
type CatalogTotals struct {
	Titles    int64
	Copies    int64
	Available int64
}

// BookRepository defines catalog repository interface
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	GetByID(ctx context.Context, id string) (*models.Book, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.Book, error)
	FindByISBN(ctx context.Context, isbn string) ([]*models.Book, error)
	Update(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter BookFilter, offset, limit int) ([]*models.Book, int64, error)
	DecrementAvailable(ctx context.Context, id string) (bool, error)
	SetAvailable(ctx context.Context, id string, available int) error
	LockOutOfRange(ctx context.Context) ([]*models.Book, error)
	Totals(ctx context.Context) (*CatalogTotals, error)
}

// PatronRepository defines patron repository interface
type PatronRepository interface {
	Create(ctx context.Context, patron *models.Patron) error
	GetByID(ctx context.Context, id string) (*models.Patron, error)
	GetByIDNumber(ctx context.Context, idNumber string) (*models.Patron, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.Patron, error)
	ExistsByIDNumber(ctx context.Context, idNumber string) (bool, error)
	List(ctx context.Context, search string, offset, limit int) ([]*models.Patron, int64, error)
	IncrementBorrowed(ctx context.Context, id string) error
	LockBorrowedCounts(ctx context.Context) (map[string]int, error)
	SetBorrowedCount(ctx context.Context, id string, from, to int) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// BorrowRepository defines loan ledger repository interface
type BorrowRepository interface {
	Create(ctx context.Context, borrow *models.Borrow) error
	GetByID(ctx context.Context, id string) (*models.Borrow, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.Borrow, error)
	GetActive(ctx context.Context, bookID, patronID string) (*models.Borrow, error)
	MarkReturned(ctx context.Context, id string, returnDate time.Time, fine int64) (bool, error)
	UpdateDueDate(ctx context.Context, id string, dueDate time.Time) (bool, error)
	List(ctx context.Context, filter BorrowFilter, offset, limit int) ([]*models.Borrow, int64, error)
	CountActiveByBook(ctx context.Context, bookID string) (int64, error)
	ActiveCountsByPatron(ctx context.Context) (map[string]int, error)
	Count(ctx context.Context, filter BorrowFilter) (int64, error)
}

// StaffRepository defines staff account repository interface
type StaffRepository interface {
	Create(ctx context.Context, user *models.StaffUser) error
	GetByID(ctx context.Context, id string) (*models.StaffUser, error)
	GetByUsername(ctx context.Context, username string) (*models.StaffUser, error)
	ExistsByRole(ctx context.Context, role string) (bool, error)
}

// Repositories groups the repositories bound to one database handle
type Repositories struct {
	Books   BookRepository
	Patrons PatronRepository
	Borrows BorrowRepository
	Staff   StaffRepository
}

// Store is the unit of work over all collections
type Store interface {
	Repositories() Repositories
	// Transaction runs fn with repositories bound to a single database transaction.
	// Returning an error from fn rolls back every write made through them.
	Transaction(ctx context.Context, fn func(repos Repositories) error) error
	Ping(ctx context.Context) error
}
