package services_test

import (
	"context"

	"github.com/libraryhub/circulation/internal/adapters/persistence/models"
	"github.com/libraryhub/circulation/internal/adapters/persistence/repositories"
)

// wrappedStore swaps individual repositories in and out of transactions
type wrappedStore struct {
	repositories.Store
	wrap func(repositories.Repositories) repositories.Repositories
}

func (s *wrappedStore) Repositories() repositories.Repositories {
	return s.wrap(s.Store.Repositories())
}

func (s *wrappedStore) Transaction(ctx context.Context, fn func(repos repositories.Repositories) error) error {
	return s.Store.Transaction(ctx, func(repos repositories.Repositories) error {
		return fn(s.wrap(repos))
	})
}

// shelfEmptiedBooks loses every compare-and-set on available, as if another
// transaction took the last copy after the row was read
type shelfEmptiedBooks struct {
	repositories.BookRepository
}

func (shelfEmptiedBooks) DecrementAvailable(context.Context, string) (bool, error) {
	return false, nil
}

// codeBlindPatrons never sees a short code as taken, as if a concurrent
// registration inserted it after the check
type codeBlindPatrons struct {
	repositories.PatronRepository
}

func (codeBlindPatrons) ExistsByIDNumber(context.Context, string) (bool, error) {
	return false, nil
}

// staleCountPatrons reports counters that no longer match the table
type staleCountPatrons struct {
	repositories.PatronRepository
	stale map[string]int
}

func (p staleCountPatrons) LockBorrowedCounts(ctx context.Context) (map[string]int, error) {
	if _, err := p.PatronRepository.LockBorrowedCounts(ctx); err != nil {
		return nil, err
	}
	return p.stale, nil
}

var _ repositories.BookRepository = shelfEmptiedBooks{}
var _ repositories.PatronRepository = codeBlindPatrons{}
var _ repositories.PatronRepository = staleCountPatrons{}

// seedActiveKey stores a returned loan that still holds the active key of (book, patron)
func seedActiveKey(key string, book *models.Book, patron *models.Patron) *models.Borrow {
	return &models.Borrow{
		BookID:     book.ID,
		BookTitle:  book.Title,
		PatronID:   patron.ID,
		PatronName: patron.Name,
		BorrowDate: clock.AddDate(0, 0, -7),
		DueDate:    clock.AddDate(0, 0, 7),
		Status:     "returned",
		ActiveKey:  &key,
	}
}
