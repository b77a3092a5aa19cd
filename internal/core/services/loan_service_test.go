package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/libraryhub/circulation/internal/adapters/persistence/models"
	"github.com/libraryhub/circulation/internal/adapters/persistence/repositories"
	"github.com/libraryhub/circulation/internal/adapters/persistence/testdb"
	"github.com/libraryhub/circulation/internal/core/domain"
	"github.com/libraryhub/circulation/internal/core/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var clock = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type ledgerFixture struct {
	db    *gorm.DB
	store repositories.Store
	loans *services.LoanService
	ctx   context.Context
}

func newLedger(t *testing.T) *ledgerFixture {
	t.Helper()
	db := testdb.Open(t)
	store := repositories.NewStore(db)
	loans := services.NewLoanService(store, domain.NewFinePolicy(1000, time.UTC)).
		WithClock(func() time.Time { return clock })
	return &ledgerFixture{db: db, store: store, loans: loans, ctx: context.Background()}
}

func (f *ledgerFixture) book(t *testing.T, id string) *models.Book {
	t.Helper()
	var b models.Book
	require.NoError(t, f.db.First(&b, "id = ?", id).Error)
	return &b
}

func (f *ledgerFixture) patron(t *testing.T, id string) *models.Patron {
	t.Helper()
	var p models.Patron
	require.NoError(t, f.db.First(&p, "id = ?", id).Error)
	return &p
}

func (f *ledgerFixture) borrow(t *testing.T, bookRef, patronRef, due string) *domain.Borrow {
	t.Helper()
	b, err := f.loans.BorrowBook(f.ctx, &services.BorrowInput{BookRef: bookRef, PatronRef: patronRef, DueDate: due})
	require.NoError(t, err)
	return b
}

// ============================================================
// Borrow
// ============================================================

func TestBorrowBook_HappyPath(t *testing.T) {
	f := newLedger(t)
	book := testdb.Book(t, f.db, "Dune", 1)
	patron := testdb.Patron(t, f.db, "Ana Souza", "an42")

	borrow := f.borrow(t, book.ID, patron.ID, "2026-03-16")

	assert.Equal(t, domain.StatusBorrowed, borrow.Status)
	assert.Equal(t, book.ID, borrow.BookID)
	assert.Equal(t, "Dune", borrow.BookTitle)
	assert.Equal(t, patron.ID, borrow.PatronID)
	assert.Equal(t, "Ana Souza", borrow.PatronName)
	assert.Equal(t, "ana.souza@example.com", borrow.PatronContact)
	assert.True(t, borrow.BorrowDate.Equal(clock))
	assert.Equal(t, "2026-03-16", borrow.DueDate.UTC().Format(domain.DateLayout))
	assert.Nil(t, borrow.ReturnDate)

	assert.Equal(t, 0, f.book(t, book.ID).Available)
	assert.Equal(t, 1, f.patron(t, patron.ID).BorrowedCount)

	stored, err := f.loans.GetBorrow(f.ctx, borrow.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusBorrowed, stored.Status)
}

func TestBorrowBook_ResolvesISBNAndShortCode(t *testing.T) {
	f := newLedger(t)
	book := testdb.Book(t, f.db, "Dune", 2)
	patron := testdb.Patron(t, f.db, "Ana Souza", "an42")

	borrow := f.borrow(t, book.ISBN, "AN42", "2026-03-16")

	assert.Equal(t, book.ID, borrow.BookID)
	assert.Equal(t, patron.ID, borrow.PatronID)
}

func TestBorrowBook_ISBNPrefersAvailableCopy(t *testing.T) {
	f := newLedger(t)
	empty := &models.Book{Title: "Dune (old print)", Author: "Frank Herbert", ISBN: "9780441172719", Quantity: 1, Available: 0}
	require.NoError(t, f.db.Create(empty).Error)
	stocked := &models.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441172719", Quantity: 1, Available: 1}
	require.NoError(t, f.db.Create(stocked).Error)
	patron := testdb.Patron(t, f.db, "Ana Souza", "an42")

	borrow := f.borrow(t, "9780441172719", patron.ID, "2026-03-16")
	assert.Equal(t, stocked.ID, borrow.BookID)
}

func TestBorrowBook_ExhaustedStock(t *testing.T) {
	f := newLedger(t)
	book := testdb.Book(t, f.db, "Dune", 0)
	patron := testdb.Patron(t, f.db, "Ana Souza", "an42")

	_, err := f.loans.BorrowBook(f.ctx, &services.BorrowInput{BookRef: book.ID, PatronRef: patron.ID, DueDate: "2026-03-16"})

	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Equal(t, 0, f.patron(t, patron.ID).BorrowedCount)
}

func TestBorrowBook_DuplicateActiveLoan(t *testing.T) {
	f := newLedger(t)
	book := testdb.Book(t, f.db, "Dune", 3)
	patron := testdb.Patron(t, f.db, "Ana Souza", "an42")
	f.borrow(t, book.ID, patron.ID, "2026-03-16")

	_, err := f.loans.BorrowBook(f.ctx, &services.BorrowInput{BookRef: book.ID, PatronRef: patron.ID, DueDate: "2026-03-20"})

	assert.ErrorIs(t, err, domain.ErrDuplicateActiveLoan)
	assert.Equal(t, 2, f.book(t, book.ID).Available)
	assert.Equal(t, 1, f.patron(t, patron.ID).BorrowedCount)
}

func TestBorrowBook_AgainAfterReturn(t *testing.T) {
	f := newLedger(t)
	book := testdb.Book(t, f.db, "Dune", 1)
	patron := testdb.Patron(t, f.db, "Ana Souza", "an42")

	first := f.borrow(t, book.ID, patron.ID, "2026-03-16")
	_, err := f.loans.ReturnBook(f.ctx, first.ID)
	require.NoError(t, err)

	second := f.borrow(t, book.ID, patron.ID, "2026-03-20")
	assert.NotEqual(t, first.ID, second.ID)
}

func TestBorrowBook_ValidationOrder(t *testing.T) {
	f := newLedger(t)
	book := testdb.Book(t, f.db, "Dune", 0)
	patron := testdb.Patron(t, f.db, "Ana Souza", "an42")

	tests := []struct {
		name    string
		input   services.BorrowInput
		wantErr error
	}{
		{"unknown book wins over everything", services.BorrowInput{BookRef: "missing", PatronRef: "missing", DueDate: ""}, domain.ErrBookNotFound},
		{"unknown patron", services.BorrowInput{BookRef: book.ID, PatronRef: "missing", DueDate: ""}, domain.ErrPatronNotFound},
		{"missing due date", services.BorrowInput{BookRef: book.ID, PatronRef: patron.ID, DueDate: ""}, domain.ErrInvalidInput},
		{"malformed due date", services.BorrowInput{BookRef: book.ID, PatronRef: patron.ID, DueDate: "16/03/2026"}, domain.ErrInvalidInput},
		{"due date in the past", services.BorrowInput{BookRef: book.ID, PatronRef: patron.ID, DueDate: "2026-03-01"}, domain.ErrInvalidInput},
		{"valid date then unavailable", services.BorrowInput{BookRef: book.ID, PatronRef: patron.ID, DueDate: "2026-03-02"}, domain.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.loans.BorrowBook(f.ctx, &tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBorrowBook_ConcurrentLastCopy(t *testing.T) {
	f := newLedger(t)
	book := testdb.Book(t, f.db, "Dune", 1)
	p1 := testdb.Patron(t, f.db, "Ana Souza", "an42")
	p2 := testdb.Patron(t, f.db, "Bo Lee", "bo17")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, p := range []*models.Patron{p1, p2} {
		wg.Add(1)
		go func(i int, patronID string) {
			defer wg.Done()
			_, errs[i] = f.loans.BorrowBook(f.ctx, &services.BorrowInput{BookRef: book.ID, PatronRef: patronID, DueDate: "2026-03-16"})
		}(i, p.ID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, domain.ErrUnavailable) || errors.Is(err, domain.ErrConflict), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, f.book(t, book.ID).Available)

	var active int64
	require.NoError(t, f.db.Model(&models.Borrow{}).Where("status = ?", "borrowed").Count(&active).Error)
	assert.EqualValues(t, 1, active)
}

func TestBorrowBook_LostCompareAndSet(t *testing.T) {
	f := newLedger(t)
	book := testdb.Book(t, f.db, "Dune", 2)
	patron := testdb.Patron(t, f.db, "Ana Souza", "an42")

	store := &wrappedStore{Store: f.store, wrap: func(r repositories.Repositories) repositories.Repositories {
		r.Books = shelfEmptiedBooks{r.Books}
		return r
	}}
	loans := services.NewLoanService(store, f.loans.FinePolicy()).WithClock(f.loans.Now)

	_, err := loans.BorrowBook(f.ctx, &services.BorrowInput{BookRef: book.ID, PatronRef: patron.ID, DueDate: "2026-03-16"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.True(t, domain.IsRetryable(err))

	// Nothing from the failed attempt survives
	assert.Equal(t, 2, f.book(t, book.ID).Available)
	assert.Zero(t, f.patron(t, patron.ID).BorrowedCount)
	var borrowCount int64
	require.NoError(t, f.db.Model(&models.Borrow{}).Count(&borrowCount).Error)
	assert.Zero(t, borrowCount)
}

func TestBorrowBook_ActiveKeyIndexRejectsDuplicate(t *testing.T) {
	f := newLedger(t)
	book := testdb.Book(t, f.db, "Dune", 2)
	patron := testdb.Patron(t, f.db, "Ana Souza", "an42")

	// A loan the status pre-check cannot see still holds the unique key
	require.NoError(t, f.db.Create(seedActiveKey(domain.ActiveKey(book.ID, patron.ID), book, patron)).Error)

	_, err := f.loans.BorrowBook(f.ctx, &services.BorrowInput{BookRef: book.ID, PatronRef: patron.ID, DueDate: "2026-03-16"})
	assert.ErrorIs(t, err, domain.ErrDuplicateActiveLoan)

	// The decrement rolled back with the failed insert
	assert.Equal(t, 2, f.book(t, book.ID).Available)
	assert.Zero(t, f.patron(t, patron.ID).BorrowedCount)
}

// ============================================================
// Return
// ============================================================

func TestReturnBook_OnTime(t *testing.T) {
	f := newLedger(t)
	book := testdb.Book(t, f.db, "Dune", 1)
	patron := testdb.Patron(t, f.db, "Ana Souza", "an42")
	borrow := f.borrow(t, book.ID, patron.ID, "2026-03-16")

	result, err := f.loans.ReturnBookAt(f.ctx, borrow.ID, time.Date(2026, 3, 16, 23, 59, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusReturned, result.Borrow.Status)
	require.NotNil(t, result.Borrow.ReturnDate)
	assert.Equal(t, domain.FineQuote{}, result.Fine)
	assert.Zero(t, result.Borrow.FineAmount)
	assert.Equal(t, 1, f.book(t, book.ID).Available)
	assert.Equal(t, 0, f.patron(t, patron.ID).BorrowedCount)
}

func TestReturnBook_LateChargesFine(t *testing.T) {
	f := newLedger(t)
	book := testdb.Book(t, f.db, "Dune", 1)
	patron := testdb.Patron(t, f.db, "Ana Souza", "an42")
	borrow := f.borrow(t, book.ID, patron.ID, "2026-03-16")

	result, err := f.loans.ReturnBookAt(f.ctx, borrow.ID, time.Date(2026, 3, 19, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, domain.FineQuote{DaysOverdue: 3, Amount: 3000}, result.Fine)
	assert.EqualValues(t, 3000, result.Borrow.FineAmount)

	_, quote, err := f.loans.QuoteFine(f.ctx, borrow.ID, time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, domain.FineQuote{DaysOverdue: 3, Amount: 3000}, quote, "returned loans keep the fine charged at return")
}

func TestReturnBook_ClampsToQuantity(t *testing.T) {
	f := newLedger(t)
	book := testdb.Book(t, f.db, "Dune", 2)
	patron := testdb.Patron(t, f.db, "Ana Souza", "an42")
	borrow := f.borrow(t, book.ID, patron.ID, "2026-03-16")

	// Edited down while on loan
	require.NoError(t, f.db.Model(&models.Book{}).Where("id = ?", book.ID).
		Updates(map[string]interface{}{"quantity": 1, "available": 1}).Error)

	_, err := f.loans.ReturnBook(f.ctx, borrow.ID)
	require.NoError(t, err)

	after := f.book(t, book.ID)
	assert.Equal(t, 1, after.Available)
	assert.LessOrEqual(t, after.Available, after.Quantity)
}

func TestReturnBook_Twice(t *testing.T) {
	f := newLedger(t)
	book := testdb.Book(t, f.db, "Dune", 3)
	patron := testdb.Patron(t, f.db, "Ana Souza", "an42")
	borrow := f.borrow(t, book.ID, patron.ID, "2026-03-16")

	_, err := f.loans.ReturnBook(f.ctx, borrow.ID)
	require.NoError(t, err)

	_, err = f.loans.ReturnBook(f.ctx, borrow.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyReturned)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	assert.Equal(t, 3, f.book(t, book.ID).Available)
	assert.Equal(t, 0, f.patron(t, patron.ID).BorrowedCount)
}

func TestReturnBook_NotFound(t *testing.T) {
	f := newLedger(t)
	_, err := f.loans.ReturnBook(f.ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrBorrowNotFound)
}

// ============================================================
// Extend
// ============================================================

func TestExtendDueDate(t *testing.T) {
	f := newLedger(t)
	book := testdb.Book(t, f.db, "Dune", 2)
	patron := testdb.Patron(t, f.db, "Ana Souza", "an42")
	borrow := f.borrow(t, book.ID, patron.ID, "2026-03-16")

	extended, err := f.loans.ExtendDueDate(f.ctx, borrow.ID, 7)
	require.NoError(t, err)

	assert.Equal(t, "2026-03-23", extended.DueDate.UTC().Format(domain.DateLayout))
	assert.Equal(t, 1, extended.ExtensionCount)
	assert.Equal(t, domain.StatusBorrowed, extended.Status)
	assert.Equal(t, 1, f.book(t, book.ID).Available)
	assert.Equal(t, 1, f.patron(t, patron.ID).BorrowedCount)
}

func TestExtendDueDate_AcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}

	db := testdb.Open(t)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, loc)
	loans := services.NewLoanService(repositories.NewStore(db), domain.NewFinePolicy(1000, loc)).
		WithClock(func() time.Time { return now })
	book := testdb.Book(t, db, "Dune", 1)
	patron := testdb.Patron(t, db, "Ana Souza", "an42")

	borrow, err := loans.BorrowBook(context.Background(), &services.BorrowInput{BookRef: book.ID, PatronRef: patron.ID, DueDate: "2026-03-07"})
	require.NoError(t, err)

	extended, err := loans.ExtendDueDate(context.Background(), borrow.ID, 2)
	require.NoError(t, err)

	due := extended.DueDate.In(loc)
	assert.Equal(t, "2026-03-09", due.Format(domain.DateLayout))
	assert.Equal(t, 0, due.Hour(), "due date stays at local midnight after the clocks change")
}

func TestExtendDueDate_Invalid(t *testing.T) {
	f := newLedger(t)
	book := testdb.Book(t, f.db, "Dune", 2)
	patron := testdb.Patron(t, f.db, "Ana Souza", "an42")
	borrow := f.borrow(t, book.ID, patron.ID, "2026-03-16")

	_, err := f.loans.ExtendDueDate(f.ctx, borrow.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.loans.ExtendDueDate(f.ctx, borrow.ID, domain.MaxExtensionDays+1)
	var fieldErr *domain.FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "additional_days", fieldErr.Field)

	_, err = f.loans.ExtendDueDate(f.ctx, borrow.ID, 1_000_000)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.NotErrorIs(t, err, domain.ErrStoreUnavailable)

	_, err = f.loans.ExtendDueDate(f.ctx, "missing", 3)
	assert.ErrorIs(t, err, domain.ErrBorrowNotFound)

	_, err = f.loans.ReturnBook(f.ctx, borrow.ID)
	require.NoError(t, err)
	_, err = f.loans.ExtendDueDate(f.ctx, borrow.ID, 3)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

// ============================================================
// Ledger queries and reconciliation
// ============================================================

func TestListBorrows_Filters(t *testing.T) {
	f := newLedger(t)
	dune := testdb.Book(t, f.db, "Dune", 2)
	emma := testdb.Book(t, f.db, "Emma", 2)
	ana := testdb.Patron(t, f.db, "Ana Souza", "an42")
	bo := testdb.Patron(t, f.db, "Bo Lee", "bo17")

	f.borrow(t, dune.ID, ana.ID, "2026-03-02")
	f.borrow(t, emma.ID, ana.ID, "2026-03-20")
	returned := f.borrow(t, dune.ID, bo.ID, "2026-03-05")
	_, err := f.loans.ReturnBook(f.ctx, returned.ID)
	require.NoError(t, err)

	all, total, err := f.loans.ListBorrows(f.ctx, &services.ListBorrowsInput{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)

	_, total, err = f.loans.ListBorrows(f.ctx, &services.ListBorrowsInput{Status: "borrowed", PatronID: ana.ID, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	_, total, err = f.loans.ListBorrows(f.ctx, &services.ListBorrowsInput{Status: "RETURNED", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, _, err = f.loans.ListBorrows(f.ctx, &services.ListBorrowsInput{Status: "lost"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Move the clock forward: only the Dune loan to Ana is overdue
	f.loans.WithClock(func() time.Time { return clock.AddDate(0, 0, 4) })
	overdue, total, err := f.loans.ListOverdue(f.ctx, 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, dune.ID, overdue[0].BookID)
	assert.Equal(t, domain.FineQuote{DaysOverdue: 4, Amount: 4000}, f.loans.FineFor(overdue[0], f.loans.Now()))
}

func TestReconcileCounters(t *testing.T) {
	f := newLedger(t)
	book := testdb.Book(t, f.db, "Dune", 2)
	ana := testdb.Patron(t, f.db, "Ana Souza", "an42")
	bo := testdb.Patron(t, f.db, "Bo Lee", "bo17")
	f.borrow(t, book.ID, ana.ID, "2026-03-16")

	// Drift introduced outside the ledger
	require.NoError(t, f.db.Model(&models.Patron{}).Where("id = ?", ana.ID).Update("borrowed_count", 5).Error)
	require.NoError(t, f.db.Model(&models.Patron{}).Where("id = ?", bo.ID).Update("borrowed_count", 2).Error)
	require.NoError(t, f.db.Model(&models.Book{}).Where("id = ?", book.ID).Update("available", 9).Error)

	report, err := f.loans.ReconcileCounters(f.ctx)
	require.NoError(t, err)

	assert.Len(t, report.PatronCorrections, 2)
	assert.EqualValues(t, 1, report.BooksClamped)
	assert.Equal(t, 1, f.patron(t, ana.ID).BorrowedCount)
	assert.Equal(t, 0, f.patron(t, bo.ID).BorrowedCount)
	assert.Equal(t, 2, f.book(t, book.ID).Available)

	again, err := f.loans.ReconcileCounters(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, again.PatronCorrections)
	assert.Zero(t, again.BooksClamped)
}

func TestReconcileCounters_SkipsCounterThatMoved(t *testing.T) {
	f := newLedger(t)
	book := testdb.Book(t, f.db, "Dune", 2)
	emma := testdb.Book(t, f.db, "Emma", 1)
	patron := testdb.Patron(t, f.db, "Ana Souza", "an42")
	f.borrow(t, book.ID, patron.ID, "2026-03-16")
	f.borrow(t, emma.ID, patron.ID, "2026-03-16")

	// Reconciliation works from a counter value the row no longer holds
	store := &wrappedStore{Store: f.store, wrap: func(r repositories.Repositories) repositories.Repositories {
		r.Patrons = staleCountPatrons{PatronRepository: r.Patrons, stale: map[string]int{patron.ID: 5}}
		return r
	}}
	loans := services.NewLoanService(store, f.loans.FinePolicy()).WithClock(f.loans.Now)

	report, err := loans.ReconcileCounters(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, report.PatronCorrections)
	assert.Equal(t, 2, f.patron(t, patron.ID).BorrowedCount)
}

func TestLedger_CountersMatchActiveLoans(t *testing.T) {
	f := newLedger(t)
	books := []*models.Book{testdb.Book(t, f.db, "Dune", 2), testdb.Book(t, f.db, "Emma", 1)}
	patrons := []*models.Patron{testdb.Patron(t, f.db, "Ana Souza", "an42"), testdb.Patron(t, f.db, "Bo Lee", "bo17")}

	var ids []string
	for _, b := range books {
		for _, p := range patrons {
			borrow, err := f.loans.BorrowBook(f.ctx, &services.BorrowInput{BookRef: b.ID, PatronRef: p.ID, DueDate: "2026-03-10"})
			if err == nil {
				ids = append(ids, borrow.ID)
			}
		}
	}
	require.Len(t, ids, 3)
	_, err := f.loans.ReturnBook(f.ctx, ids[0])
	require.NoError(t, err)

	for _, b := range books {
		stored := f.book(t, b.ID)
		var active int64
		require.NoError(t, f.db.Model(&models.Borrow{}).Where("book_id = ? AND status = ?", b.ID, "borrowed").Count(&active).Error)
		assert.EqualValues(t, stored.Quantity-int(active), stored.Available, stored.Title)
		assert.GreaterOrEqual(t, stored.Available, 0)
	}
	for _, p := range patrons {
		var active int64
		require.NoError(t, f.db.Model(&models.Borrow{}).Where("patron_id = ? AND status = ?", p.ID, "borrowed").Count(&active).Error)
		assert.EqualValues(t, active, f.patron(t, p.ID).BorrowedCount)
	}
}
