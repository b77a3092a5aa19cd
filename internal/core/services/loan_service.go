package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/libraryhub/circulation/internal/adapters/persistence/models"
	"github.com/libraryhub/circulation/internal/adapters/persistence/repositories"
	"github.com/libraryhub/circulation/internal/core/domain"

	"gorm.io/gorm"
)

// LoanService owns the borrow/return/extend lifecycle. Every operation runs as a
// single store transaction so the book counter, the patron counter and the
// borrow record move together.
type LoanService struct {
	store repositories.Store
	fines domain.FinePolicy
	now   func() time.Time
}

// NewLoanService creates a new loan service
func NewLoanService(store repositories.Store, fines domain.FinePolicy) *LoanService {
	return &LoanService{
		store: store,
		fines: fines,
		now:   time.Now,
	}
}

// WithClock replaces the time source, for tests and batch jobs
func (s *LoanService) WithClock(now func() time.Time) *LoanService {
	s.now = now
	return s
}

// Now returns the service clock reading
func (s *LoanService) Now() time.Time {
	return s.now()
}

// FinePolicy returns the configured fine policy
func (s *LoanService) FinePolicy() domain.FinePolicy {
	return s.fines
}

// BorrowInput represents borrow book request
type BorrowInput struct {
	BookRef   string `json:"book" validate:"required"`   // book id or ISBN
	PatronRef string `json:"patron" validate:"required"` // patron id or short code
	DueDate   string `json:"due_date" validate:"required"`
}

// ReturnResult is a closed loan with the fine charged at return
type ReturnResult struct {
	Borrow *domain.Borrow
	Fine   domain.FineQuote
}

// BorrowBook lends one copy of a book to a patron
func (s *LoanService) BorrowBook(ctx context.Context, input *BorrowInput) (*domain.Borrow, error) {
	now := s.now()
	var created *models.Borrow

	err := s.store.Transaction(ctx, func(repos repositories.Repositories) error {
		// 1. Resolve book (locked until commit)
		book, err := s.resolveBook(ctx, repos.Books, input.BookRef)
		if err != nil {
			return err
		}

		// 2. Resolve patron
		patron, err := resolvePatron(ctx, repos.Patrons, input.PatronRef)
		if err != nil {
			return err
		}

		// 3. Validate due date
		dueDate, err := domain.ParseDueDate(input.DueDate, s.fines.Location)
		if err != nil {
			return err
		}
		if dueDate.Before(s.fines.Today(now)) {
			return domain.InvalidInput("due_date", "must be today or later")
		}

		// 4. Check availability
		if book.Available <= 0 {
			return domain.ErrBookUnavailable
		}

		// 5. Check duplicate active loan
		existing, err := repos.Borrows.GetActive(ctx, book.ID, patron.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicateActiveLoan
		}

		// 6. Take the copy off the shelf (compare-and-set on available)
		ok, err := repos.Books.DecrementAvailable(ctx, book.ID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrConflict
		}

		// 7. Record the loan
		activeKey := domain.ActiveKey(book.ID, patron.ID)
		borrow := &models.Borrow{
			BookID:        book.ID,
			BookTitle:     book.Title,
			BookISBN:      book.ISBN,
			PatronID:      patron.ID,
			PatronName:    patron.Name,
			PatronContact: patron.ToDomain().Contact(),
			BorrowDate:    now,
			DueDate:       dueDate,
			Status:        string(domain.StatusBorrowed),
			ActiveKey:     &activeKey,
		}
		if err := repos.Borrows.Create(ctx, borrow); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrDuplicateActiveLoan
			}
			return err
		}

		// 8. Count the loan against the patron
		if err := repos.Patrons.IncrementBorrowed(ctx, patron.ID); err != nil {
			return err
		}

		created = borrow
		return nil
	})
	if err != nil {
		return nil, txError("borrow book", err)
	}

	log.Printf("📚 Book lent: %s → %s (due %s)", created.BookTitle, created.PatronName, created.DueDate.Format(domain.DateLayout))
	return created.ToDomain(), nil
}

// ReturnBook closes a loan now
func (s *LoanService) ReturnBook(ctx context.Context, borrowID string) (*ReturnResult, error) {
	return s.ReturnBookAt(ctx, borrowID, s.now())
}

// ReturnBookAt closes a loan at returnTime and charges the final fine
func (s *LoanService) ReturnBookAt(ctx context.Context, borrowID string, returnTime time.Time) (*ReturnResult, error) {
	var result *ReturnResult

	err := s.store.Transaction(ctx, func(repos repositories.Repositories) error {
		borrow, err := repos.Borrows.GetByIDForUpdate(ctx, borrowID)
		if err != nil {
			return lookupError("load borrow", err, domain.ErrBorrowNotFound)
		}
		if borrow.Status != string(domain.StatusBorrowed) {
			return domain.ErrAlreadyReturned
		}

		fine := s.fines.Calculate(borrow.DueDate, returnTime)

		ok, err := repos.Borrows.MarkReturned(ctx, borrow.ID, returnTime, fine.Amount)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrAlreadyReturned
		}

		// Put the copy back, never above quantity
		book, err := repos.Books.GetByIDForUpdate(ctx, borrow.BookID)
		if err != nil {
			return lookupError("load book", err, domain.ErrBookNotFound)
		}
		if err := repos.Books.SetAvailable(ctx, book.ID, domain.AvailableAfterReturn(book.Available, book.Quantity)); err != nil {
			return err
		}

		// Release the loan from the patron counter, never below zero
		patron, err := repos.Patrons.GetByIDForUpdate(ctx, borrow.PatronID)
		if err != nil {
			return lookupError("load patron", err, domain.ErrPatronNotFound)
		}
		count := patron.BorrowedCount
		if _, err := repos.Patrons.SetBorrowedCount(ctx, patron.ID, count, domain.BorrowedCountAfterReturn(count)); err != nil {
			return err
		}

		updated, err := repos.Borrows.GetByID(ctx, borrow.ID)
		if err != nil {
			return err
		}

		result = &ReturnResult{Borrow: updated.ToDomain(), Fine: fine}
		return nil
	})
	if err != nil {
		return nil, txError("return book", err)
	}

	if result.Fine.Amount > 0 {
		log.Printf("📕 Book returned late: %s by %s (%d days, fine %d)",
			result.Borrow.BookTitle, result.Borrow.PatronName, result.Fine.DaysOverdue, result.Fine.Amount)
	} else {
		log.Printf("📗 Book returned: %s by %s", result.Borrow.BookTitle, result.Borrow.PatronName)
	}
	return result, nil
}

// ExtendDueDate pushes the due date of an active loan forward by whole calendar days
func (s *LoanService) ExtendDueDate(ctx context.Context, borrowID string, additionalDays int) (*domain.Borrow, error) {
	if additionalDays < 1 {
		return nil, domain.InvalidInput("additional_days", "must be a positive number of days")
	}
	if additionalDays > domain.MaxExtensionDays {
		return nil, domain.InvalidInput("additional_days", fmt.Sprintf("must be at most %d days", domain.MaxExtensionDays))
	}

	var extended *models.Borrow
	err := s.store.Transaction(ctx, func(repos repositories.Repositories) error {
		borrow, err := repos.Borrows.GetByIDForUpdate(ctx, borrowID)
		if err != nil {
			return lookupError("load borrow", err, domain.ErrBorrowNotFound)
		}
		if borrow.Status != string(domain.StatusBorrowed) {
			return domain.ErrAlreadyReturned
		}

		dueDate := domain.StartOfDay(borrow.DueDate, s.fines.Location).AddDate(0, 0, additionalDays)
		ok, err := repos.Borrows.UpdateDueDate(ctx, borrow.ID, dueDate)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrAlreadyReturned
		}

		extended, err = repos.Borrows.GetByID(ctx, borrow.ID)
		return err
	})
	if err != nil {
		return nil, txError("extend due date", err)
	}

	log.Printf("📅 Loan extended: %s by %d day(s), now due %s", extended.ID, additionalDays, extended.DueDate.Format(domain.DateLayout))
	return extended.ToDomain(), nil
}

// GetBorrow gets a borrow by ID
func (s *LoanService) GetBorrow(ctx context.Context, borrowID string) (*domain.Borrow, error) {
	borrow, err := s.store.Repositories().Borrows.GetByID(ctx, borrowID)
	if err != nil {
		return nil, lookupError("load borrow", err, domain.ErrBorrowNotFound)
	}
	return borrow.ToDomain(), nil
}

// QuoteFine returns the fine of a loan at the given time.
// Returned loans report the fine charged at return.
func (s *LoanService) QuoteFine(ctx context.Context, borrowID string, at time.Time) (*domain.Borrow, domain.FineQuote, error) {
	borrow, err := s.GetBorrow(ctx, borrowID)
	if err != nil {
		return nil, domain.FineQuote{}, err
	}
	return borrow, s.FineFor(borrow, at), nil
}

// FineFor computes the live fine of an active loan, or the charged fine of a returned one
func (s *LoanService) FineFor(borrow *domain.Borrow, at time.Time) domain.FineQuote {
	if borrow.IsActive() {
		return s.fines.Calculate(borrow.DueDate, at)
	}
	quote := domain.FineQuote{Amount: borrow.FineAmount}
	if borrow.ReturnDate != nil {
		quote.DaysOverdue = max(0, domain.DaysBetween(s.fines.Location, borrow.DueDate, *borrow.ReturnDate))
	}
	return quote
}

// ListBorrowsInput represents loan ledger query
type ListBorrowsInput struct {
	Status      string
	PatronID    string
	BookID      string
	OverdueOnly bool
	Offset      int
	Limit       int
}

// ListBorrows lists loans
func (s *LoanService) ListBorrows(ctx context.Context, input *ListBorrowsInput) ([]*domain.Borrow, int64, error) {
	filter := repositories.BorrowFilter{
		Status:   strings.ToLower(input.Status),
		PatronID: input.PatronID,
		BookID:   input.BookID,
	}
	if filter.Status != "" && filter.Status != string(domain.StatusBorrowed) && filter.Status != string(domain.StatusReturned) {
		return nil, 0, domain.InvalidInput("status", "must be 'borrowed' or 'returned'")
	}
	if input.OverdueOnly {
		today := s.fines.Today(s.now())
		filter.Status = string(domain.StatusBorrowed)
		filter.DueBefore = &today
	}

	rows, total, err := s.store.Repositories().Borrows.List(ctx, filter, input.Offset, input.Limit)
	if err != nil {
		return nil, 0, domain.StoreError("list borrows", err)
	}

	borrows := make([]*domain.Borrow, len(rows))
	for i, row := range rows {
		borrows[i] = row.ToDomain()
	}
	return borrows, total, nil
}

// ListOverdue lists active loans past their due date as of now
func (s *LoanService) ListOverdue(ctx context.Context, offset, limit int) ([]*domain.Borrow, int64, error) {
	return s.ListBorrows(ctx, &ListBorrowsInput{OverdueOnly: true, Offset: offset, Limit: limit})
}

// CounterCorrection records one patron counter fixed by reconciliation
type CounterCorrection struct {
	PatronID string `json:"patron_id"`
	From     int    `json:"from"`
	To       int    `json:"to"`
}

// ReconcileReport summarizes a reconciliation run
type ReconcileReport struct {
	PatronCorrections []CounterCorrection `json:"patron_corrections"`
	BooksClamped      int64               `json:"books_clamped"`
}

// ReconcileCounters recomputes every patron's active-loan counter from the ledger
// and clamps book availability into [0, quantity]. Rows are locked books first,
// then patrons, the same order BorrowBook and ReturnBook take them.
func (s *LoanService) ReconcileCounters(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{PatronCorrections: []CounterCorrection{}}

	err := s.store.Transaction(ctx, func(repos repositories.Repositories) error {
		books, err := repos.Books.LockOutOfRange(ctx)
		if err != nil {
			return err
		}
		for _, book := range books {
			if err := repos.Books.SetAvailable(ctx, book.ID, domain.ClampAvailable(book.Available, book.Quantity)); err != nil {
				return err
			}
			report.BooksClamped++
		}

		// Lock counters before counting loans so no borrow or return commits in between
		stored, err := repos.Patrons.LockBorrowedCounts(ctx)
		if err != nil {
			return err
		}
		active, err := repos.Borrows.ActiveCountsByPatron(ctx)
		if err != nil {
			return err
		}

		for _, patronID := range slices.Sorted(maps.Keys(stored)) {
			count, want := stored[patronID], active[patronID]
			if count == want {
				continue
			}
			ok, err := repos.Patrons.SetBorrowedCount(ctx, patronID, count, want)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			report.PatronCorrections = append(report.PatronCorrections, CounterCorrection{
				PatronID: patronID,
				From:     count,
				To:       want,
			})
		}
		return nil
	})
	if err != nil {
		return nil, txError("reconcile counters", err)
	}

	if len(report.PatronCorrections) > 0 || report.BooksClamped > 0 {
		log.Printf("🔧 Reconciled counters: %d patron(s) corrected, %d book(s) clamped",
			len(report.PatronCorrections), report.BooksClamped)
	}
	return report, nil
}

// resolveBook finds a book by id, then by ISBN, and locks its row
func (s *LoanService) resolveBook(ctx context.Context, books repositories.BookRepository, ref string) (*models.Book, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, domain.ErrBookNotFound
	}

	book, err := books.GetByIDForUpdate(ctx, ref)
	if err == nil {
		return book, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	matches, err := books.FindByISBN(ctx, ref)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, domain.ErrBookNotFound
	}

	book, err = books.GetByIDForUpdate(ctx, matches[0].ID)
	if err != nil {
		return nil, lookupError("load book", err, domain.ErrBookNotFound)
	}
	return book, nil
}

// resolvePatron finds a patron by id, then by short code
func resolvePatron(ctx context.Context, patrons repositories.PatronRepository, ref string) (*models.Patron, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, domain.ErrPatronNotFound
	}

	patron, err := patrons.GetByID(ctx, ref)
	if err == nil {
		return patron, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	patron, err = patrons.GetByIDNumber(ctx, strings.ToLower(ref))
	if err != nil {
		return nil, lookupError("load patron", err, domain.ErrPatronNotFound)
	}
	return patron, nil
}
