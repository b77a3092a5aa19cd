package services

import (
	"context"
	"time"

	"github.com/libraryhub/circulation/internal/adapters/persistence/repositories"
	"github.com/libraryhub/circulation/internal/core/domain"
)

// DashboardService handles dashboard operations
type DashboardService struct {
	store repositories.Store
	loans *LoanService
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(store repositories.Store, loans *LoanService) *DashboardService {
	return &DashboardService{store: store, loans: loans}
}

// ============================================================
// Circulation Stats
// ============================================================

// DashboardStats represents circulation counters
type DashboardStats struct {
	// Catalog
	TotalTitles     int64 `json:"total_titles"`
	TotalCopies     int64 `json:"total_copies"`
	AvailableCopies int64 `json:"available_copies"`

	// Patrons
	TotalPatrons int64 `json:"total_patrons"`

	// Loans
	ActiveLoans      int64     `json:"active_loans"`
	OverdueLoans     int64     `json:"overdue_loans"`
	ReturnedLoans    int64     `json:"returned_loans"`
	OutstandingFines int64     `json:"outstanding_fines"`
	FineRatePerDay   int64     `json:"fine_rate_per_day"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// OverdueLoan is an active loan past its due date with its live fine
type OverdueLoan struct {
	Borrow      *domain.Borrow
	DaysOverdue int
	Fine        int64
}

// GetStats returns circulation counters as of now
func (s *DashboardService) GetStats(ctx context.Context) (*DashboardStats, error) {
	repos := s.store.Repositories()
	now := s.loans.Now()
	data := &DashboardStats{
		FineRatePerDay: s.loans.FinePolicy().RatePerDay,
		GeneratedAt:    now,
	}

	totals, err := repos.Books.Totals(ctx)
	if err != nil {
		return nil, domain.StoreError("catalog totals", err)
	}
	data.TotalTitles = totals.Titles
	data.TotalCopies = totals.Copies
	data.AvailableCopies = totals.Available

	if data.TotalPatrons, err = repos.Patrons.Count(ctx); err != nil {
		return nil, domain.StoreError("count patrons", err)
	}

	active := repositories.BorrowFilter{Status: string(domain.StatusBorrowed)}
	if data.ActiveLoans, err = repos.Borrows.Count(ctx, active); err != nil {
		return nil, domain.StoreError("count loans", err)
	}
	returned := repositories.BorrowFilter{Status: string(domain.StatusReturned)}
	if data.ReturnedLoans, err = repos.Borrows.Count(ctx, returned); err != nil {
		return nil, domain.StoreError("count loans", err)
	}

	// Outstanding fines accrue on every overdue loan still out
	overdue, total, err := s.loans.ListOverdue(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	data.OverdueLoans = total
	for _, b := range overdue {
		data.OutstandingFines += s.loans.FineFor(b, now).Amount
	}

	return data, nil
}

// ListOverdue returns overdue loans, most overdue first, with live fines
func (s *DashboardService) ListOverdue(ctx context.Context, offset, limit int) ([]*OverdueLoan, int64, error) {
	borrows, total, err := s.loans.ListOverdue(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	now := s.loans.Now()
	loans := make([]*OverdueLoan, len(borrows))
	for i, b := range borrows {
		quote := s.loans.FineFor(b, now)
		loans[i] = &OverdueLoan{
			Borrow:      b,
			DaysOverdue: quote.DaysOverdue,
			Fine:        quote.Amount,
		}
	}
	return loans, total, nil
}
