package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/libraryhub/circulation/internal/adapters/persistence/testdb"
	"github.com/libraryhub/circulation/internal/config"
	"github.com/libraryhub/circulation/internal/core/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard_StatsAndOverdue(t *testing.T) {
	ctx := context.Background()
	f := newLedger(t)
	dashboard := services.NewDashboardService(f.store, f.loans)

	dune := testdb.Book(t, f.db, "Dune", 2)
	emma := testdb.Book(t, f.db, "Emma", 1)
	ana := testdb.Patron(t, f.db, "Ana Souza", "an42")
	bo := testdb.Patron(t, f.db, "Bo Lee", "bo17")

	f.borrow(t, dune.ID, ana.ID, "2026-03-03")
	f.borrow(t, emma.ID, ana.ID, "2026-03-05")
	returned := f.borrow(t, dune.ID, bo.ID, "2026-03-10")
	_, err := f.loans.ReturnBook(ctx, returned.ID)
	require.NoError(t, err)

	f.loans.WithClock(func() time.Time { return time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC) })

	stats, err := dashboard.GetStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalTitles)
	assert.EqualValues(t, 3, stats.TotalCopies)
	assert.EqualValues(t, 1, stats.AvailableCopies)
	assert.EqualValues(t, 2, stats.TotalPatrons)
	assert.EqualValues(t, 2, stats.ActiveLoans)
	assert.EqualValues(t, 1, stats.ReturnedLoans)
	assert.EqualValues(t, 2, stats.OverdueLoans)
	assert.EqualValues(t, 3000+1000, stats.OutstandingFines)
	assert.EqualValues(t, 1000, stats.FineRatePerDay)

	overdue, total, err := dashboard.ListOverdue(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, overdue, 2)
	assert.Equal(t, "Dune", overdue[0].Borrow.BookTitle, "most overdue first")
	assert.Equal(t, 3, overdue[0].DaysOverdue)
	assert.EqualValues(t, 3000, overdue[0].Fine)
	assert.Equal(t, 1, overdue[1].DaysOverdue)
}

func TestCronService_RegistersJobs(t *testing.T) {
	f := newLedger(t)
	cron := services.NewCronService(f.loans, config.CronConfig{
		Enabled:          true,
		OverdueSweepSpec: "30 8 * * *",
		ReconcileSpec:    "0 2 * * *",
	}, time.UTC)

	require.NoError(t, cron.Register())
	assert.Equal(t, 2, cron.Entries())

	// Jobs run inline without panicking on an empty ledger
	cron.OverdueSweep()
	cron.Reconcile()

	bad := services.NewCronService(f.loans, config.CronConfig{Enabled: true, OverdueSweepSpec: "not a spec", ReconcileSpec: "0 2 * * *"}, time.UTC)
	assert.Error(t, bad.Register())
}
