package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libraryhub/circulation/internal/core/domain"
)

func testPolicy(t *testing.T) domain.FinePolicy {
	t.Helper()
	return domain.NewFinePolicy(1000, time.UTC)
}

func TestCalculateFine_Boundaries(t *testing.T) {
	policy := testPolicy(t)
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, domain.FineQuote{}, policy.Calculate(due, due), "due date itself is not overdue")
	assert.Equal(t, domain.FineQuote{}, policy.Calculate(due, due.AddDate(0, 0, -1)), "before due date")
	assert.Equal(t, domain.FineQuote{DaysOverdue: 1, Amount: 1000}, policy.Calculate(due, due.AddDate(0, 0, 1)))
}

func TestCalculateFine_IgnoresTimeOfDay(t *testing.T) {
	policy := testPolicy(t)
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	lateSameDay := time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC)
	assert.Zero(t, policy.Calculate(due, lateSameDay).Amount)

	earlyNextDay := time.Date(2026, 3, 11, 0, 0, 1, 0, time.UTC)
	assert.Equal(t, 1, policy.Calculate(due, earlyNextDay).DaysOverdue, "any part of a day counts in full")

	dueWithTime := time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, 2, policy.Calculate(dueWithTime, time.Date(2026, 3, 12, 1, 0, 0, 0, time.UTC)).DaysOverdue)
}

func TestCalculateFine_IsPureAndMonotonic(t *testing.T) {
	policy := testPolicy(t)
	due := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	first := policy.Calculate(due, due.AddDate(0, 0, 5))
	second := policy.Calculate(due, due.AddDate(0, 0, 5))
	assert.Equal(t, first, second)

	prev := int64(0)
	for h := -72; h < 24*40; h += 7 {
		at := due.Add(time.Duration(h) * time.Hour)
		fine := policy.Calculate(due, at).Amount
		assert.GreaterOrEqual(t, fine, prev, "fine must not decrease at %s", at)
		assert.GreaterOrEqual(t, fine, int64(0))
		prev = fine
	}
}

func TestCalculateFine_AcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	policy := domain.NewFinePolicy(5000, loc)

	// DST starts on 2026-03-08 in New York; that calendar day has 23 hours.
	due := time.Date(2026, 3, 7, 0, 0, 0, 0, loc)
	at := time.Date(2026, 3, 9, 0, 30, 0, 0, loc)

	quote := policy.Calculate(due, at)
	assert.Equal(t, 2, quote.DaysOverdue)
	assert.Equal(t, int64(10000), quote.Amount)
}

func TestCalculateFine_UsesPolicyLocation(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	policy := domain.NewFinePolicy(1000, loc)
	due := time.Date(2026, 5, 1, 0, 0, 0, 0, loc)

	// 18:00 UTC on May 1st is already May 2nd in UTC+7.
	at := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, policy.Calculate(due, at).DaysOverdue)
}

func TestNewFinePolicy_Defaults(t *testing.T) {
	policy := domain.NewFinePolicy(-1, nil)
	assert.Equal(t, domain.DefaultFineRatePerDay, policy.RatePerDay)
	assert.Equal(t, time.UTC, policy.Location)
}

func TestParseDueDate(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)

	got, err := domain.ParseDueDate("2026-10-20", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 20, 0, 0, 0, 0, loc), got)

	got, err = domain.ParseDueDate("2026-10-20T15:04:05Z", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 20, 0, 0, 0, 0, loc), got)

	_, err = domain.ParseDueDate("", loc)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = domain.ParseDueDate("20/10/2026", loc)
	var fieldErr *domain.FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "due_date", fieldErr.Field)
}
