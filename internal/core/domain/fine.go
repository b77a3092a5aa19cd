package domain

import (
	"strings"
	"time"
)

// DefaultFineRatePerDay is used when no rate is configured
const DefaultFineRatePerDay int64 = 1000

// MaxExtensionDays bounds a single due-date extension
const MaxExtensionDays = 365

// FinePolicy computes overdue penalties. Dates are compared as calendar
// days in Location, so time of day never matters.
type FinePolicy struct {
	RatePerDay int64
	Location   *time.Location
}

// FineQuote is the result of a fine calculation
type FineQuote struct {
	DaysOverdue int   `json:"days_overdue"`
	Amount      int64 `json:"amount"`
}

// NewFinePolicy creates a fine policy, falling back to the default rate and UTC
func NewFinePolicy(ratePerDay int64, loc *time.Location) FinePolicy {
	if ratePerDay < 0 {
		ratePerDay = DefaultFineRatePerDay
	}
	if loc == nil {
		loc = time.UTC
	}
	return FinePolicy{RatePerDay: ratePerDay, Location: loc}
}

// Calculate returns the fine owed for a loan due on dueDate, evaluated at referenceTime.
// The due date itself is never overdue; every started day after it counts in full.
func (p FinePolicy) Calculate(dueDate, referenceTime time.Time) FineQuote {
	days := DaysBetween(p.location(), dueDate, referenceTime)
	if days <= 0 {
		return FineQuote{}
	}
	return FineQuote{
		DaysOverdue: days,
		Amount:      int64(days) * p.RatePerDay,
	}
}

// Today returns midnight of now's calendar day in the policy location
func (p FinePolicy) Today(now time.Time) time.Time {
	return StartOfDay(now, p.location())
}

func (p FinePolicy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// StartOfDay truncates t to midnight of its calendar day in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DaysBetween returns the number of calendar days from a to b in loc.
// DST transitions do not shift the count.
func DaysBetween(loc *time.Location, a, b time.Time) int {
	return int(civilDay(b, loc) - civilDay(a, loc))
}

func civilDay(t time.Time, loc *time.Location) int64 {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// ParseDueDate parses a YYYY-MM-DD due date into midnight in loc
func ParseDueDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, InvalidInput("due_date", "is required")
	}
	// Accept full timestamps from clients that send ISO strings.
	if len(value) > len(DateLayout) {
		if t, err := time.Parse(time.RFC3339, value); err == nil {
			return StartOfDay(t, loc), nil
		}
	}
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, InvalidInput("due_date", "must be a date in YYYY-MM-DD format")
	}
	return t, nil
}
