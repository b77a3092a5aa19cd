package domain_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/libraryhub/circulation/internal/core/domain"
)

func TestAdjustAvailability(t *testing.T) {
	tests := []struct {
		name                  string
		available, oldQ, newQ int
		want                  int
	}{
		{"grow stock", 2, 5, 8, 5},
		{"shrink stock", 4, 5, 3, 2},
		{"shrink below copies on loan clamps to zero", 1, 5, 2, 0},
		{"shrink to zero", 3, 3, 0, 0},
		{"anomalous available above quantity is clamped", 9, 5, 6, 6},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := domain.AdjustAvailability(tc.available, tc.oldQ, tc.newQ)
			assert.Equal(t, tc.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, tc.newQ)
		})
	}
}

func TestReturnCountersAreClamped(t *testing.T) {
	assert.Equal(t, 1, domain.AvailableAfterReturn(1, 1), "quantity edited down while on loan")
	assert.Equal(t, 3, domain.AvailableAfterReturn(2, 5))
	assert.Equal(t, 0, domain.BorrowedCountAfterReturn(0))
	assert.Equal(t, 2, domain.BorrowedCountAfterReturn(3))
	assert.Equal(t, 0, domain.ClampAvailable(-2, 4))
}

func TestPatronCodePrefix(t *testing.T) {
	assert.Equal(t, "an", domain.PatronCodePrefix("Ana Souza"))
	assert.Equal(t, "jo", domain.PatronCodePrefix("  J. O'Neil"))
	assert.Equal(t, "qx", domain.PatronCodePrefix("Q"))
	assert.Equal(t, "xx", domain.PatronCodePrefix("42 !!"))
	assert.Equal(t, "xx", domain.PatronCodePrefix(""))
}

func TestPatronCode(t *testing.T) {
	for r := 0; r < 500; r++ {
		code := domain.PatronCode("ab", domain.RandomPatronNumber(r))
		assert.Len(t, code, 4)
		assert.True(t, strings.HasPrefix(code, "ab"))
		assert.GreaterOrEqual(t, code[2:], "10")
		assert.LessOrEqual(t, code[2:], "99")
	}

	fallback := domain.FallbackPatronCode("ab", time.UnixMilli(1760000000123))
	assert.Equal(t, "ab1760000000123", fallback)
}

func TestErrorKinds(t *testing.T) {
	assert.ErrorIs(t, domain.ErrBookNotFound, domain.ErrNotFound)
	assert.ErrorIs(t, domain.ErrAlreadyReturned, domain.ErrInvalidState)
	assert.ErrorIs(t, domain.ErrBookUnavailable, domain.ErrUnavailable)
	assert.ErrorIs(t, domain.InvalidInput("due_date", "is required"), domain.ErrInvalidInput)

	storeErr := domain.StoreError("load book", errors.New("connection refused"))
	assert.ErrorIs(t, storeErr, domain.ErrStoreUnavailable)
	assert.True(t, domain.IsRetryable(storeErr))
	assert.True(t, domain.IsRetryable(domain.ErrConflict))
	assert.False(t, domain.IsRetryable(domain.ErrBookUnavailable))
	assert.Nil(t, domain.StoreError("noop", nil))
}
