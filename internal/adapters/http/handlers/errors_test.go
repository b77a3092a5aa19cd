package handlers

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/libraryhub/circulation/internal/core/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError_StatusAndRetryAfter(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		status     int
		retryAfter string
	}{
		{"not found", domain.ErrBorrowNotFound, fiber.StatusNotFound, ""},
		{"field error", domain.InvalidInput("additional_days", "must be at most 365 days"), fiber.StatusBadRequest, ""},
		{"unavailable", domain.ErrBookUnavailable, fiber.StatusConflict, ""},
		{"duplicate loan", domain.ErrDuplicateActiveLoan, fiber.StatusConflict, ""},
		{"already returned", domain.ErrAlreadyReturned, fiber.StatusConflict, ""},
		{"lost race", domain.ErrConflict, fiber.StatusConflict, "1"},
		{"store down", domain.StoreError("borrow book", errors.New("connection refused")), fiber.StatusServiceUnavailable, "1"},
		{"unexpected", errors.New("boom"), fiber.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return respondError(c, tt.err, "Failed")
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.retryAfter, resp.Header.Get(fiber.HeaderRetryAfter))
		})
	}
}
