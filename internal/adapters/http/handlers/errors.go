package handlers

import (
	"errors"
	"log"

	"github.com/libraryhub/circulation/internal/core/domain"
	"github.com/libraryhub/circulation/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// retryAfterSeconds is advertised on failures the client may simply repeat
const retryAfterSeconds = "1"

// respondError maps a service error onto the response envelope.
// Lost races (409) and store outages (503) carry Retry-After.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	if domain.IsRetryable(err) {
		c.Set(fiber.HeaderRetryAfter, retryAfterSeconds)
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return response.ValidationFailed(c, "Validation failed", verr.Fields)
	}

	var ferr *domain.FieldError
	if errors.As(err, &ferr) {
		return response.ValidationFailed(c, err.Error(), map[string]string{ferr.Field: ferr.Reason})
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrUnavailable),
		errors.Is(err, domain.ErrDuplicateActiveLoan),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrConflict):
		return response.Conflict(c, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return response.Unauthorized(c, err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		log.Printf("❌ %s: %v", fallback, err)
		return response.ServiceUnavailable(c, "Storage temporarily unavailable, please retry")
	default:
		log.Printf("❌ %s: %v", fallback, err)
		return response.InternalServerError(c, fallback)
	}
}
