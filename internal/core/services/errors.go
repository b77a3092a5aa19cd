package services

import (
	"errors"

	"github.com/libraryhub/circulation/internal/core/domain"

	"gorm.io/gorm"
)

var domainKinds = []error{
	domain.ErrNotFound,
	domain.ErrInvalidInput,
	domain.ErrUnavailable,
	domain.ErrDuplicateActiveLoan,
	domain.ErrInvalidState,
	domain.ErrConflict,
	domain.ErrStoreUnavailable,
	domain.ErrUnauthorized,
}

func isDomainError(err error) bool {
	for _, kind := range domainKinds {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// lookupError maps a missing row to notFound and anything else to a store failure
func lookupError(op string, err error, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return domain.StoreError(op, err)
}

// txError passes domain errors through and wraps infrastructure failures
func txError(op string, err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	return domain.StoreError(op, err)
}
