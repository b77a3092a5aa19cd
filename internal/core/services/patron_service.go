package services

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/libraryhub/circulation/internal/adapters/persistence/models"
	"github.com/libraryhub/circulation/internal/adapters/persistence/repositories"
	"github.com/libraryhub/circulation/internal/core/domain"
	"github.com/libraryhub/circulation/internal/pkg/validator"

	"gorm.io/gorm"
)

// DefaultPatronCodeAttempts bounds random short-code draws before the fallback
const DefaultPatronCodeAttempts = 10

// PatronService handles patron registration and lookup
type PatronService struct {
	store    repositories.Store
	attempts int
	intn     func(n int) int
	now      func() time.Time
}

// NewPatronService creates a new patron service
func NewPatronService(store repositories.Store, attempts int) *PatronService {
	if attempts < 1 {
		attempts = DefaultPatronCodeAttempts
	}
	return &PatronService{
		store:    store,
		attempts: attempts,
		intn:     rand.Intn,
		now:      time.Now,
	}
}

// WithRandom replaces the random source used for short codes
func (s *PatronService) WithRandom(intn func(n int) int) *PatronService {
	s.intn = intn
	return s
}

// WithClock replaces the time source used by the fallback code
func (s *PatronService) WithClock(now func() time.Time) *PatronService {
	s.now = now
	return s
}

// RegisterPatronInput represents patron registration request
type RegisterPatronInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	IDNumber string `json:"id_number"` // optional, generated when empty
}

// RegisterPatron creates a patron with a unique short code
func (s *PatronService) RegisterPatron(ctx context.Context, input *RegisterPatronInput) (*domain.Patron, error) {
	patron := &models.Patron{
		Name:     strings.TrimSpace(input.Name),
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:    strings.TrimSpace(input.Phone),
		IDNumber: strings.ToLower(strings.TrimSpace(input.IDNumber)),
	}

	v := validator.New()
	v.Check(validator.NotBlank(patron.Name), "name", "must be provided")
	v.Check(validator.MaxChars(patron.Name, 150), "name", "must not be more than 150 characters long")
	if patron.Email != "" {
		v.Check(validator.Matches(patron.Email, validator.EmailRX), "email", "must be a valid email address")
	}
	v.Check(validator.MaxChars(patron.Phone, 30), "phone", "must not be more than 30 characters long")
	if patron.IDNumber != "" {
		v.Check(validator.Matches(patron.IDNumber, validator.PatronCodeRX), "id_number", "must be 2-32 lowercase letters or digits")
	}
	if !v.Valid() {
		return nil, domain.NewValidationError(v.Errors)
	}

	repo := s.store.Repositories().Patrons
	supplied := patron.IDNumber != ""

	if supplied {
		taken, err := repo.ExistsByIDNumber(ctx, patron.IDNumber)
		if err != nil {
			return nil, domain.StoreError("check patron code", err)
		}
		if taken {
			return nil, domain.InvalidInput("id_number", "is already in use")
		}
	} else {
		code, err := s.GenerateIDNumber(ctx, patron.Name)
		if err != nil {
			return nil, err
		}
		patron.IDNumber = code
	}

	err := repo.Create(ctx, patron)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		if supplied {
			return nil, domain.InvalidInput("id_number", "is already in use")
		}
		// Lost a race for the code; the timestamp fallback is effectively unique
		patron.ID = ""
		patron.IDNumber = domain.FallbackPatronCode(domain.PatronCodePrefix(patron.Name), s.now())
		err = repo.Create(ctx, patron)
	}
	if err != nil {
		return nil, domain.StoreError("create patron", err)
	}

	log.Printf("🪪 Patron registered: %s (%s)", patron.Name, patron.IDNumber)
	return patron.ToDomain(), nil
}

// GenerateIDNumber draws prefix+NN codes until one is free, then falls back to
// prefix+unix-millis.
func (s *PatronService) GenerateIDNumber(ctx context.Context, name string) (string, error) {
	prefix := domain.PatronCodePrefix(name)
	repo := s.store.Repositories().Patrons

	for i := 0; i < s.attempts; i++ {
		code := domain.PatronCode(prefix, domain.RandomPatronNumber(s.intn(90)))
		taken, err := repo.ExistsByIDNumber(ctx, code)
		if err != nil {
			return "", domain.StoreError("check patron code", err)
		}
		if !taken {
			return code, nil
		}
	}

	log.Printf("⚠️ Patron code space for '%s' exhausted after %d attempts, using fallback", prefix, s.attempts)
	return domain.FallbackPatronCode(prefix, s.now()), nil
}

// GetPatron resolves a patron by id or short code
func (s *PatronService) GetPatron(ctx context.Context, ref string) (*domain.Patron, error) {
	patron, err := resolvePatron(ctx, s.store.Repositories().Patrons, ref)
	if err != nil {
		return nil, txError("load patron", err)
	}
	return patron.ToDomain(), nil
}

// ListPatrons lists patrons with pagination
func (s *PatronService) ListPatrons(ctx context.Context, search string, offset, limit int) ([]*domain.Patron, int64, error) {
	rows, total, err := s.store.Repositories().Patrons.List(ctx, strings.TrimSpace(search), offset, limit)
	if err != nil {
		return nil, 0, domain.StoreError("list patrons", err)
	}

	patrons := make([]*domain.Patron, len(rows))
	for i, row := range rows {
		patrons[i] = row.ToDomain()
	}
	return patrons, total, nil
}
