package services_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/libraryhub/circulation/internal/adapters/persistence/repositories"
	"github.com/libraryhub/circulation/internal/adapters/persistence/testdb"
	"github.com/libraryhub/circulation/internal/core/domain"
	"github.com/libraryhub/circulation/internal/core/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var shortCodeRX = regexp.MustCompile(`^[a-z]{2}[1-9][0-9]$`)

func TestRegisterPatron_GeneratesShortCode(t *testing.T) {
	db := testdb.Open(t)
	patrons := services.NewPatronService(repositories.NewStore(db), 10)

	patron, err := patrons.RegisterPatron(context.Background(), &services.RegisterPatronInput{
		Name:  "Ana Souza",
		Email: "Ana@Example.com ",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, patron.ID)
	assert.Regexp(t, shortCodeRX, patron.IDNumber)
	assert.Equal(t, "an", patron.IDNumber[:2])
	assert.Equal(t, "ana@example.com", patron.Email)
	assert.Zero(t, patron.BorrowedCount)

	byCode, err := patrons.GetPatron(context.Background(), patron.IDNumber)
	require.NoError(t, err)
	assert.Equal(t, patron.ID, byCode.ID)
}

func TestRegisterPatron_SuppliedCode(t *testing.T) {
	db := testdb.Open(t)
	patrons := services.NewPatronService(repositories.NewStore(db), 10)
	ctx := context.Background()

	patron, err := patrons.RegisterPatron(ctx, &services.RegisterPatronInput{Name: "Ana Souza", IDNumber: "ANA2026"})
	require.NoError(t, err)
	assert.Equal(t, "ana2026", patron.IDNumber)

	_, err = patrons.RegisterPatron(ctx, &services.RegisterPatronInput{Name: "Another Ana", IDNumber: "ana2026"})
	var fieldErr *domain.FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "id_number", fieldErr.Field)
}

func TestRegisterPatron_Validation(t *testing.T) {
	db := testdb.Open(t)
	patrons := services.NewPatronService(repositories.NewStore(db), 10)

	_, err := patrons.RegisterPatron(context.Background(), &services.RegisterPatronInput{
		Name:     " ",
		Email:    "not-an-email",
		IDNumber: "has space",
	})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "id_number")
}

func TestGenerateIDNumber_RetriesOnCollision(t *testing.T) {
	db := testdb.Open(t)
	testdb.Patron(t, db, "Ana Souza", "an10")
	testdb.Patron(t, db, "Anabel Ruiz", "an11")

	// Draws 0, 1, 2 map to 10, 11, 12
	draws := []int{0, 1, 2}
	next := 0
	patrons := services.NewPatronService(repositories.NewStore(db), 10).
		WithRandom(func(int) int { n := draws[next]; next++; return n })

	code, err := patrons.GenerateIDNumber(context.Background(), "Ana Lima")
	require.NoError(t, err)
	assert.Equal(t, "an12", code)
	assert.Equal(t, 3, next)
}

func TestGenerateIDNumber_FallbackAfterAttempts(t *testing.T) {
	db := testdb.Open(t)
	testdb.Patron(t, db, "Ana Souza", "an10")

	now := time.UnixMilli(1760000000123)
	calls := 0
	patrons := services.NewPatronService(repositories.NewStore(db), 3).
		WithRandom(func(int) int { calls++; return 0 }).
		WithClock(func() time.Time { return now })

	code, err := patrons.GenerateIDNumber(context.Background(), "Ana Lima")
	require.NoError(t, err)
	assert.Equal(t, "an1760000000123", code)
	assert.Equal(t, 3, calls)
}

func TestRegisterPatron_FallsBackWhenCodeTakenAtInsert(t *testing.T) {
	db := testdb.Open(t)
	testdb.Patron(t, db, "Ana Souza", "an12")

	store := &wrappedStore{Store: repositories.NewStore(db), wrap: func(r repositories.Repositories) repositories.Repositories {
		r.Patrons = codeBlindPatrons{r.Patrons}
		return r
	}}
	now := time.UnixMilli(1760000000456)
	patrons := services.NewPatronService(store, 10).
		WithRandom(func(int) int { return 2 }).
		WithClock(func() time.Time { return now })

	patron, err := patrons.RegisterPatron(context.Background(), &services.RegisterPatronInput{Name: "Ana Lima"})
	require.NoError(t, err)
	assert.Equal(t, "an1760000000456", patron.IDNumber)
	assert.NotEmpty(t, patron.ID)

	// A supplied code that loses the same race is reported, not replaced
	_, err = patrons.RegisterPatron(context.Background(), &services.RegisterPatronInput{Name: "Ana Costa", IDNumber: "an12"})
	var fieldErr *domain.FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "id_number", fieldErr.Field)
}

func TestListPatrons_Search(t *testing.T) {
	db := testdb.Open(t)
	testdb.Patron(t, db, "Ana Souza", "an10")
	testdb.Patron(t, db, "Bo Lee", "bo11")
	patrons := services.NewPatronService(repositories.NewStore(db), 10)

	list, total, err := patrons.ListPatrons(context.Background(), "souza", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "Ana Souza", list[0].Name)

	_, err = patrons.GetPatron(context.Background(), "zz99")
	assert.ErrorIs(t, err, domain.ErrPatronNotFound)
}
