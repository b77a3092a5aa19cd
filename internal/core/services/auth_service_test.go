package services_test

import (
	"context"
	"testing"

	"github.com/libraryhub/circulation/internal/adapters/persistence/models"
	"github.com/libraryhub/circulation/internal/adapters/persistence/repositories"
	"github.com/libraryhub/circulation/internal/adapters/persistence/testdb"
	"github.com/libraryhub/circulation/internal/config"
	"github.com/libraryhub/circulation/internal/core/domain"
	"github.com/libraryhub/circulation/internal/core/services"
	"github.com/libraryhub/circulation/internal/pkg/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	staff := repositories.NewStaffRepository(db)
	auth := services.NewAuthService(staff, config.JWTConfig{Secret: "test-secret", AccessTokenMins: 15})

	hash, err := password.HashWithCost("correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.StaffUser{Username: "librarian", Password: hash, Role: string(domain.RoleLibrarian), IsActive: true}
	require.NoError(t, staff.Create(ctx, user))

	res, err := auth.Login(ctx, &services.LoginInput{Username: "librarian", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, 900, res.ExpiresIn)
	assert.Equal(t, domain.RoleLibrarian, res.User.Role)

	claims, err := auth.ValidateAccessToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "LIBRARIAN", claims.Role)

	_, err = auth.Login(ctx, &services.LoginInput{Username: "librarian", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = auth.Login(ctx, &services.LoginInput{Username: "nobody", Password: "correct horse"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, db.Model(&models.StaffUser{}).Where("id = ?", user.ID).Update("is_active", false).Error)
	_, err = auth.Login(ctx, &services.LoginInput{Username: "librarian", Password: "correct horse"})
	assert.ErrorIs(t, err, domain.ErrAccountDisabled)
}

func TestAuthService_CreateStaff(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	auth := services.NewAuthService(repositories.NewStaffRepository(db), config.JWTConfig{Secret: "s", AccessTokenMins: 5})

	user, err := auth.CreateStaff(ctx, &services.CreateStaffInput{Username: "desk1", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleLibrarian, user.Role)

	_, err = auth.CreateStaff(ctx, &services.CreateStaffInput{Username: "desk1", Password: "longenough"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = auth.CreateStaff(ctx, &services.CreateStaffInput{Username: "desk2", Password: "short", Role: "janitor"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "password")
	assert.Contains(t, verr.Fields, "role")
}
