package jwt_test

import (
	"testing"
	"time"

	"github.com/libraryhub/circulation/internal/pkg/jwt"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := jwt.GenerateAccessToken("u-1", "alice", "admin", secret, 15)
	require.NoError(t, err)

	claims, err := jwt.ValidateAccessToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "u-1", claims.Subject)
}

func TestValidateAccessTokenFailures(t *testing.T) {
	valid, err := jwt.GenerateAccessToken("u-1", "alice", "staff", secret, 15)
	require.NoError(t, err)

	expired, err := jwt.GenerateAccessToken("u-1", "alice", "staff", secret, -5)
	require.NoError(t, err)

	foreign := gojwt.NewWithClaims(gojwt.SigningMethodHS256, jwt.Claims{
		UserID: "u-1",
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	foreignToken, err := foreign.SignedString([]byte(secret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		key   string
		want  error
	}{
		{"wrong secret", valid, "other-secret", jwt.ErrTokenInvalid},
		{"expired", expired, secret, jwt.ErrTokenExpired},
		{"garbage", "not.a.token", secret, jwt.ErrTokenInvalid},
		{"wrong issuer", foreignToken, secret, jwt.ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := jwt.ValidateAccessToken(tt.token, tt.key)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
