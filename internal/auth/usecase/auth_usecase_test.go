package usecase

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authdomain "github.com/ngandimoun/saydo-ai-sub006/internal/auth/domain"
	"github.com/ngandimoun/saydo-ai-sub006/pkg/config"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func sign(t *testing.T, method jwt.SigningMethod, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "0b7c4f2e-1d3a-4e9b-8f00-1234567890ab",
		"email": "ada@example.com",
		"role":  "authenticated",
		"aud":   "authenticated",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func newUsecase() AuthUsecase {
	return NewAuthUsecase(&config.Config{JWTSecret: testSecret, JWTAudience: "authenticated"})
}

func TestValidateToken(t *testing.T) {
	user, err := newUsecase().ValidateToken(sign(t, jwt.SigningMethodHS256, testSecret, validClaims()))
	require.NoError(t, err)

	assert.Equal(t, "0b7c4f2e-1d3a-4e9b-8f00-1234567890ab", user.ID)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, authdomain.RoleAuthenticated, user.Role)
}

func TestValidateTokenServiceRole(t *testing.T) {
	claims := validClaims()
	claims["role"] = authdomain.RoleService

	user, err := newUsecase().ValidateToken(sign(t, jwt.SigningMethodHS256, testSecret, claims))
	require.NoError(t, err)
	assert.Equal(t, authdomain.RoleService, user.Role)
}

func TestValidateTokenRejects(t *testing.T) {
	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	wrongAudience := validClaims()
	wrongAudience["aud"] = "anon-client"

	noSubject := validClaims()
	delete(noSubject, "sub")

	noExpiry := validClaims()
	delete(noExpiry, "exp")

	cases := map[string]string{
		"wrong secret":   sign(t, jwt.SigningMethodHS256, "another-secret", validClaims()),
		"wrong method":   sign(t, jwt.SigningMethodHS512, testSecret, validClaims()),
		"expired":        sign(t, jwt.SigningMethodHS256, testSecret, expired),
		"wrong audience": sign(t, jwt.SigningMethodHS256, testSecret, wrongAudience),
		"no subject":     sign(t, jwt.SigningMethodHS256, testSecret, noSubject),
		"no expiry":      sign(t, jwt.SigningMethodHS256, testSecret, noExpiry),
		"garbage":        "not.a.jwt",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			user, err := newUsecase().ValidateToken(token)
			assert.Nil(t, user)
			assert.ErrorIs(t, err, authdomain.ErrInvalidToken)
		})
	}
}
