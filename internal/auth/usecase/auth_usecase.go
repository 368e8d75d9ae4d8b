package usecase

import (
	"fmt"
	"strings"

	authdomain "github.com/ngandimoun/saydo-ai-sub006/internal/auth/domain"
	"github.com/ngandimoun/saydo-ai-sub006/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

// supabaseClaims are the claims Supabase puts in its access tokens
type supabaseClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	config *config.Config
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(cfg *config.Config) AuthUsecase {
	return &authUsecase{
		config: cfg,
	}
}

func (u *authUsecase) ValidateToken(tokenString string) (*authdomain.AuthUser, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if u.config.JWTAudience != "" {
		opts = append(opts, jwt.WithAudience(u.config.JWTAudience))
	}

	claims := &supabaseClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(u.config.JWTSecret), nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", authdomain.ErrInvalidToken, err)
	}

	userID := strings.TrimSpace(claims.Subject)
	if userID == "" {
		return nil, fmt.Errorf("%w: missing subject", authdomain.ErrInvalidToken)
	}

	role := claims.Role
	if role == "" {
		role = authdomain.RoleAuthenticated
	}
	return &authdomain.AuthUser{ID: userID, Email: claims.Email, Role: role}, nil
}
