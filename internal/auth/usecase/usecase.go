package usecase

import authdomain "github.com/ngandimoun/saydo-ai-sub006/internal/auth/domain"

// AuthUsecase defines the interface for authentication business logic
type AuthUsecase interface {
	// ValidateToken verifies a Supabase access token and returns its subject
	ValidateToken(tokenString string) (*authdomain.AuthUser, error)
}
