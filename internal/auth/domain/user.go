package domain

import "errors"

// Roles carried in Supabase access tokens
const (
	RoleAuthenticated = "authenticated"
	RoleService       = "service_role"
)

var ErrInvalidToken = errors.New("invalid token")

// AuthUser is the identity extracted from a verified access token.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}
