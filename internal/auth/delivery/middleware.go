package delivery

import (
	"net/http"
	"strings"

	authdomain "github.com/ngandimoun/saydo-ai-sub006/internal/auth/domain"
	"github.com/ngandimoun/saydo-ai-sub006/internal/auth/usecase"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware
const (
	ContextUserID = "userID"
	ContextUser   = "user"
)

func AuthMiddleware(authUsecase usecase.AuthUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid authorization header format"})
			c.Abort()
			return
		}

		token := parts[1]
		user, err := authUsecase.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(ContextUser, user)
		c.Set(ContextUserID, user.ID)
		c.Next()
	}
}

// RequireRole lets the request through only when the authenticated user has role.
// It must run after AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || user.Role != role {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "insufficient role"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user stored by AuthMiddleware
func CurrentUser(c *gin.Context) (*authdomain.AuthUser, bool) {
	value, exists := c.Get(ContextUser)
	if !exists {
		return nil, false
	}
	user, ok := value.(*authdomain.AuthUser)
	return user, ok
}
