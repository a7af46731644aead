package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"trackswift/internal/auth"
)

// Context keys set by AuthMiddleware.
const (
	KeyUserID   = "userID"
	KeyTenantID = "tenantID"
	KeyRole     = "role"
)

// ErrUnknownAccount is returned by an AccountLoader when the token names a
// user that no longer exists.
var ErrUnknownAccount = errors.New("unknown account")

// Account is the stored state of the caller that outlives the token.
type Account struct {
	Role   string
	Active bool
}

// AccountLoader reads the caller's current account. With a loader the stored
// role wins over the role in the token.
type AccountLoader func(ctx context.Context, userID, tenantID string) (Account, error)

// AuthMiddleware checks if the caller carries a valid bearer token and
// exposes who they are to the handlers. When accounts is set, deleted and
// deactivated users are turned away even while their token is still valid.
func AuthMiddleware(tokens *auth.Tokens, accounts AccountLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get the token from the "Authorization" header
		// Format: "Bearer <token>"
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authorization header is required"})
			return
		}

		// 2. Remove the "Bearer " prefix
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authorization header must start with Bearer"})
			return
		}

		// 3. Validate
		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}

		// 4. Re-check the account
		role := claims.Role
		if accounts != nil {
			account, err := accounts(c.Request.Context(), claims.UserID, claims.TenantID)
			switch {
			case errors.Is(err, ErrUnknownAccount):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
				return
			case err != nil:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to load account"})
				return
			case !account.Active:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Account is deactivated"})
				return
			}
			role = account.Role
		}

		// 5. Hand the identity to the next handler
		c.Set(KeyUserID, claims.UserID)
		c.Set(KeyTenantID, claims.TenantID)
		c.Set(KeyRole, role)

		c.Next()
	}
}

// RequireRole is a secondary guard that checks for specific permissions
func RequireRole(allowedRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(KeyRole) != allowedRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "You do not have permission to access this resource"})
			return
		}
		c.Next()
	}
}

// Identity returns the user and tenant set by AuthMiddleware.
func Identity(c *gin.Context) (userID, tenantID string) {
	return c.GetString(KeyUserID), c.GetString(KeyTenantID)
}
