package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextAdminID is the gin context key holding the authenticated admin ID.
const ContextAdminID = "adminID"

// TokenValidator returns the admin ID carried by a valid token.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// AdminAuth guards admin-only routes with a Bearer token.
func AdminAuth(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get Authorization Header ---
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format (must be Bearer)"})
			return
		}

		// 2. --- Validate Token ---
		adminID, err := tokens.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		// 3. --- Success ---
		c.Set(ContextAdminID, adminID)
		c.Next()
	}
}

// AdminID reads the ID stored by AdminAuth.
func AdminID(c *gin.Context) string {
	return c.GetString(ContextAdminID)
}
