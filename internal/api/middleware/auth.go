// server/internal/api/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"waste-collection-api-server/internal/auth"
	"waste-collection-api-server/internal/models"
	"waste-collection-api-server/internal/pickup"
)

// Context keys set by Authenticate.
const (
	KeyUserID     = "user_id"
	KeyUserRole   = "user_role"
	KeyFacilityID = "user_facility_id"
)

// TokenParser verifies a bearer token. *auth.Manager satisfies it.
type TokenParser interface {
	Parse(token string) (*auth.JWTClaims, error)
}

// Authenticate checks the bearer token and puts the caller's identity into
// the request context.
func Authenticate(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(KeyUserID, claims.UserID)
		c.Set(KeyUserRole, string(claims.Role))
		c.Set(KeyFacilityID, claims.FacilityID)

		c.Next()
	}
}

// Authorize only lets the listed roles through.
func Authorize(allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString(KeyUserRole)
		if userRole == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "User role not found in context"})
			return
		}
		for _, role := range allowedRoles {
			if string(role) == userRole {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
	}
}

// Actor returns the identity Authenticate stored on the request.
func Actor(c *gin.Context) pickup.Actor {
	return pickup.Actor{
		ID:         c.GetString(KeyUserID),
		Role:       models.Role(c.GetString(KeyUserRole)),
		FacilityID: c.GetString(KeyFacilityID),
	}
}
