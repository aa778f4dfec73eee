package middleware

import (
	"errors"
	"net/http"
	"strings"

	"formhub/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware verifies the bearer token and attaches the caller identity
// to the request context. The embedded role claim is authoritative for the
// rest of the request; nothing re-fetches the user per request.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		claims, err := services.ParseToken(parts[1], jwtSecret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			}
			c.Abort()
			return
		}

		c.Set("user_id", claims.ID)
		c.Set("user_email", claims.Username)
		c.Set("user_role", claims.Role)

		c.Next()
	}
}

// RequireRole rejects callers whose role claim is not in the allowed set.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("user_role")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		role := userRole.(string)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
		c.Abort()
	}
}

// CallerFrom rebuilds the caller identity set by AuthMiddleware.
func CallerFrom(c *gin.Context) (services.Caller, bool) {
	id, ok := c.Get("user_id")
	if !ok {
		return services.Caller{}, false
	}
	email, _ := c.Get("user_email")
	role, _ := c.Get("user_role")
	return services.Caller{
		ID:    id.(uint),
		Email: email.(string),
		Role:  role.(string),
	}, true
}
