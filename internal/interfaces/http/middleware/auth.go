// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wawashop/storefront/internal/domain/session"
	"github.com/wawashop/storefront/internal/infrastructure/gateway"
	"github.com/wawashop/storefront/internal/pkg/auth"
)

const sessionUserKey = "session_user"

// Authenticator resolves a session token to its user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*session.User, error)
}

// AuthMiddleware requires a valid session token. The token is forwarded to
// the backend on every gateway call made while serving the request.
func AuthMiddleware(sessions Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			return
		}

		tokenString := auth.ExtractTokenFromHeader(authHeader)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format",
			})
			return
		}

		user, err := sessions.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			msg := "Invalid or expired token"
			if errors.Is(err, session.ErrSessionNotFound) {
				msg = "Session expired, please sign in again"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(sessionUserKey, user)
		c.Set("session_id", user.SessionID)
		c.Request = c.Request.WithContext(gateway.WithBearerToken(c.Request.Context(), tokenString))

		c.Next()
	}
}

// EmployeeOnly rejects customer sessions
func EmployeeOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUserFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		if user.Type != session.UserEmployee {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Employee access required"})
			return
		}
		c.Next()
	}
}

// GetUserFromContext returns the signed-in user set by AuthMiddleware
func GetUserFromContext(c *gin.Context) (*session.User, bool) {
	value, exists := c.Get(sessionUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*session.User)
	return user, ok
}
