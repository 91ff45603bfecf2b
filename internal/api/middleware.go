package api

import (
	"alcyxob/fitlog/internal/domain"
	"alcyxob/fitlog/internal/metrics"
	"alcyxob/fitlog/internal/service"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Constants for context keys
const (
	ContextSessionKey = "session"
)

// AuthMiddleware creates a Gin middleware for JWT authentication.
// Signed-out tokens are rejected even before they expire.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		sess, err := authService.ParseToken(parts[1])
		if err != nil {
			if errors.Is(err, service.ErrTokenRevoked) {
				abortWithError(c, http.StatusUnauthorized, "Token has been signed out")
			} else {
				abortWithError(c, http.StatusUnauthorized, "Invalid or expired token")
			}
			return
		}

		c.Set(ContextSessionKey, *sess)
		c.Next()
	}
}

// MetricsMiddleware counts requests by route template and status code.
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequest(c.Request.Method, route, c.Writer.Status())
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// Helper function to get the session set by AuthMiddleware
func getSessionFromContext(c *gin.Context) (domain.Session, error) {
	raw, exists := c.Get(ContextSessionKey)
	if !exists {
		return domain.Session{}, errors.New("session not found in context")
	}
	sess, ok := raw.(domain.Session)
	if !ok {
		return domain.Session{}, errors.New("invalid session type in context")
	}
	return sess, nil
}
