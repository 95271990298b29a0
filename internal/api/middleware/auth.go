package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"estatehub/marketplace/internal/auth"
	"estatehub/marketplace/internal/logger"
	"estatehub/marketplace/internal/utils"
)

const (
	// ContextKeyUserID holds the key for the caller's utils.SixID in Gin context.
	ContextKeyUserID = "userID"
	// ContextKeyRole holds the key for the role claimed by the token.
	ContextKeyRole = "role"
)

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": message, "code": "unauthorized"})
}

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	log := logger.WithModule("auth")
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "No token provided or invalid format")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortUnauthorized(c, "No token provided or invalid format")
			return
		}

		claims, err := auth.ValidateJWT(parts[1], jwtSecret)
		if err != nil {
			log.Debug("rejected token", zap.Error(err))
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		callerID, err := claims.CallerID()
		if err != nil {
			log.Debug("rejected token claims", zap.Error(err))
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(ContextKeyUserID, callerID)
		c.Set(ContextKeyRole, claims.Role)

		c.Next()
	}
}

// CallerID returns the authenticated caller. ok is false when AuthMiddleware did not run.
func CallerID(c *gin.Context) (utils.SixID, bool) {
	value, exists := c.Get(ContextKeyUserID)
	if !exists {
		return utils.SixID{}, false
	}
	id, ok := value.(utils.SixID)
	return id, ok && !id.IsZero()
}
