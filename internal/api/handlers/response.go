package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"estatehub/marketplace/internal/api/middleware"
	"estatehub/marketplace/internal/errs"
	"estatehub/marketplace/internal/logger"
	"estatehub/marketplace/internal/utils"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind errs.Kind) int {
	switch kind {
	case errs.KindValidation, errs.KindConflict:
		return http.StatusBadRequest
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {message, code, ...details}. Internal failures are logged and
// reported without their cause.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	e, ok := errs.As(err)
	if !ok {
		e = errs.Internal(err, "Internal Server Error")
	}
	status := StatusFor(e.Kind)

	body := gin.H{"message": e.Message, "code": e.Code}
	if status >= http.StatusInternalServerError {
		logger.WithModule("api").Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		body = gin.H{"message": "Internal Server Error", "code": errs.CodeInternal}
	} else {
		for k, v := range e.Details {
			body[k] = v
		}
	}
	c.JSON(status, body)
}

// requireCaller returns the authenticated caller or writes 401.
func requireCaller(c *gin.Context) (utils.SixID, bool) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required", "code": "unauthorized"})
	}
	return callerID, ok
}
