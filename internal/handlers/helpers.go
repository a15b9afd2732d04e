package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yamdb/internal/logger"
	"yamdb/internal/middleware"
	"yamdb/internal/models"
	"yamdb/internal/services"
)

// respondError maps service errors onto status codes. Anything unknown is
// logged and answered with a bare 500.
func respondError(c *gin.Context, err error) {
	var (
		verr *services.ValidationError
		cerr *services.ConflictError
	)
	body := models.ErrorResponse{RequestID: logger.RequestID(c)}
	status := http.StatusInternalServerError

	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		body.Error = "validation failed"
		body.Fields = verr.Fields
	case errors.As(err, &cerr):
		status = http.StatusConflict
		body.Error = cerr.Error()
		body.Fields = map[string]string{cerr.Field: "already taken"}
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
		body.Error = "not found"
	case errors.Is(err, services.ErrInvalidCode):
		status = http.StatusBadRequest
		body.Error = "invalid confirmation code"
		body.Fields = map[string]string{"confirmation_code": "Invalid or expired confirmation code."}
	case errors.Is(err, services.ErrTooManyAttempts):
		status = http.StatusTooManyRequests
		body.Error = "too many attempts, request a new code later"
	case errors.Is(err, services.ErrNotification):
		status = http.StatusServiceUnavailable
		body.Error = "could not send confirmation code, try again"
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		body.Error = "request timed out"
	default:
		body.Error = "internal error"
	}

	l := logger.FromGin(c)
	if status >= http.StatusInternalServerError {
		l.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		l.Debug("request rejected", zap.Int("status", status), zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

// bindJSON decodes the body; a malformed body is a validation error on "body".
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
			Error:     "validation failed",
			Fields:    map[string]string{"body": "Malformed JSON body."},
			RequestID: logger.RequestID(c),
		})
		return false
	}
	return true
}

func currentUserID(c *gin.Context) (int64, bool) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		return 0, false
	}
	return claims.UserID, true
}
