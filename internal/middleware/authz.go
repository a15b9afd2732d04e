package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yamdb/internal/authz"
	"yamdb/internal/logger"
	"yamdb/internal/models"
)

// RequireCapability lets the request through only if the caller's role grants
// capability. Must run after AuthMiddleware.
func RequireCapability(capability authz.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			unauthorized(c, "authentication required")
			return
		}
		if !authz.For(claims.Role, claims.Superuser).Has(capability) {
			logger.FromGin(c).Info("access denied",
				zap.String("username", claims.Username),
				zap.Stringer("capability", capability),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
				Error:     "forbidden",
				RequestID: logger.RequestID(c),
			})
			return
		}
		c.Next()
	}
}
