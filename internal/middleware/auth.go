package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yamdb/internal/logger"
	"yamdb/internal/models"
	"yamdb/internal/services"
)

const (
	ctxClaims   = "claims"
	ctxUserID   = "user_id"
	ctxUsername = "username"
)

// TokenParser validates a bearer token and returns its claims.
type TokenParser interface {
	Parse(token string) (*services.Claims, error)
}

// список публичных эндпоинтов, которые не требуют токена
func isPublicPath(path string) bool {
	if strings.HasPrefix(path, "/api/v1/auth/") {
		return true
	}
	if strings.HasPrefix(path, "/swagger") ||
		strings.HasPrefix(path, "/healthz") {
		return true
	}
	return false
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:     msg,
		RequestID: logger.RequestID(c),
	})
}

func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1) пропускаем preflight
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		// 2) пропускаем публичные пути
		if isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		// 3) читаем Authorization
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			unauthorized(c, "Missing or invalid Authorization header")
			return
		}

		// 4) подпись, алгоритм, issuer и срок проверяет TokenIssuer
		claims, err := tokens.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			logger.FromGin(c).Debug("token rejected", zap.Error(err))
			unauthorized(c, "Invalid or expired token")
			return
		}

		// 5) прокидываем пользователя в контекст
		SetClaims(c, claims)

		c.Next()
	}
}

func SetClaims(c *gin.Context, claims *services.Claims) {
	c.Set(ctxClaims, claims)
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxUsername, claims.Username)
}

// CurrentClaims returns the claims stored by AuthMiddleware.
func CurrentClaims(c *gin.Context) (*services.Claims, bool) {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*services.Claims)
	return claims, ok
}
