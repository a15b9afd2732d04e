package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"yamdb/internal/models"
)

// AuthAPI is what the auth endpoints need from the service layer.
type AuthAPI interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.SignupResponse, error)
	ObtainToken(ctx context.Context, req models.TokenRequest) (*models.TokenResponse, error)
}

type AuthHandler struct {
	authService AuthAPI
}

func NewAuthHandler(authService AuthAPI) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// @Summary      Регистрация / запрос кода подтверждения
// @Description  Создаёт пользователя (или находит существующего с той же парой username+email) и отправляет код подтверждения на email
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        signup  body      models.SignupRequest  true  "username и email"
// @Success      200     {object}  models.SignupResponse
// @Failure      400     {object}  models.ErrorResponse
// @Failure      409     {object}  models.ErrorResponse
// @Failure      503     {object}  models.ErrorResponse
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.authService.Signup(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Получение JWT-токена
// @Description  Обменивает username и код подтверждения на bearer-токен
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        token  body      models.TokenRequest  true  "username и confirmation_code"
// @Success      200    {object}  models.TokenResponse
// @Failure      400    {object}  models.ErrorResponse
// @Failure      404    {object}  models.ErrorResponse
// @Failure      429    {object}  models.ErrorResponse
// @Router       /auth/token [post]
func (h *AuthHandler) Token(c *gin.Context) {
	var req models.TokenRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.authService.ObtainToken(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
