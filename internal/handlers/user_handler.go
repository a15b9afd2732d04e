package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"yamdb/internal/models"
)

// UserAPI is what the /users endpoints need from the service layer.
type UserAPI interface {
	List(ctx context.Context, filter models.UserFilter) (*models.UserListResponse, error)
	Create(ctx context.Context, req models.UserCreateRequest) (*models.User, error)
	Get(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Patch(ctx context.Context, username string, req models.UserPatchRequest) (*models.User, error)
	PatchSelf(ctx context.Context, id int64, req models.UserPatchRequest) (*models.User, error)
	Delete(ctx context.Context, username string) error
}

type UserHandler struct {
	service UserAPI
}

func NewUserHandler(service UserAPI) *UserHandler {
	return &UserHandler{service: service}
}

// @Summary      Список пользователей
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "поиск по username"
// @Param        limit   query     int     false  "размер страницы"
// @Param        offset  query     int     false  "смещение"
// @Success      200     {object}  models.UserListResponse
// @Failure      401     {object}  models.ErrorResponse
// @Failure      403     {object}  models.ErrorResponse
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	res, err := h.service.List(c.Request.Context(), models.UserFilter{
		Search: c.Query("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Создание пользователя администратором
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        user  body      models.UserCreateRequest  true  "пользователь"
// @Success      201   {object}  models.User
// @Failure      400   {object}  models.ErrorResponse
// @Failure      409   {object}  models.ErrorResponse
// @Router       /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req models.UserCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// @Summary      Пользователь по username
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string  true  "username"
// @Success      200       {object}  models.User
// @Failure      404       {object}  models.ErrorResponse
// @Router       /users/{username} [get]
func (h *UserHandler) Get(c *gin.Context) {
	u, err := h.service.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary      Частичное обновление пользователя
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string                   true  "username"
// @Param        user      body      models.UserPatchRequest  true  "изменяемые поля"
// @Success      200       {object}  models.User
// @Failure      400       {object}  models.ErrorResponse
// @Failure      404       {object}  models.ErrorResponse
// @Failure      409       {object}  models.ErrorResponse
// @Router       /users/{username} [patch]
func (h *UserHandler) Patch(c *gin.Context) {
	var req models.UserPatchRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.service.Patch(c.Request.Context(), c.Param("username"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary      Удаление пользователя
// @Tags         Users
// @Security     BearerAuth
// @Param        username  path  string  true  "username"
// @Success      204
// @Failure      404  {object}  models.ErrorResponse
// @Router       /users/{username} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("username")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary      Свой профиль
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.User
// @Failure      401  {object}  models.ErrorResponse
// @Router       /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	id, ok := currentUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "authentication required"})
		return
	}
	u, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary      Обновление своего профиля
// @Description  Роль через этот эндпоинт не меняется
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        user  body      models.UserPatchRequest  true  "изменяемые поля"
// @Success      200   {object}  models.User
// @Failure      400   {object}  models.ErrorResponse
// @Failure      409   {object}  models.ErrorResponse
// @Router       /users/me [patch]
func (h *UserHandler) PatchMe(c *gin.Context) {
	id, ok := currentUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "authentication required"})
		return
	}
	var req models.UserPatchRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.service.PatchSelf(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
