package handlers

import (
	"net/http"
	"time"

	"warehouse-service/internal/service"
	"warehouse-service/internal/transport/http/dto"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	auth *service.AuthService
	log  *zap.Logger
}

func NewAuthHandler(auth *service.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth: auth,
		log:  log,
	}
}

// Register godoc
// @Summary Регистрация пользователя
// @Description Создаёт нового пользователя с ролью InventoryStaff
// @Tags auth
// @Accept json
// @Produce json
// @Param register body dto.RegisterRequest true "Данные регистрации"
// @Success 201 {object} dto.UserResponse
// @Failure 400 {object} dto.BaseError "Неверные данные"
// @Failure 409 {object} dto.BaseError "Пользователь уже существует"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}

	u, err := h.auth.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewUserResponse(u))
}

// Login godoc
// @Summary Авторизация пользователя
// @Description Выдаёт access токен, к которому привязана новая корзина
// @Tags auth
// @Accept json
// @Produce json
// @Param login body dto.LoginRequest true "Данные авторизации"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} dto.BaseError "Неверный логин или пароль"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.LoginResponse{
		User:        dto.NewUserResponse(res.User),
		AccessToken: res.AccessToken,
		ExpiresIn:   int64(time.Until(res.ExpiresAt).Seconds()),
	})
}

// Logout очищает корзину сессии. Токен живёт до истечения срока.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context()); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.auth.Me(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(u))
}
