package handlers

import (
	"net/http"

	"warehouse-service/internal/models"
	"warehouse-service/internal/service"
	"warehouse-service/internal/transport/http/dto"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler: администрирование пользователей (/admin/users).
type UserHandler struct {
	users service.UserService
	log   *zap.Logger
}

func NewUserHandler(users service.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

func userInput(req dto.UserRequest) service.UserInput {
	in := service.UserInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		Role:        models.Role(req.Role),
		Name:        req.Name,
		ContactInfo: req.ContactInfo,
		IsActive:    true,
	}
	if req.IsActive != nil {
		in.IsActive = *req.IsActive
	}
	return in
}

func (h *UserHandler) List(c *gin.Context) {
	p, err := h.users.List(c.Request.Context(), queryPage(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, listResponse(p, dto.NewUserResponse))
}

func (h *UserHandler) Create(c *gin.Context) {
	var req dto.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}
	u, err := h.users.Create(c.Request.Context(), userInput(req))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewUserResponse(u))
}

// Update: пустой пароль оставляет текущий.
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}
	u, err := h.users.Update(c.Request.Context(), id, userInput(req))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(u))
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
