package handlers

import (
	"fmt"
	"net/http"

	"warehouse-service/internal/service"
	"warehouse-service/internal/transport/http/dto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CartHandler struct {
	carts service.CartService
	log   *zap.Logger
}

func NewCartHandler(carts service.CartService, log *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, log: log}
}

func (h *CartHandler) View(c *gin.Context) {
	v, err := h.carts.View(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCartResponse(v))
}

// AddItem godoc
// @Summary Добавить товар в корзину
// @Tags cart
// @Accept json
// @Produce json
// @Param item body dto.CartItemRequest true "Товар и количество"
// @Success 200 {object} dto.CartResponse
// @Failure 404 {object} dto.BaseError "Товар не найден"
// @Failure 409 {object} dto.BaseError "Недостаточно товара на складе"
// @Router /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}
	pid, err := uuid.Parse(req.ProductID)
	if err != nil {
		bindError(c, h.log, err)
		return
	}

	v, err := h.carts.Add(c.Request.Context(), pid, req.Quantity)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCartResponse(v))
}

// UpdateItem: количество <= 0 удаляет позицию, больше остатка, урезается до остатка.
func (h *CartHandler) UpdateItem(c *gin.Context) {
	pid, ok := pathUUID(c, "product_id")
	if !ok {
		return
	}
	var req dto.CartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}

	res, err := h.carts.Update(c.Request.Context(), pid, req.Quantity)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	out := dto.CartUpdateResponse{Quantity: res.Quantity, Removed: res.Removed, Clamped: res.Clamped}
	switch {
	case res.Clamped && res.Removed:
		out.Message = "product is out of stock and was removed from the cart"
	case res.Clamped:
		out.Message = fmt.Sprintf("only %d available, quantity adjusted", res.Quantity)
	}
	c.JSON(http.StatusOK, out)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	pid, ok := pathUUID(c, "product_id")
	if !ok {
		return
	}
	if err := h.carts.Remove(c.Request.Context(), pid); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context()); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
