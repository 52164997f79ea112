package handlers

import (
	"net/http"

	"warehouse-service/internal/models"
	"warehouse-service/internal/service"
	"warehouse-service/internal/transport/http/dto"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orders service.OrderService
	log    *zap.Logger
}

func NewOrderHandler(orders service.OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, log: log}
}

// Summary godoc
// @Summary Подтверждение заказа
// @Description Позиции корзины с текущими остатками. Ничего не меняет.
// @Tags orders
// @Produce json
// @Success 200 {object} dto.SummaryResponse
// @Failure 400 {object} dto.BaseError "Корзина пуста"
// @Router /orders/new [get]
func (h *OrderHandler) Summary(c *gin.Context) {
	s, err := h.orders.Summary(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSummaryResponse(s))
}

// Create godoc
// @Summary Оформить заказ
// @Description Атомарно создаёт заказ из корзины сессии и списывает остатки
// @Tags orders
// @Produce json
// @Success 201 {object} dto.OrderResponse
// @Failure 400 {object} dto.BaseError "Корзина пуста"
// @Failure 404 {object} dto.BaseError "Товар не найден"
// @Failure 409 {object} dto.BaseError "Недостаточно товара на складе"
// @Failure 500 {object} dto.BaseError "Внутренняя ошибка"
// @Router /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	o, err := h.orders.Checkout(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Header("Location", "/orders/"+o.ID.String())
	c.JSON(http.StatusCreated, dto.NewOrderResponse(o))
}

func (h *OrderHandler) List(c *gin.Context) {
	f := service.ListFilter{Page: queryPage(c)}
	if st := c.Query("status"); st != "" {
		s := models.OrderStatus(st)
		f.Status = &s
	}

	page, err := h.orders.ListOrders(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	out := dto.OrderListResponse{
		Items:    make([]dto.OrderResponse, 0, len(page.Items)),
		PageMeta: dto.NewPageMeta(page.Page, page.PageSize, page.Total),
	}
	for i := range page.Items {
		out.Items = append(out.Items, dto.NewOrderResponse(&page.Items[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderResponse(o))
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}

	o, err := h.orders.UpdateStatus(c.Request.Context(), id, models.OrderStatus(req.Status))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderResponse(o))
}
