package dto

import (
	"time"

	"warehouse-service/internal/cart"
	"warehouse-service/internal/models"
	"warehouse-service/internal/service"
)

type CartItemRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,max=1000000"`
}

type CartQuantityRequest struct {
	Quantity int `json:"quantity" binding:"max=1000000"`
}

type CartLineResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
}

type CartResponse struct {
	Items []CartLineResponse `json:"items"`
	Total string             `json:"total"`
}

func NewCartResponse(v *service.CartView) CartResponse {
	out := CartResponse{Items: make([]CartLineResponse, 0, len(v.Lines)), Total: Money(v.Total)}
	for _, l := range v.Lines {
		out.Items = append(out.Items, newCartLine(l))
	}
	return out
}

func newCartLine(l cart.Line) CartLineResponse {
	return CartLineResponse{
		ProductID: l.ProductID.String(),
		Name:      l.Name,
		Quantity:  l.Quantity,
		UnitPrice: Money(l.UnitPrice),
		Subtotal:  Money(l.Subtotal()),
	}
}

type CartUpdateResponse struct {
	Quantity int    `json:"quantity"`
	Removed  bool   `json:"removed"`
	Clamped  bool   `json:"clamped"`
	Message  string `json:"message,omitempty"`
}

type SummaryLineResponse struct {
	CartLineResponse
	Available int  `json:"available"`
	InStock   bool `json:"in_stock"`
}

type SummaryResponse struct {
	Items []SummaryLineResponse `json:"items"`
	Total string                `json:"total"`
}

func NewSummaryResponse(s *service.CartSummary) SummaryResponse {
	out := SummaryResponse{Items: make([]SummaryLineResponse, 0, len(s.Lines)), Total: Money(s.Total)}
	for _, l := range s.Lines {
		out.Items = append(out.Items, SummaryLineResponse{
			CartLineResponse: CartLineResponse{
				ProductID: l.ProductID.String(),
				Name:      l.Name,
				Quantity:  l.Quantity,
				UnitPrice: Money(l.UnitPrice),
				Subtotal:  Money(l.Subtotal),
			},
			Available: l.Available,
			InStock:   l.InStock,
		})
	}
	return out
}

type OrderItemResponse struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name,omitempty"`
	Quantity     int    `json:"quantity"`
	PriceAtOrder string `json:"price_at_order"`
	Subtotal     string `json:"subtotal"`
}

type OrderResponse struct {
	ID          string              `json:"id"`
	OrderNumber string              `json:"order_number"`
	OrderDate   string              `json:"order_date"`
	Status      string              `json:"status"`
	TotalAmount string              `json:"total_amount"`
	Notes       *string             `json:"notes,omitempty"`
	UserID      string              `json:"user_id"`
	Username    string              `json:"username,omitempty"`
	Items       []OrderItemResponse `json:"items,omitempty"`
}

func NewOrderResponse(o *models.Order) OrderResponse {
	out := OrderResponse{
		ID:          o.ID.String(),
		OrderNumber: o.OrderNumber,
		OrderDate:   o.OrderDate.Format(time.RFC3339),
		Status:      string(o.Status),
		TotalAmount: Money(o.TotalAmount),
		Notes:       o.Notes,
		UserID:      o.UserID.String(),
	}
	if o.User != nil {
		out.Username = o.User.Username
	}
	for _, it := range o.Items {
		ir := OrderItemResponse{
			ProductID:    it.ProductID.String(),
			Quantity:     it.Quantity,
			PriceAtOrder: Money(it.PriceAtOrder),
			Subtotal:     Money(it.Subtotal()),
		}
		if it.Product != nil {
			ir.ProductName = it.Product.Name
		}
		out.Items = append(out.Items, ir)
	}
	return out
}

type OrderListResponse struct {
	Items []OrderResponse `json:"items"`
	PageMeta
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}
