package service

import (
	"context"

	"warehouse-service/internal/cart"
	"warehouse-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const OrdersPageSize = 10

type SummaryLine struct {
	ProductID uuid.UUID
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
	// Available: текущий остаток (-1, если товар удалён).
	Available int
	InStock   bool
}

// CartSummary: то, что показываем перед подтверждением заказа. Ничего не пишет.
type CartSummary struct {
	Lines []SummaryLine
	Total decimal.Decimal
}

type ListFilter struct {
	Page   int
	Status *models.OrderStatus
}

type OrderPage struct {
	Items    []models.Order
	Page     int
	PageSize int
	Total    int64
}

func (p *OrderPage) Pages() int {
	if p.Total == 0 {
		return 0
	}
	return int((p.Total + int64(p.PageSize) - 1) / int64(p.PageSize))
}

func (p *OrderPage) HasNext() bool { return p.Page < p.Pages() }
func (p *OrderPage) HasPrev() bool { return p.Page > 1 }

type OrderService interface {
	Summary(ctx context.Context) (*CartSummary, error)
	// Checkout оформляет корзину текущей сессии; корзина очищается только при успехе.
	Checkout(ctx context.Context) (*models.Order, error)
	// PlaceOrder: атомарное оформление снимка корзины от имени userID.
	PlaceOrder(ctx context.Context, userID uuid.UUID, c *cart.Cart) (*models.Order, error)
	ListOrders(ctx context.Context, f ListFilter) (*OrderPage, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error)
}
