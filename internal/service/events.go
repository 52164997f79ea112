package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderItemEvent struct {
	ProductID    uuid.UUID       `json:"product_id"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	PriceAtOrder decimal.Decimal `json:"price_at_order"`
}

type OrderPlacedEvent struct {
	OrderID     uuid.UUID        `json:"order_id"`
	OrderNumber string           `json:"order_number"`
	UserID      uuid.UUID        `json:"user_id"`
	Username    string           `json:"username"`
	Email       string           `json:"email"`
	Items       []OrderItemEvent `json:"items"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	OrderDate   time.Time        `json:"order_date"`
}

type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      uuid.UUID `json:"user_id"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	ChangedAt   time.Time `json:"changed_at"`
}

// EventBus: публикация после коммита. Ошибка публикации не откатывает заказ.
type EventBus interface {
	PublishOrderPlaced(ctx context.Context, e OrderPlacedEvent) error
	PublishOrderStatusChanged(ctx context.Context, e OrderStatusChangedEvent) error
}
