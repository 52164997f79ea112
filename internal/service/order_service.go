package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"warehouse-service/internal/cart"
	"warehouse-service/internal/metrics"
	"warehouse-service/internal/models"
	"warehouse-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxOrderNumberAttempts = 5

// Допустимые переходы статусов заказа.
var statusTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:    {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:    {models.OrderStatusDelivered},
	models.OrderStatusDelivered:  {models.OrderStatusReturned},
}

func canTransition(from, to models.OrderStatus) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type orderService struct {
	repo      *repository.Repository
	tx        TxRunner
	carts     CartStore
	events    EventBus
	metrics   *metrics.Metrics
	log       *zap.Logger
	now       func() time.Time
	newNumber func() string
}

type OrderServiceOption func(*orderService)

// WithOrderClock задаёт часы для даты заказа и времени смены статуса.
func WithOrderClock(now func() time.Time) OrderServiceOption {
	return func(s *orderService) { s.now = now }
}

// WithOrderNumberGenerator подменяет генератор номеров (в тестах: для проверки коллизий).
func WithOrderNumberGenerator(gen func() string) OrderServiceOption {
	return func(s *orderService) { s.newNumber = gen }
}

func NewOrderService(
	repo *repository.Repository,
	tx TxRunner,
	carts CartStore,
	events EventBus,
	m *metrics.Metrics,
	log *zap.Logger,
	opts ...OrderServiceOption,
) OrderService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &orderService{
		repo:      repo,
		tx:        tx,
		carts:     carts,
		events:    events,
		metrics:   m,
		log:       log,
		now:       time.Now,
		newNumber: newOrderNumber,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// newOrderNumber: первые 8 hex-символов случайного UUID в верхнем регистре.
func newOrderNumber() string {
	return strings.ToUpper(strings.SplitN(uuid.NewString(), "-", 2)[0])
}

func (s *orderService) Summary(ctx context.Context) (*CartSummary, error) {
	if _, _, err := requireCapability(ctx, CapPlaceOrder); err != nil {
		return nil, err
	}
	sid, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.carts.Read(ctx, sid)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	sum := &CartSummary{Total: decimal.Zero}
	for _, l := range c.ByName() {
		line := SummaryLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal(),
			Available: -1,
		}
		chk, err := s.repo.Products.CheckAvailable(ctx, l.ProductID, l.Quantity)
		if err != nil {
			return nil, err
		}
		if chk != nil {
			line.Available = chk.Available
			line.InStock = chk.OK
		}
		sum.Lines = append(sum.Lines, line)
		sum.Total = sum.Total.Add(line.Subtotal)
	}
	return sum, nil
}

func (s *orderService) Checkout(ctx context.Context) (*models.Order, error) {
	userID, _, err := requireCapability(ctx, CapPlaceOrder)
	if err != nil {
		return nil, err
	}
	sid, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}

	c, err := s.carts.Read(ctx, sid)
	if err != nil {
		return nil, err
	}

	order, err := s.PlaceOrder(ctx, userID, c)
	if err != nil {
		// корзину не трогаем: пользователь поправит и повторит
		return nil, err
	}

	if err := s.carts.Clear(ctx, sid); err != nil {
		// заказ уже зафиксирован, откатывать нечего
		s.log.Warn("order placed but cart was not cleared",
			zap.String("order_number", order.OrderNumber), zap.Error(err))
	}
	return order, nil
}

func (s *orderService) PlaceOrder(ctx context.Context, userID uuid.UUID, c *cart.Cart) (*models.Order, error) {
	if c.IsEmpty() {
		s.metrics.OrderFailed("empty_cart")
		return nil, ErrEmptyCart
	}

	lines := c.Sorted()
	units := 0
	for _, l := range lines {
		if l.Quantity <= 0 {
			s.metrics.OrderFailed("invalid_quantity")
			return nil, ErrQuantityInvalid
		}
		units += l.Quantity
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *repository.Repository) error {
		// строки товаров блокируются до конца транзакции в порядке product id
		total := decimal.Zero
		for _, l := range lines {
			p, err := tx.Products.GetByIDForUpdate(ctx, l.ProductID)
			if err != nil {
				return err
			}
			if p == nil {
				return &ProductNotFoundError{ProductID: l.ProductID, Name: l.Name}
			}
			if p.QuantityInStock < l.Quantity {
				return &InsufficientStockError{
					ProductID: p.ID,
					Name:      p.Name,
					Requested: l.Quantity,
					Available: p.QuantityInStock,
				}
			}
			// цена берётся из корзины, а не текущая цена товара
			total = total.Add(l.UnitPrice.Round(2).Mul(decimal.NewFromInt(int64(l.Quantity))))
		}

		number, err := s.nextOrderNumber(ctx, tx.Orders)
		if err != nil {
			return err
		}

		now := s.now()
		o := &models.Order{
			OrderNumber: number,
			OrderDate:   now,
			Status:      models.OrderStatusPending,
			TotalAmount: total.Round(2),
			UserID:      userID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Orders.Create(ctx, o); err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(lines))
		for _, l := range lines {
			items = append(items, models.OrderItem{
				OrderID:      o.ID,
				ProductID:    l.ProductID,
				Quantity:     l.Quantity,
				PriceAtOrder: l.UnitPrice.Round(2),
				CreatedAt:    now,
			})
		}
		if err := tx.OrderItems.BulkCreate(ctx, items); err != nil {
			return err
		}
		// итог заказа обязан совпасть с суммой записанных позиций
		sum, err := tx.OrderItems.SumByOrder(ctx, o.ID)
		if err != nil {
			return err
		}
		if !sum.Equal(o.TotalAmount) {
			return fmt.Errorf("%w: items %s, order %s", ErrOrderTotalMismatch, sum.StringFixed(2), o.TotalAmount.StringFixed(2))
		}

		for _, l := range lines {
			ok, err := tx.Products.DecrementStock(ctx, l.ProductID, l.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				ise := &InsufficientStockError{ProductID: l.ProductID, Name: l.Name, Requested: l.Quantity}
				if chk, err := tx.Products.CheckAvailable(ctx, l.ProductID, l.Quantity); err == nil && chk != nil {
					ise.Available = chk.Available
				}
				return ise
			}
		}

		full, err := tx.Orders.GetByID(ctx, o.ID)
		if err != nil {
			return err
		}
		if full == nil {
			return ErrOrderNotFound
		}
		order = full
		return nil
	})
	if err != nil {
		return nil, s.placeOrderError(userID, err)
	}

	s.metrics.OrderPlaced(order.TotalAmount.InexactFloat64(), units)
	s.log.Info("order placed",
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID.String()),
		zap.String("total", order.TotalAmount.StringFixed(2)),
		zap.Int("items", len(order.Items)))

	s.publishPlaced(ctx, order)
	return order, nil
}

// placeOrderError: доменные ошибки отдаём как есть, остальное пишем в лог и наружу отдаём общую ошибку.
func (s *orderService) placeOrderError(userID uuid.UUID, err error) error {
	var (
		pnf *ProductNotFoundError
		ise *InsufficientStockError
	)
	switch {
	case errors.As(err, &pnf):
		s.metrics.OrderFailed("product_not_found")
		return err
	case errors.As(err, &ise):
		s.metrics.OrderFailed("insufficient_stock")
		return err
	}

	s.metrics.OrderFailed("transaction")
	s.log.Error("order transaction rolled back",
		zap.String("user_id", userID.String()), zap.Error(err))
	return ErrTransactionFailed
}

func (s *orderService) nextOrderNumber(ctx context.Context, orders repository.OrderRepo) (string, error) {
	for i := 0; i < maxOrderNumberAttempts; i++ {
		n := s.newNumber()
		exists, err := orders.ExistsByNumber(ctx, n)
		if err != nil {
			return "", err
		}
		if !exists {
			return n, nil
		}
	}
	return "", ErrOrderNumberNotGenerated
}

func (s *orderService) publishPlaced(ctx context.Context, o *models.Order) {
	if s.events == nil {
		return
	}
	ev := OrderPlacedEvent{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		OrderDate:   o.OrderDate,
	}
	if o.User != nil {
		ev.Username = o.User.Username
		ev.Email = o.User.Email
	}
	for _, it := range o.Items {
		ie := OrderItemEvent{ProductID: it.ProductID, Quantity: it.Quantity, PriceAtOrder: it.PriceAtOrder}
		if it.Product != nil {
			ie.Name = it.Product.Name
		}
		ev.Items = append(ev.Items, ie)
	}
	if err := s.events.PublishOrderPlaced(ctx, ev); err != nil {
		s.log.Warn("publish order placed failed", zap.String("order_number", o.OrderNumber), zap.Error(err))
	}
}

func (s *orderService) ListOrders(ctx context.Context, f ListFilter) (*OrderPage, error) {
	userID, role, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	page, off := pageOffset(f.Page, OrdersPageSize)
	if f.Status != nil && !f.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	rf := repository.OrderListFilter{
		Status: f.Status,
		Limit:  OrdersPageSize,
		Offset: off,
	}
	// без права видеть все заказы: только свои
	if !Can(role, CapViewAllOrders) {
		rf.UserID = &userID
	}

	list, total, err := s.repo.Orders.List(ctx, rf)
	if err != nil {
		return nil, err
	}
	return &OrderPage{Items: list, Page: page, PageSize: OrdersPageSize, Total: total}, nil
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	userID, role, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	ord, err := s.repo.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, ErrOrderNotFound
	}
	if ord.UserID != userID && !Can(role, CapViewAllOrders) {
		return nil, ErrForbidden
	}
	return ord, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	if _, _, err := requireCapability(ctx, CapManageOrders); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	var (
		from models.OrderStatus
		ord  *models.Order
	)
	err := s.tx.WithTx(ctx, func(tx *repository.Repository) error {
		cur, err := tx.Orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return ErrOrderNotFound
		}
		from = cur.Status
		if !canTransition(from, status) {
			return ErrInvalidStatusTransition
		}

		ok, err := tx.Orders.UpdateStatus(ctx, id, from, status)
		if err != nil {
			return err
		}
		if !ok {
			// статус успели поменять параллельно
			return ErrInvalidStatusTransition
		}

		// отмена возвращает товар на склад
		if status == models.OrderStatusCancelled {
			items, err := tx.OrderItems.GetByOrderID(ctx, id)
			if err != nil {
				return err
			}
			for _, it := range items {
				if err := tx.Products.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
					return err
				}
			}
		}

		ord, err = tx.Orders.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order status changed",
		zap.String("order_number", ord.OrderNumber),
		zap.String("from", string(from)), zap.String("to", string(status)))

	if s.events != nil {
		if err := s.events.PublishOrderStatusChanged(ctx, OrderStatusChangedEvent{
			OrderID:     ord.ID,
			OrderNumber: ord.OrderNumber,
			UserID:      ord.UserID,
			From:        string(from),
			To:          string(status),
			ChangedAt:   s.now(),
		}); err != nil {
			s.log.Warn("publish status changed failed", zap.String("order_number", ord.OrderNumber), zap.Error(err))
		}
	}
	return ord, nil
}
