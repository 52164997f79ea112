package service

import (
	"context"

	"warehouse-service/internal/cart"
	"warehouse-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MaxLineQuantity: верхняя граница количества за один запрос.
const MaxLineQuantity = 1_000_000

type CartView struct {
	Lines []cart.Line
	Total decimal.Decimal
}

// UpdateResult: итог изменения количества. Clamped: запрошено больше остатка, записан остаток.
type UpdateResult struct {
	Quantity int
	Removed  bool
	Clamped  bool
}

type CartService interface {
	View(ctx context.Context) (*CartView, error)
	Add(ctx context.Context, productID uuid.UUID, qty int) (*CartView, error)
	Update(ctx context.Context, productID uuid.UUID, qty int) (*UpdateResult, error)
	Remove(ctx context.Context, productID uuid.UUID) error
	Clear(ctx context.Context) error
}

type cartService struct {
	repo  *repository.Repository
	carts CartStore
	log   *zap.Logger
}

func NewCartService(repo *repository.Repository, carts CartStore, log *zap.Logger) CartService {
	if log == nil {
		log = zap.NewNop()
	}
	return &cartService{repo: repo, carts: carts, log: log}
}

func (s *cartService) session(ctx context.Context) (string, error) {
	if _, _, err := requireCapability(ctx, CapPlaceOrder); err != nil {
		return "", err
	}
	return requireSession(ctx)
}

func viewOf(c *cart.Cart) *CartView {
	return &CartView{Lines: c.ByName(), Total: c.Total()}
}

func (s *cartService) View(ctx context.Context) (*CartView, error) {
	sid, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.carts.Read(ctx, sid)
	if err != nil {
		return nil, err
	}
	return viewOf(c), nil
}

func (s *cartService) Add(ctx context.Context, productID uuid.UUID, qty int) (*CartView, error) {
	sid, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	if qty <= 0 || qty > MaxLineQuantity {
		return nil, ErrQuantityInvalid
	}

	p, err := s.repo.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &ProductNotFoundError{ProductID: productID}
	}

	c, err := s.carts.Read(ctx, sid)
	if err != nil {
		return nil, err
	}

	line, exists := c.Get(productID)
	// сравнение через разность: line.Quantity + qty не должно переполниться
	if qty > p.QuantityInStock-line.Quantity {
		return nil, &InsufficientStockError{
			ProductID: p.ID,
			Name:      p.Name,
			Requested: line.Quantity + qty,
			Available: p.QuantityInStock,
		}
	}
	want := line.Quantity + qty
	if !exists {
		// цена фиксируется при первом добавлении
		line = cart.Line{ProductID: p.ID, Name: p.Name, UnitPrice: p.Price}
	}
	line.Quantity = want
	c.Put(line)

	if err := s.carts.Save(ctx, sid, c); err != nil {
		return nil, err
	}
	return viewOf(c), nil
}

func (s *cartService) Update(ctx context.Context, productID uuid.UUID, qty int) (*UpdateResult, error) {
	sid, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.carts.Read(ctx, sid)
	if err != nil {
		return nil, err
	}
	line, ok := c.Get(productID)
	if !ok {
		return nil, ErrNotInCart
	}

	res := &UpdateResult{Quantity: qty}
	if qty <= 0 {
		c.Remove(productID)
		res.Quantity, res.Removed = 0, true
		return res, s.carts.Save(ctx, sid, c)
	}

	chk, err := s.repo.Products.CheckAvailable(ctx, productID, qty)
	if err != nil {
		return nil, err
	}
	if chk == nil {
		c.Remove(productID)
		if err := s.carts.Save(ctx, sid, c); err != nil {
			return nil, err
		}
		return nil, &ProductNotFoundError{ProductID: productID, Name: line.Name}
	}
	if !chk.OK {
		res.Quantity, res.Clamped = chk.Available, true
	}
	if res.Quantity == 0 {
		c.Remove(productID)
		res.Removed = true
	} else {
		line.Quantity = res.Quantity
		c.Put(line)
	}
	return res, s.carts.Save(ctx, sid, c)
}

func (s *cartService) Remove(ctx context.Context, productID uuid.UUID) error {
	sid, err := s.session(ctx)
	if err != nil {
		return err
	}
	c, err := s.carts.Read(ctx, sid)
	if err != nil {
		return err
	}
	if !c.Remove(productID) {
		return ErrNotInCart
	}
	return s.carts.Save(ctx, sid, c)
}

func (s *cartService) Clear(ctx context.Context) error {
	sid, err := s.session(ctx)
	if err != nil {
		return err
	}
	return s.carts.Clear(ctx, sid)
}
