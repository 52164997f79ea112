package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"warehouse-service/internal/cart"
	"warehouse-service/internal/metrics"
	"warehouse-service/internal/models"
	"warehouse-service/internal/service"
	"warehouse-service/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MockEventBus
type MockEventBus struct {
	mu      sync.Mutex
	Placed  []service.OrderPlacedEvent
	Changed []service.OrderStatusChangedEvent

	PublishOrderPlacedFunc func(ctx context.Context, e service.OrderPlacedEvent) error
}

func (m *MockEventBus) PublishOrderPlaced(ctx context.Context, e service.OrderPlacedEvent) error {
	m.mu.Lock()
	m.Placed = append(m.Placed, e)
	m.mu.Unlock()
	if m.PublishOrderPlacedFunc != nil {
		return m.PublishOrderPlacedFunc(ctx, e)
	}
	return nil
}

func (m *MockEventBus) PublishOrderStatusChanged(ctx context.Context, e service.OrderStatusChangedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Changed = append(m.Changed, e)
	return nil
}

// MockHasher: "hash:" + пароль.
type MockHasher struct{}

func (MockHasher) Hash(p string) (string, error) { return "hash:" + p, nil }
func (MockHasher) Compare(h, p string) bool { return h == "hash:"+p }

// MockTokenProvider
type MockTokenProvider struct {
	SignAccessFunc func(ctx context.Context, sub uuid.UUID, role models.Role, sid string, ttl time.Duration) (string, time.Time, error)
}

func (m *MockTokenProvider) SignAccess(ctx context.Context, sub uuid.UUID, role models.Role, sid string, ttl time.Duration) (string, time.Time, error) {
	if m.SignAccessFunc != nil {
		return m.SignAccessFunc(ctx, sub, role, sid, ttl)
	}
	return "token-" + sid, time.Now().Add(ttl), nil
}

func (m *MockTokenProvider) ParseAndValidateAccess(ctx context.Context, token string) (*service.Claims, error) {
	return nil, service.ErrUnauthorized
}

type env struct {
	store   *testutil.MemStore
	carts   *cart.Store
	events  *MockEventBus
	metrics *metrics.Metrics

	orders  service.OrderService
	cart    service.CartService
	catalog service.CatalogService
	users   service.UserService
	auth    *service.AuthService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := testutil.NewMemStore()
	carts := cart.NewStore(cart.NewMemoryKV(), time.Hour)
	events := &MockEventBus{}
	m := metrics.New("test")
	repo := store.Repository()
	log := zap.NewNop()

	return &env{
		store:   store,
		carts:   carts,
		events:  events,
		metrics: m,
		orders:  service.NewOrderService(repo, store, carts, events, m, log),
		cart:    service.NewCartService(repo, carts, log),
		catalog: service.NewCatalogService(repo, store, log),
		users:   service.NewUserService(repo, store, MockHasher{}, "", log),
		auth:    service.NewAuthService(repo, MockHasher{}, &MockTokenProvider{}, carts, time.Hour, log),
	}
}

func (e *env) user(t *testing.T, username string, role models.Role) (models.User, context.Context) {
	t.Helper()
	u := e.store.AddUser(models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash:password",
		Role:         role,
		IsActive:     true,
	})
	ctx := service.WithPrincipal(context.Background(), u.ID, role, "sid-"+username)
	return u, ctx
}

func (e *env) product(t *testing.T, name, price string, stock int) models.Product {
	t.Helper()
	return e.store.AddProduct(models.Product{
		Name:              name,
		Price:             decimal.RequireFromString(price),
		QuantityInStock:   stock,
		LowStockThreshold: models.DefaultLowStockThreshold,
	})
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func stockOf(t *testing.T, e *env, id uuid.UUID) int {
	t.Helper()
	p, ok := e.store.Product(id)
	if !ok {
		t.Fatalf("product %s not found", id)
	}
	return p.QuantityInStock
}
