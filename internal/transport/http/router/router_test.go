package router_test

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"warehouse-service/internal/cart"
	"warehouse-service/internal/hashing"
	"warehouse-service/internal/metrics"
	"warehouse-service/internal/models"
	"warehouse-service/internal/service"
	"warehouse-service/internal/testutil"
	"warehouse-service/internal/token"
	"warehouse-service/internal/transport/http/router"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	store  *testutil.MemStore
	hasher *hashing.Bcrypt
	engine *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := testutil.NewMemStore()
	repo := store.Repository()
	carts := cart.NewStore(cart.NewMemoryKV(), time.Hour)
	hasher := hashing.NewBcrypt(bcrypt.MinCost)
	tokens := token.NewHSProvider("test-secret", "warehouse", "warehouse-api")
	m := metrics.New("test")
	log := zap.NewNop()

	engine := router.Router(router.Deps{
		Auth:    service.NewAuthService(repo, hasher, tokens, carts, time.Hour, log),
		Carts:   service.NewCartService(repo, carts, log),
		Orders:  service.NewOrderService(repo, store, carts, nil, m, log),
		Catalog: service.NewCatalogService(repo, store, log),
		Users:   service.NewUserService(repo, store, hasher, "", log),
		Tokens:  tokens,
		Metrics: m,
		Log:     log,
	})
	return &testServer{store: store, hasher: hasher, engine: engine}
}

func (s *testServer) do(t *testing.T, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// login заводит пользователя напрямую в хранилище и возвращает access токен.
func (s *testServer) login(t *testing.T, username string, role models.Role) string {
	t.Helper()
	hash, err := s.hasher.Hash("password")
	require.NoError(t, err)
	s.store.AddUser(models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	})
	w := s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": username, "password": "password"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w)["access_token"].(string)
}

func (s *testServer) product(name, price string, stock int) models.Product {
	return s.store.AddProduct(models.Product{
		Name:              name,
		Price:             decimal.RequireFromString(price),
		QuantityInStock:   stock,
		LowStockThreshold: models.DefaultLowStockThreshold,
	})
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_http_requests_total")
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "InventoryStaff", decode(t, w)["role"])

	w = s.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice", "email": "other@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/auth/register", "", map[string]string{"username": "al"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decode(t, w)["code"])

	w = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "wrong!"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	tok := decode(t, w)["access_token"].(string)

	w = s.do(t, http.MethodGet, "/auth/me", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", decode(t, w)["username"])
}

func TestAuthRequiredOnProtectedRoutes(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/cart", "/orders", "/orders/new", "/products", "/admin/users"} {
		w := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestCheckoutFlow(t *testing.T) {
	s := newTestServer(t)
	tok := s.login(t, "alice", models.RoleSalesTeam)
	p := s.product("Widget", "15.00", 10)

	w := s.do(t, http.MethodPost, "/orders", tok, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "empty_cart", decode(t, w)["code"])

	w = s.do(t, http.MethodPost, "/cart/items", tok, map[string]any{"product_id": p.ID.String(), "quantity": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "45.00", decode(t, w)["total"])

	w = s.do(t, http.MethodGet, "/orders/new", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode(t, w)
	assert.Equal(t, "45.00", summary["total"])
	line := summary["items"].([]any)[0].(map[string]any)
	assert.Equal(t, true, line["in_stock"])
	assert.EqualValues(t, 10, line["available"])

	w = s.do(t, http.MethodPost, "/orders", tok, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode(t, w)
	assert.Equal(t, "45.00", order["total_amount"])
	assert.Equal(t, "Pending", order["status"])
	assert.Len(t, order["order_number"], 8)
	assert.Equal(t, "/orders/"+order["id"].(string), w.Header().Get("Location"))

	stored, _ := s.store.Product(p.ID)
	assert.Equal(t, 7, stored.QuantityInStock)

	// корзина очищена после успешного оформления
	w = s.do(t, http.MethodGet, "/cart", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["items"])

	w = s.do(t, http.MethodGet, "/orders", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)
	assert.EqualValues(t, 1, list["total"])
	assert.EqualValues(t, 10, list["page_size"])

	w = s.do(t, http.MethodGet, "/orders/"+order["id"].(string), tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decode(t, w)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "15.00", items[0].(map[string]any)["price_at_order"])
}

func TestInsufficientStock(t *testing.T) {
	s := newTestServer(t)
	tok := s.login(t, "alice", models.RoleSalesTeam)
	p := s.product("Gadget", "2.50", 2)

	w := s.do(t, http.MethodPost, "/cart/items", tok, map[string]any{"product_id": p.ID.String(), "quantity": 3})
	require.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.Equal(t, "insufficient_stock", body["code"])
	assert.Contains(t, body["message"], "Gadget")
	assert.Contains(t, body["message"], "only 2 available")
}

func TestCartRejectsHugeQuantity(t *testing.T) {
	s := newTestServer(t)
	tok := s.login(t, "alice", models.RoleSalesTeam)
	p := s.product("Gadget", "2.50", 4)

	w := s.do(t, http.MethodPost, "/cart/items", tok, map[string]any{"product_id": p.ID.String(), "quantity": 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/cart/items", tok, map[string]any{"product_id": p.ID.String(), "quantity": math.MaxInt64})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/cart", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "2.50", body["total"])
	assert.EqualValues(t, 1, body["items"].([]any)[0].(map[string]any)["quantity"])

	w = s.do(t, http.MethodPost, "/orders", tok, nil)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestCartUpdateClampsToStock(t *testing.T) {
	s := newTestServer(t)
	tok := s.login(t, "alice", models.RoleSalesTeam)
	p := s.product("Gadget", "2.50", 4)

	w := s.do(t, http.MethodPost, "/cart/items", tok, map[string]any{"product_id": p.ID.String(), "quantity": 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPut, "/cart/items/"+p.ID.String(), tok, map[string]any{"quantity": 9})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 4, body["quantity"])
	assert.Equal(t, true, body["clamped"])

	w = s.do(t, http.MethodDelete, "/cart/items/"+p.ID.String(), tok, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodDelete, "/cart/items/"+p.ID.String(), tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/cart/items/not-a-uuid", tok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderVisibility(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(t, "alice", models.RoleSalesTeam)
	bob := s.login(t, "bob", models.RoleSalesTeam)
	admin := s.login(t, "root", models.RoleAdmin)
	p := s.product("Widget", "1.00", 5)

	w := s.do(t, http.MethodPost, "/cart/items", alice, map[string]any{"product_id": p.ID.String(), "quantity": 1})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/orders", alice, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["id"].(string)

	w = s.do(t, http.MethodGet, "/orders/"+id, bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/orders/"+uuid.NewString(), bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/orders/"+id, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPatch, "/orders/"+id+"/status", bob, map[string]string{"status": "Shipped"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPatch, "/orders/"+id+"/status", admin, map[string]string{"status": "Bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPatch, "/orders/"+id+"/status", admin, map[string]string{"status": "Cancelled"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Cancelled", decode(t, w)["status"])
	stored, _ := s.store.Product(p.ID)
	assert.Equal(t, 5, stored.QuantityInStock)

	w = s.do(t, http.MethodPatch, "/orders/"+id+"/status", admin, map[string]string{"status": "Shipped"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCatalogPermissions(t *testing.T) {
	s := newTestServer(t)
	staff := s.login(t, "staff", models.RoleInventoryStaff)
	manager := s.login(t, "manager", models.RoleWarehouseManager)
	admin := s.login(t, "root", models.RoleAdmin)

	product := map[string]any{"name": "Bolt", "price": "0.25", "quantity_in_stock": 100, "expiry_date": "2030-01-31"}

	w := s.do(t, http.MethodPost, "/products", staff, product)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/products", manager, product)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, "0.25", created["price"])
	assert.Equal(t, "2030-01-31", created["expiry_date"])
	assert.EqualValues(t, 10, created["low_stock_threshold"])
	id := created["id"].(string)

	w = s.do(t, http.MethodPost, "/products", manager, map[string]any{"name": "X", "price": "1", "expiry_date": "31.01.2030"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/products?q=bol", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	w = s.do(t, http.MethodDelete, "/products/"+id, manager, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodDelete, "/products/"+id, admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/products/"+id, staff, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSuppliersAndWarehouses(t *testing.T) {
	s := newTestServer(t)
	manager := s.login(t, "manager", models.RoleWarehouseManager)

	w := s.do(t, http.MethodPost, "/suppliers", manager, map[string]any{"name": "Acme"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = s.do(t, http.MethodPost, "/suppliers", manager, map[string]any{"name": "Acme"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/warehouses", manager, map[string]any{"address": "1 Dock Rd", "capacity": 500})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "1 Dock Rd", decode(t, w)["label"])

	w = s.do(t, http.MethodGet, "/warehouses", manager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])
}

func TestAdminUsers(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", models.RoleAdmin)
	staff := s.login(t, "staff", models.RoleInventoryStaff)

	w := s.do(t, http.MethodGet, "/admin/users", staff, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/admin/users", admin, map[string]any{
		"username": "carol", "email": "carol@example.com", "password": "secret1", "role": "SalesTeam",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["id"].(string)

	w = s.do(t, http.MethodPost, "/admin/users", admin, map[string]any{
		"username": "dave", "email": "dave@example.com", "password": "secret1", "role": "Janitor",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/admin/users", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, decode(t, w)["total"])

	w = s.do(t, http.MethodDelete, "/admin/users/"+id, admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// главного администратора удалить нельзя, себя тоже
	w = s.do(t, http.MethodGet, "/auth/me", admin, nil)
	self := decode(t, w)["id"].(string)
	w = s.do(t, http.MethodDelete, "/admin/users/"+self, admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.True(t, strings.Contains(decode(t, w)["message"].(string), "own account"))
}

func TestRoleChangeAppliesToIssuedTokens(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", models.RoleAdmin)
	manager := s.login(t, "manager", models.RoleWarehouseManager)

	w := s.do(t, http.MethodGet, "/auth/me", manager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	id := decode(t, w)["id"].(string)

	w = s.do(t, http.MethodPut, "/admin/users/"+id, admin, map[string]any{
		"username": "manager", "email": "manager@example.com", "role": "SalesTeam", "is_active": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// токен выдан менеджеру, но роль уже SalesTeam
	w = s.do(t, http.MethodPost, "/suppliers", manager, map[string]any{"name": "Acme"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPut, "/admin/users/"+id, admin, map[string]any{
		"username": "manager", "email": "manager@example.com", "role": "WarehouseManager", "is_active": false,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, path := range []string{"/suppliers", "/cart", "/auth/me"} {
		w = s.do(t, http.MethodGet, path, manager, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
	w = s.do(t, http.MethodPost, "/suppliers", manager, map[string]any{"name": "Acme"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/suppliers", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["total"])
}
