package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"warehouse-service/internal/cart"
	"warehouse-service/internal/metrics"
	"warehouse-service/internal/migrate"
	"warehouse-service/internal/models"
	"warehouse-service/internal/repository"
	"warehouse-service/internal/service"
	"warehouse-service/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Каталог и пользователи на настоящем postgres: UpdateFields с картами колонок,
// NULL для пустых ссылок, ограничения на удаление.
func TestCatalogAndUsers_Postgres(t *testing.T) {
	db := testutil.SetupTestPostgres(t)
	ctx := context.Background()
	require.NoError(t, migrate.MigrateWarehouseDB(ctx, db, zap.NewNop(), migrate.DefaultMigrateOptions()))

	repo := repository.New(db)
	log := zap.NewNop()
	carts := cart.NewStore(cart.NewMemoryKV(), time.Hour)
	catalog := service.NewCatalogService(repo, repo, log)
	users := service.NewUserService(repo, repo, MockHasher{}, "", log)
	auth := service.NewAuthService(repo, MockHasher{}, &MockTokenProvider{}, carts, time.Hour, log)
	orders := service.NewOrderService(repo, repo, carts, nil, metrics.New("pgcat"), log)

	newUser := func(username string, role models.Role) (*models.User, context.Context) {
		u := &models.User{Username: username, Email: username + "@example.com", PasswordHash: "hash:password", Role: role, IsActive: true}
		require.NoError(t, repo.Users.Create(ctx, u))
		return u, service.WithPrincipal(ctx, u.ID, role, "sid-"+username)
	}
	admin, adminCtx := newUser("admin", models.RoleAdmin)
	_, wmCtx := newUser("manager", models.RoleWarehouseManager)
	alice, aliceCtx := newUser("alice", models.RoleSalesTeam)

	t.Run("product update clears nullable references", func(t *testing.T) {
		sup, err := catalog.CreateSupplier(wmCtx, service.SupplierInput{Name: "Acme", Contact: strPtr("  ")})
		require.NoError(t, err)
		assert.Nil(t, sup.Contact)

		wh, err := catalog.CreateWarehouse(wmCtx, service.WarehouseInput{Address: "1 Dock Rd"})
		require.NoError(t, err)

		purchase := dec("7.50")
		expiry := time.Date(2030, 1, 31, 0, 0, 0, 0, time.UTC)
		p, err := catalog.CreateProduct(wmCtx, service.ProductInput{
			Name:            "Widget",
			Category:        strPtr("Tools"),
			QuantityInStock: 12,
			Price:           dec("10.005"),
			PurchasePrice:   &purchase,
			ExpiryDate:      &expiry,
			SupplierID:      &sup.ID,
			WarehouseID:     &wh.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, "10.01", p.Price.StringFixed(2))
		require.NotNil(t, p.Supplier)
		require.NotNil(t, p.Warehouse)
		assert.True(t, p.PurchasePrice.Valid)

		threshold := 20
		p, err = catalog.UpdateProduct(wmCtx, p.ID, service.ProductInput{
			Name: "Widget XL", QuantityInStock: 12, Price: dec("11"), LowStockThreshold: &threshold,
		})
		require.NoError(t, err)
		assert.Equal(t, "Widget XL", p.Name)
		assert.Nil(t, p.SupplierID)
		assert.Nil(t, p.WarehouseID)
		assert.Nil(t, p.Category)
		assert.Nil(t, p.ExpiryDate)
		assert.False(t, p.PurchasePrice.Valid)
		assert.True(t, p.IsLowStock())

		require.NoError(t, catalog.DeleteSupplier(adminCtx, sup.ID))
		require.NoError(t, catalog.DeleteWarehouse(adminCtx, wh.ID))
	})

	t.Run("ordered product and its buyer cannot be deleted", func(t *testing.T) {
		p, err := catalog.CreateProduct(wmCtx, service.ProductInput{Name: "Gadget", QuantityInStock: 3, Price: dec("2.00")})
		require.NoError(t, err)

		line := cart.Line{ProductID: p.ID, Name: p.Name, Quantity: 1, UnitPrice: p.Price}
		c := cart.New()
		c.Put(line)
		_, err = orders.PlaceOrder(aliceCtx, alice.ID, c)
		require.NoError(t, err)

		err = catalog.DeleteProduct(adminCtx, p.ID)
		assert.True(t, errors.Is(err, service.ErrProductInUse), "got %v", err)
		err = users.Delete(adminCtx, alice.ID)
		assert.True(t, errors.Is(err, service.ErrUserHasOrders), "got %v", err)
	})

	t.Run("user update applies role and active flag", func(t *testing.T) {
		bob, err := users.Create(adminCtx, service.UserInput{
			Username: "bob", Email: "bob@example.com", Password: "secret1", Role: models.RoleWarehouseManager, IsActive: true,
		})
		require.NoError(t, err)

		_, err = users.Create(adminCtx, service.UserInput{
			Username: "bob2", Email: "BOB@example.com", Password: "secret1", Role: models.RoleSalesTeam, IsActive: true,
		})
		assert.True(t, errors.Is(err, service.ErrEmailTaken), "got %v", err)

		name := "Bob"
		got, err := users.Update(adminCtx, bob.ID, service.UserInput{
			Username: "bob", Email: "bob@example.com", Role: models.RoleSalesTeam, Name: &name, IsActive: false,
		})
		require.NoError(t, err)
		assert.Equal(t, models.RoleSalesTeam, got.Role)
		assert.False(t, got.IsActive)
		require.NotNil(t, got.Name)
		assert.Equal(t, "Bob", *got.Name)
		assert.Equal(t, "hash:secret1", got.PasswordHash)

		_, err = auth.Principal(ctx, bob.ID)
		assert.True(t, errors.Is(err, service.ErrUnauthorized), "got %v", err)
		_, err = auth.Login(ctx, "bob", "secret1")
		assert.True(t, errors.Is(err, service.ErrInvalidCredentials), "got %v", err)

		p, err := auth.Principal(ctx, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, p.Role)
		_, err = auth.Principal(ctx, uuid.New())
		assert.True(t, errors.Is(err, service.ErrUnauthorized), "got %v", err)

		require.NoError(t, users.Delete(adminCtx, bob.ID))
		err = users.Delete(adminCtx, admin.ID)
		assert.True(t, errors.Is(err, service.ErrCannotDeleteSelf), "got %v", err)
	})
}
