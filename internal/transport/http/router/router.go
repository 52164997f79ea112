package router

import (
	"net/http"

	"warehouse-service/internal/metrics"
	"warehouse-service/internal/service"
	"warehouse-service/internal/transport/http/handlers"
	"warehouse-service/internal/transport/http/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Deps struct {
	Auth    *service.AuthService
	Carts   service.CartService
	Orders  service.OrderService
	Catalog service.CatalogService
	Users   service.UserService
	Tokens  service.TokenProvider
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

func Router(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), d.Metrics.GinMiddleware())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Location"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	authHandler := handlers.NewAuthHandler(d.Auth, d.Log)
	cartHandler := handlers.NewCartHandler(d.Carts, d.Log)
	orderHandler := handlers.NewOrderHandler(d.Orders, d.Log)
	catalogHandler := handlers.NewCatalogHandler(d.Catalog, d.Log)
	userHandler := handlers.NewUserHandler(d.Users, d.Log)

	r.POST("/auth/register", authHandler.Register)
	r.POST("/auth/login", authHandler.Login)

	authed := r.Group("/", middleware.AuthRequired(d.Tokens, d.Auth, d.Log))
	{
		authed.POST("/auth/logout", authHandler.Logout)
		authed.GET("/auth/me", authHandler.Me)

		authed.GET("/cart", cartHandler.View)
		authed.DELETE("/cart", cartHandler.Clear)
		authed.POST("/cart/items", cartHandler.AddItem)
		authed.PUT("/cart/items/:product_id", cartHandler.UpdateItem)
		authed.DELETE("/cart/items/:product_id", cartHandler.RemoveItem)

		authed.GET("/orders/new", orderHandler.Summary)
		authed.POST("/orders", orderHandler.Create)
		authed.GET("/orders", orderHandler.List)
		authed.GET("/orders/:id", orderHandler.Get)
		authed.PATCH("/orders/:id/status", orderHandler.UpdateStatus)

		authed.GET("/products", catalogHandler.ListProducts)
		authed.POST("/products", catalogHandler.CreateProduct)
		authed.GET("/products/:id", catalogHandler.GetProduct)
		authed.PUT("/products/:id", catalogHandler.UpdateProduct)
		authed.DELETE("/products/:id", catalogHandler.DeleteProduct)

		authed.GET("/suppliers", catalogHandler.ListSuppliers)
		authed.POST("/suppliers", catalogHandler.CreateSupplier)
		authed.PUT("/suppliers/:id", catalogHandler.UpdateSupplier)
		authed.DELETE("/suppliers/:id", catalogHandler.DeleteSupplier)

		authed.GET("/warehouses", catalogHandler.ListWarehouses)
		authed.POST("/warehouses", catalogHandler.CreateWarehouse)
		authed.PUT("/warehouses/:id", catalogHandler.UpdateWarehouse)
		authed.DELETE("/warehouses/:id", catalogHandler.DeleteWarehouse)

		admin := authed.Group("/admin")
		admin.GET("/users", userHandler.List)
		admin.POST("/users", userHandler.Create)
		admin.PUT("/users/:id", userHandler.Update)
		admin.DELETE("/users/:id", userHandler.Delete)
	}

	return r
}
