package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"warehouse-service/config"
	"warehouse-service/internal/cache"
	"warehouse-service/internal/cart"
	"warehouse-service/internal/database"
	"warehouse-service/internal/hashing"
	"warehouse-service/internal/logger"
	"warehouse-service/internal/metrics"
	"warehouse-service/internal/producer"
	"warehouse-service/internal/repository"
	"warehouse-service/internal/service"
	"warehouse-service/internal/token"
	gtransport "warehouse-service/internal/transport/grpc"
	"warehouse-service/internal/transport/http/router"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	isDev := os.Getenv("ENV") == "development"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}

	defer logger.Sync()

	log := logger.L()

	cfg := config.Load(log)
	if !isDev {
		gin.SetMode(gin.ReleaseMode)
	}

	db := database.ConnectDB(&cfg.DB.Config, log)
	defer database.CloseDB(db, log)

	repos := repository.New(db)

	// Корзины: Redis, если включён, иначе память процесса
	var kv cart.KV = cart.NewMemoryKV()
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rc.Close()
		kv = rc
	} else {
		log.Warn("Redis disabled, carts are kept in process memory")
	}
	carts := cart.NewStore(kv, cfg.Redis.CartTTL)

	// Event bus is optional (nil disables publishing)
	var events service.EventBus
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) > 0 {
		p := producer.NewOrderEventsProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrders)
		defer p.Close()
		events = p
		log.Info("Kafka producer enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.TopicOrders))
	}

	m := metrics.New("warehouse")
	hasher := hashing.NewBcrypt(0)
	tokens := token.NewHSProvider(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience)

	engine := router.Router(router.Deps{
		Auth:    service.NewAuthService(repos, hasher, tokens, carts, cfg.JWT.AccessExp, log),
		Carts:   service.NewCartService(repos, carts, log),
		Orders:  service.NewOrderService(repos, repos, carts, events, m, log),
		Catalog: service.NewCatalogService(repos, repos, log),
		Users:   service.NewUserService(repos, repos, hasher, cfg.Admin.Username, log),
		Tokens:  tokens,
		Metrics: m,
		Log:     log,
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.GRPCPort)
	if err != nil {
		log.Fatal("failed to listen", zap.Error(err))
	}
	grpcServer, healthSrv := gtransport.NewServer(log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("Starting HTTP server", zap.String("addr", cfg.HTTPPort))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go func() {
		log.Info("Starting gRPC health server", zap.String("addr", cfg.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	<-quit
	log.Info("Shutting down warehouse service...")
	healthSrv.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()
	log.Info("Warehouse service stopped gracefully")
}
