package main

import (
	"context"
	"os"

	"warehouse-service/config"
	"warehouse-service/internal/database"
	"warehouse-service/internal/hashing"
	"warehouse-service/internal/logger"
	"warehouse-service/internal/migrate"

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

	cfg := config.LoadMigrate(log)

	db := database.ConnectDBForMigration(&cfg.DB.Config, log)
	defer database.CloseDB(db, log)

	ctx := context.Background()

	opts := migrate.DefaultMigrateOptions()

	if err := migrate.MigrateWarehouseDB(ctx, db, log, opts); err != nil {
		log.Fatal("Ошибка при выполнении миграции", zap.Error(err))
	}

	if _, err := migrate.SeedAdmin(ctx, db, hashing.NewBcrypt(0), migrate.AdminSeed{
		Username: cfg.Admin.Username,
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
	}, log); err != nil {
		log.Fatal("Ошибка при создании администратора", zap.Error(err))
	}

	log.Info("Миграция успешно завершена")
}
