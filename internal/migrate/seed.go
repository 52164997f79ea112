package migrate

import (
	"context"
	"errors"

	"warehouse-service/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Hasher interface {
	Hash(password string) (string, error)
}

type AdminSeed struct {
	Username string
	Email    string
	Password string
}

// SeedAdmin создаёт основного администратора, если его ещё нет. Пустой пароль: шаг пропускается.
func SeedAdmin(ctx context.Context, db *gorm.DB, h Hasher, seed AdminSeed, log *zap.Logger) (bool, error) {
	if seed.Password == "" {
		log.Info("ADMIN_PASSWORD не задан, создание администратора пропущено")
		return false, nil
	}

	var existing models.User
	err := db.WithContext(ctx).Where("username = ?", seed.Username).First(&existing).Error
	if err == nil {
		log.Info("Администратор уже существует", zap.String("username", seed.Username))
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	hash, err := h.Hash(seed.Password)
	if err != nil {
		return false, err
	}
	u := &models.User{
		Username:     seed.Username,
		Email:        seed.Email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		log.Error("Не удалось создать администратора", zap.Error(err))
		return false, err
	}
	log.Info("Администратор создан", zap.String("username", u.Username))
	return true, nil
}
