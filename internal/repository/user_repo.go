package repository

import (
	"context"
	"errors"

	"warehouse-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepo interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// ExistsByUsername/ExistsByEmail не учитывают пользователя except (при редактировании).
	ExistsByUsername(ctx context.Context, username string, except *uuid.UUID) (bool, error)
	ExistsByEmail(ctx context.Context, email string, except *uuid.UUID) (bool, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, limit, offset int) ([]models.User, int64, error)
}

type userRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) UserRepo { return &userRepo{db: db} }

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) ExistsByUsername(ctx context.Context, username string, except *uuid.UUID) (bool, error) {
	return r.exists(ctx, "username = ?", username, except)
}

func (r *userRepo) ExistsByEmail(ctx context.Context, email string, except *uuid.UUID) (bool, error) {
	return r.exists(ctx, "lower(email) = lower(?)", email, except)
}

func (r *userRepo) exists(ctx context.Context, cond string, val any, except *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.User{}).Where(cond, val)
	if except != nil {
		q = q.Where("id <> ?", *except)
	}
	var cnt int64
	err := q.Count(&cnt).Error
	return cnt > 0, err
}

func (r *userRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	return tx.RowsAffected > 0, tx.Error
}

func (r *userRepo) List(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	var list []models.User
	err := q.Order("username ASC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}
