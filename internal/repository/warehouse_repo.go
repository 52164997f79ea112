package repository

import (
	"context"
	"errors"

	"warehouse-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WarehouseRepo interface {
	Create(ctx context.Context, w *models.WarehouseLocation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.WarehouseLocation, error)
	ExistsByAddress(ctx context.Context, address string, except *uuid.UUID) (bool, error)
	ExistsByName(ctx context.Context, name string, except *uuid.UUID) (bool, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	// List: сначала именованные склады по имени, затем безымянные по адресу.
	List(ctx context.Context, limit, offset int) ([]models.WarehouseLocation, int64, error)
}

type warehouseRepo struct{ db *gorm.DB }

func NewWarehouseRepo(db *gorm.DB) WarehouseRepo { return &warehouseRepo{db: db} }

func (r *warehouseRepo) Create(ctx context.Context, w *models.WarehouseLocation) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *warehouseRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.WarehouseLocation, error) {
	var w models.WarehouseLocation
	err := r.db.WithContext(ctx).First(&w, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &w, err
}

func (r *warehouseRepo) ExistsByAddress(ctx context.Context, address string, except *uuid.UUID) (bool, error) {
	return r.exists(ctx, "address = ?", address, except)
}

func (r *warehouseRepo) ExistsByName(ctx context.Context, name string, except *uuid.UUID) (bool, error) {
	return r.exists(ctx, "name = ?", name, except)
}

func (r *warehouseRepo) exists(ctx context.Context, cond string, val any, except *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.WarehouseLocation{}).Where(cond, val)
	if except != nil {
		q = q.Where("id <> ?", *except)
	}
	var cnt int64
	err := q.Count(&cnt).Error
	return cnt > 0, err
}

func (r *warehouseRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.WarehouseLocation{}).Where("id = ?", id).Updates(fields).Error
}

func (r *warehouseRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Delete(&models.WarehouseLocation{}, "id = ?", id)
	return tx.RowsAffected > 0, tx.Error
}

func (r *warehouseRepo) List(ctx context.Context, limit, offset int) ([]models.WarehouseLocation, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.WarehouseLocation{})

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

	var list []models.WarehouseLocation
	err := q.Order("name IS NULL").Order("name ASC").Order("address ASC").
		Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}
