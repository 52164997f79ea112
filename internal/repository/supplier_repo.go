package repository

import (
	"context"
	"errors"

	"warehouse-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SupplierRepo interface {
	Create(ctx context.Context, s *models.Supplier) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	ExistsByName(ctx context.Context, name string, except *uuid.UUID) (bool, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, limit, offset int) ([]models.Supplier, int64, error)
}

type supplierRepo struct{ db *gorm.DB }

func NewSupplierRepo(db *gorm.DB) SupplierRepo { return &supplierRepo{db: db} }

func (r *supplierRepo) Create(ctx context.Context, s *models.Supplier) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *supplierRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	var s models.Supplier
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &s, err
}

func (r *supplierRepo) ExistsByName(ctx context.Context, name string, except *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Supplier{}).Where("name = ?", name)
	if except != nil {
		q = q.Where("id <> ?", *except)
	}
	var cnt int64
	err := q.Count(&cnt).Error
	return cnt > 0, err
}

func (r *supplierRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Supplier{}).Where("id = ?", id).Updates(fields).Error
}

func (r *supplierRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Delete(&models.Supplier{}, "id = ?", id)
	return tx.RowsAffected > 0, tx.Error
}

func (r *supplierRepo) List(ctx context.Context, limit, offset int) ([]models.Supplier, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Supplier{})

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

	var list []models.Supplier
	err := q.Order("name ASC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}
