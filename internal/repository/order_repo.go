package repository

import (
	"context"
	"errors"

	"warehouse-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderListFilter struct {
	UserID *uuid.UUID
	Status *models.OrderStatus
	Limit  int
	Offset int
}

type OrderRepo interface {
	Create(ctx context.Context, o *models.Order) error
	// GetByID подгружает позиции (с товарами) и владельца.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// UpdateStatus меняет статус, только если текущий равен from (оптимистичная проверка).
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error)
	List(ctx context.Context, f OrderListFilter) ([]models.Order, int64, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	ExistsByUser(ctx context.Context, userID uuid.UUID) (bool, error)
	// DeleteAggregate удаляет заказ вместе с его позициями в одной транзакции.
	DeleteAggregate(ctx context.Context, id uuid.UUID) (bool, error)
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) OrderRepo { return &orderRepo{db: db} }

func (r *orderRepo) Create(ctx context.Context, o *models.Order) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(o).Error
}

func (r *orderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var ord models.Order
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Items.Product").
		First(&ord, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &ord, err
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return tx.RowsAffected > 0, tx.Error
}

func (r *orderRepo) List(ctx context.Context, f OrderListFilter) ([]models.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})

	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 10
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var list []models.Order
	err := q.Order("order_date DESC").Order("id DESC").
		Limit(f.Limit).Offset(f.Offset).
		Preload("User").
		Find(&list).Error
	return list, total, err
}

func (r *orderRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("order_number = ?", number).Count(&cnt).Error
	return cnt > 0, err
}

func (r *orderRepo) ExistsByUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID).Limit(1).Count(&cnt).Error
	return cnt > 0, err
}

func (r *orderRepo) DeleteAggregate(ctx context.Context, id uuid.UUID) (bool, error) {
	var deleted bool
	// внутри уже открытой транзакции gorm сделает SAVEPOINT
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Order{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}
