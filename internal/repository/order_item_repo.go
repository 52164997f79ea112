package repository

import (
	"context"

	"warehouse-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderItemRepo interface {
	BulkCreate(ctx context.Context, items []models.OrderItem) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	SumByOrder(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error)
	ExistsByProduct(ctx context.Context, productID uuid.UUID) (bool, error)
}

type orderItemRepo struct{ db *gorm.DB }

func NewOrderItemRepo(db *gorm.DB) OrderItemRepo { return &orderItemRepo{db: db} }

func (r *orderItemRepo) BulkCreate(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(&items).Error
}

func (r *orderItemRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var rows []models.OrderItem
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at ASC").Find(&rows).Error
	return rows, err
}

// SumByOrder считает сумму по позициям (quantity * price_at_order).
func (r *orderItemRepo) SumByOrder(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	var res struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).
		Select("COALESCE(SUM(quantity * price_at_order), 0) AS total").
		Where("order_id = ?", orderID).
		Scan(&res).Error
	return res.Total, err
}

func (r *orderItemRepo) ExistsByProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("product_id = ?", productID).Limit(1).Count(&cnt).Error
	return cnt > 0, err
}
