package repository

import (
	"context"

	"gorm.io/gorm"
)

type Repository struct {
	DB         *gorm.DB
	Users      UserRepo
	Suppliers  SupplierRepo
	Warehouses WarehouseRepo
	Products   ProductRepo
	Orders     OrderRepo
	OrderItems OrderItemRepo
}

func buildRepository(db *gorm.DB) *Repository {
	return &Repository{
		DB:         db,
		Users:      NewUserRepo(db),
		Suppliers:  NewSupplierRepo(db),
		Warehouses: NewWarehouseRepo(db),
		Products:   NewProductRepo(db),
		Orders:     NewOrderRepo(db),
		OrderItems: NewOrderItemRepo(db),
	}
}

func New(db *gorm.DB) *Repository { return buildRepository(db) }

// WithTx открывает одну транзакцию на весь набор репозиториев. Commit, если fn вернула nil, иначе rollback.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(buildRepository(tx))
	})
}
