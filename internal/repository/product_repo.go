package repository

import (
	"context"
	"errors"
	"strings"

	"warehouse-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductListFilter struct {
	Query    string // по name/description
	Category string
	Limit    int
	Offset   int
}

// StockCheck: результат проверки остатка.
type StockCheck struct {
	OK        bool
	Available int
}

type ProductRepo interface {
	Create(ctx context.Context, p *models.Product) error
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	// GetByIDForUpdate блокирует строку до конца транзакции (SELECT ... FOR UPDATE).
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, f ProductListFilter) ([]models.Product, int64, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	ExistsBySupplier(ctx context.Context, supplierID uuid.UUID) (bool, error)
	ExistsByWarehouse(ctx context.Context, warehouseID uuid.UUID) (bool, error)

	// Складской учёт.
	// CheckAvailable возвращает nil, если товара нет.
	CheckAvailable(ctx context.Context, id uuid.UUID, qty int) (*StockCheck, error)
	// DecrementStock: if quantity_in_stock >= qty then quantity_in_stock -= qty.
	// false: остатка не хватило (или товара нет), ничего не изменено.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	IncrementStock(ctx context.Context, id uuid.UUID, qty int) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepo { return &productRepo{db: db} }

func (r *productRepo) Create(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (r *productRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(fields).Error
}

func (r *productRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).Preload("Supplier").Preload("Warehouse").First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &p, err
}

func (r *productRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &p, err
}

func (r *productRepo) List(ctx context.Context, f ProductListFilter) ([]models.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})

	if s := strings.TrimSpace(f.Query); s != "" {
		q = q.Where("lower(name) LIKE lower(?) OR lower(coalesce(description, '')) LIKE lower(?)", "%"+s+"%", "%"+s+"%")
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		q = q.Where("category = ?", c)
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

	var list []models.Product
	err := q.Order("name ASC").Limit(f.Limit).Offset(f.Offset).
		Preload("Supplier").Preload("Warehouse").
		Find(&list).Error
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	return tx.RowsAffected > 0, tx.Error
}

func (r *productRepo) ExistsBySupplier(ctx context.Context, supplierID uuid.UUID) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("supplier_id = ?", supplierID).Limit(1).Count(&cnt).Error
	return cnt > 0, err
}

func (r *productRepo) ExistsByWarehouse(ctx context.Context, warehouseID uuid.UUID) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("warehouse_id = ?", warehouseID).Limit(1).Count(&cnt).Error
	return cnt > 0, err
}

func (r *productRepo) CheckAvailable(ctx context.Context, id uuid.UUID, qty int) (*StockCheck, error) {
	var p models.Product
	err := r.db.WithContext(ctx).Select("id", "quantity_in_stock").First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &StockCheck{OK: p.QuantityInStock >= qty, Available: p.QuantityInStock}, nil
}

func (r *productRepo) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	// атомарно и без ухода в минус: строка обновится, только если остатка хватает
	tx := r.db.WithContext(ctx).Exec(`
UPDATE products
SET quantity_in_stock = quantity_in_stock - @q,
    updated_at = now()
WHERE id = @pid
  AND quantity_in_stock >= @q
`, map[string]any{
		"pid": id,
		"q":   qty,
	})
	return tx.RowsAffected > 0, tx.Error
}

func (r *productRepo) IncrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).Exec(`
UPDATE products
SET quantity_in_stock = quantity_in_stock + @q,
    updated_at = now()
WHERE id = @pid
`, map[string]any{
		"pid": id,
		"q":   qty,
	}).Error
}
