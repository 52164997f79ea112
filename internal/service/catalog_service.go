package service

import (
	"context"
	"math"
	"strings"
	"time"

	"warehouse-service/internal/models"
	"warehouse-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const CatalogPageSize = 10

// ProductInput: поля формы товара. Для Update nil-поля не меняются, кроме nullable-ссылок.
type ProductInput struct {
	Name              string
	Category          *string
	Description       *string
	QuantityInStock   int
	Price             decimal.Decimal
	PurchasePrice     *decimal.Decimal
	ExpiryDate        *time.Time
	LowStockThreshold *int
	SupplierID        *uuid.UUID
	WarehouseID       *uuid.UUID
}

type SupplierInput struct {
	Name    string
	Contact *string
	Address *string
}

type WarehouseInput struct {
	Name     *string
	Address  string
	Capacity *int
}

type ProductQuery struct {
	Page     int
	Query    string
	Category string
}

type Page[T any] struct {
	Items    []T
	Page     int
	PageSize int
	Total    int64
}

type CatalogService interface {
	ListProducts(ctx context.Context, q ProductQuery) (*Page[models.Product], error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	ListSuppliers(ctx context.Context, page int) (*Page[models.Supplier], error)
	CreateSupplier(ctx context.Context, in SupplierInput) (*models.Supplier, error)
	UpdateSupplier(ctx context.Context, id uuid.UUID, in SupplierInput) (*models.Supplier, error)
	DeleteSupplier(ctx context.Context, id uuid.UUID) error

	ListWarehouses(ctx context.Context, page int) (*Page[models.WarehouseLocation], error)
	CreateWarehouse(ctx context.Context, in WarehouseInput) (*models.WarehouseLocation, error)
	UpdateWarehouse(ctx context.Context, id uuid.UUID, in WarehouseInput) (*models.WarehouseLocation, error)
	DeleteWarehouse(ctx context.Context, id uuid.UUID) error
}

type catalogService struct {
	repo *repository.Repository
	tx   TxRunner
	log  *zap.Logger
}

func NewCatalogService(repo *repository.Repository, tx TxRunner, log *zap.Logger) CatalogService {
	if log == nil {
		log = zap.NewNop()
	}
	return &catalogService{repo: repo, tx: tx, log: log}
}

// MaxPage ограничивает номер страницы, чтобы смещение не переполнилось.
const MaxPage = math.MaxInt32

func pageOffset(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	return page, (page - 1) * size
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// ---------- products ----------

func (s *catalogService) ListProducts(ctx context.Context, q ProductQuery) (*Page[models.Product], error) {
	if _, _, err := requireCapability(ctx, CapViewCatalog); err != nil {
		return nil, err
	}
	page, off := pageOffset(q.Page, CatalogPageSize)
	list, total, err := s.repo.Products.List(ctx, repository.ProductListFilter{
		Query:    q.Query,
		Category: q.Category,
		Limit:    CatalogPageSize,
		Offset:   off,
	})
	if err != nil {
		return nil, err
	}
	return &Page[models.Product]{Items: list, Page: page, PageSize: CatalogPageSize, Total: total}, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if _, _, err := requireCapability(ctx, CapViewCatalog); err != nil {
		return nil, err
	}
	p, err := s.repo.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func validateProduct(in ProductInput) error {
	ve := &ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		ve.add("name", "name is required")
	} else if len(in.Name) > 100 {
		ve.add("name", "name must be at most 100 characters")
	}
	if in.QuantityInStock < 0 {
		ve.add("quantity_in_stock", "must be >= 0")
	}
	if in.Price.IsNegative() {
		ve.add("price", "must be >= 0")
	}
	if in.PurchasePrice != nil && in.PurchasePrice.IsNegative() {
		ve.add("purchase_price", "must be >= 0")
	}
	if in.LowStockThreshold != nil && *in.LowStockThreshold < 0 {
		ve.add("low_stock_threshold", "must be >= 0")
	}
	return ve.orNil()
}

// checkRefs: поставщик и склад, если указаны, должны существовать.
func (s *catalogService) checkRefs(ctx context.Context, repo *repository.Repository, in ProductInput) error {
	if in.SupplierID != nil {
		sup, err := repo.Suppliers.GetByID(ctx, *in.SupplierID)
		if err != nil {
			return err
		}
		if sup == nil {
			return ErrSupplierNotFound
		}
	}
	if in.WarehouseID != nil {
		w, err := repo.Warehouses.GetByID(ctx, *in.WarehouseID)
		if err != nil {
			return err
		}
		if w == nil {
			return ErrWarehouseNotFound
		}
	}
	return nil
}

func (s *catalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if _, _, err := requireCapability(ctx, CapManageCatalog); err != nil {
		return nil, err
	}
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, s.repo, in); err != nil {
		return nil, err
	}

	p := &models.Product{
		Name:              strings.TrimSpace(in.Name),
		Category:          trimPtr(in.Category),
		Description:       trimPtr(in.Description),
		QuantityInStock:   in.QuantityInStock,
		Price:             in.Price.Round(2),
		ExpiryDate:        in.ExpiryDate,
		LowStockThreshold: models.DefaultLowStockThreshold,
		SupplierID:        in.SupplierID,
		WarehouseID:       in.WarehouseID,
	}
	if in.PurchasePrice != nil {
		p.PurchasePrice = decimal.NewNullDecimal(in.PurchasePrice.Round(2))
	}
	if in.LowStockThreshold != nil {
		p.LowStockThreshold = *in.LowStockThreshold
	}
	if err := s.repo.Products.Create(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("product created", zap.String("product_id", p.ID.String()), zap.String("name", p.Name))
	return s.repo.Products.GetByID(ctx, p.ID)
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput) (*models.Product, error) {
	if _, _, err := requireCapability(ctx, CapManageCatalog); err != nil {
		return nil, err
	}
	if err := validateProduct(in); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *repository.Repository) error {
		cur, err := tx.Products.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return ErrProductNotFound
		}
		if err := s.checkRefs(ctx, tx, in); err != nil {
			return err
		}

		fields := map[string]any{
			"name":              strings.TrimSpace(in.Name),
			"category":          trimPtr(in.Category),
			"description":       trimPtr(in.Description),
			"quantity_in_stock": in.QuantityInStock,
			"price":             in.Price.Round(2),
			"expiry_date":       in.ExpiryDate,
			"supplier_id":       in.SupplierID,
			"warehouse_id":      in.WarehouseID,
			"updated_at":        time.Now(),
		}
		if in.PurchasePrice != nil {
			fields["purchase_price"] = in.PurchasePrice.Round(2)
		} else {
			fields["purchase_price"] = nil
		}
		if in.LowStockThreshold != nil {
			fields["low_stock_threshold"] = *in.LowStockThreshold
		}
		return tx.Products.UpdateFields(ctx, id, fields)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Products.GetByID(ctx, id)
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, _, err := requireCapability(ctx, CapDeleteCatalog); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *repository.Repository) error {
		used, err := tx.OrderItems.ExistsByProduct(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return ErrProductInUse
		}
		ok, err := tx.Products.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrProductNotFound
		}
		return nil
	})
}

// ---------- suppliers ----------

func (s *catalogService) ListSuppliers(ctx context.Context, page int) (*Page[models.Supplier], error) {
	if _, _, err := requireCapability(ctx, CapViewCatalog); err != nil {
		return nil, err
	}
	page, off := pageOffset(page, CatalogPageSize)
	list, total, err := s.repo.Suppliers.List(ctx, CatalogPageSize, off)
	if err != nil {
		return nil, err
	}
	return &Page[models.Supplier]{Items: list, Page: page, PageSize: CatalogPageSize, Total: total}, nil
}

func validateSupplier(in SupplierInput) error {
	ve := &ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		ve.add("name", "name is required")
	} else if len(in.Name) > 100 {
		ve.add("name", "name must be at most 100 characters")
	}
	return ve.orNil()
}

func (s *catalogService) CreateSupplier(ctx context.Context, in SupplierInput) (*models.Supplier, error) {
	if _, _, err := requireCapability(ctx, CapManageCatalog); err != nil {
		return nil, err
	}
	if err := validateSupplier(in); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	taken, err := s.repo.Suppliers.ExistsByName(ctx, name, nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSupplierExists
	}
	sup := &models.Supplier{Name: name, Contact: trimPtr(in.Contact), Address: trimPtr(in.Address)}
	if err := s.repo.Suppliers.Create(ctx, sup); err != nil {
		return nil, err
	}
	return sup, nil
}

func (s *catalogService) UpdateSupplier(ctx context.Context, id uuid.UUID, in SupplierInput) (*models.Supplier, error) {
	if _, _, err := requireCapability(ctx, CapManageCatalog); err != nil {
		return nil, err
	}
	if err := validateSupplier(in); err != nil {
		return nil, err
	}
	cur, err := s.repo.Suppliers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrSupplierNotFound
	}
	name := strings.TrimSpace(in.Name)
	taken, err := s.repo.Suppliers.ExistsByName(ctx, name, &id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSupplierExists
	}
	if err := s.repo.Suppliers.UpdateFields(ctx, id, map[string]any{
		"name":       name,
		"contact":    trimPtr(in.Contact),
		"address":    trimPtr(in.Address),
		"updated_at": time.Now(),
	}); err != nil {
		return nil, err
	}
	return s.repo.Suppliers.GetByID(ctx, id)
}

func (s *catalogService) DeleteSupplier(ctx context.Context, id uuid.UUID) error {
	if _, _, err := requireCapability(ctx, CapDeleteCatalog); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *repository.Repository) error {
		used, err := tx.Products.ExistsBySupplier(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return ErrSupplierInUse
		}
		ok, err := tx.Suppliers.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrSupplierNotFound
		}
		return nil
	})
}

// ---------- warehouses ----------

func (s *catalogService) ListWarehouses(ctx context.Context, page int) (*Page[models.WarehouseLocation], error) {
	if _, _, err := requireCapability(ctx, CapViewCatalog); err != nil {
		return nil, err
	}
	page, off := pageOffset(page, CatalogPageSize)
	list, total, err := s.repo.Warehouses.List(ctx, CatalogPageSize, off)
	if err != nil {
		return nil, err
	}
	return &Page[models.WarehouseLocation]{Items: list, Page: page, PageSize: CatalogPageSize, Total: total}, nil
}

func validateWarehouse(in WarehouseInput) error {
	ve := &ValidationError{}
	if strings.TrimSpace(in.Address) == "" {
		ve.add("address", "address is required")
	} else if len(in.Address) > 200 {
		ve.add("address", "address must be at most 200 characters")
	}
	if in.Capacity != nil && *in.Capacity < 0 {
		ve.add("capacity", "must be >= 0")
	}
	return ve.orNil()
}

func (s *catalogService) warehouseUnique(ctx context.Context, name *string, address string, except *uuid.UUID) error {
	taken, err := s.repo.Warehouses.ExistsByAddress(ctx, address, except)
	if err != nil {
		return err
	}
	if taken {
		return ErrWarehouseExists
	}
	if name != nil {
		taken, err = s.repo.Warehouses.ExistsByName(ctx, *name, except)
		if err != nil {
			return err
		}
		if taken {
			return ErrWarehouseExists
		}
	}
	return nil
}

func (s *catalogService) CreateWarehouse(ctx context.Context, in WarehouseInput) (*models.WarehouseLocation, error) {
	if _, _, err := requireCapability(ctx, CapManageCatalog); err != nil {
		return nil, err
	}
	if err := validateWarehouse(in); err != nil {
		return nil, err
	}
	name, address := trimPtr(in.Name), strings.TrimSpace(in.Address)
	if err := s.warehouseUnique(ctx, name, address, nil); err != nil {
		return nil, err
	}
	w := &models.WarehouseLocation{Name: name, Address: address, Capacity: in.Capacity}
	if err := s.repo.Warehouses.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *catalogService) UpdateWarehouse(ctx context.Context, id uuid.UUID, in WarehouseInput) (*models.WarehouseLocation, error) {
	if _, _, err := requireCapability(ctx, CapManageCatalog); err != nil {
		return nil, err
	}
	if err := validateWarehouse(in); err != nil {
		return nil, err
	}
	cur, err := s.repo.Warehouses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrWarehouseNotFound
	}
	name, address := trimPtr(in.Name), strings.TrimSpace(in.Address)
	if err := s.warehouseUnique(ctx, name, address, &id); err != nil {
		return nil, err
	}
	if err := s.repo.Warehouses.UpdateFields(ctx, id, map[string]any{
		"name":       name,
		"address":    address,
		"capacity":   in.Capacity,
		"updated_at": time.Now(),
	}); err != nil {
		return nil, err
	}
	return s.repo.Warehouses.GetByID(ctx, id)
}

func (s *catalogService) DeleteWarehouse(ctx context.Context, id uuid.UUID) error {
	if _, _, err := requireCapability(ctx, CapDeleteCatalog); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *repository.Repository) error {
		used, err := tx.Products.ExistsByWarehouse(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return ErrWarehouseInUse
		}
		ok, err := tx.Warehouses.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrWarehouseNotFound
		}
		return nil
	})
}
