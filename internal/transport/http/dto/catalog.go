package dto

import (
	"time"

	"warehouse-service/internal/models"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type ProductRequest struct {
	Name              string           `json:"name" binding:"required"`
	Category          *string          `json:"category"`
	Description       *string          `json:"description"`
	QuantityInStock   int              `json:"quantity_in_stock"`
	Price             *decimal.Decimal `json:"price" binding:"required"`
	PurchasePrice     *decimal.Decimal `json:"purchase_price"`
	ExpiryDate        *string          `json:"expiry_date"` // YYYY-MM-DD
	LowStockThreshold *int             `json:"low_stock_threshold"`
	SupplierID        *string          `json:"supplier_id"`
	WarehouseID       *string          `json:"warehouse_id"`
}

type ProductResponse struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Category          *string            `json:"category,omitempty"`
	Description       *string            `json:"description,omitempty"`
	QuantityInStock   int                `json:"quantity_in_stock"`
	Price             string             `json:"price"`
	PurchasePrice     *string            `json:"purchase_price,omitempty"`
	ExpiryDate        *string            `json:"expiry_date,omitempty"`
	LowStockThreshold int                `json:"low_stock_threshold"`
	LowStock          bool               `json:"low_stock"`
	Supplier          *SupplierResponse  `json:"supplier,omitempty"`
	Warehouse         *WarehouseResponse `json:"warehouse,omitempty"`
}

func NewProductResponse(p *models.Product) ProductResponse {
	out := ProductResponse{
		ID:                p.ID.String(),
		Name:              p.Name,
		Category:          p.Category,
		Description:       p.Description,
		QuantityInStock:   p.QuantityInStock,
		Price:             Money(p.Price),
		LowStockThreshold: p.LowStockThreshold,
		LowStock:          p.IsLowStock(),
	}
	if p.PurchasePrice.Valid {
		s := Money(p.PurchasePrice.Decimal)
		out.PurchasePrice = &s
	}
	if p.ExpiryDate != nil {
		s := p.ExpiryDate.Format(dateLayout)
		out.ExpiryDate = &s
	}
	if p.Supplier != nil {
		s := NewSupplierResponse(p.Supplier)
		out.Supplier = &s
	}
	if p.Warehouse != nil {
		w := NewWarehouseResponse(p.Warehouse)
		out.Warehouse = &w
	}
	return out
}

// ParseDate: "" и nil означают отсутствие даты.
func ParseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type SupplierRequest struct {
	Name    string  `json:"name" binding:"required"`
	Contact *string `json:"contact"`
	Address *string `json:"address"`
}

type SupplierResponse struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Contact *string `json:"contact,omitempty"`
	Address *string `json:"address,omitempty"`
}

func NewSupplierResponse(s *models.Supplier) SupplierResponse {
	return SupplierResponse{ID: s.ID.String(), Name: s.Name, Contact: s.Contact, Address: s.Address}
}

type WarehouseRequest struct {
	Name     *string `json:"name"`
	Address  string  `json:"address" binding:"required"`
	Capacity *int    `json:"capacity"`
}

type WarehouseResponse struct {
	ID       string  `json:"id"`
	Name     *string `json:"name,omitempty"`
	Address  string  `json:"address"`
	Capacity *int    `json:"capacity,omitempty"`
	Label    string  `json:"label"`
}

func NewWarehouseResponse(w *models.WarehouseLocation) WarehouseResponse {
	return WarehouseResponse{ID: w.ID.String(), Name: w.Name, Address: w.Address, Capacity: w.Capacity, Label: w.Label()}
}

type ListResponse[T any] struct {
	Items []T `json:"items"`
	PageMeta
}
