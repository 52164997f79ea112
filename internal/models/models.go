package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleAdmin            Role = "Admin"
	RoleWarehouseManager Role = "WarehouseManager"
	RoleInventoryStaff   Role = "InventoryStaff"
	RoleSalesTeam        Role = "SalesTeam"
)

// Roles: полный (закрытый) список ролей.
var Roles = []Role{RoleAdmin, RoleWarehouseManager, RoleInventoryStaff, RoleSalesTeam}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Статус заказа: строковый тип, как Role
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
	OrderStatusReturned   OrderStatus = "Returned"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
	OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned,
}

func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

const DefaultLowStockThreshold = 10

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Username     string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	Email        string    `gorm:"type:varchar(120);not null;uniqueIndex"`
	PasswordHash string    `gorm:"not null"`
	Role         Role      `gorm:"type:varchar(50);not null;default:'InventoryStaff';index"`
	Name         *string   `gorm:"type:varchar(100)"`
	ContactInfo  *string   `gorm:"type:varchar(200)"`
	IsActive     bool      `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null;default:now()"`
	UpdatedAt    time.Time `gorm:"not null;default:now()"`
}

func (User) TableName() string { return "users" }

type Supplier struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	Contact   *string   `gorm:"type:varchar(100)"`
	Address   *string   `gorm:"type:varchar(200)"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (Supplier) TableName() string { return "suppliers" }

// WarehouseLocation: имя необязательное, адрес обязательный и уникальный.
type WarehouseLocation struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      *string   `gorm:"type:varchar(100)"` // уникальность (для не-NULL): частичным индексом в миграции
	Address   string    `gorm:"type:varchar(200);not null;uniqueIndex"`
	Capacity  *int      `gorm:"type:int"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (WarehouseLocation) TableName() string { return "warehouse_locations" }

// Label возвращает имя, если оно есть, иначе адрес.
func (w WarehouseLocation) Label() string {
	if w.Name != nil && *w.Name != "" {
		return *w.Name
	}
	return w.Address
}

type Product struct {
	ID                uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string              `gorm:"type:varchar(100);not null;index"`
	Category          *string             `gorm:"type:varchar(50);index"`
	Description       *string             `gorm:"type:text"`
	QuantityInStock   int                 `gorm:"not null;default:0"` // CHECK >= 0 добавим в миграции
	Price             decimal.Decimal     `gorm:"type:numeric(10,2);not null"`
	PurchasePrice     decimal.NullDecimal `gorm:"type:numeric(10,2)"`
	ExpiryDate        *time.Time          `gorm:"type:date"`
	LowStockThreshold int                 `gorm:"not null"` // по умолчанию DefaultLowStockThreshold, выставляет сервис

	SupplierID  *uuid.UUID         `gorm:"type:uuid;index"`
	Supplier    *Supplier          `gorm:"foreignKey:SupplierID;constraint:OnDelete:RESTRICT"`
	WarehouseID *uuid.UUID         `gorm:"type:uuid;index"`
	Warehouse   *WarehouseLocation `gorm:"foreignKey:WarehouseID;constraint:OnDelete:RESTRICT"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (Product) TableName() string { return "products" }

func (p Product) IsLowStock() bool { return p.QuantityInStock <= p.LowStockThreshold }

type Order struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber string          `gorm:"type:varchar(32);not null;uniqueIndex"`
	OrderDate   time.Time       `gorm:"not null;default:now();index"`
	Status      OrderStatus     `gorm:"type:varchar(20);not null;default:'Pending';index"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Notes       *string         `gorm:"type:text"`

	UserID uuid.UUID `gorm:"type:uuid;not null;index"`
	User   *User     `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"` // каскад на позиции
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Product      *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	Quantity     int             `gorm:"not null"` // CHECK > 0 добавим в миграции
	PriceAtOrder decimal.Decimal `gorm:"type:numeric(10,2);not null"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (OrderItem) TableName() string { return "order_items" }

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.PriceAtOrder.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
