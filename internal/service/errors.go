package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNoSession          = errors.New("no session")
	ErrInvalidCredentials = errors.New("invalid username or password")

	ErrEmptyCart               = errors.New("cart is empty")
	ErrQuantityInvalid         = errors.New("quantity must be > 0")
	ErrProductNotFound         = errors.New("product not found")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrOrderNotFound           = errors.New("order not found")
	ErrInvalidStatus           = errors.New("invalid order status")
	ErrInvalidStatusTransition = errors.New("order status transition not allowed")
	ErrTransactionFailed       = errors.New("order could not be placed, please try again")
	ErrOrderNumberNotGenerated = errors.New("could not generate unique order number")
	ErrOrderTotalMismatch      = errors.New("order total does not match its items")
	ErrNotInCart               = errors.New("product is not in the cart")

	ErrValidation        = errors.New("validation failed")
	ErrProductInUse      = errors.New("product is part of existing orders")
	ErrSupplierNotFound  = errors.New("supplier not found")
	ErrSupplierExists    = errors.New("a supplier with this name already exists")
	ErrSupplierInUse     = errors.New("supplier is associated with existing products")
	ErrWarehouseNotFound = errors.New("warehouse location not found")
	ErrWarehouseExists   = errors.New("a warehouse with this name or address already exists")
	ErrWarehouseInUse    = errors.New("warehouse location is associated with existing products")

	ErrUserNotFound     = errors.New("user not found")
	ErrUsernameTaken    = errors.New("this username is already taken")
	ErrEmailTaken       = errors.New("this email address is already registered")
	ErrInvalidRole      = errors.New("invalid role")
	ErrCannotDeleteSelf = errors.New("you cannot delete your own account")
	ErrPrimaryAdmin     = errors.New("the primary admin account cannot be deleted")
	ErrUserHasOrders    = errors.New("user has existing orders and cannot be deleted, consider deactivating instead")
)

// ProductNotFoundError: товар из корзины больше не существует.
type ProductNotFoundError struct {
	ProductID uuid.UUID
	Name      string
}

func (e *ProductNotFoundError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("product '%s' (ID: %s) could not be found", e.Name, e.ProductID)
	}
	return fmt.Sprintf("product %s could not be found", e.ProductID)
}

func (e *ProductNotFoundError) Is(target error) bool { return target == ErrProductNotFound }

// InsufficientStockError: остатка не хватает; Available показывает остаток на момент проверки.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	name := e.Name
	if name == "" {
		name = e.ProductID.String()
	}
	return fmt.Sprintf("not enough stock for %q, only %d available", name, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// ValidationError: ошибки по полям; errors.Is(err, ErrValidation) == true.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field(s)", len(e.Fields))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = msg
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
