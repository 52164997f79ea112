package service

import "warehouse-service/internal/models"

// Capability: право на группу операций. Набор закрытый.
type Capability int

const (
	CapViewCatalog Capability = iota + 1
	CapManageCatalog
	CapDeleteCatalog
	CapPlaceOrder
	CapViewAllOrders
	CapManageOrders
	CapManageUsers
)

func (c Capability) String() string {
	switch c {
	case CapViewCatalog:
		return "view_catalog"
	case CapManageCatalog:
		return "manage_catalog"
	case CapDeleteCatalog:
		return "delete_catalog"
	case CapPlaceOrder:
		return "place_order"
	case CapViewAllOrders:
		return "view_all_orders"
	case CapManageOrders:
		return "manage_orders"
	case CapManageUsers:
		return "manage_users"
	}
	return "unknown"
}

var everyone = []models.Role{
	models.RoleAdmin, models.RoleWarehouseManager, models.RoleInventoryStaff, models.RoleSalesTeam,
}

var grants = map[Capability][]models.Role{
	CapViewCatalog:   everyone,
	CapPlaceOrder:    everyone,
	CapManageCatalog: {models.RoleAdmin, models.RoleWarehouseManager},
	CapManageOrders:  {models.RoleAdmin, models.RoleWarehouseManager},
	CapDeleteCatalog: {models.RoleAdmin},
	CapViewAllOrders: {models.RoleAdmin},
	CapManageUsers:   {models.RoleAdmin},
}

// Can: роль должна иметь все перечисленные capability.
// Неизвестная роль не имеет ни одной.
func Can(role models.Role, caps ...Capability) bool {
	if !role.Valid() {
		return false
	}
	for _, c := range caps {
		if !granted(role, c) {
			return false
		}
	}
	return true
}

func granted(role models.Role, c Capability) bool {
	for _, r := range grants[c] {
		if r == role {
			return true
		}
	}
	return false
}
