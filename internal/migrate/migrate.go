package migrate

import (
	"context"

	"warehouse-service/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MigrateOptions struct {
	CreateExtensions       bool // pgcrypto
	CreateChecks           bool // CHECK-constraint для целостности
	CreateIndexes          bool // индексы и частичный UNIQUE
	CreateFKsViaSQL        bool // FK через SQL (поверх GORM-constraint)
	CreateUpdatedAtTrigger bool // триггер обновления updated_at
}

func DefaultMigrateOptions() MigrateOptions {
	return MigrateOptions{
		CreateExtensions:       true,
		CreateChecks:           true,
		CreateIndexes:          true,
		CreateFKsViaSQL:        true,
		CreateUpdatedAtTrigger: true,
	}
}

type step struct {
	name string
	sql  string
}

var updatedAtTables = []string{"users", "suppliers", "warehouse_locations", "products", "orders"}

var checkSteps = []step{
	{"products.quantity_in_stock >= 0", `
ALTER TABLE products DROP CONSTRAINT IF EXISTS chk_products_stock_non_negative;
ALTER TABLE products ADD CONSTRAINT chk_products_stock_non_negative CHECK (quantity_in_stock >= 0);
`},
	{"products: цены неотрицательные", `
ALTER TABLE products DROP CONSTRAINT IF EXISTS chk_products_prices_non_negative;
ALTER TABLE products ADD CONSTRAINT chk_products_prices_non_negative
  CHECK (price >= 0 AND (purchase_price IS NULL OR purchase_price >= 0) AND low_stock_threshold >= 0);
`},
	{"order_items.quantity > 0", `
ALTER TABLE order_items DROP CONSTRAINT IF EXISTS chk_order_items_quantity_gt_zero;
ALTER TABLE order_items ADD CONSTRAINT chk_order_items_quantity_gt_zero CHECK (quantity > 0);
`},
	{"order_items.price_at_order >= 0", `
ALTER TABLE order_items DROP CONSTRAINT IF EXISTS chk_order_items_price_non_negative;
ALTER TABLE order_items ADD CONSTRAINT chk_order_items_price_non_negative CHECK (price_at_order >= 0);
`},
	{"orders.total_amount >= 0", `
ALTER TABLE orders DROP CONSTRAINT IF EXISTS chk_orders_total_non_negative;
ALTER TABLE orders ADD CONSTRAINT chk_orders_total_non_negative CHECK (total_amount >= 0);
`},
	{"допустимые статусы заказа", `
ALTER TABLE orders DROP CONSTRAINT IF EXISTS chk_orders_status_allowed;
ALTER TABLE orders ADD CONSTRAINT chk_orders_status_allowed
  CHECK (status IN ('Pending','Processing','Shipped','Delivered','Cancelled','Returned'));
`},
	{"допустимые роли", `
ALTER TABLE users DROP CONSTRAINT IF EXISTS chk_users_role_allowed;
ALTER TABLE users ADD CONSTRAINT chk_users_role_allowed
  CHECK (role IN ('Admin','WarehouseManager','InventoryStaff','SalesTeam'));
`},
	{"warehouse_locations.capacity >= 0", `
ALTER TABLE warehouse_locations DROP CONSTRAINT IF EXISTS chk_warehouse_capacity_non_negative;
ALTER TABLE warehouse_locations ADD CONSTRAINT chk_warehouse_capacity_non_negative
  CHECK (capacity IS NULL OR capacity >= 0);
`},
}

var indexSteps = []step{
	// имя склада необязательное, но среди заданных уникальное
	{"ux_warehouse_locations_name", `
CREATE UNIQUE INDEX IF NOT EXISTS ux_warehouse_locations_name
ON warehouse_locations (name) WHERE name IS NOT NULL;
`},
	// история заказов пользователя
	{"ix_orders_user_date", `
CREATE INDEX IF NOT EXISTS ix_orders_user_date ON orders (user_id, order_date DESC);
`},
	{"ix_orders_status_date", `
CREATE INDEX IF NOT EXISTS ix_orders_status_date ON orders (status, order_date DESC);
`},
	{"ux_users_email_lower", `
CREATE UNIQUE INDEX IF NOT EXISTS ux_users_email_lower ON users (lower(email));
`},
}

var fkSteps = []step{
	{"order_items.order_id -> orders.id (CASCADE)", `
ALTER TABLE order_items
  DROP CONSTRAINT IF EXISTS fk_order_items_order,
  ADD CONSTRAINT fk_order_items_order
    FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE;
`},
	{"order_items.product_id -> products.id (RESTRICT)", `
ALTER TABLE order_items
  DROP CONSTRAINT IF EXISTS fk_order_items_product,
  ADD CONSTRAINT fk_order_items_product
    FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE RESTRICT;
`},
	{"orders.user_id -> users.id (RESTRICT)", `
ALTER TABLE orders
  DROP CONSTRAINT IF EXISTS fk_orders_user,
  ADD CONSTRAINT fk_orders_user
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE RESTRICT;
`},
	{"products.supplier_id -> suppliers.id (RESTRICT)", `
ALTER TABLE products
  DROP CONSTRAINT IF EXISTS fk_products_supplier,
  ADD CONSTRAINT fk_products_supplier
    FOREIGN KEY (supplier_id) REFERENCES suppliers(id) ON DELETE RESTRICT;
`},
	{"products.warehouse_id -> warehouse_locations.id (RESTRICT)", `
ALTER TABLE products
  DROP CONSTRAINT IF EXISTS fk_products_warehouse,
  ADD CONSTRAINT fk_products_warehouse
    FOREIGN KEY (warehouse_id) REFERENCES warehouse_locations(id) ON DELETE RESTRICT;
`},
}

func runSteps(db *gorm.DB, log *zap.Logger, steps []step) error {
	for _, s := range steps {
		if err := db.Exec(s.sql).Error; err != nil {
			log.Error("Не удалось выполнить шаг миграции", zap.String("step", s.name), zap.Error(err))
			return err
		}
	}
	return nil
}

func MigrateWarehouseDB(ctx context.Context, db *gorm.DB, log *zap.Logger, opt MigrateOptions) error {
	log.Info("Начало миграции базы данных склада")
	db = db.WithContext(ctx)

	if opt.CreateExtensions {
		log.Info("Создание расширений PostgreSQL")
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
			log.Error("Не удалось включить расширение pgcrypto", zap.Error(err))
			return err
		}
	}

	log.Info("Создание таблиц")
	if err := db.AutoMigrate(
		&models.User{},
		&models.Supplier{},
		&models.WarehouseLocation{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		log.Error("Не удалось создать таблицы", zap.Error(err))
		return err
	}
	log.Info("Таблицы успешно созданы")

	if opt.CreateUpdatedAtTrigger {
		log.Info("Создание триггеров updated_at")
		if err := db.Exec(`
CREATE OR REPLACE FUNCTION set_updated_at() RETURNS trigger AS $$
BEGIN NEW.updated_at = now(); RETURN NEW; END; $$ LANGUAGE plpgsql;
`).Error; err != nil {
			log.Error("Не удалось создать функцию set_updated_at", zap.Error(err))
			return err
		}
		for _, table := range updatedAtTables {
			if err := db.Exec(`
DROP TRIGGER IF EXISTS trg_` + table + `_updated ON ` + table + `;
CREATE TRIGGER trg_` + table + `_updated
BEFORE UPDATE ON ` + table + `
FOR EACH ROW EXECUTE FUNCTION set_updated_at();
`).Error; err != nil {
				log.Error("Не удалось создать триггер updated_at", zap.String("table", table), zap.Error(err))
				return err
			}
		}
		log.Info("Триггеры updated_at успешно созданы")
	}

	if opt.CreateChecks {
		log.Info("Создание CHECK-ограничений")
		if err := runSteps(db, log, checkSteps); err != nil {
			return err
		}
		log.Info("CHECK-ограничения успешно созданы")
	}

	if opt.CreateIndexes {
		log.Info("Создание индексов")
		if err := runSteps(db, log, indexSteps); err != nil {
			return err
		}
		log.Info("Индексы успешно созданы")
	}

	if opt.CreateFKsViaSQL {
		log.Info("Создание внешних ключей")
		if err := runSteps(db, log, fkSteps); err != nil {
			return err
		}
		log.Info("Внешние ключи успешно созданы")
	}

	log.Info("Миграция базы данных склада успешно завершена")
	return nil
}
