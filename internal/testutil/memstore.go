package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"warehouse-service/internal/models"
	"warehouse-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrUniqueViolation = errors.New("memstore: unique violation")
	ErrFKViolation     = errors.New("memstore: foreign key violation")
)

// MemStore: in-memory реализация всех репозиториев для тестов сервисов и HTTP.
// Транзакции сериализуются и откатываются снапшотом, если fn вернула ошибку.
type MemStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users      map[uuid.UUID]models.User
	suppliers  map[uuid.UUID]models.Supplier
	warehouses map[uuid.UUID]models.WarehouseLocation
	products   map[uuid.UUID]models.Product
	orders     map[uuid.UUID]models.Order
	items      map[uuid.UUID]models.OrderItem

	failures map[string]error
	calls    map[string]int
	seq      time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:      map[uuid.UUID]models.User{},
		suppliers:  map[uuid.UUID]models.Supplier{},
		warehouses: map[uuid.UUID]models.WarehouseLocation{},
		products:   map[uuid.UUID]models.Product{},
		orders:     map[uuid.UUID]models.Order{},
		items:      map[uuid.UUID]models.OrderItem{},
		failures:   map[string]error{},
		calls:      map[string]int{},
		seq:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// FailOn: следующий вызов op (например "Products.DecrementStock") вернёт err. Одноразово.
func (m *MemStore) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = err
}

// Calls: сколько раз вызывалась операция.
func (m *MemStore) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// enter берёт m.mu; вызывающий обязан сделать m.mu.Unlock().
func (m *MemStore) enter(op string) error {
	m.mu.Lock()
	m.calls[op]++
	if err, ok := m.failures[op]; ok {
		delete(m.failures, op)
		return err
	}
	return nil
}

// tick: монотонное время для created_at, чтобы порядок был детерминированным.
func (m *MemStore) tick() time.Time {
	m.seq = m.seq.Add(time.Millisecond)
	return m.seq
}

func (m *MemStore) Repository() *repository.Repository {
	return &repository.Repository{
		Users:      memUsers{m},
		Suppliers:  memSuppliers{m},
		Warehouses: memWarehouses{m},
		Products:   memProducts{m},
		Orders:     memOrders{m},
		OrderItems: memItems{m},
	}
}

func (m *MemStore) WithTx(ctx context.Context, fn func(tx *repository.Repository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snap := m.snapshot()
	m.mu.Unlock()

	if err := fn(m.Repository()); err != nil {
		m.mu.Lock()
		m.restore(snap)
		m.mu.Unlock()
		return err
	}
	return nil
}

type memSnapshot struct {
	users      map[uuid.UUID]models.User
	suppliers  map[uuid.UUID]models.Supplier
	warehouses map[uuid.UUID]models.WarehouseLocation
	products   map[uuid.UUID]models.Product
	orders     map[uuid.UUID]models.Order
	items      map[uuid.UUID]models.OrderItem
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	out := make(map[K]V, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func (m *MemStore) snapshot() memSnapshot {
	return memSnapshot{
		users:      copyMap(m.users),
		suppliers:  copyMap(m.suppliers),
		warehouses: copyMap(m.warehouses),
		products:   copyMap(m.products),
		orders:     copyMap(m.orders),
		items:      copyMap(m.items),
	}
}

func (m *MemStore) restore(s memSnapshot) {
	m.users, m.suppliers, m.warehouses = s.users, s.suppliers, s.warehouses
	m.products, m.orders, m.items = s.products, s.orders, s.items
}

// ---------- seed helpers ----------

func (m *MemStore) AddUser(u models.User) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = models.RoleInventoryStaff
	}
	now := m.tick()
	u.CreatedAt, u.UpdatedAt = now, now
	m.users[u.ID] = u
	return u
}

func (m *MemStore) AddProduct(p models.Product) models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := m.tick()
	p.CreatedAt, p.UpdatedAt = now, now
	m.products[p.ID] = p
	return p
}

func (m *MemStore) Product(id uuid.UUID) (models.Product, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	return p, ok
}

func (m *MemStore) OrderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *MemStore) ItemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// ---------- field updates ----------

func asString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case models.Role:
		return string(x), true
	case models.OrderStatus:
		return string(x), true
	}
	return "", false
}

func asStringPtr(v any) (*string, bool) {
	switch x := v.(type) {
	case nil:
		return nil, true
	case *string:
		return x, true
	case string:
		return &x, true
	}
	return nil, false
}

func asUUIDPtr(v any) (*uuid.UUID, bool) {
	switch x := v.(type) {
	case nil:
		return nil, true
	case *uuid.UUID:
		return x, true
	case uuid.UUID:
		return &x, true
	}
	return nil, false
}

func asIntPtr(v any) (*int, bool) {
	switch x := v.(type) {
	case nil:
		return nil, true
	case *int:
		return x, true
	case int:
		return &x, true
	}
	return nil, false
}

func badColumn(table, col string, v any) error {
	return fmt.Errorf("memstore: %s.%s: unsupported value %T", table, col, v)
}

func applyProduct(p *models.Product, fields map[string]any) error {
	for col, v := range fields {
		var ok bool
		switch col {
		case "name":
			p.Name, ok = asString(v)
		case "category":
			p.Category, ok = asStringPtr(v)
		case "description":
			p.Description, ok = asStringPtr(v)
		case "quantity_in_stock":
			p.QuantityInStock, ok = v.(int)
		case "low_stock_threshold":
			p.LowStockThreshold, ok = v.(int)
		case "price":
			p.Price, ok = v.(decimal.Decimal)
		case "purchase_price":
			switch x := v.(type) {
			case nil:
				p.PurchasePrice, ok = decimal.NullDecimal{}, true
			case decimal.Decimal:
				p.PurchasePrice, ok = decimal.NewNullDecimal(x), true
			case decimal.NullDecimal:
				p.PurchasePrice, ok = x, true
			}
		case "expiry_date":
			switch x := v.(type) {
			case nil:
				p.ExpiryDate, ok = nil, true
			case *time.Time:
				p.ExpiryDate, ok = x, true
			}
		case "supplier_id":
			p.SupplierID, ok = asUUIDPtr(v)
		case "warehouse_id":
			p.WarehouseID, ok = asUUIDPtr(v)
		case "updated_at":
			p.UpdatedAt, ok = v.(time.Time)
		}
		if !ok {
			return badColumn("products", col, v)
		}
	}
	return nil
}

func applyUser(u *models.User, fields map[string]any) error {
	for col, v := range fields {
		var (
			ok bool
			s  string
		)
		switch col {
		case "username":
			u.Username, ok = asString(v)
		case "email":
			u.Email, ok = asString(v)
		case "password_hash":
			u.PasswordHash, ok = asString(v)
		case "role":
			s, ok = asString(v)
			u.Role = models.Role(s)
		case "name":
			u.Name, ok = asStringPtr(v)
		case "contact_info":
			u.ContactInfo, ok = asStringPtr(v)
		case "is_active":
			u.IsActive, ok = v.(bool)
		case "updated_at":
			u.UpdatedAt, ok = v.(time.Time)
		}
		if !ok {
			return badColumn("users", col, v)
		}
	}
	return nil
}

func applySupplier(s *models.Supplier, fields map[string]any) error {
	for col, v := range fields {
		var ok bool
		switch col {
		case "name":
			s.Name, ok = asString(v)
		case "contact":
			s.Contact, ok = asStringPtr(v)
		case "address":
			s.Address, ok = asStringPtr(v)
		case "updated_at":
			s.UpdatedAt, ok = v.(time.Time)
		}
		if !ok {
			return badColumn("suppliers", col, v)
		}
	}
	return nil
}

func applyWarehouse(w *models.WarehouseLocation, fields map[string]any) error {
	for col, v := range fields {
		var ok bool
		switch col {
		case "name":
			w.Name, ok = asStringPtr(v)
		case "address":
			w.Address, ok = asString(v)
		case "capacity":
			w.Capacity, ok = asIntPtr(v)
		case "updated_at":
			w.UpdatedAt, ok = v.(time.Time)
		}
		if !ok {
			return badColumn("warehouse_locations", col, v)
		}
	}
	return nil
}

func page[T any](list []T, limit, offset int) []T {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(list) {
		return []T{}
	}
	end := offset + limit
	if end > len(list) {
		end = len(list)
	}
	return list[offset:end]
}

// ---------- users ----------

type memUsers struct{ m *MemStore }

func (r memUsers) Create(ctx context.Context, u *models.User) error {
	m := r.m
	if err := m.enter("Users.Create"); err != nil {
		m.mu.Unlock()
		return err
	}
	defer m.mu.Unlock()
	for _, x := range m.users {
		if x.Username == u.Username || strings.EqualFold(x.Email, u.Email) {
			return ErrUniqueViolation
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = models.RoleInventoryStaff
	}
	now := m.tick()
	u.CreatedAt, u.UpdatedAt = now, now
	m.users[u.ID] = *u
	return nil
}

func (r memUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m := r.m
	if err := m.enter("Users.GetByID"); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r memUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	m := r.m
	if err := m.enter("Users.GetByUsername"); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

func (r memUsers) exists(op string, match func(models.User) bool, except *uuid.UUID) (bool, error) {
	m := r.m
	if err := m.enter(op); err != nil {
		m.mu.Unlock()
		return false, err
	}
	defer m.mu.Unlock()
	for _, u := range m.users {
		if except != nil && u.ID == *except {
			continue
		}
		if match(u) {
			return true, nil
		}
	}
	return false, nil
}

func (r memUsers) ExistsByUsername(ctx context.Context, username string, except *uuid.UUID) (bool, error) {
	return r.exists("Users.ExistsByUsername", func(u models.User) bool { return u.Username == username }, except)
}

func (r memUsers) ExistsByEmail(ctx context.Context, email string, except *uuid.UUID) (bool, error) {
	return r.exists("Users.ExistsByEmail", func(u models.User) bool { return strings.EqualFold(u.Email, email) }, except)
}

func (r memUsers) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	m := r.m
	if err := m.enter("Users.UpdateFields"); err != nil {
		m.mu.Unlock()
		return err
	}
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	if err := applyUser(&u, fields); err != nil {
		return err
	}
	m.users[id] = u
	return nil
}

func (r memUsers) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	m := r.m
	if err := m.enter("Users.Delete"); err != nil {
		m.mu.Unlock()
		return false, err
	}
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return false, nil
	}
	for _, o := range m.orders {
		if o.UserID == id {
			return false, ErrFKViolation
		}
	}
	delete(m.users, id)
	return true, nil
}

func (r memUsers) List(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	m := r.m
	if err := m.enter("Users.List"); err != nil {
		m.mu.Unlock()
		return nil, 0, err
	}
	defer m.mu.Unlock()
	list := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		list = append(list, u)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Username < list[j].Username })
	return page(list, limit, offset), int64(len(list)), nil
}

// ---------- suppliers ----------

type memSuppliers struct{ m *MemStore }

func (r memSuppliers) Create(ctx context.Context, s *models.Supplier) error {
	m := r.m
	if err := m.enter("Suppliers.Create"); err != nil {
		m.mu.Unlock()
		return err
	}
	defer m.mu.Unlock()
	for _, x := range m.suppliers {
		if x.Name == s.Name {
			return ErrUniqueViolation
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := m.tick()
	s.CreatedAt, s.UpdatedAt = now, now
	m.suppliers[s.ID] = *s
	return nil
}

func (r memSuppliers) GetByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	m := r.m
	if err := m.enter("Suppliers.GetByID"); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	defer m.mu.Unlock()
	s, ok := m.suppliers[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r memSuppliers) ExistsByName(ctx context.Context, name string, except *uuid.UUID) (bool, error) {
	m := r.m
	if err := m.enter("Suppliers.ExistsByName"); err != nil {
		m.mu.Unlock()
		return false, err
	}
	defer m.mu.Unlock()
	for _, s := range m.suppliers {
		if except != nil && s.ID == *except {
			continue
		}
		if s.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r memSuppliers) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	m := r.m
	if err := m.enter("Suppliers.UpdateFields"); err != nil {
		m.mu.Unlock()
		return err
	}
	defer m.mu.Unlock()
	s, ok := m.suppliers[id]
	if !ok {
		return nil
	}
	if err := applySupplier(&s, fields); err != nil {
		return err
	}
	m.suppliers[id] = s
	return nil
}

func (r memSuppliers) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	m := r.m
	if err := m.enter("Suppliers.Delete"); err != nil {
		m.mu.Unlock()
		return false, err
	}
	defer m.mu.Unlock()
	if _, ok := m.suppliers[id]; !ok {
		return false, nil
	}
	for _, p := range m.products {
		if p.SupplierID != nil && *p.SupplierID == id {
			return false, ErrFKViolation
		}
	}
	delete(m.suppliers, id)
	return true, nil
}

func (r memSuppliers) List(ctx context.Context, limit, offset int) ([]models.Supplier, int64, error) {
	m := r.m
	if err := m.enter("Suppliers.List"); err != nil {
		m.mu.Unlock()
		return nil, 0, err
	}
	defer m.mu.Unlock()
	list := make([]models.Supplier, 0, len(m.suppliers))
	for _, s := range m.suppliers {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return page(list, limit, offset), int64(len(list)), nil
}

// ---------- warehouses ----------

type memWarehouses struct{ m *MemStore }

func (r memWarehouses) Create(ctx context.Context, w *models.WarehouseLocation) error {
	m := r.m
	if err := m.enter("Warehouses.Create"); err != nil {
		m.mu.Unlock()
		return err
	}
	defer m.mu.Unlock()
	for _, x := range m.warehouses {
		if x.Address == w.Address || (x.Name != nil && w.Name != nil && *x.Name == *w.Name) {
			return ErrUniqueViolation
		}
	}
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	now := m.tick()
	w.CreatedAt, w.UpdatedAt = now, now
	m.warehouses[w.ID] = *w
	return nil
}

func (r memWarehouses) GetByID(ctx context.Context, id uuid.UUID) (*models.WarehouseLocation, error) {
	m := r.m
	if err := m.enter("Warehouses.GetByID"); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	defer m.mu.Unlock()
	w, ok := m.warehouses[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r memWarehouses) exists(op string, match func(models.WarehouseLocation) bool, except *uuid.UUID) (bool, error) {
	m := r.m
	if err := m.enter(op); err != nil {
		m.mu.Unlock()
		return false, err
	}
	defer m.mu.Unlock()
	for _, w := range m.warehouses {
		if except != nil && w.ID == *except {
			continue
		}
		if match(w) {
			return true, nil
		}
	}
	return false, nil
}

func (r memWarehouses) ExistsByAddress(ctx context.Context, address string, except *uuid.UUID) (bool, error) {
	return r.exists("Warehouses.ExistsByAddress", func(w models.WarehouseLocation) bool { return w.Address == address }, except)
}

func (r memWarehouses) ExistsByName(ctx context.Context, name string, except *uuid.UUID) (bool, error) {
	return r.exists("Warehouses.ExistsByName", func(w models.WarehouseLocation) bool {
		return w.Name != nil && *w.Name == name
	}, except)
}

func (r memWarehouses) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	m := r.m
	if err := m.enter("Warehouses.UpdateFields"); err != nil {
		m.mu.Unlock()
		return err
	}
	defer m.mu.Unlock()
	w, ok := m.warehouses[id]
	if !ok {
		return nil
	}
	if err := applyWarehouse(&w, fields); err != nil {
		return err
	}
	m.warehouses[id] = w
	return nil
}

func (r memWarehouses) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	m := r.m
	if err := m.enter("Warehouses.Delete"); err != nil {
		m.mu.Unlock()
		return false, err
	}
	defer m.mu.Unlock()
	if _, ok := m.warehouses[id]; !ok {
		return false, nil
	}
	for _, p := range m.products {
		if p.WarehouseID != nil && *p.WarehouseID == id {
			return false, ErrFKViolation
		}
	}
	delete(m.warehouses, id)
	return true, nil
}

func (r memWarehouses) List(ctx context.Context, limit, offset int) ([]models.WarehouseLocation, int64, error) {
	m := r.m
	if err := m.enter("Warehouses.List"); err != nil {
		m.mu.Unlock()
		return nil, 0, err
	}
	defer m.mu.Unlock()
	list := make([]models.WarehouseLocation, 0, len(m.warehouses))
	for _, w := range m.warehouses {
		list = append(list, w)
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if (a.Name == nil) != (b.Name == nil) {
			return a.Name != nil
		}
		if a.Name != nil && *a.Name != *b.Name {
			return *a.Name < *b.Name
		}
		return a.Address < b.Address
	})
	return page(list, limit, offset), int64(len(list)), nil
}

// ---------- products ----------

type memProducts struct{ m *MemStore }

// withRefs подставляет Supplier/Warehouse, как Preload. Вызывать под m.mu.
func (r memProducts) withRefs(p models.Product) models.Product {
	if p.SupplierID != nil {
		if s, ok := r.m.suppliers[*p.SupplierID]; ok {
			p.Supplier = &s
		}
	}
	if p.WarehouseID != nil {
		if w, ok := r.m.warehouses[*p.WarehouseID]; ok {
			p.Warehouse = &w
		}
	}
	return p
}

func (r memProducts) Create(ctx context.Context, p *models.Product) error {
	m := r.m
	if err := m.enter("Products.Create"); err != nil {
		m.mu.Unlock()
		return err
	}
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := m.tick()
	p.CreatedAt, p.UpdatedAt = now, now
	row := *p
	row.Supplier, row.Warehouse = nil, nil
	m.products[p.ID] = row
	return nil
}

func (r memProducts) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	m := r.m
	if err := m.enter("Products.UpdateFields"); err != nil {
		m.mu.Unlock()
		return err
	}
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil
	}
	if err := applyProduct(&p, fields); err != nil {
		return err
	}
	m.products[id] = p
	return nil
}

func (r memProducts) get(op string, id uuid.UUID, refs bool) (*models.Product, error) {
	m := r.m
	if err := m.enter(op); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	if refs {
		p = r.withRefs(p)
	}
	return &p, nil
}

func (r memProducts) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return r.get("Products.GetByID", id, true)
}

func (r memProducts) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return r.get("Products.GetByIDForUpdate", id, false)
}

func (r memProducts) List(ctx context.Context, f repository.ProductListFilter) ([]models.Product, int64, error) {
	m := r.m
	if err := m.enter("Products.List"); err != nil {
		m.mu.Unlock()
		return nil, 0, err
	}
	defer m.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(f.Query))
	cat := strings.TrimSpace(f.Category)
	list := []models.Product{}
	for _, p := range m.products {
		if q != "" {
			desc := ""
			if p.Description != nil {
				desc = *p.Description
			}
			if !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(desc), q) {
				continue
			}
		}
		if cat != "" && (p.Category == nil || *p.Category != cat) {
			continue
		}
		list = append(list, r.withRefs(p))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return page(list, f.Limit, f.Offset), int64(len(list)), nil
}

func (r memProducts) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	m := r.m
	if err := m.enter("Products.Delete"); err != nil {
		m.mu.Unlock()
		return false, err
	}
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return false, nil
	}
	for _, it := range m.items {
		if it.ProductID == id {
			return false, ErrFKViolation
		}
	}
	delete(m.products, id)
	return true, nil
}

func (r memProducts) ExistsBySupplier(ctx context.Context, supplierID uuid.UUID) (bool, error) {
	m := r.m
	if err := m.enter("Products.ExistsBySupplier"); err != nil {
		m.mu.Unlock()
		return false, err
	}
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.SupplierID != nil && *p.SupplierID == supplierID {
			return true, nil
		}
	}
	return false, nil
}

func (r memProducts) ExistsByWarehouse(ctx context.Context, warehouseID uuid.UUID) (bool, error) {
	m := r.m
	if err := m.enter("Products.ExistsByWarehouse"); err != nil {
		m.mu.Unlock()
		return false, err
	}
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.WarehouseID != nil && *p.WarehouseID == warehouseID {
			return true, nil
		}
	}
	return false, nil
}

func (r memProducts) CheckAvailable(ctx context.Context, id uuid.UUID, qty int) (*repository.StockCheck, error) {
	m := r.m
	if err := m.enter("Products.CheckAvailable"); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &repository.StockCheck{OK: p.QuantityInStock >= qty, Available: p.QuantityInStock}, nil
}

func (r memProducts) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	m := r.m
	if err := m.enter("Products.DecrementStock"); err != nil {
		m.mu.Unlock()
		return false, err
	}
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok || p.QuantityInStock < qty {
		return false, nil
	}
	p.QuantityInStock -= qty
	m.products[id] = p
	return true, nil
}

func (r memProducts) IncrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	m := r.m
	if err := m.enter("Products.IncrementStock"); err != nil {
		m.mu.Unlock()
		return err
	}
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok {
		p.QuantityInStock += qty
		m.products[id] = p
	}
	return nil
}

// ---------- orders ----------

type memOrders struct{ m *MemStore }

func (r memOrders) Create(ctx context.Context, o *models.Order) error {
	m := r.m
	if err := m.enter("Orders.Create"); err != nil {
		m.mu.Unlock()
		return err
	}
	defer m.mu.Unlock()
	for _, x := range m.orders {
		if x.OrderNumber == o.OrderNumber {
			return ErrUniqueViolation
		}
	}
	if _, ok := m.users[o.UserID]; !ok {
		return ErrFKViolation
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = models.OrderStatusPending
	}
	row := *o
	row.User, row.Items = nil, nil
	m.orders[o.ID] = row
	return nil
}

func (r memOrders) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	m := r.m
	if err := m.enter("Orders.GetByID"); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	if u, ok := m.users[o.UserID]; ok {
		o.User = &u
	}
	items := []models.OrderItem{}
	for _, it := range m.items {
		if it.OrderID == id {
			if p, ok := m.products[it.ProductID]; ok {
				it.Product = &p
			}
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	o.Items = items
	return &o, nil
}

func (r memOrders) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error) {
	m := r.m
	if err := m.enter("Orders.UpdateStatus"); err != nil {
		m.mu.Unlock()
		return false, err
	}
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	m.orders[id] = o
	return true, nil
}

func (r memOrders) List(ctx context.Context, f repository.OrderListFilter) ([]models.Order, int64, error) {
	m := r.m
	if err := m.enter("Orders.List"); err != nil {
		m.mu.Unlock()
		return nil, 0, err
	}
	defer m.mu.Unlock()
	list := []models.Order{}
	for _, o := range m.orders {
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		if u, ok := m.users[o.UserID]; ok {
			o.User = &u
		}
		list = append(list, o)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].OrderDate.Equal(list[j].OrderDate) {
			return list[i].OrderDate.After(list[j].OrderDate)
		}
		return list[i].ID.String() > list[j].ID.String()
	})
	return page(list, f.Limit, f.Offset), int64(len(list)), nil
}

func (r memOrders) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	m := r.m
	if err := m.enter("Orders.ExistsByNumber"); err != nil {
		m.mu.Unlock()
		return false, err
	}
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.OrderNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (r memOrders) ExistsByUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	m := r.m
	if err := m.enter("Orders.ExistsByUser"); err != nil {
		m.mu.Unlock()
		return false, err
	}
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r memOrders) DeleteAggregate(ctx context.Context, id uuid.UUID) (bool, error) {
	m := r.m
	if err := m.enter("Orders.DeleteAggregate"); err != nil {
		m.mu.Unlock()
		return false, err
	}
	defer m.mu.Unlock()
	for itemID, it := range m.items {
		if it.OrderID == id {
			delete(m.items, itemID)
		}
	}
	if _, ok := m.orders[id]; !ok {
		return false, nil
	}
	delete(m.orders, id)
	return true, nil
}

// ---------- order items ----------

type memItems struct{ m *MemStore }

func (r memItems) BulkCreate(ctx context.Context, items []models.OrderItem) error {
	m := r.m
	if err := m.enter("OrderItems.BulkCreate"); err != nil {
		m.mu.Unlock()
		return err
	}
	defer m.mu.Unlock()
	for _, it := range items {
		if _, ok := m.orders[it.OrderID]; !ok {
			return ErrFKViolation
		}
		if _, ok := m.products[it.ProductID]; !ok {
			return ErrFKViolation
		}
	}
	for i := range items {
		it := items[i]
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		it.CreatedAt = m.tick()
		it.Product = nil
		m.items[it.ID] = it
	}
	return nil
}

func (r memItems) GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	m := r.m
	if err := m.enter("OrderItems.GetByOrderID"); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	defer m.mu.Unlock()
	out := []models.OrderItem{}
	for _, it := range m.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r memItems) SumByOrder(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	m := r.m
	if err := m.enter("OrderItems.SumByOrder"); err != nil {
		m.mu.Unlock()
		return decimal.Zero, err
	}
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, it := range m.items {
		if it.OrderID == orderID {
			total = total.Add(it.Subtotal())
		}
	}
	return total, nil
}

func (r memItems) ExistsByProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	m := r.m
	if err := m.enter("OrderItems.ExistsByProduct"); err != nil {
		m.mu.Unlock()
		return false, err
	}
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}
