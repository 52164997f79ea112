// Package cart хранит корзину сессии в key-value хранилище.
//
// Корзина не транзакционная: при истечении TTL сессии она теряется, это допустимо.
package cart

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line: позиция корзины. UnitPrice фиксируется при первом добавлении и дальше не меняется,
// даже если цена товара в каталоге изменилась.
type Line struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Cart struct {
	Lines map[uuid.UUID]Line `json:"lines"`
}

func New() *Cart {
	return &Cart{Lines: map[uuid.UUID]Line{}}
}

func (c *Cart) IsEmpty() bool { return c == nil || len(c.Lines) == 0 }

func (c *Cart) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Lines)
}

func (c *Cart) Get(productID uuid.UUID) (Line, bool) {
	if c == nil {
		return Line{}, false
	}
	l, ok := c.Lines[productID]
	return l, ok
}

func (c *Cart) Put(l Line) {
	if c.Lines == nil {
		c.Lines = map[uuid.UUID]Line{}
	}
	c.Lines[l.ProductID] = l
}

func (c *Cart) Remove(productID uuid.UUID) bool {
	if c == nil {
		return false
	}
	if _, ok := c.Lines[productID]; !ok {
		return false
	}
	delete(c.Lines, productID)
	return true
}

// Sorted возвращает позиции в порядке product id: в этом порядке берутся блокировки строк.
func (c *Cart) Sorted() []Line {
	if c == nil {
		return nil
	}
	out := make([]Line, 0, len(c.Lines))
	for _, l := range c.Lines {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProductID.String() < out[j].ProductID.String()
	})
	return out
}

// ByName: порядок для отображения.
func (c *Cart) ByName() []Line {
	out := c.Sorted()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	if c == nil {
		return total
	}
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Clone: независимая копия (map копируется).
func (c *Cart) Clone() *Cart {
	out := New()
	if c == nil {
		return out
	}
	for id, l := range c.Lines {
		out.Lines[id] = l
	}
	return out
}
