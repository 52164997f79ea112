package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(name, price string, qty int) Line {
	return Line{ProductID: uuid.New(), Name: name, Quantity: qty, UnitPrice: decimal.RequireFromString(price)}
}

func TestCart_TotalAndOrdering(t *testing.T) {
	c := New()
	assert.True(t, c.IsEmpty())

	b := line("Bolt", "0.25", 4)
	a := line("Anchor", "12.50", 2)
	c.Put(b)
	c.Put(a)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "26.00", c.Total().StringFixed(2))

	byName := c.ByName()
	require.Len(t, byName, 2)
	assert.Equal(t, "Anchor", byName[0].Name)

	sorted := c.Sorted()
	assert.True(t, sorted[0].ProductID.String() < sorted[1].ProductID.String())

	clone := c.Clone()
	clone.Remove(a.ProductID)
	assert.Equal(t, 2, c.Len(), "clone must not share lines")

	assert.True(t, c.Remove(a.ProductID))
	assert.False(t, c.Remove(a.ProductID))
}

func TestNilCart(t *testing.T) {
	var c *Cart
	assert.True(t, c.IsEmpty())
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get(uuid.New())
	assert.False(t, ok)
	assert.Nil(t, c.Sorted())
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryKV(), time.Hour)

	c, err := s.Read(ctx, "sid")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	l := line("Widget", "15.00", 3)
	c.Put(l)
	require.NoError(t, s.Save(ctx, "sid", c))

	got, err := s.Read(ctx, "sid")
	require.NoError(t, err)
	stored, ok := got.Get(l.ProductID)
	require.True(t, ok)
	assert.Equal(t, 3, stored.Quantity)
	assert.True(t, stored.UnitPrice.Equal(l.UnitPrice))

	// пустая корзина удаляет ключ
	got.Remove(l.ProductID)
	require.NoError(t, s.Save(ctx, "sid", got))
	got, err = s.Read(ctx, "sid")
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())

	_, err = s.Read(ctx, "")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestMemoryKV_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	kv := NewMemoryKV()
	kv.now = func() time.Time { return now }

	require.NoError(t, kv.Set(ctx, "k", []byte("v"), time.Minute))
	v, found, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", string(v))

	now = now.Add(time.Minute)
	_, found, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}
