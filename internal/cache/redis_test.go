package cache_test

import (
	"context"
	"testing"
	"time"

	"warehouse-service/internal/cache"
	"warehouse-service/internal/cart"
	"warehouse-service/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRedisClient_CartStore(t *testing.T) {
	addr := testutil.SetupTestRedis(t)
	rc, err := cache.NewRedisClient(addr, "", 0, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	ctx := context.Background()
	store := cart.NewStore(rc, time.Minute)

	c := cart.New()
	l := cart.Line{ProductID: uuid.New(), Name: "Widget", Quantity: 2, UnitPrice: decimal.RequireFromString("15.00")}
	c.Put(l)
	require.NoError(t, store.Save(ctx, "sid-1", c))

	got, err := store.Read(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "30.00", got.Total().StringFixed(2))

	other, err := store.Read(ctx, "sid-2")
	require.NoError(t, err)
	assert.True(t, other.IsEmpty())

	require.NoError(t, store.Clear(ctx, "sid-1"))
	_, found, err := rc.Get(ctx, "cart:sid-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisClient_TTL(t *testing.T) {
	addr := testutil.SetupTestRedis(t)
	rc, err := cache.NewRedisClient(addr, "", 0, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	ctx := context.Background()
	require.NoError(t, rc.Set(ctx, "k", []byte("v"), 500*time.Millisecond))
	require.Eventually(t, func() bool {
		_, found, err := rc.Get(ctx, "k")
		return err == nil && !found
	}, 5*time.Second, 100*time.Millisecond)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	_, err := cache.NewRedisClient("127.0.0.1:1", "", 0, zap.NewNop())
	assert.Error(t, err)
}
