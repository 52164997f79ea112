package service_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"warehouse-service/internal/models"
	"warehouse-service/internal/service"

	"github.com/google/uuid"
)

func TestCart_AddCapturesPriceAndAccumulates(t *testing.T) {
	e := newEnv(t)
	_, ctx := e.user(t, "alice", models.RoleInventoryStaff)
	widget := e.product(t, "Widget", "10.00", 5)

	if _, err := e.cart.Add(ctx, widget.ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := e.store.Repository().Products.UpdateFields(ctx, widget.ID, map[string]any{"price": dec("12.50")}); err != nil {
		t.Fatalf("price change: %v", err)
	}
	view, err := e.cart.Add(ctx, widget.ID, 1)
	if err != nil {
		t.Fatalf("add again: %v", err)
	}

	if len(view.Lines) != 1 || view.Lines[0].Quantity != 3 {
		t.Fatalf("unexpected lines: %+v", view.Lines)
	}
	if !view.Lines[0].UnitPrice.Equal(dec("10.00")) || !view.Total.Equal(dec("30.00")) {
		t.Fatalf("price must stay as captured on first add: %s total %s", view.Lines[0].UnitPrice, view.Total)
	}
}

func TestCart_AddChecksStockIncludingCart(t *testing.T) {
	e := newEnv(t)
	_, ctx := e.user(t, "alice", models.RoleInventoryStaff)
	widget := e.product(t, "Widget", "10.00", 5)

	if _, err := e.cart.Add(ctx, widget.ID, 4); err != nil {
		t.Fatalf("add: %v", err)
	}
	_, err := e.cart.Add(ctx, widget.ID, 2)
	var ise *service.InsufficientStockError
	if !errors.As(err, &ise) || ise.Available != 5 {
		t.Fatalf("err = %v, want InsufficientStockError with 5 available", err)
	}

	if _, err := e.cart.Add(ctx, widget.ID, 0); !errors.Is(err, service.ErrQuantityInvalid) {
		t.Fatalf("zero qty: err = %v", err)
	}
	if _, err := e.cart.Add(ctx, uuid.New(), 1); !errors.Is(err, service.ErrProductNotFound) {
		t.Fatalf("unknown product: err = %v", err)
	}
}

func TestCart_AddRejectsHugeQuantity(t *testing.T) {
	e := newEnv(t)
	_, ctx := e.user(t, "alice", models.RoleInventoryStaff)
	widget := e.product(t, "Widget", "10.00", 5)

	if _, err := e.cart.Add(ctx, widget.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	for _, qty := range []int{math.MaxInt, math.MaxInt - 1, service.MaxLineQuantity + 1} {
		if _, err := e.cart.Add(ctx, widget.ID, qty); !errors.Is(err, service.ErrQuantityInvalid) {
			t.Fatalf("qty %d: err = %v, want ErrQuantityInvalid", qty, err)
		}
	}

	view, err := e.cart.View(ctx)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(view.Lines) != 1 || view.Lines[0].Quantity != 1 || !view.Total.Equal(dec("10.00")) {
		t.Fatalf("cart must be unchanged: %+v total %s", view.Lines, view.Total)
	}
}

func TestCart_UpdateClampsAndRemoves(t *testing.T) {
	e := newEnv(t)
	_, ctx := e.user(t, "alice", models.RoleInventoryStaff)
	widget := e.product(t, "Widget", "10.00", 5)
	gadget := e.product(t, "Gadget", "25.00", 1)

	if _, err := e.cart.Add(ctx, widget.ID, 1); err != nil {
		t.Fatalf("add widget: %v", err)
	}
	if _, err := e.cart.Add(ctx, gadget.ID, 1); err != nil {
		t.Fatalf("add gadget: %v", err)
	}

	res, err := e.cart.Update(ctx, widget.ID, 9)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !res.Clamped || res.Quantity != 5 {
		t.Fatalf("want clamp to 5, got %+v", res)
	}

	res, err = e.cart.Update(ctx, gadget.ID, 0)
	if err != nil || !res.Removed {
		t.Fatalf("qty 0 must remove: %+v %v", res, err)
	}

	// остаток обнулился: позиция уходит из корзины
	if err := e.store.Repository().Products.UpdateFields(ctx, widget.ID, map[string]any{"quantity_in_stock": 0}); err != nil {
		t.Fatalf("zero stock: %v", err)
	}
	res, err = e.cart.Update(ctx, widget.ID, 2)
	if err != nil || !res.Removed || !res.Clamped {
		t.Fatalf("stock 0 must remove the line: %+v %v", res, err)
	}

	view, err := e.cart.View(ctx)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(view.Lines) != 0 {
		t.Fatalf("cart must be empty: %+v", view.Lines)
	}

	if _, err := e.cart.Update(ctx, widget.ID, 1); !errors.Is(err, service.ErrNotInCart) {
		t.Fatalf("not in cart: err = %v", err)
	}
}

func TestCart_RemoveAndClear(t *testing.T) {
	e := newEnv(t)
	_, ctx := e.user(t, "alice", models.RoleInventoryStaff)
	widget := e.product(t, "Widget", "10.00", 5)
	gadget := e.product(t, "Gadget", "25.00", 1)

	for _, p := range []models.Product{widget, gadget} {
		if _, err := e.cart.Add(ctx, p.ID, 1); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if err := e.cart.Remove(ctx, widget.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := e.cart.Remove(ctx, widget.ID); !errors.Is(err, service.ErrNotInCart) {
		t.Fatalf("second remove: err = %v", err)
	}
	if err := e.cart.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	view, err := e.cart.View(ctx)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(view.Lines) != 0 || !view.Total.IsZero() {
		t.Fatalf("cart must be empty after clear")
	}
}

func TestCart_SessionsAreIsolated(t *testing.T) {
	e := newEnv(t)
	_, aliceCtx := e.user(t, "alice", models.RoleInventoryStaff)
	_, bobCtx := e.user(t, "bob", models.RoleInventoryStaff)
	widget := e.product(t, "Widget", "10.00", 5)

	if _, err := e.cart.Add(aliceCtx, widget.ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	view, err := e.cart.View(bobCtx)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(view.Lines) != 0 {
		t.Fatalf("bob must not see alice's cart")
	}
}

func TestCart_RequiresSession(t *testing.T) {
	e := newEnv(t)
	u, _ := e.user(t, "alice", models.RoleInventoryStaff)
	noSession := service.WithRole(service.WithUserID(context.Background(), u.ID), u.Role)

	if _, err := e.cart.View(noSession); !errors.Is(err, service.ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
	if _, err := e.cart.View(context.Background()); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}
