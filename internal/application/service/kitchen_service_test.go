package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/domain/entity"
	"github.com/sangkips/tabsettle-api/internal/domain/enum"
	"github.com/sangkips/tabsettle-api/internal/domain/event"
	"github.com/sangkips/tabsettle-api/internal/domain/repository"
)

func TestItemCannotSkipSteps(t *testing.T) {
	f := newFixture(t, 0)
	order := f.addItem(f.openOrder().ID, f.product("Soup", 500), 1)
	if _, err := f.orders.SendToKitchen(f.ctx, order.ID); err != nil {
		t.Fatal(err)
	}
	itemID := order.Items[0].ID

	_, err := f.kitchen.UpdateItemStatus(f.ctx, order.ID, itemID, enum.OrderItemStatusServed)
	assertCode(t, err, statusValidation)

	order = f.reload(order.ID)
	if order.Items[0].Status != enum.OrderItemStatusSent {
		t.Fatalf("rejected transition changed the item: %s", order.Items[0].Status)
	}

	_, err = f.kitchen.UpdateItemStatus(f.ctx, order.ID, itemID, enum.OrderItemStatusSent)
	assertCode(t, err, statusValidation)

	_, err = f.kitchen.UpdateItemStatus(f.ctx, order.ID, uuid.New(), enum.OrderItemStatusInProgress)
	assertCode(t, err, statusNotFound)
}

func TestOpenOrderItemsCanOnlyBeVoided(t *testing.T) {
	f := newFixture(t, 0)
	order := f.addItem(f.openOrder().ID, f.product("Soup", 500), 1)

	_, err := f.kitchen.UpdateItemStatus(f.ctx, order.ID, order.Items[0].ID, enum.OrderItemStatusInProgress)
	assertCode(t, err, statusConflict)
}

func TestItemProgressDerivesOrderStatus(t *testing.T) {
	f := newFixture(t, 0)
	order := f.openOrder()
	f.addItem(order.ID, f.product("Burger", 1200), 1)
	order = f.addItem(order.ID, f.product("Fries", 400), 1)
	if _, err := f.orders.SendToKitchen(f.ctx, order.ID); err != nil {
		t.Fatal(err)
	}
	burger, fries := order.Items[0].ID, order.Items[1].ID

	steps := []struct {
		item   uuid.UUID
		to     enum.OrderItemStatus
		status enum.OrderStatus
	}{
		{burger, enum.OrderItemStatusInProgress, enum.OrderStatusInKitchen},
		{burger, enum.OrderItemStatusReady, enum.OrderStatusInKitchen},
		{fries, enum.OrderItemStatusInProgress, enum.OrderStatusInKitchen},
		{fries, enum.OrderItemStatusReady, enum.OrderStatusReady},
		{burger, enum.OrderItemStatusServed, enum.OrderStatusReady},
		{fries, enum.OrderItemStatusServed, enum.OrderStatusForPayment},
	}
	for i, step := range steps {
		got, err := f.kitchen.UpdateItemStatus(f.ctx, order.ID, step.item, step.to)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got.Status != step.status {
			t.Fatalf("step %d: order status = %s, want %s", i, got.Status, step.status)
		}
	}

	got := f.reload(order.ID)
	for _, item := range got.Items {
		if item.StartedAt == nil || item.ReadyAt == nil || item.ServedAt == nil {
			t.Fatalf("item timestamps missing: %+v", item)
		}
	}
	if n := f.events.count(event.OrderItemStatusChanged); n != len(steps) {
		t.Fatalf("item events = %d, want %d", n, len(steps))
	}
}

func TestMarkAllReadyIsIdempotentPerItem(t *testing.T) {
	f := newFixture(t, 0)
	order := f.openOrder()
	f.addItem(order.ID, f.product("Cake", 300), 1)
	order = f.addItem(order.ID, f.product("Coffee", 200), 1)
	if _, err := f.orders.SendToKitchen(f.ctx, order.ID); err != nil {
		t.Fatal(err)
	}

	cake := order.Items[0].ID
	for _, to := range []enum.OrderItemStatus{enum.OrderItemStatusInProgress, enum.OrderItemStatusReady, enum.OrderItemStatusServed} {
		if _, err := f.kitchen.UpdateItemStatus(f.ctx, order.ID, cake, to); err != nil {
			t.Fatal(err)
		}
	}

	res, err := f.kitchen.MarkAllReady(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("MarkAllReady: %v", err)
	}
	if res.Changed != 1 {
		t.Fatalf("changed = %d, want 1", res.Changed)
	}
	if got := res.Order.FindItem(cake).Status; got != enum.OrderItemStatusServed {
		t.Fatalf("served item moved back to %s", got)
	}
	if res.Order.Status != enum.OrderStatusReady {
		t.Fatalf("order status = %s", res.Order.Status)
	}

	res, err = f.kitchen.MarkAllReady(f.ctx, order.ID)
	if err != nil || res.Changed != 0 {
		t.Fatalf("second MarkAllReady changed %d, err %v", res.Changed, err)
	}

	res, err = f.kitchen.MarkAllServed(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("MarkAllServed: %v", err)
	}
	if res.Changed != 1 || res.Order.Status != enum.OrderStatusForPayment {
		t.Fatalf("changed %d status %s", res.Changed, res.Order.Status)
	}
}

func TestVoidedItemLeavesTotalsAndQueue(t *testing.T) {
	f := newFixture(t, 0)
	order := f.openOrder()
	f.addItem(order.ID, f.product("Steak", 3000), 1)
	order = f.addItem(order.ID, f.product("Wine", 2000), 1)
	if _, err := f.orders.SendToKitchen(f.ctx, order.ID); err != nil {
		t.Fatal(err)
	}
	steak, wine := order.Items[0].ID, order.Items[1].ID

	if _, err := f.kitchen.UpdateItemStatus(f.ctx, order.ID, steak, enum.OrderItemStatusInProgress); err != nil {
		t.Fatal(err)
	}
	if _, err := f.kitchen.UpdateItemStatus(f.ctx, order.ID, steak, enum.OrderItemStatusReady); err != nil {
		t.Fatal(err)
	}
	got, err := f.kitchen.UpdateItemStatus(f.ctx, order.ID, wine, enum.OrderItemStatusVoid)
	if err != nil {
		t.Fatalf("void: %v", err)
	}
	if got.TotalCents != 3000 {
		t.Fatalf("total = %d, want 3000", got.TotalCents)
	}
	if got.Status != enum.OrderStatusReady {
		t.Fatalf("voiding the last unready item should make the order READY, got %s", got.Status)
	}

	queue, err := f.kitchen.KitchenQueue(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(queue) != 1 || len(queue[0].Items) != 1 || queue[0].Items[0].ID != steak {
		t.Fatalf("queue = %+v", queue)
	}

	_, err = f.kitchen.UpdateItemStatus(f.ctx, order.ID, wine, enum.OrderItemStatusInProgress)
	assertCode(t, err, statusValidation)
}

func TestNoVoidAfterBillRequested(t *testing.T) {
	f := newFixture(t, 0)
	order := f.readyOrder(1000)
	if _, err := f.orders.RequestBill(f.ctx, order.ID); err != nil {
		t.Fatal(err)
	}

	_, err := f.kitchen.UpdateItemStatus(f.ctx, order.ID, order.Items[0].ID, enum.OrderItemStatusVoid)
	assertCode(t, err, statusConflict)

	got, err := f.kitchen.UpdateItemStatus(f.ctx, order.ID, order.Items[0].ID, enum.OrderItemStatusServed)
	if err != nil {
		t.Fatalf("serving after bill request: %v", err)
	}
	if got.Status != enum.OrderStatusForPayment {
		t.Fatalf("status = %s", got.Status)
	}
}

func TestKitchenQueueSkipsOtherStates(t *testing.T) {
	f := newFixture(t, 0)
	f.addItem(f.openOrder().ID, f.product("Tea", 100), 1)
	inKitchen := f.addItem(f.openOrder().ID, f.product("Toast", 150), 2)
	if _, err := f.orders.SendToKitchen(f.ctx, inKitchen.ID); err != nil {
		t.Fatal(err)
	}

	queue, err := f.kitchen.KitchenQueue(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(queue) != 1 || queue[0].ID != inKitchen.ID {
		t.Fatalf("queue = %+v", queue)
	}
}

// failingOrderWrite lets item writes through and fails the order write after them
type failingOrderWrite struct {
	repository.OrderRepository
}

func (failingOrderWrite) Update(context.Context, *entity.Order) error {
	return errors.New("connection reset")
}

// finishWithin fails the test if fn blocks, which is how a repository call
// made outside its transaction shows up on a single-connection store
func finishWithin(t *testing.T, d time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("kitchen change did not finish")
	}
}

func TestKitchenChangeRollsBackWithOrder(t *testing.T) {
	f := newFixture(t, 0)
	order := f.openOrder()
	f.addItem(order.ID, f.product("Burger", 1200), 1)
	order = f.addItem(order.ID, f.product("Fries", 400), 1)
	if _, err := f.orders.SendToKitchen(f.ctx, order.ID); err != nil {
		t.Fatal(err)
	}

	svc := NewKitchenService(f.store.Tx, failingOrderWrite{f.store.Orders}, f.store.Tenants, f.events, 3)
	svc.now = f.clock.Now

	var allErr, oneErr error
	finishWithin(t, 5*time.Second, func() {
		_, allErr = svc.MarkAllReady(f.ctx, order.ID)
		_, oneErr = svc.UpdateItemStatus(f.ctx, order.ID, order.Items[0].ID, enum.OrderItemStatusInProgress)
	})
	if allErr == nil || oneErr == nil {
		t.Fatalf("expected order write failures, got %v / %v", allErr, oneErr)
	}

	got := f.reload(order.ID)
	if got.Status != enum.OrderStatusInKitchen {
		t.Fatalf("order status = %s, want IN_KITCHEN", got.Status)
	}
	for _, item := range got.Items {
		if item.Status != enum.OrderItemStatusSent || item.StartedAt != nil || item.ReadyAt != nil {
			t.Fatalf("item %s committed without its order: %s", item.ProductName, item.Status)
		}
	}
	if n := f.events.count(event.OrderItemStatusChanged); n != 0 {
		t.Fatalf("item events = %d for rolled back changes", n)
	}

	// The same changes go through once the order write succeeds
	finishWithin(t, 5*time.Second, func() {
		_, allErr = f.kitchen.MarkAllReady(f.ctx, order.ID)
	})
	if allErr != nil {
		t.Fatalf("MarkAllReady: %v", allErr)
	}
	if got := f.reload(order.ID); got.Status != enum.OrderStatusReady {
		t.Fatalf("order status = %s, want READY", got.Status)
	}
}
