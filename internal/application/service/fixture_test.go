package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/domain/entity"
	"github.com/sangkips/tabsettle-api/internal/domain/enum"
	"github.com/sangkips/tabsettle-api/internal/domain/event"
	"github.com/sangkips/tabsettle-api/internal/infrastructure/database"
	infraRepo "github.com/sangkips/tabsettle-api/internal/infrastructure/repository"
	"github.com/sangkips/tabsettle-api/pkg/apperror"
	"github.com/sangkips/tabsettle-api/pkg/printer"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) Publish(_ context.Context, evt event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *recorder) types() []event.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *recorder) count(t event.Type) int {
	n := 0
	for _, got := range r.types() {
		if got == t {
			n++
		}
	}
	return n
}

type fixture struct {
	t        *testing.T
	store    *infraRepo.Repositories
	ctx      context.Context
	tenant   *entity.Tenant
	operator uuid.UUID
	clock    *fakeClock
	events   *recorder
	spool    *printer.Spool

	printer    *PrinterService
	orders     *OrderService
	kitchen    *KitchenService
	settlement *SettlementService
	cash       *CashSessionService
}

// newTestStore opens a private in-memory database with the schema applied
func newTestStore(t *testing.T) *infraRepo.Repositories {
	t.Helper()
	db, err := database.NewInMemoryDB("test")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return infraRepo.NewRepositories(db)
}

// newFixture wires every service to one in-memory database. taxBPS is the
// tenant's tax rate; most tests use 0 so totals equal item prices.
func newFixture(t *testing.T, taxBPS int64) *fixture {
	t.Helper()

	store := newTestStore(t)
	settings := entity.DefaultTenantSettings()
	settings.TaxRateBasisPoints = taxBPS
	settings.ReceiptHeader.StoreName = "Test Bistro"

	tenant := &entity.Tenant{Name: "Test Bistro", Slug: "test-" + uuid.NewString()[:8], Settings: settings}
	if err := store.Tenants.Create(context.Background(), tenant); err != nil {
		t.Fatalf("create tenant: %v", err)
	}

	f := &fixture{
		t:        t,
		store:    store,
		ctx:      infraRepo.WithTenant(context.Background(), tenant.ID),
		tenant:   tenant,
		operator: uuid.New(),
		clock:    &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)},
		events:   &recorder{},
		spool:    &printer.Spool{},
	}

	f.printer = NewPrinterService(f.spool, store.Orders, store.Tenants, "memory", 32)
	f.orders = NewOrderService(store.Tx, store.Orders, store.Payments, store.Products, store.Tenants, f.events, f.printer, 3)
	f.kitchen = NewKitchenService(store.Tx, store.Orders, store.Tenants, f.events, 3)
	f.settlement = NewSettlementService(store.Tx, store.Orders, store.Payments, store.Tenants, f.events, f.printer, 3)
	f.cash = NewCashSessionService(store.Tx, store.CashSessions, store.Payments, store.Tenants, f.events, f.printer, 3)

	f.orders.now = f.clock.Now
	f.kitchen.now = f.clock.Now
	f.settlement.now = f.clock.Now
	f.cash.now = f.clock.Now
	return f
}

func (f *fixture) product(name string, cents int64) *entity.Product {
	f.t.Helper()
	p := &entity.Product{TenantID: f.tenant.ID, Name: name, PriceCents: cents, Active: true}
	if err := f.store.Products.Create(f.ctx, p); err != nil {
		f.t.Fatalf("create product: %v", err)
	}
	return p
}

func (f *fixture) openOrder() *entity.Order {
	f.t.Helper()
	order, err := f.orders.CreateOrder(f.ctx, &CreateOrderInput{OperatorID: f.operator})
	if err != nil {
		f.t.Fatalf("CreateOrder: %v", err)
	}
	return order
}

func (f *fixture) addItem(orderID uuid.UUID, p *entity.Product, qty int) *entity.Order {
	f.t.Helper()
	order, err := f.orders.AddItem(f.ctx, orderID, &AddItemInput{ProductID: p.ID, Quantity: qty})
	if err != nil {
		f.t.Fatalf("AddItem: %v", err)
	}
	return order
}

// readyOrder returns a READY order holding one line of priceCents
func (f *fixture) readyOrder(priceCents int64) *entity.Order {
	f.t.Helper()
	order := f.openOrder()
	f.addItem(order.ID, f.product("Meal", priceCents), 1)
	if _, err := f.orders.SendToKitchen(f.ctx, order.ID); err != nil {
		f.t.Fatalf("SendToKitchen: %v", err)
	}
	res, err := f.kitchen.MarkAllReady(f.ctx, order.ID)
	if err != nil {
		f.t.Fatalf("MarkAllReady: %v", err)
	}
	if res.Order.Status != enum.OrderStatusReady {
		f.t.Fatalf("order status = %s, want READY", res.Order.Status)
	}
	return res.Order
}

func (f *fixture) reload(id uuid.UUID) *entity.Order {
	f.t.Helper()
	order, err := f.orders.GetOrder(f.ctx, id)
	if err != nil {
		f.t.Fatalf("GetOrder: %v", err)
	}
	return order
}

// tips returns the tip rows recorded against an order
func (f *fixture) tips(orderID uuid.UUID) []entity.OrderTip {
	f.t.Helper()
	var tips []entity.OrderTip
	if err := f.store.DB.Where("order_id = ?", orderID).Order("created_at ASC").Find(&tips).Error; err != nil {
		f.t.Fatalf("load tips: %v", err)
	}
	return tips
}

func cents(v int64) *int64 { return &v }

func assertCode(t *testing.T, err error, code int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d, got nil", code)
	}
	if !apperror.IsCode(err, code) {
		t.Fatalf("error = %v (%T), want status %d", err, err, code)
	}
}

const (
	statusConflict   = http.StatusConflict
	statusValidation = http.StatusUnprocessableEntity
	statusNotFound   = http.StatusNotFound
)
