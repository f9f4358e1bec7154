package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/domain/entity"
	"github.com/sangkips/tabsettle-api/internal/domain/enum"
	domainRepo "github.com/sangkips/tabsettle-api/internal/domain/repository"
	"github.com/sangkips/tabsettle-api/internal/infrastructure/database"
	infraRepo "github.com/sangkips/tabsettle-api/internal/infrastructure/repository"
)

func newStore(t *testing.T) *infraRepo.Repositories {
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

func tenantCtx(t *testing.T, s *infraRepo.Repositories) (context.Context, uuid.UUID) {
	t.Helper()
	tenant := &entity.Tenant{Name: "Test", Slug: uuid.NewString()}
	if err := s.Tenants.Create(context.Background(), tenant); err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	return infraRepo.WithTenant(context.Background(), tenant.ID), tenant.ID
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	s := newStore(t)
	ctx, tenantID := tenantCtx(t, s)

	order := &entity.Order{TenantID: tenantID, OrderNumber: "ORD-1", Currency: "KES", OpenedAt: time.Now()}
	if err := s.Orders.Create(ctx, order); err != nil {
		t.Fatalf("create order: %v", err)
	}

	boom := errors.New("boom")
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Payments.Create(ctx, &entity.Payment{TenantID: tenantID, OrderID: order.ID, AmountCents: 500, CapturedAt: time.Now()}); err != nil {
			return err
		}
		order.Status = enum.OrderStatusPaid
		if err := s.Orders.Update(ctx, order); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithinTx err = %v, want boom", err)
	}

	got, err := s.Orders.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != enum.OrderStatusOpen {
		t.Fatalf("status = %s after rollback, want OPEN", got.Status)
	}
	if len(got.Payments) != 0 {
		t.Fatalf("payments = %d after rollback, want 0", len(got.Payments))
	}
}

func TestNestedWithinTxJoinsOuter(t *testing.T) {
	s := newStore(t)
	ctx, tenantID := tenantCtx(t, s)

	boom := errors.New("boom")
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		inner := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
			return s.Orders.Create(ctx, &entity.Order{TenantID: tenantID, OrderNumber: "ORD-1", OpenedAt: time.Now()})
		})
		if inner != nil {
			return inner
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	orders, err := s.Orders.ListByStatus(ctx, enum.OrderStatusOpen)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 0 {
		t.Fatalf("inner write survived the outer rollback: %d orders", len(orders))
	}
}

func TestOrdersAreTenantScoped(t *testing.T) {
	s := newStore(t)
	ctxA, tenantA := tenantCtx(t, s)
	ctxB, _ := tenantCtx(t, s)

	order := &entity.Order{TenantID: tenantA, OrderNumber: "ORD-1", OpenedAt: time.Now()}
	if err := s.Orders.Create(ctxA, order); err != nil {
		t.Fatalf("create order: %v", err)
	}

	if got, _ := s.Orders.GetByID(ctxB, order.ID); got != nil {
		t.Fatal("tenant B can read tenant A's order")
	}
	if got, _ := s.Orders.GetByID(context.Background(), order.ID); got != nil {
		t.Fatal("order readable without tenant context")
	}
	if payments, _ := s.Payments.ListByOrder(ctxB, order.ID); len(payments) != 0 {
		t.Fatal("tenant B can list tenant A's payments")
	}
}

func TestDuplicateOrderNumber(t *testing.T) {
	s := newStore(t)
	ctx, tenantID := tenantCtx(t, s)
	otherCtx, otherID := tenantCtx(t, s)

	if err := s.Orders.Create(ctx, &entity.Order{TenantID: tenantID, OrderNumber: "ORD-1"}); err != nil {
		t.Fatal(err)
	}
	err := s.Orders.Create(ctx, &entity.Order{TenantID: tenantID, OrderNumber: "ORD-1"})
	if !errors.Is(err, domainRepo.ErrDuplicateOrderNumber) {
		t.Fatalf("err = %v, want ErrDuplicateOrderNumber", err)
	}

	// Numbers are unique per tenant only
	if err := s.Orders.Create(otherCtx, &entity.Order{TenantID: otherID, OrderNumber: "ORD-1"}); err != nil {
		t.Fatalf("other tenant ORD-1: %v", err)
	}
}

func TestOneOpenSessionPerTenant(t *testing.T) {
	s := newStore(t)
	ctx, tenantID := tenantCtx(t, s)

	open := func() error {
		return s.CashSessions.Create(ctx, &entity.CashSession{TenantID: tenantID, Status: enum.CashSessionStatusOpen, OpenedAt: time.Now()})
	}
	if err := open(); err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := open(); !errors.Is(err, domainRepo.ErrSessionAlreadyOpen) {
		t.Fatalf("second open err = %v", err)
	}

	closed := &entity.CashSession{TenantID: tenantID, Status: enum.CashSessionStatusClosed, OpenedAt: time.Now()}
	if err := s.CashSessions.Create(ctx, closed); err != nil {
		t.Fatalf("closed session blocked by the open one: %v", err)
	}
}

func TestSumCapturedWindow(t *testing.T) {
	s := newStore(t)
	ctx, tenantID := tenantCtx(t, s)
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

	order := &entity.Order{TenantID: tenantID, OrderNumber: "ORD-1", OpenedAt: base}
	if err := s.Orders.Create(ctx, order); err != nil {
		t.Fatal(err)
	}

	payments := []entity.Payment{
		{Provider: enum.PaymentProviderCash, AmountCents: 1000, CapturedAt: base},
		{Provider: enum.PaymentProviderCash, AmountCents: 1300, CapturedAt: base.Add(time.Hour)},
		{Provider: enum.PaymentProviderCard, AmountCents: 9999, CapturedAt: base.Add(time.Hour)},
		{Provider: enum.PaymentProviderCash, AmountCents: 700, CapturedAt: base.Add(-time.Minute)},
		{Provider: enum.PaymentProviderCash, AmountCents: 800, CapturedAt: base.Add(2 * time.Hour)},
		{Provider: enum.PaymentProviderCash, AmountCents: 400, Status: enum.PaymentStatusVoid, CapturedAt: base.Add(time.Hour)},
	}
	for i := range payments {
		payments[i].TenantID = tenantID
		payments[i].OrderID = order.ID
		if err := s.Payments.Create(ctx, &payments[i]); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Payments.SumCaptured(ctx, enum.PaymentProviderCash, base, base.Add(2*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if got != 2300 {
		t.Fatalf("SumCaptured = %d, want 2300", got)
	}
}

func TestIdempotencyReservation(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	reserve := func(at time.Time, hash string) (*entity.IdempotencyKey, error) {
		return s.Idempotency.Reserve(ctx, &entity.IdempotencyKey{
			Key:         "pay-1",
			UserID:      userID,
			Endpoint:    "POST /orders/1/payments",
			RequestHash: hash,
			ExpiresAt:   at.Add(time.Minute),
		}, at)
	}

	if existing, err := reserve(now, "a"); err != nil || existing != nil {
		t.Fatalf("first reserve = %+v, %v", existing, err)
	}

	existing, err := reserve(now, "a")
	if err != nil {
		t.Fatal(err)
	}
	if existing == nil || !existing.IsPending() {
		t.Fatalf("second reserve = %+v, want the pending row", existing)
	}

	// Another user may use the same key
	other, err := s.Idempotency.Reserve(ctx, &entity.IdempotencyKey{Key: "pay-1", UserID: uuid.New(), ExpiresAt: now.Add(time.Minute)}, now)
	if err != nil || other != nil {
		t.Fatalf("other user reserve = %+v, %v", other, err)
	}

	done := &entity.IdempotencyKey{Key: "pay-1", UserID: userID, ResponseCode: 201, ResponseBody: `{"ok":true}`, ExpiresAt: now.Add(24 * time.Hour)}
	if err := s.Idempotency.Complete(ctx, done); err != nil {
		t.Fatal(err)
	}
	// Release leaves a completed row alone
	if err := s.Idempotency.Release(ctx, "pay-1", userID); err != nil {
		t.Fatal(err)
	}

	existing, err = reserve(now.Add(time.Hour), "a")
	if err != nil {
		t.Fatal(err)
	}
	if existing == nil || existing.ResponseCode != 201 || existing.ResponseBody != `{"ok":true}` {
		t.Fatalf("completed row = %+v", existing)
	}

	// Once expired the key is claimed again, with the new request's hash
	if existing, err := reserve(now.Add(25*time.Hour), "b"); err != nil || existing != nil {
		t.Fatalf("reserve after expiry = %+v, %v", existing, err)
	}
	existing, err = reserve(now.Add(25*time.Hour), "b")
	if err != nil {
		t.Fatal(err)
	}
	if existing == nil || !existing.IsPending() || !existing.Matches("POST /orders/1/payments", "b") {
		t.Fatalf("taken-over row = %+v", existing)
	}
}

func TestIdempotencyReleaseFreesPendingKey(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	ikey := func() *entity.IdempotencyKey {
		return &entity.IdempotencyKey{Key: "k", UserID: userID, ExpiresAt: now.Add(time.Minute)}
	}
	if _, err := s.Idempotency.Reserve(ctx, ikey(), now); err != nil {
		t.Fatal(err)
	}
	if err := s.Idempotency.Release(ctx, "k", userID); err != nil {
		t.Fatal(err)
	}
	if existing, err := s.Idempotency.Reserve(ctx, ikey(), now); err != nil || existing != nil {
		t.Fatalf("reserve after release = %+v, %v", existing, err)
	}

	removed, err := s.Idempotency.DeleteExpired(ctx, now.Add(2*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
}
