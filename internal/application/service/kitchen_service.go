package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/domain/entity"
	"github.com/sangkips/tabsettle-api/internal/domain/enum"
	"github.com/sangkips/tabsettle-api/internal/domain/event"
	"github.com/sangkips/tabsettle-api/internal/domain/repository"
	"github.com/sangkips/tabsettle-api/pkg/apperror"
)

// KitchenService drives the per-item preparation lifecycle
type KitchenService struct {
	tx         txRunner
	orderRepo  repository.OrderRepository
	tenantRepo repository.TenantRepository
	publisher  event.Publisher
	now        func() time.Time
}

// NewKitchenService creates a new kitchen service
func NewKitchenService(
	tx repository.Transactor,
	orderRepo repository.OrderRepository,
	tenantRepo repository.TenantRepository,
	publisher event.Publisher,
	maxAttempts int,
) *KitchenService {
	return &KitchenService{
		tx:         newTxRunner(tx, maxAttempts),
		orderRepo:  orderRepo,
		tenantRepo: tenantRepo,
		publisher:  publisher,
		now:        time.Now,
	}
}

// ItemsResult reports a kitchen change and how many items it touched
type ItemsResult struct {
	Order   *entity.Order `json:"order"`
	Changed int           `json:"changed"`
}

// UpdateItemStatus applies one validated step to a single item. Items of an
// OPEN order can only be voided; once the bill is requested items can still
// be served but no longer voided.
func (s *KitchenService) UpdateItemStatus(ctx context.Context, orderID, itemID uuid.UUID, next enum.OrderItemStatus) (*entity.Order, error) {
	result, err := s.apply(ctx, orderID, "update item", func(ctx context.Context, order *entity.Order, now time.Time, out *outbox) (int, error) {
		item := order.FindItem(itemID)
		if item == nil {
			return 0, apperror.NewNotFoundError("Order item")
		}
		if err := checkItemChange(order.Status, next); err != nil {
			return 0, err
		}

		from := item.Status
		if err := item.TransitionTo(next, now); err != nil {
			return 0, err
		}
		if err := s.orderRepo.UpdateItem(ctx, item); err != nil {
			return 0, err
		}
		out.add(event.OrderItemStatusChanged, order.TenantID, event.ItemStatusPayload{
			OrderID: order.ID,
			ItemID:  item.ID,
			Name:    item.ProductName,
			From:    from.String(),
			To:      next.String(),
		}, now)
		return 1, nil
	})
	if err != nil {
		return nil, err
	}
	return result.Order, nil
}

// MarkAllReady advances every active item that has not reached READY
func (s *KitchenService) MarkAllReady(ctx context.Context, orderID uuid.UUID) (*ItemsResult, error) {
	return s.advanceAll(ctx, orderID, enum.OrderItemStatusReady)
}

// MarkAllServed advances every active item that has not reached SERVED
func (s *KitchenService) MarkAllServed(ctx context.Context, orderID uuid.UUID) (*ItemsResult, error) {
	return s.advanceAll(ctx, orderID, enum.OrderItemStatusServed)
}

func (s *KitchenService) advanceAll(ctx context.Context, orderID uuid.UUID, target enum.OrderItemStatus) (*ItemsResult, error) {
	return s.apply(ctx, orderID, "mark all "+target.String(), func(ctx context.Context, order *entity.Order, now time.Time, out *outbox) (int, error) {
		if err := checkItemChange(order.Status, target); err != nil {
			return 0, err
		}

		changed := 0
		for _, item := range order.ActiveItems() {
			from := item.Status
			moved, err := item.AdvanceTo(target, now)
			if err != nil {
				return 0, err
			}
			if !moved {
				continue
			}
			if err := s.orderRepo.UpdateItem(ctx, item); err != nil {
				return 0, err
			}
			changed++
			out.add(event.OrderItemStatusChanged, order.TenantID, event.ItemStatusPayload{
				OrderID: order.ID,
				ItemID:  item.ID,
				Name:    item.ProductName,
				From:    from.String(),
				To:      item.Status.String(),
			}, now)
		}
		return changed, nil
	})
}

// apply runs change against the locked order, then recomputes totals and
// re-derives the order status from its items. change must use the ctx it is
// given so its writes join the same transaction.
func (s *KitchenService) apply(
	ctx context.Context,
	orderID uuid.UUID,
	op string,
	change func(ctx context.Context, order *entity.Order, now time.Time, out *outbox) (int, error),
) (*ItemsResult, error) {
	tenant, err := loadTenant(ctx, s.tenantRepo)
	if err != nil {
		return nil, err
	}

	var (
		result ItemsResult
		from   enum.OrderStatus
		out    outbox
	)
	err = s.tx.run(ctx, op, func(ctx context.Context) error {
		out.reset()
		order, err := getOrder(ctx, s.orderRepo, orderID, true)
		if err != nil {
			return err
		}
		if err := order.EnsureMutable(); err != nil {
			return err
		}

		now := s.now()
		from = order.Status
		changed, err := change(ctx, order, now, &out)
		if err != nil {
			return err
		}

		order.RecalculateTotals(tenant.TaxPolicy())
		order.DeriveKitchenStatus(now)
		if err := s.orderRepo.Update(ctx, order); err != nil {
			return err
		}
		out.orderStatus(order, from, now)

		result = ItemsResult{Order: order, Changed: changed}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Order.Status != from {
		log.Printf("order %s: %s -> %s", result.Order.OrderNumber, from, result.Order.Status)
	}
	out.flush(ctx, s.publisher)
	return &result, nil
}

// checkItemChange guards item changes by order state
func checkItemChange(status enum.OrderStatus, next enum.OrderItemStatus) error {
	switch status {
	case enum.OrderStatusOpen:
		if next != enum.OrderItemStatusVoid {
			return apperror.NewConflictError("Order has not been sent to the kitchen")
		}
	case enum.OrderStatusInKitchen, enum.OrderStatusReady:
	case enum.OrderStatusForPayment:
		if next == enum.OrderItemStatusVoid {
			return apperror.NewConflictError("The bill has been requested; items can no longer be voided")
		}
	case enum.OrderStatusPaid, enum.OrderStatusCancelled:
		return apperror.NewConflictError(fmt.Sprintf("Order is %s and can no longer be changed", status))
	}
	return nil
}

// KitchenQueue lists orders in preparation with the items still to serve
func (s *KitchenService) KitchenQueue(ctx context.Context) ([]entity.Order, error) {
	if _, err := tenantFromContext(ctx); err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.ListByStatus(ctx, enum.OrderStatusInKitchen, enum.OrderStatusReady)
	if err != nil {
		return nil, err
	}

	queue := make([]entity.Order, 0, len(orders))
	for _, o := range orders {
		pending := make([]entity.OrderItem, 0, len(o.Items))
		for _, item := range o.Items {
			if item.Status.IsActive() && item.Status != enum.OrderItemStatusServed {
				pending = append(pending, item)
			}
		}
		if len(pending) == 0 {
			continue
		}
		o.Items = pending
		o.Payments = nil
		queue = append(queue, o)
	}
	return queue, nil
}
