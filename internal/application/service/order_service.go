package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/domain/entity"
	"github.com/sangkips/tabsettle-api/internal/domain/enum"
	"github.com/sangkips/tabsettle-api/internal/domain/event"
	"github.com/sangkips/tabsettle-api/internal/domain/repository"
	"github.com/sangkips/tabsettle-api/pkg/apperror"
	"github.com/sangkips/tabsettle-api/pkg/money"
	"github.com/sangkips/tabsettle-api/pkg/pagination"
	"github.com/sangkips/tabsettle-api/pkg/utils"
)

const orderNumberAttempts = 5

// OrderService handles the order lifecycle outside of settlement
type OrderService struct {
	tx          txRunner
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	catalog     repository.ProductCatalog
	tenantRepo  repository.TenantRepository
	publisher   event.Publisher
	printer     *PrinterService
	now         func() time.Time
}

// NewOrderService creates a new order service. printer may be nil.
func NewOrderService(
	tx repository.Transactor,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	catalog repository.ProductCatalog,
	tenantRepo repository.TenantRepository,
	publisher event.Publisher,
	printer *PrinterService,
	maxAttempts int,
) *OrderService {
	return &OrderService{
		tx:          newTxRunner(tx, maxAttempts),
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		catalog:     catalog,
		tenantRepo:  tenantRepo,
		publisher:   publisher,
		printer:     printer,
		now:         time.Now,
	}
}

// CreateOrderInput opens a new order
type CreateOrderInput struct {
	OperatorID uuid.UUID
	TableRef   *string
	Notes      string
}

// AddItemInput adds a catalog product to an order
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Note      string
}

// SetDiscountInput replaces the order-level discount
type SetDiscountInput struct {
	Type  enum.DiscountType
	Value int64
}

// PaymentSummary is the settlement view of an order
type PaymentSummary struct {
	TotalCents       int64 `json:"total_cents"`
	TipCents         int64 `json:"tip_cents"`
	PaidCents        int64 `json:"paid_cents"`
	OutstandingCents int64 `json:"outstanding_cents"`
	PaymentCount     int   `json:"payment_count"`
	IsFullyPaid      bool  `json:"is_fully_paid"`
}

// OrderPayments is an order with its payments and their summary
type OrderPayments struct {
	Order    *entity.Order    `json:"order"`
	Payments []entity.Payment `json:"payments"`
	Summary  PaymentSummary   `json:"summary"`
}

// Summarize derives the payment summary of an order
func Summarize(order *entity.Order) PaymentSummary {
	count := 0
	for _, p := range order.Payments {
		if p.Status.CountsTowardsBalance() {
			count++
		}
	}
	outstanding := order.OutstandingCents()
	return PaymentSummary{
		TotalCents:       order.TotalCents,
		TipCents:         order.TipCents,
		PaidCents:        order.CapturedCents(),
		OutstandingCents: money.Max(outstanding, 0),
		PaymentCount:     count,
		IsFullyPaid:      order.Status == enum.OrderStatusPaid || (order.TotalCents > 0 && outstanding <= 0),
	}
}

// CreateOrder opens an order with a fresh order number
func (s *OrderService) CreateOrder(ctx context.Context, input *CreateOrderInput) (*entity.Order, error) {
	tenant, err := loadTenant(ctx, s.tenantRepo)
	if err != nil {
		return nil, err
	}

	var tableRef *string
	if input.TableRef != nil {
		if ref := strings.TrimSpace(*input.TableRef); ref != "" {
			tableRef = &ref
		}
	}

	now := s.now()
	for attempt := 1; ; attempt++ {
		order := &entity.Order{
			TenantID:    tenant.ID,
			OrderNumber: utils.GenerateOrderNo(tenant.Settings.OrderPrefix),
			Status:      enum.OrderStatusOpen,
			Currency:    tenant.Settings.Currency,
			TableRef:    tableRef,
			Notes:       input.Notes,
			OpenedBy:    input.OperatorID,
			OpenedAt:    now,
		}
		order.RecalculateTotals(tenant.TaxPolicy())

		err := s.orderRepo.Create(ctx, order)
		if err == nil {
			log.Printf("order %s opened by %s", order.OrderNumber, input.OperatorID)
			order.Items = []entity.OrderItem{}
			return order, nil
		}
		if !errors.Is(err, repository.ErrDuplicateOrderNumber) || attempt >= orderNumberAttempts {
			return nil, err
		}
	}
}

// GetOrder returns an order with its items and payments
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	if _, err := tenantFromContext(ctx); err != nil {
		return nil, err
	}
	return getOrder(ctx, s.orderRepo, id, false)
}

// ListOrders returns a page of orders
func (s *OrderService) ListOrders(ctx context.Context, params *repository.OrderFilterParams) ([]entity.Order, *pagination.Pagination, error) {
	if _, err := tenantFromContext(ctx); err != nil {
		return nil, nil, err
	}
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	orders, total, err := s.orderRepo.List(ctx, params)
	if err != nil {
		return nil, nil, err
	}
	return orders, pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total), nil
}

// GetPaymentSummary returns the order, its payments and the settlement summary
func (s *OrderService) GetPaymentSummary(ctx context.Context, id uuid.UUID) (*OrderPayments, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.ListByOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []entity.Payment{}
	}
	return &OrderPayments{Order: order, Payments: payments, Summary: Summarize(order)}, nil
}

// AddItem snapshots a product's name and price onto the order. Items added
// while the order is in the kitchen are printed on a ticket straight away.
func (s *OrderService) AddItem(ctx context.Context, orderID uuid.UUID, input *AddItemInput) (*entity.Order, error) {
	if input.Quantity < 1 {
		return nil, apperror.NewFieldError("quantity", "must be at least 1")
	}
	tenant, err := loadTenant(ctx, s.tenantRepo)
	if err != nil {
		return nil, err
	}

	var (
		order *entity.Order
		added entity.OrderItem
	)
	err = s.tx.run(ctx, "add item", func(ctx context.Context) error {
		order, err = getOrder(ctx, s.orderRepo, orderID, true)
		if err != nil {
			return err
		}
		if !order.Status.AcceptsItems() {
			return apperror.NewConflictError(fmt.Sprintf("Items cannot be added to an order that is %s", order.Status))
		}

		product, err := s.catalog.GetByID(ctx, tenant.ID, input.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return apperror.NewNotFoundError("Product")
		}

		added = entity.OrderItem{
			OrderID:        order.ID,
			ProductID:      product.ID,
			ProductName:    product.Name,
			UnitPriceCents: product.PriceCents,
			Quantity:       input.Quantity,
			Status:         enum.OrderItemStatusSent,
			Note:           strings.TrimSpace(input.Note),
		}
		if err := s.orderRepo.AddItem(ctx, &added); err != nil {
			return err
		}

		order.Items = append(order.Items, added)
		order.RecalculateTotals(tenant.TaxPolicy())
		return s.orderRepo.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	if order.Status == enum.OrderStatusInKitchen {
		s.printTicket(ctx, order, []entity.OrderItem{added})
	}
	return order, nil
}

// SetDiscount replaces the order discount and recomputes totals
func (s *OrderService) SetDiscount(ctx context.Context, orderID uuid.UUID, input *SetDiscountInput) (*entity.Order, error) {
	if input.Value < 0 {
		return nil, apperror.NewFieldError("value", "must not be negative")
	}
	if input.Type == enum.DiscountTypePercent && input.Value > money.BasisPoints {
		return nil, apperror.NewFieldError("value", "percent discount is in basis points and cannot exceed 10000")
	}
	tenant, err := loadTenant(ctx, s.tenantRepo)
	if err != nil {
		return nil, err
	}

	var order *entity.Order
	err = s.tx.run(ctx, "set discount", func(ctx context.Context) error {
		order, err = getOrder(ctx, s.orderRepo, orderID, true)
		if err != nil {
			return err
		}
		if err := order.EnsureMutable(); err != nil {
			return err
		}
		if order.Status == enum.OrderStatusForPayment {
			return apperror.NewConflictError("The bill has been requested; the discount can no longer change")
		}

		order.DiscountType = input.Type
		order.DiscountValue = input.Value
		if input.Type == enum.DiscountTypeNone {
			order.DiscountValue = 0
		}
		order.RecalculateTotals(tenant.TaxPolicy())
		return s.orderRepo.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// SendToKitchen routes an OPEN order to preparation and prints its ticket
func (s *OrderService) SendToKitchen(ctx context.Context, orderID uuid.UUID) (*entity.Order, error) {
	order, err := s.transition(ctx, orderID, "send to kitchen", func(o *entity.Order, now time.Time) error {
		return o.SendToKitchen(now)
	})
	if err != nil {
		return nil, err
	}

	var pending []entity.OrderItem
	for _, item := range order.ActiveItems() {
		if item.Status == enum.OrderItemStatusSent {
			pending = append(pending, *item)
		}
	}
	s.printTicket(ctx, order, pending)
	return order, nil
}

// RequestBill moves a READY order to FOR_PAYMENT
func (s *OrderService) RequestBill(ctx context.Context, orderID uuid.UUID) (*entity.Order, error) {
	return s.transition(ctx, orderID, "request bill", func(o *entity.Order, now time.Time) error {
		if o.Status != enum.OrderStatusReady {
			return apperror.NewConflictError(fmt.Sprintf("The bill can only be requested for a READY order, this one is %s", o.Status))
		}
		return o.TransitionTo(enum.OrderStatusForPayment, now)
	})
}

// CancelOrder cancels an order that has not reached payment
func (s *OrderService) CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) (*entity.Order, error) {
	return s.transition(ctx, orderID, "cancel", func(o *entity.Order, now time.Time) error {
		return o.Cancel(strings.TrimSpace(reason), now)
	})
}

// transition loads the order under lock, applies change, recomputes totals
// and persists the result. The status event is published after commit.
func (s *OrderService) transition(ctx context.Context, orderID uuid.UUID, op string, change func(*entity.Order, time.Time) error) (*entity.Order, error) {
	tenant, err := loadTenant(ctx, s.tenantRepo)
	if err != nil {
		return nil, err
	}

	var (
		order *entity.Order
		from  enum.OrderStatus
		out   outbox
	)
	err = s.tx.run(ctx, op, func(ctx context.Context) error {
		out.reset()
		order, err = getOrder(ctx, s.orderRepo, orderID, true)
		if err != nil {
			return err
		}
		from = order.Status
		now := s.now()
		if err := change(order, now); err != nil {
			return err
		}
		order.RecalculateTotals(tenant.TaxPolicy())
		if err := s.orderRepo.Update(ctx, order); err != nil {
			return err
		}
		out.orderStatus(order, from, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("order %s: %s -> %s", order.OrderNumber, from, order.Status)
	out.flush(ctx, s.publisher)
	return order, nil
}

func (s *OrderService) printTicket(ctx context.Context, order *entity.Order, items []entity.OrderItem) {
	if s.printer == nil || len(items) == 0 {
		return
	}
	if err := s.printer.PrintKitchenTicket(ctx, order, items, s.now()); err != nil {
		log.Printf("Printer error (kitchen ticket %s): %v", order.OrderNumber, err)
	}
}
