package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/domain/billsplit"
	"github.com/sangkips/tabsettle-api/internal/domain/entity"
	"github.com/sangkips/tabsettle-api/internal/domain/enum"
	"github.com/sangkips/tabsettle-api/internal/domain/event"
	"github.com/sangkips/tabsettle-api/internal/domain/repository"
	"github.com/sangkips/tabsettle-api/pkg/apperror"
	"github.com/sangkips/tabsettle-api/pkg/money"
)

// SettlementService captures payments against orders and previews bill splits
type SettlementService struct {
	tx          txRunner
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	tenantRepo  repository.TenantRepository
	publisher   event.Publisher
	printer     *PrinterService
	now         func() time.Time
}

// NewSettlementService creates a new settlement service. printer may be nil.
func NewSettlementService(
	tx repository.Transactor,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	tenantRepo repository.TenantRepository,
	publisher event.Publisher,
	printer *PrinterService,
	maxAttempts int,
) *SettlementService {
	return &SettlementService{
		tx:          newTxRunner(tx, maxAttempts),
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		tenantRepo:  tenantRepo,
		publisher:   publisher,
		printer:     printer,
		now:         time.Now,
	}
}

// PayInput is one tender against an order. AmountCents defaults to the full
// outstanding balance plus the tip. The tip is funded from the same tender.
type PayInput struct {
	OperatorID  uuid.UUID
	Provider    enum.PaymentProvider
	AmountCents *int64
	TipCents    int64
	SplitIndex  *int
}

// PaymentResult is what a pay action applied
type PaymentResult struct {
	Payment          *entity.Payment `json:"payment"`
	AmountCents      int64           `json:"amount_cents"`
	Provider         string          `json:"provider"`
	TipCents         int64           `json:"tip_cents"`
	ChangeDueCents   int64           `json:"change_due_cents"`
	OutstandingCents int64           `json:"outstanding_cents"`
	IsFullyPaid      bool            `json:"is_fully_paid"`
	Order            *entity.Order   `json:"order"`
}

// SplitPreview is the advisory result of a split request
type SplitPreview struct {
	OrderID          uuid.UUID         `json:"order_id"`
	Type             billsplit.Kind    `json:"type"`
	OutstandingCents int64             `json:"outstanding_cents"`
	Shares           []billsplit.Share `json:"shares"`
}

func (in *PayInput) validate() error {
	var fieldErrors []apperror.FieldError
	if in.AmountCents != nil && *in.AmountCents <= 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "amount_cents", Message: "must be greater than 0"})
	}
	if in.TipCents < 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "tip_cents", Message: "must not be negative"})
	}
	if in.AmountCents != nil && *in.AmountCents < in.TipCents {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "amount_cents", Message: "must cover the tip"})
	}
	if in.SplitIndex != nil && *in.SplitIndex < 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "split_index", Message: "must not be negative"})
	}
	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}
	return nil
}

// Pay captures a payment. The order is re-read under a row lock so concurrent
// captures serialize and each sees the balance the previous one left behind.
// The payment, the tip and the order update commit together or not at all.
func (s *SettlementService) Pay(ctx context.Context, orderID uuid.UUID, input *PayInput) (*PaymentResult, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	tenant, err := loadTenant(ctx, s.tenantRepo)
	if err != nil {
		return nil, err
	}

	var (
		result *PaymentResult
		out    outbox
	)
	err = s.tx.run(ctx, "pay", func(ctx context.Context) error {
		out.reset()
		order, err := getOrder(ctx, s.orderRepo, orderID, true)
		if err != nil {
			return err
		}
		result, err = s.capture(ctx, tenant, order, input, &out)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("order %s: captured %d via %s, outstanding %d",
		result.Order.OrderNumber, result.AmountCents, result.Provider, result.OutstandingCents)
	out.flush(ctx, s.publisher)

	if result.IsFullyPaid && s.printer != nil {
		if _, err := s.printer.PrintOrderReceipt(ctx, orderID); err != nil {
			log.Printf("Printer error (receipt %s): %v", result.Order.OrderNumber, err)
		}
	}
	return result, nil
}

// capture applies one tender to a locked order
func (s *SettlementService) capture(ctx context.Context, tenant *entity.Tenant, order *entity.Order, input *PayInput, out *outbox) (*PaymentResult, error) {
	if !order.Status.AcceptsPayment() {
		switch order.Status {
		case enum.OrderStatusCancelled:
			return nil, apperror.NewConflictError("Order is cancelled")
		case enum.OrderStatusPaid:
			return nil, apperror.NewConflictError("Order is already fully paid")
		}
		return nil, apperror.NewConflictError(fmt.Sprintf("Order is %s and not ready for payment", order.Status))
	}

	order.RecalculateTotals(tenant.TaxPolicy())
	outstanding := order.OutstandingCents()
	if outstanding <= 0 {
		return nil, apperror.NewConflictError("Order is already fully paid")
	}

	due := outstanding + input.TipCents
	requested := due
	if input.AmountCents != nil {
		requested = *input.AmountCents
	}

	captured := money.Min(requested, due)
	meta := entity.PaymentMetadata{SplitIndex: input.SplitIndex, TipCents: input.TipCents}
	if requested > due {
		if !input.Provider.GivesChange() {
			return nil, apperror.NewFieldError("amount_cents",
				fmt.Sprintf("%s payments cannot exceed the outstanding balance of %d", input.Provider, due))
		}
		meta.ChangeDueCents = requested - due
	}
	if input.Provider.GivesChange() {
		meta.TenderedCents = requested
	}

	now := s.now()
	payment := &entity.Payment{
		TenantID:    order.TenantID,
		OrderID:     order.ID,
		Provider:    input.Provider,
		Status:      enum.PaymentStatusCaptured,
		AmountCents: captured,
		Currency:    order.Currency,
		Metadata:    meta,
		CapturedBy:  input.OperatorID,
		CapturedAt:  now,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}
	if input.TipCents > 0 {
		order.TipCents += input.TipCents
		tip := &entity.OrderTip{
			TenantID:    order.TenantID,
			OrderID:     order.ID,
			PaymentID:   payment.ID,
			AmountCents: input.TipCents,
			CreatedBy:   input.OperatorID,
		}
		if err := s.paymentRepo.CreateTip(ctx, tip); err != nil {
			return nil, err
		}
	}
	order.Payments = append(order.Payments, *payment)

	from := order.Status
	if order.Status == enum.OrderStatusReady {
		if err := order.TransitionTo(enum.OrderStatusForPayment, now); err != nil {
			return nil, err
		}
	}
	remaining := order.OutstandingCents()
	if remaining <= 0 {
		if err := order.TransitionTo(enum.OrderStatusPaid, now); err != nil {
			return nil, err
		}
	}
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}

	fullyPaid := order.Status == enum.OrderStatusPaid
	out.add(event.PaymentCaptured, order.TenantID, event.PaymentPayload{
		OrderID:          order.ID,
		PaymentID:        payment.ID,
		Provider:         payment.Provider.String(),
		AmountCents:      captured,
		TipCents:         input.TipCents,
		OutstandingCents: money.Max(remaining, 0),
		IsFullyPaid:      fullyPaid,
	}, now)
	out.orderStatus(order, from, now)

	return &PaymentResult{
		Payment:          payment,
		AmountCents:      captured,
		Provider:         payment.Provider.String(),
		TipCents:         input.TipCents,
		ChangeDueCents:   meta.ChangeDueCents,
		OutstandingCents: money.Max(remaining, 0),
		IsFullyPaid:      fullyPaid,
		Order:            order,
	}, nil
}

// PreviewSplit proposes shares of the outstanding balance. Nothing is written.
func (s *SettlementService) PreviewSplit(ctx context.Context, orderID uuid.UUID, req billsplit.Request) (*SplitPreview, error) {
	tenant, err := loadTenant(ctx, s.tenantRepo)
	if err != nil {
		return nil, err
	}
	order, err := getOrder(ctx, s.orderRepo, orderID, false)
	if err != nil {
		return nil, err
	}
	if order.Status == enum.OrderStatusCancelled {
		return nil, apperror.NewConflictError("Order is cancelled")
	}

	order.RecalculateTotals(tenant.TaxPolicy())
	bill := BillOf(order)
	shares, err := billsplit.Compute(bill, req)
	if err != nil {
		return nil, err
	}
	return &SplitPreview{
		OrderID:          order.ID,
		Type:             req.Kind,
		OutstandingCents: bill.OutstandingCents(),
		Shares:           shares,
	}, nil
}

// BillOf is the splitter's view of an order
func BillOf(order *entity.Order) billsplit.Bill {
	active := order.ActiveItems()
	items := make([]billsplit.Item, 0, len(active))
	for _, item := range active {
		items = append(items, billsplit.Item{ID: item.ID, LineTotalCents: item.LineTotalCents()})
	}
	return billsplit.Bill{
		Items:         items,
		SubtotalCents: order.SubtotalCents,
		DiscountCents: order.DiscountCents,
		TaxCents:      order.TaxCents,
		TotalCents:    order.TotalCents,
		TipCents:      order.TipCents,
		CapturedCents: order.CapturedCents(),
	}
}
