package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/domain/enum"
	"github.com/sangkips/tabsettle-api/internal/domain/pricing"
	"github.com/sangkips/tabsettle-api/pkg/apperror"
	"gorm.io/gorm"
)

// Order represents one sale or tab. Money fields are minor units and are only
// ever written by RecalculateTotals.
type Order struct {
	ID            uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	TenantID      uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_orders_tenant_number,priority:1" json:"tenant_id"`
	OrderNumber   string            `gorm:"size:50;not null;uniqueIndex:idx_orders_tenant_number,priority:2" json:"order_number"`
	Status        enum.OrderStatus  `gorm:"not null;default:0;index" json:"status"`
	Currency      string            `gorm:"size:3;not null" json:"currency"`
	SubtotalCents int64             `gorm:"not null;default:0" json:"subtotal_cents"`
	DiscountType  enum.DiscountType `gorm:"not null;default:0" json:"discount_type"`
	DiscountValue int64             `gorm:"not null;default:0" json:"discount_value"`
	DiscountCents int64             `gorm:"not null;default:0" json:"discount_cents"`
	TaxCents      int64             `gorm:"not null;default:0" json:"tax_cents"`
	TotalCents    int64             `gorm:"not null;default:0" json:"total_cents"`
	TipCents      int64             `gorm:"not null;default:0" json:"tip_cents"`
	TableRef      *string           `gorm:"size:50" json:"table_ref,omitempty"`
	Notes         string            `gorm:"type:text" json:"notes,omitempty"`
	CancelReason  string            `gorm:"type:text" json:"cancel_reason,omitempty"`
	OpenedBy      uuid.UUID         `gorm:"type:uuid;not null" json:"opened_by"`
	OpenedAt      time.Time         `gorm:"not null" json:"opened_at"`
	ClosedAt      *time.Time        `json:"closed_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`

	// Relationships
	Items    []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	Payments []Payment   `gorm:"foreignKey:OrderID" json:"payments,omitempty"`
}

// BeforeCreate generates a UUID before creating a new order
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// FindItem returns the item with the given ID, or nil
func (o *Order) FindItem(id uuid.UUID) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ID == id {
			return &o.Items[i]
		}
	}
	return nil
}

// ActiveItems returns all non-void items
func (o *Order) ActiveItems() []*OrderItem {
	active := make([]*OrderItem, 0, len(o.Items))
	for i := range o.Items {
		if o.Items[i].Status.IsActive() {
			active = append(active, &o.Items[i])
		}
	}
	return active
}

// RecalculateTotals rederives subtotal, discount, tax and total from the
// current items.
func (o *Order) RecalculateTotals(policy pricing.TaxPolicy) pricing.Totals {
	active := o.ActiveItems()
	lines := make([]pricing.Line, 0, len(active))
	for _, item := range active {
		lines = append(lines, item.Line())
	}

	totals := pricing.Calculate(lines, pricing.Discount{Type: o.DiscountType, Value: o.DiscountValue}, policy)
	o.SubtotalCents = totals.SubtotalCents
	o.DiscountCents = totals.DiscountCents
	o.TaxCents = totals.TaxCents
	o.TotalCents = totals.TotalCents
	return totals
}

// CapturedCents sums the payments that count towards the balance
func (o *Order) CapturedCents() int64 {
	var paid int64
	for _, p := range o.Payments {
		if p.Status.CountsTowardsBalance() {
			paid += p.AmountCents
		}
	}
	return paid
}

// OutstandingCents is total plus tips minus captured payments
func (o *Order) OutstandingCents() int64 {
	return o.TotalCents + o.TipCents - o.CapturedCents()
}

// EnsureMutable rejects changes to a PAID or CANCELLED order
func (o *Order) EnsureMutable() error {
	if o.Status.IsTerminal() {
		return apperror.NewConflictError(fmt.Sprintf("Order is %s and can no longer be changed", o.Status))
	}
	return nil
}

// TransitionTo moves the order to next if the lifecycle allows it
func (o *Order) TransitionTo(next enum.OrderStatus, now time.Time) error {
	if !o.Status.CanTransitionTo(next) {
		return apperror.NewConflictError(fmt.Sprintf("Order cannot move from %s to %s", o.Status, next))
	}
	o.Status = next
	if next.IsTerminal() {
		o.ClosedAt = &now
	}
	return nil
}

// SendToKitchen moves an OPEN order to IN_KITCHEN. At least one non-void item is required.
func (o *Order) SendToKitchen(now time.Time) error {
	if len(o.ActiveItems()) == 0 {
		return apperror.NewFieldError("items", "order has no active items to send")
	}
	return o.TransitionTo(enum.OrderStatusInKitchen, now)
}

// Cancel moves the order to CANCELLED, which is forbidden once the bill is requested
func (o *Order) Cancel(reason string, now time.Time) error {
	switch o.Status {
	case enum.OrderStatusForPayment:
		return apperror.NewConflictError("Order is awaiting payment and cannot be cancelled")
	case enum.OrderStatusPaid:
		return apperror.NewConflictError("Order is already paid and cannot be cancelled")
	case enum.OrderStatusCancelled:
		return apperror.NewConflictError("Order is already cancelled")
	case enum.OrderStatusOpen, enum.OrderStatusInKitchen, enum.OrderStatusReady:
	}
	if err := o.TransitionTo(enum.OrderStatusCancelled, now); err != nil {
		return err
	}
	o.CancelReason = reason
	return nil
}

// DeriveKitchenStatus advances the order when its items allow it: IN_KITCHEN
// becomes READY once every active item is at least READY, and READY becomes
// FOR_PAYMENT once every active item is SERVED. It reports whether the status changed.
func (o *Order) DeriveKitchenStatus(now time.Time) bool {
	active := o.ActiveItems()
	if len(active) == 0 {
		return false
	}

	allAtLeast := func(target enum.OrderItemStatus) bool {
		for _, item := range active {
			if !item.Status.AtLeast(target) {
				return false
			}
		}
		return true
	}

	changed := false
	if o.Status == enum.OrderStatusInKitchen && allAtLeast(enum.OrderItemStatusReady) {
		o.Status = enum.OrderStatusReady
		changed = true
	}
	if o.Status == enum.OrderStatusReady && allAtLeast(enum.OrderItemStatusServed) {
		o.Status = enum.OrderStatusForPayment
		changed = true
	}
	return changed
}

// OrderItem is one line within an order. Name and price are copied from the
// catalog when the item is added and never follow later catalog changes.
type OrderItem struct {
	ID             uuid.UUID            `gorm:"type:uuid;primary_key" json:"id"`
	OrderID        uuid.UUID            `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID      uuid.UUID            `gorm:"type:uuid;not null" json:"product_id"`
	ProductName    string               `gorm:"size:255;not null" json:"product_name"`
	UnitPriceCents int64                `gorm:"not null" json:"unit_price_cents"`
	Quantity       int                  `gorm:"not null" json:"quantity"`
	Status         enum.OrderItemStatus `gorm:"not null;default:0" json:"status"`
	Note           string               `gorm:"type:text" json:"note,omitempty"`
	StartedAt      *time.Time           `json:"started_at,omitempty"`
	ReadyAt        *time.Time           `json:"ready_at,omitempty"`
	ServedAt       *time.Time           `json:"served_at,omitempty"`
	VoidedAt       *time.Time           `json:"voided_at,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new order item
func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// Line returns the pricing view of the item
func (i *OrderItem) Line() pricing.Line {
	return pricing.Line{UnitPriceCents: i.UnitPriceCents, Quantity: i.Quantity}
}

// LineTotalCents is unit price times quantity
func (i *OrderItem) LineTotalCents() int64 {
	return i.Line().Total()
}

// TransitionTo applies one kitchen step. Skips and reversals are rejected.
func (i *OrderItem) TransitionTo(next enum.OrderItemStatus, now time.Time) error {
	if !i.Status.CanTransitionTo(next) {
		return apperror.NewFieldError("status", fmt.Sprintf("item cannot move from %s to %s", i.Status, next))
	}
	i.Status = next
	switch next {
	case enum.OrderItemStatusInProgress:
		i.StartedAt = &now
	case enum.OrderItemStatusReady:
		i.ReadyAt = &now
	case enum.OrderItemStatusServed:
		i.ServedAt = &now
	case enum.OrderItemStatusVoid:
		i.VoidedAt = &now
	case enum.OrderItemStatusSent:
	}
	return nil
}

// AdvanceTo walks the item forward one step at a time until it reaches target.
// Items already at or past target are left untouched and reported as unchanged.
func (i *OrderItem) AdvanceTo(target enum.OrderItemStatus, now time.Time) (bool, error) {
	if !i.Status.IsActive() || i.Status.AtLeast(target) {
		return false, nil
	}
	for !i.Status.AtLeast(target) {
		next, ok := i.Status.Next()
		if !ok {
			return false, nil
		}
		if err := i.TransitionTo(next, now); err != nil {
			return false, err
		}
	}
	return true, nil
}
