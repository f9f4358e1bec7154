// Package event defines the notifications the settlement core emits after a
// transaction commits.
package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type names an event on the wire
type Type string

const (
	OrderStatusChanged     Type = "order.status_changed"
	OrderItemStatusChanged Type = "order.item_status_changed"
	PaymentCaptured        Type = "payment.captured"
	CashSessionOpened      Type = "cash_session.opened"
	CashSessionClosed      Type = "cash_session.closed"
)

// Event is the envelope published to every sink
type Event struct {
	ID         uuid.UUID   `json:"id"`
	Type       Type        `json:"type"`
	TenantID   uuid.UUID   `json:"tenant_id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// New stamps an event with a fresh ID
func New(t Type, tenantID uuid.UUID, payload interface{}, now time.Time) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		TenantID:   tenantID,
		OccurredAt: now,
		Payload:    payload,
	}
}

// OrderStatusPayload accompanies OrderStatusChanged
type OrderStatusPayload struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	From        string    `json:"from"`
	To          string    `json:"to"`
}

// ItemStatusPayload accompanies OrderItemStatusChanged
type ItemStatusPayload struct {
	OrderID uuid.UUID `json:"order_id"`
	ItemID  uuid.UUID `json:"item_id"`
	Name    string    `json:"name"`
	From    string    `json:"from"`
	To      string    `json:"to"`
}

// PaymentPayload accompanies PaymentCaptured
type PaymentPayload struct {
	OrderID          uuid.UUID `json:"order_id"`
	PaymentID        uuid.UUID `json:"payment_id"`
	Provider         string    `json:"provider"`
	AmountCents      int64     `json:"amount_cents"`
	TipCents         int64     `json:"tip_cents"`
	OutstandingCents int64     `json:"outstanding_cents"`
	IsFullyPaid      bool      `json:"is_fully_paid"`
}

// CashSessionPayload accompanies CashSessionOpened and CashSessionClosed
type CashSessionPayload struct {
	SessionID     uuid.UUID `json:"session_id"`
	OpeningCents  int64     `json:"opening_cents"`
	ExpectedCents *int64    `json:"expected_cents,omitempty"`
	ClosingCents  *int64    `json:"closing_cents,omitempty"`
	VarianceCents *int64    `json:"variance_cents,omitempty"`
}

// Publisher delivers committed events. Implementations must not block the
// caller for long; delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Publishers fans an event out to several sinks and returns the first error
type Publishers []Publisher

// Publish implements Publisher
func (ps Publishers) Publish(ctx context.Context, evt Event) error {
	var first error
	for _, p := range ps {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, evt); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Discard drops every event
type Discard struct{}

// Publish implements Publisher
func (Discard) Publish(context.Context, Event) error { return nil }
