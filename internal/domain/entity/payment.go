package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/domain/enum"
	"gorm.io/gorm"
)

// Payment is an immutable record of money captured against an order
type Payment struct {
	ID          uuid.UUID            `gorm:"type:uuid;primary_key" json:"id"`
	TenantID    uuid.UUID            `gorm:"type:uuid;not null;index:idx_payments_tenant_captured,priority:1" json:"tenant_id"`
	OrderID     uuid.UUID            `gorm:"type:uuid;not null;index" json:"order_id"`
	Provider    enum.PaymentProvider `gorm:"not null" json:"provider"`
	Status      enum.PaymentStatus   `gorm:"not null;default:0" json:"status"`
	AmountCents int64                `gorm:"not null" json:"amount_cents"`
	Currency    string               `gorm:"size:3;not null" json:"currency"`
	Metadata    PaymentMetadata      `gorm:"type:jsonb;serializer:json" json:"metadata"`
	CapturedBy  uuid.UUID            `gorm:"type:uuid;not null" json:"captured_by"`
	CapturedAt  time.Time            `gorm:"not null;index:idx_payments_tenant_captured,priority:2" json:"captured_at"`
	CreatedAt   time.Time            `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new payment
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}

// PaymentMetadata records how a capture was settled
type PaymentMetadata struct {
	SplitIndex     *int  `json:"split_index,omitempty"`
	TipCents       int64 `json:"tip_cents,omitempty"`
	TenderedCents  int64 `json:"tendered_cents,omitempty"`
	ChangeDueCents int64 `json:"change_due_cents,omitempty"`
}

// Scan implements the sql.Scanner interface for PaymentMetadata
func (m *PaymentMetadata) Scan(value interface{}) error {
	if value == nil {
		*m = PaymentMetadata{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan PaymentMetadata: unsupported type")
	}

	return json.Unmarshal(bytes, m)
}

// Value implements the driver.Valuer interface for PaymentMetadata
func (m PaymentMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// OrderTip records one tip contribution, written in the same transaction as its payment
type OrderTip struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	OrderID     uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	PaymentID   uuid.UUID `gorm:"type:uuid;not null" json:"payment_id"`
	AmountCents int64     `gorm:"not null" json:"amount_cents"`
	CreatedBy   uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new tip
func (t *OrderTip) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the OrderTip model
func (OrderTip) TableName() string {
	return "order_tips"
}
