package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/domain/pricing"
	"gorm.io/gorm"
)

// Tenant represents a venue in the multitenant system
type Tenant struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Slug      string         `gorm:"size:255;unique;not null" json:"slug"`
	Settings  TenantSettings `gorm:"type:jsonb;serializer:json" json:"settings"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Members []TenantMembership `gorm:"foreignKey:TenantID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new tenant
func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Tenant model
func (Tenant) TableName() string {
	return "tenants"
}

// TaxPolicy returns the pricing policy for this tenant's orders
func (t *Tenant) TaxPolicy() pricing.TaxPolicy {
	return pricing.TaxPolicy{RateBasisPoints: t.Settings.TaxRateBasisPoints}
}

// TenantMembership grants an operator access to a tenant
type TenantMembership struct {
	TenantID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"tenant_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Role      string    `gorm:"size:50;default:'cashier'" json:"role"` // owner, manager, cashier, kitchen
	CreatedAt time.Time `json:"created_at"`

	Tenant Tenant `gorm:"foreignKey:TenantID" json:"-"`
}

// TableName returns the table name for the TenantMembership model
func (TenantMembership) TableName() string {
	return "tenant_memberships"
}

// TenantSettings holds the per-venue money and printing configuration
type TenantSettings struct {
	// Localization
	Currency         string `json:"currency,omitempty"`
	CurrencyExponent int32  `json:"currency_exponent"`
	Timezone         string `json:"timezone,omitempty"`

	// Tax
	TaxRateBasisPoints int64  `json:"tax_rate_bps"`
	TaxLabel           string `json:"tax_label,omitempty"`

	// Receipts
	OrderPrefix   string        `json:"order_prefix,omitempty"`
	ReceiptHeader ReceiptHeader `json:"receipt_header"`
}

// Scan implements the sql.Scanner interface for TenantSettings
func (ts *TenantSettings) Scan(value interface{}) error {
	if value == nil {
		*ts = TenantSettings{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan TenantSettings: unsupported type")
	}

	return json.Unmarshal(bytes, ts)
}

// Value implements the driver.Valuer interface for TenantSettings
func (ts TenantSettings) Value() (driver.Value, error) {
	return json.Marshal(ts)
}

// DefaultTenantSettings returns default settings for new tenants
func DefaultTenantSettings() TenantSettings {
	return TenantSettings{
		Currency:           "KES",
		CurrencyExponent:   2,
		Timezone:           "Africa/Nairobi",
		TaxRateBasisPoints: 1600,
		TaxLabel:           "VAT",
		OrderPrefix:        "ORD-",
	}
}
