package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/domain/enum"
	"github.com/sangkips/tabsettle-api/pkg/apperror"
	"gorm.io/gorm"
)

// CashSession is one cash-drawer shift. At most one OPEN session exists per
// tenant; the database enforces it with a partial unique index.
type CashSession struct {
	ID                uuid.UUID              `gorm:"type:uuid;primary_key" json:"id"`
	TenantID          uuid.UUID              `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Status            enum.CashSessionStatus `gorm:"not null;default:0" json:"status"`
	OpeningCashCents  int64                  `gorm:"not null" json:"opening_cash_cents"`
	ClosingCashCents  *int64                 `json:"closing_cash_cents,omitempty"`
	ExpectedCashCents *int64                 `json:"expected_cash_cents,omitempty"`
	VarianceCents     *int64                 `json:"variance_cents,omitempty"`
	OpenedBy          uuid.UUID              `gorm:"type:uuid;not null" json:"opened_by"`
	ClosedBy          *uuid.UUID             `gorm:"type:uuid" json:"closed_by,omitempty"`
	OpenedAt          time.Time              `gorm:"not null" json:"opened_at"`
	ClosedAt          *time.Time             `json:"closed_at,omitempty"`
	Notes             string                 `gorm:"type:text" json:"notes,omitempty"`
	ClosingNotes      string                 `gorm:"type:text" json:"closing_notes,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new cash session
func (s *CashSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the CashSession model
func (CashSession) TableName() string {
	return "cash_sessions"
}

// Close records the counted cash and the variance against expected.
// A closed session cannot be closed again.
func (s *CashSession) Close(closingCents, expectedCents int64, operator uuid.UUID, notes string, now time.Time) error {
	if s.Status != enum.CashSessionStatusOpen {
		return apperror.NewConflictError("Cash session is already closed")
	}
	variance := closingCents - expectedCents
	s.Status = enum.CashSessionStatusClosed
	s.ClosingCashCents = &closingCents
	s.ExpectedCashCents = &expectedCents
	s.VarianceCents = &variance
	s.ClosedBy = &operator
	s.ClosedAt = &now
	s.ClosingNotes = notes
	return nil
}
