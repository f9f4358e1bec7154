package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/domain/entity"
	"github.com/sangkips/tabsettle-api/internal/domain/enum"
)

// PaymentRepository defines the interface for payment and tip records
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	CreateTip(ctx context.Context, tip *entity.OrderTip) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]entity.Payment, error)
	// SumCaptured totals CAPTURED payments for a provider with CapturedAt in [from, to)
	SumCaptured(ctx context.Context, provider enum.PaymentProvider, from, to time.Time) (int64, error)
}
