package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/domain/entity"
	"github.com/sangkips/tabsettle-api/internal/domain/enum"
	domainRepo "github.com/sangkips/tabsettle-api/internal/domain/repository"
	"gorm.io/gorm"
)

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) domainRepo.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	return translateError(conn(ctx, r.db).Create(payment).Error)
}

func (r *paymentRepository) CreateTip(ctx context.Context, tip *entity.OrderTip) error {
	return translateError(conn(ctx, r.db).Create(tip).Error)
}

func (r *paymentRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]entity.Payment, error) {
	var payments []entity.Payment
	err := conn(ctx, r.db).
		Scopes(TenantScope(ctx)).
		Where("order_id = ?", orderID).
		Order("captured_at ASC, created_at ASC").
		Find(&payments).Error
	return payments, translateError(err)
}

func (r *paymentRepository) SumCaptured(ctx context.Context, provider enum.PaymentProvider, from, to time.Time) (int64, error) {
	var total int64
	err := conn(ctx, r.db).Model(&entity.Payment{}).
		Scopes(TenantScope(ctx)).
		Where("provider = ? AND status = ?", provider, enum.PaymentStatusCaptured).
		Where("captured_at >= ? AND captured_at < ?", from, to).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&total).Error
	return total, translateError(err)
}
