package repository

import (
	"context"
	"errors"

	"github.com/sangkips/tabsettle-api/internal/domain/entity"
	"github.com/sangkips/tabsettle-api/internal/domain/enum"
	domainRepo "github.com/sangkips/tabsettle-api/internal/domain/repository"
	"github.com/sangkips/tabsettle-api/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OneOpenSessionIndex is the partial unique index guarding one OPEN session per tenant
const OneOpenSessionIndex = "idx_cash_sessions_one_open"

type cashSessionRepository struct {
	db *gorm.DB
}

// NewCashSessionRepository creates a new cash session repository
func NewCashSessionRepository(db *gorm.DB) domainRepo.CashSessionRepository {
	return &cashSessionRepository{db: db}
}

func (r *cashSessionRepository) Create(ctx context.Context, session *entity.CashSession) error {
	err := conn(ctx, r.db).Create(session).Error
	if isUniqueViolation(err, OneOpenSessionIndex) {
		return domainRepo.ErrSessionAlreadyOpen
	}
	return translateError(err)
}

func (r *cashSessionRepository) GetOpen(ctx context.Context) (*entity.CashSession, error) {
	return r.getOpen(ctx, conn(ctx, r.db))
}

func (r *cashSessionRepository) GetOpenForUpdate(ctx context.Context) (*entity.CashSession, error) {
	return r.getOpen(ctx, conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}))
}

func (r *cashSessionRepository) getOpen(ctx context.Context, db *gorm.DB) (*entity.CashSession, error) {
	var session entity.CashSession
	err := db.Scopes(TenantScope(ctx)).
		Where("status = ?", enum.CashSessionStatusOpen).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &session, translateError(err)
}

func (r *cashSessionRepository) Update(ctx context.Context, session *entity.CashSession) error {
	return translateError(conn(ctx, r.db).Save(session).Error)
}

func (r *cashSessionRepository) List(ctx context.Context, params *pagination.PaginationParams) ([]entity.CashSession, int64, error) {
	var sessions []entity.CashSession
	var total int64

	query := conn(ctx, r.db).Model(&entity.CashSession{}).Scopes(TenantScope(ctx))
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	params.Validate()
	err := query.Offset(params.Offset()).Limit(params.PerPage).
		Order("opened_at DESC, created_at DESC").
		Find(&sessions).Error

	return sessions, total, translateError(err)
}
