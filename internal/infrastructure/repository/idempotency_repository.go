package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/domain/entity"
	domainRepo "github.com/sangkips/tabsettle-api/internal/domain/repository"
	"github.com/sangkips/tabsettle-api/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type idempotencyRepository struct {
	db *gorm.DB
}

// NewIdempotencyRepository creates a new idempotency repository
func NewIdempotencyRepository(db *gorm.DB) domainRepo.IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

// Reserve inserts the pending row under the (key, user_id) unique index. On
// conflict the existing row is overwritten only when it has expired, so of two
// concurrent requests exactly one affects a row.
func (r *idempotencyRepository) Reserve(ctx context.Context, ikey *entity.IdempotencyKey, now time.Time) (*entity.IdempotencyKey, error) {
	now = now.UTC()
	ikey.ResponseCode = 0
	ikey.ResponseBody = ""
	ikey.ExpiresAt = ikey.ExpiresAt.UTC()

	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"tenant_id", "endpoint", "request_hash", "response_code", "response_body", "created_at", "expires_at",
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Lt{Column: clause.Column{Table: ikey.TableName(), Name: "expires_at"}, Value: now},
		}},
	}).Create(ikey)
	if res.Error != nil {
		return nil, translateError(res.Error)
	}
	if res.RowsAffected > 0 {
		return nil, nil
	}

	var existing entity.IdempotencyKey
	err := r.db.WithContext(ctx).
		Where("key = ? AND user_id = ?", ikey.Key, ikey.UserID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Swept between the insert and the read
		return nil, apperror.ErrConcurrency
	}
	if err != nil {
		return nil, translateError(err)
	}
	return &existing, nil
}

func (r *idempotencyRepository) Complete(ctx context.Context, ikey *entity.IdempotencyKey) error {
	return r.db.WithContext(ctx).Model(&entity.IdempotencyKey{}).
		Where("key = ? AND user_id = ?", ikey.Key, ikey.UserID).
		Updates(map[string]any{
			"response_code": ikey.ResponseCode,
			"response_body": ikey.ResponseBody,
			"expires_at":    ikey.ExpiresAt.UTC(),
		}).Error
}

func (r *idempotencyRepository) Release(ctx context.Context, key string, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("key = ? AND user_id = ? AND response_code = 0", key, userID).
		Delete(&entity.IdempotencyKey{}).Error
}

func (r *idempotencyRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", now.UTC()).
		Delete(&entity.IdempotencyKey{})
	return res.RowsAffected, res.Error
}
