package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/domain/entity"
)

// IdempotencyRepository stores Idempotency-Key reservations and the
// responses they produced
type IdempotencyRepository interface {
	// Reserve claims ikey.Key for ikey.UserID with a pending row. When a live
	// row already holds the key it is returned and nothing is written. An
	// expired row is taken over.
	Reserve(ctx context.Context, ikey *entity.IdempotencyKey, now time.Time) (*entity.IdempotencyKey, error)
	// Complete stores the response for a reserved key and extends its expiry
	Complete(ctx context.Context, ikey *entity.IdempotencyKey) error
	// Release drops a pending reservation so the key can be used again
	Release(ctx context.Context, key string, userID uuid.UUID) error
	// DeleteExpired removes keys that expired before now
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
