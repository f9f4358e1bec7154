package repository

import (
	"context"

	"github.com/sangkips/tabsettle-api/internal/domain/entity"
	"github.com/sangkips/tabsettle-api/pkg/apperror"
	"github.com/sangkips/tabsettle-api/pkg/pagination"
)

// ErrSessionAlreadyOpen is returned when a tenant already has an OPEN session
var ErrSessionAlreadyOpen = apperror.NewConflictError("A cash session is already open")

// CashSessionRepository defines the interface for cash drawer sessions
type CashSessionRepository interface {
	// Create inserts a new OPEN session. A second OPEN session for the same
	// tenant is rejected with a conflict.
	Create(ctx context.Context, session *entity.CashSession) error
	GetOpen(ctx context.Context) (*entity.CashSession, error)
	// GetOpenForUpdate locks the tenant's open session. Must be called inside Transactor.WithinTx.
	GetOpenForUpdate(ctx context.Context) (*entity.CashSession, error)
	Update(ctx context.Context, session *entity.CashSession) error
	List(ctx context.Context, params *pagination.PaginationParams) ([]entity.CashSession, int64, error)
}
