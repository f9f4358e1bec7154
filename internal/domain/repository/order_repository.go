package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/domain/entity"
	"github.com/sangkips/tabsettle-api/internal/domain/enum"
	"github.com/sangkips/tabsettle-api/pkg/apperror"
	"github.com/sangkips/tabsettle-api/pkg/pagination"
)

// ErrDuplicateOrderNumber is returned when an order number is already taken within the tenant
var ErrDuplicateOrderNumber = apperror.NewConflictError("Order number already exists")

// OrderRepository defines the interface for order data operations.
// Every method is scoped to the tenant carried by ctx.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	// GetByID loads the order with its items and payments
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	// GetForUpdate loads the order like GetByID and locks its row until the
	// surrounding transaction ends. Must be called inside Transactor.WithinTx.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	// Update writes the order's own columns; items and payments are untouched
	Update(ctx context.Context, order *entity.Order) error
	AddItem(ctx context.Context, item *entity.OrderItem) error
	UpdateItem(ctx context.Context, item *entity.OrderItem) error
	List(ctx context.Context, params *OrderFilterParams) ([]entity.Order, int64, error)
	// ListByStatus returns orders in any of the given statuses, oldest first, with items
	ListByStatus(ctx context.Context, statuses ...enum.OrderStatus) ([]entity.Order, error)
}

// OrderFilterParams contains filtering parameters for order queries
type OrderFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	Status     *enum.OrderStatus
	StartDate  *time.Time
	EndDate    *time.Time
	SortOrder  string
}
