package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/domain/entity"
	"github.com/sangkips/tabsettle-api/internal/domain/enum"
	domainRepo "github.com/sangkips/tabsettle-api/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) domainRepo.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	err := conn(ctx, r.db).Omit(clause.Associations).Create(order).Error
	if isUniqueViolation(err, "idx_orders_tenant_number") {
		return domainRepo.ErrDuplicateOrderNumber
	}
	return translateError(err)
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	var order entity.Order
	err := conn(ctx, r.db).
		Scopes(TenantScope(ctx)).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("captured_at ASC, created_at ASC") }).
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, translateError(err)
}

// GetForUpdate takes the row lock first and only then reads the children, so
// every read happens after any competing settlement has committed.
func (r *orderRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	db := conn(ctx, r.db)

	var order entity.Order
	err := db.Scopes(TenantScope(ctx)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translateError(err)
	}

	if err := db.Where("order_id = ?", order.ID).Order("created_at ASC").Find(&order.Items).Error; err != nil {
		return nil, translateError(err)
	}
	if err := db.Where("order_id = ?", order.ID).Order("captured_at ASC, created_at ASC").Find(&order.Payments).Error; err != nil {
		return nil, translateError(err)
	}
	return &order, nil
}

func (r *orderRepository) Update(ctx context.Context, order *entity.Order) error {
	return translateError(conn(ctx, r.db).Omit(clause.Associations).Save(order).Error)
}

func (r *orderRepository) AddItem(ctx context.Context, item *entity.OrderItem) error {
	return translateError(conn(ctx, r.db).Create(item).Error)
}

func (r *orderRepository) UpdateItem(ctx context.Context, item *entity.OrderItem) error {
	return translateError(conn(ctx, r.db).Save(item).Error)
}

func (r *orderRepository) List(ctx context.Context, params *domainRepo.OrderFilterParams) ([]entity.Order, int64, error) {
	var orders []entity.Order
	var total int64

	query := conn(ctx, r.db).Model(&entity.Order{}).Scopes(TenantScope(ctx))

	if params.Search != "" {
		search := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(order_number) LIKE ? OR LOWER(table_ref) LIKE ?", search, search)
	}

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if params.StartDate != nil {
		query = query.Where("opened_at >= ?", *params.StartDate)
	}

	if params.EndDate != nil {
		query = query.Where("opened_at <= ?", *params.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	sortOrder := "DESC"
	if params.SortOrder == "ASC" || params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Order("opened_at " + sortOrder + ", created_at " + sortOrder).
		Find(&orders).Error

	return orders, total, translateError(err)
}

func (r *orderRepository) ListByStatus(ctx context.Context, statuses ...enum.OrderStatus) ([]entity.Order, error) {
	var orders []entity.Order
	err := conn(ctx, r.db).
		Scopes(TenantScope(ctx)).
		Where("status IN ?", statuses).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Order("opened_at ASC, created_at ASC").
		Find(&orders).Error
	return orders, translateError(err)
}
