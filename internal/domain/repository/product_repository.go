package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/domain/entity"
	"github.com/sangkips/tabsettle-api/pkg/pagination"
)

// ProductCatalog is the read side the order core needs from the catalog.
// Inactive products are not returned.
type ProductCatalog interface {
	GetByID(ctx context.Context, tenantID, productID uuid.UUID) (*entity.Product, error)
}

// ProductRepository is the catalog as managed by the venue
type ProductRepository interface {
	ProductCatalog
	Create(ctx context.Context, product *entity.Product) error
	// Find returns the product whether or not it is active
	Find(ctx context.Context, tenantID, productID uuid.UUID) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	List(ctx context.Context, tenantID uuid.UUID, params *ProductFilterParams) ([]entity.Product, int64, error)
}

// ProductFilterParams contains filtering parameters for catalog queries
type ProductFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	ActiveOnly bool
}
