package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/domain/entity"
	"github.com/sangkips/tabsettle-api/internal/domain/repository"
	"github.com/sangkips/tabsettle-api/pkg/apperror"
	"github.com/sangkips/tabsettle-api/pkg/pagination"
)

// ProductService manages the catalog order items are priced from. Price
// changes never reach items already on an order.
type ProductService struct {
	productRepo repository.ProductRepository
}

// NewProductService creates a new product service
func NewProductService(productRepo repository.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// CreateProductInput represents the create product input
type CreateProductInput struct {
	Name       string
	Code       string
	PriceCents int64
}

// UpdateProductInput changes selected fields; nil fields are kept
type UpdateProductInput struct {
	Name       *string
	Code       *string
	PriceCents *int64
	Active     *bool
}

// CreateProduct adds an active product to the current tenant's catalog
func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*entity.Product, error) {
	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.NewFieldError("name", "is required")
	}
	if input.PriceCents < 0 {
		return nil, apperror.NewFieldError("price_cents", "must not be negative")
	}

	code := strings.TrimSpace(input.Code)
	if code == "" {
		code = "P-" + strings.ToUpper(uuid.NewString()[:8])
	}

	product := &entity.Product{
		TenantID:   tenantID,
		Name:       name,
		Code:       code,
		PriceCents: input.PriceCents,
		Active:     true,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// GetProduct retrieves a product by ID, active or not
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.Find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}

// UpdateProduct changes a catalog entry
func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, input *UpdateProductInput) (*entity.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperror.NewFieldError("name", "must not be empty")
		}
		product.Name = name
	}
	if input.Code != nil {
		product.Code = strings.TrimSpace(*input.Code)
	}
	if input.PriceCents != nil {
		if *input.PriceCents < 0 {
			return nil, apperror.NewFieldError("price_cents", "must not be negative")
		}
		product.PriceCents = *input.PriceCents
	}
	if input.Active != nil {
		product.Active = *input.Active
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// ListProducts lists the current tenant's catalog
func (s *ProductService) ListProducts(ctx context.Context, params *repository.ProductFilterParams) ([]entity.Product, *pagination.Pagination, error) {
	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, nil, err
	}
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	products, total, err := s.productRepo.List(ctx, tenantID, params)
	if err != nil {
		return nil, nil, err
	}
	return products, pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total), nil
}
