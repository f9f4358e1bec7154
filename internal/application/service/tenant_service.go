package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/sangkips/tabsettle-api/internal/domain/entity"
	"github.com/sangkips/tabsettle-api/internal/domain/repository"
	"github.com/sangkips/tabsettle-api/pkg/apperror"
	"github.com/sangkips/tabsettle-api/pkg/money"
)

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

// TenantService exposes the venue's money and printing policy
type TenantService struct {
	tenantRepo repository.TenantRepository
}

// NewTenantService creates a new tenant service
func NewTenantService(tenantRepo repository.TenantRepository) *TenantService {
	return &TenantService{tenantRepo: tenantRepo}
}

// UpdateTenantSettingsInput changes selected settings; nil fields are kept.
// Open orders pick up a new tax rate on their next recalculation.
type UpdateTenantSettingsInput struct {
	Name               *string
	Currency           *string
	CurrencyExponent   *int32
	TaxRateBasisPoints *int64
	TaxLabel           *string
	OrderPrefix        *string
	ReceiptHeader      *entity.ReceiptHeader
}

func (in *UpdateTenantSettingsInput) validate() error {
	var fieldErrors []apperror.FieldError
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "name", Message: "must not be empty"})
	}
	if in.Currency != nil && !currencyCode.MatchString(*in.Currency) {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "currency", Message: "must be a 3-letter ISO code"})
	}
	if in.CurrencyExponent != nil && (*in.CurrencyExponent < 0 || *in.CurrencyExponent > 4) {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "currency_exponent", Message: "must be between 0 and 4"})
	}
	if in.TaxRateBasisPoints != nil && (*in.TaxRateBasisPoints < 0 || *in.TaxRateBasisPoints > money.BasisPoints) {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "tax_rate_bps", Message: "must be between 0 and 10000"})
	}
	if in.OrderPrefix != nil && len(*in.OrderPrefix) > 10 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "order_prefix", Message: "must be at most 10 characters"})
	}
	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}
	return nil
}

// GetCurrent returns the tenant carried by ctx with defaults filled in
func (s *TenantService) GetCurrent(ctx context.Context) (*entity.Tenant, error) {
	return loadTenant(ctx, s.tenantRepo)
}

// UpdateSettings applies input to the current tenant
func (s *TenantService) UpdateSettings(ctx context.Context, input *UpdateTenantSettingsInput) (*entity.Tenant, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	tenant, err := loadTenant(ctx, s.tenantRepo)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		tenant.Name = strings.TrimSpace(*input.Name)
	}
	settings := &tenant.Settings
	if input.Currency != nil {
		settings.Currency = *input.Currency
	}
	if input.CurrencyExponent != nil {
		settings.CurrencyExponent = *input.CurrencyExponent
	}
	if input.TaxRateBasisPoints != nil {
		settings.TaxRateBasisPoints = *input.TaxRateBasisPoints
	}
	if input.TaxLabel != nil {
		settings.TaxLabel = *input.TaxLabel
	}
	if input.OrderPrefix != nil {
		settings.OrderPrefix = *input.OrderPrefix
	}
	if input.ReceiptHeader != nil {
		settings.ReceiptHeader = *input.ReceiptHeader
	}

	if err := s.tenantRepo.Update(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}
