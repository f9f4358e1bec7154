package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/tabsettle-api/internal/application/service"
	"github.com/sangkips/tabsettle-api/internal/domain/entity"
	"github.com/sangkips/tabsettle-api/internal/presentation/http/dto/request"
	"github.com/sangkips/tabsettle-api/internal/presentation/http/dto/response"
)

// TenantHandler handles tenant-related HTTP requests
type TenantHandler struct {
	tenantService *service.TenantService
}

// NewTenantHandler creates a new tenant handler
func NewTenantHandler(tenantService *service.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

// GetCurrentTenant returns the tenant the request is scoped to
func (h *TenantHandler) GetCurrentTenant(c *gin.Context) {
	tenant, err := h.tenantService.GetCurrent(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Tenant retrieved successfully", tenant)
}

// UpdateSettings changes the current tenant's currency, tax and receipt settings
func (h *TenantHandler) UpdateSettings(c *gin.Context) {
	var req request.UpdateTenantSettingsRequest
	if !bindJSON(c, &req) {
		return
	}

	input := &service.UpdateTenantSettingsInput{
		Name:               req.Name,
		Currency:           req.Currency,
		CurrencyExponent:   req.CurrencyExponent,
		TaxRateBasisPoints: req.TaxRateBasisPoints,
		TaxLabel:           req.TaxLabel,
		OrderPrefix:        req.OrderPrefix,
	}
	if req.ReceiptHeader != nil {
		input.ReceiptHeader = &entity.ReceiptHeader{
			StoreName: req.ReceiptHeader.StoreName,
			Address:   req.ReceiptHeader.Address,
			Phone:     req.ReceiptHeader.Phone,
			TaxID:     req.ReceiptHeader.TaxID,
		}
	}

	tenant, err := h.tenantService.UpdateSettings(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Tenant settings updated successfully", tenant)
}
