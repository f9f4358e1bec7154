package request

// CreateProductRequest represents a product creation request
type CreateProductRequest struct {
	Name       string `json:"name" binding:"required,min=1,max=255"`
	Code       string `json:"code" binding:"omitempty,max=100"`
	PriceCents int64  `json:"price_cents" binding:"min=0"`
}

// UpdateProductRequest represents a product update request
type UpdateProductRequest struct {
	Name       *string `json:"name" binding:"omitempty,min=1,max=255"`
	Code       *string `json:"code" binding:"omitempty,max=100"`
	PriceCents *int64  `json:"price_cents" binding:"omitempty,min=0"`
	Active     *bool   `json:"active"`
}

// ProductFilterRequest represents product filter parameters
type ProductFilterRequest struct {
	Page       int    `form:"page"`
	PerPage    int    `form:"per_page"`
	Search     string `form:"search"`
	ActiveOnly bool   `form:"active_only"`
}

// ReceiptHeaderRequest is the store block printed on receipts
type ReceiptHeaderRequest struct {
	StoreName string `json:"store_name" binding:"max=255"`
	Address   string `json:"address" binding:"max=255"`
	Phone     string `json:"phone" binding:"max=50"`
	TaxID     string `json:"tax_id" binding:"max=50"`
}

// UpdateTenantSettingsRequest changes the venue's money and printing policy
type UpdateTenantSettingsRequest struct {
	Name               *string               `json:"name" binding:"omitempty,max=255"`
	Currency           *string               `json:"currency"`
	CurrencyExponent   *int32                `json:"currency_exponent"`
	TaxRateBasisPoints *int64                `json:"tax_rate_bps"`
	TaxLabel           *string               `json:"tax_label" binding:"omitempty,max=20"`
	OrderPrefix        *string               `json:"order_prefix"`
	ReceiptHeader      *ReceiptHeaderRequest `json:"receipt_header"`
}
