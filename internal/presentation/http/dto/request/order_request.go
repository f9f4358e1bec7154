package request

import "github.com/google/uuid"

// CreateOrderRequest opens a new order
type CreateOrderRequest struct {
	TableRef *string `json:"table_ref" binding:"omitempty,max=50"`
	Notes    string  `json:"notes" binding:"max=1000"`
}

// AddItemRequest adds a catalog product to an order
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required"`
	Note      string    `json:"note" binding:"max=500"`
}

// UpdateItemStatusRequest moves one item through the kitchen
type UpdateItemStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetDiscountRequest replaces the order-level discount. Value is minor units
// for FIXED and basis points for PERCENT.
type SetDiscountRequest struct {
	Type  string `json:"type" binding:"required,oneof=NONE FIXED PERCENT"`
	Value int64  `json:"value"`
}

// CancelOrderRequest carries the reason shown on the audit trail
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// OrderFilterRequest is the query string of GET /orders
type OrderFilterRequest struct {
	Page      int    `form:"page"`
	PerPage   int    `form:"per_page"`
	Search    string `form:"search"`
	Status    string `form:"status"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}
