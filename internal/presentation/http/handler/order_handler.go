package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/tabsettle-api/internal/application/service"
	"github.com/sangkips/tabsettle-api/internal/domain/enum"
	"github.com/sangkips/tabsettle-api/internal/domain/repository"
	"github.com/sangkips/tabsettle-api/internal/presentation/http/dto/request"
	"github.com/sangkips/tabsettle-api/internal/presentation/http/dto/response"
	"github.com/sangkips/tabsettle-api/pkg/pagination"
)

const dateLayout = "2006-01-02"

// OrderHandler handles order-related HTTP requests
type OrderHandler struct {
	orderService *service.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// List handles listing orders with page-based pagination
func (h *OrderHandler) List(c *gin.Context) {
	var req request.OrderFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	params := &repository.OrderFilterParams{
		Pagination: &pagination.PaginationParams{
			Page:    req.Page,
			PerPage: req.PerPage,
		},
		Search:    req.Search,
		SortOrder: req.SortOrder,
	}

	if req.Status != "" {
		status, err := enum.ParseOrderStatus(strings.ToUpper(req.Status))
		if err != nil {
			fieldError(c, "status", err.Error())
			return
		}
		params.Status = &status
	}

	if req.StartDate != "" {
		if startDate, err := time.Parse(dateLayout, req.StartDate); err == nil {
			params.StartDate = &startDate
		}
	}

	if req.EndDate != "" {
		if endDate, err := time.Parse(dateLayout, req.EndDate); err == nil {
			// inclusive of the whole end day
			endDate = endDate.Add(24 * time.Hour)
			params.EndDate = &endDate
		}
	}

	orders, page, err := h.orderService.ListOrders(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Orders retrieved successfully", pagination.NewPaginatedResult(orders, page))
}

// Create handles opening an order
func (h *OrderHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req request.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), &service.CreateOrderInput{
		OperatorID: userID,
		TableRef:   req.TableRef,
		Notes:      req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Order created successfully", order)
}

// Get handles getting a single order with its items
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := paramUUID(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order retrieved successfully", order)
}

// AddItem adds a catalog product to an order
func (h *OrderHandler) AddItem(c *gin.Context) {
	id, ok := paramUUID(c, "id", "order")
	if !ok {
		return
	}

	var req request.AddItemRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.AddItem(c.Request.Context(), id, &service.AddItemInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Note:      req.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Item added successfully", order)
}

// SetDiscount replaces the order-level discount
func (h *OrderHandler) SetDiscount(c *gin.Context) {
	id, ok := paramUUID(c, "id", "order")
	if !ok {
		return
	}

	var req request.SetDiscountRequest
	if !bindJSON(c, &req) {
		return
	}
	discountType, err := enum.ParseDiscountType(req.Type)
	if err != nil {
		fieldError(c, "type", err.Error())
		return
	}

	order, err := h.orderService.SetDiscount(c.Request.Context(), id, &service.SetDiscountInput{
		Type:  discountType,
		Value: req.Value,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Discount updated successfully", order)
}

// SendToKitchen fires the order to the kitchen
func (h *OrderHandler) SendToKitchen(c *gin.Context) {
	id, ok := paramUUID(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.orderService.SendToKitchen(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order sent to kitchen", order)
}

// RequestBill moves a READY order to FOR_PAYMENT
func (h *OrderHandler) RequestBill(c *gin.Context) {
	id, ok := paramUUID(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.orderService.RequestBill(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bill requested", order)
}

// Cancel handles cancelling an order
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := paramUUID(c, "id", "order")
	if !ok {
		return
	}

	var req request.CancelOrderRequest
	// the body is optional
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.CancelOrder(c.Request.Context(), id, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order cancelled successfully", order)
}

// Payments returns the order with its payments and balance summary
func (h *OrderHandler) Payments(c *gin.Context) {
	id, ok := paramUUID(c, "id", "order")
	if !ok {
		return
	}

	result, err := h.orderService.GetPaymentSummary(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payments retrieved successfully", result)
}
