package handler

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sangkips/tabsettle-api/internal/application/service"
	"github.com/sangkips/tabsettle-api/internal/domain/enum"
	"github.com/sangkips/tabsettle-api/internal/infrastructure/realtime"
	"github.com/sangkips/tabsettle-api/internal/presentation/http/dto/request"
	"github.com/sangkips/tabsettle-api/internal/presentation/http/dto/response"
	"github.com/sangkips/tabsettle-api/pkg/apperror"
)

// KitchenHandler serves item progress, the kitchen queue and its live feed
type KitchenHandler struct {
	kitchenService *service.KitchenService
	hub            *realtime.Hub
	upgrader       *websocket.Upgrader
}

// NewKitchenHandler creates a new kitchen handler. hub may be nil, in which
// case the live feed is unavailable.
func NewKitchenHandler(kitchenService *service.KitchenService, hub *realtime.Hub, upgrader *websocket.Upgrader) *KitchenHandler {
	return &KitchenHandler{kitchenService: kitchenService, hub: hub, upgrader: upgrader}
}

// UpdateItemStatus moves one item a single step, or voids it
func (h *KitchenHandler) UpdateItemStatus(c *gin.Context) {
	orderID, ok := paramUUID(c, "id", "order")
	if !ok {
		return
	}
	itemID, ok := paramUUID(c, "item_id", "item")
	if !ok {
		return
	}

	var req request.UpdateItemStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	next, err := enum.ParseOrderItemStatus(strings.ToUpper(req.Status))
	if err != nil {
		fieldError(c, "status", err.Error())
		return
	}

	order, err := h.kitchenService.UpdateItemStatus(c.Request.Context(), orderID, itemID, next)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Item status updated", order)
}

// MarkAllReady advances every active item to READY
func (h *KitchenHandler) MarkAllReady(c *gin.Context) {
	orderID, ok := paramUUID(c, "id", "order")
	if !ok {
		return
	}

	result, err := h.kitchenService.MarkAllReady(c.Request.Context(), orderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Items marked ready", result)
}

// MarkAllServed advances every active item to SERVED
func (h *KitchenHandler) MarkAllServed(c *gin.Context) {
	orderID, ok := paramUUID(c, "id", "order")
	if !ok {
		return
	}

	result, err := h.kitchenService.MarkAllServed(c.Request.Context(), orderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Items marked served", result)
}

// Queue lists the orders the kitchen still has to work on
func (h *KitchenHandler) Queue(c *gin.Context) {
	orders, err := h.kitchenService.KitchenQueue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Kitchen queue retrieved", orders)
}

// Stream upgrades to a websocket that receives the tenant's events
func (h *KitchenHandler) Stream(c *gin.Context) {
	if h.hub == nil {
		response.Error(c, apperror.NewAppError(http.StatusServiceUnavailable, "Live updates are not available"))
		return
	}
	tenantID := GetTenantID(c)
	if err := h.hub.ServeWS(h.upgrader, c.Writer, c.Request, tenantID); err != nil {
		// the upgrader has already written the HTTP error
		log.Printf("[ws] upgrade failed for tenant %s: %v", tenantID, err)
	}
}
