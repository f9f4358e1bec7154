package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/application/service"
	"github.com/sangkips/tabsettle-api/internal/domain/billsplit"
	"github.com/sangkips/tabsettle-api/internal/domain/enum"
	"github.com/sangkips/tabsettle-api/internal/presentation/http/dto/request"
	"github.com/sangkips/tabsettle-api/internal/presentation/http/dto/response"
)

// PaymentHandler captures payments and previews bill splits
type PaymentHandler struct {
	settlementService *service.SettlementService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(settlementService *service.SettlementService) *PaymentHandler {
	return &PaymentHandler{settlementService: settlementService}
}

// Action dispatches on the "action" field: "pay" captures a tender and
// "split" returns advisory shares without writing anything.
func (h *PaymentHandler) Action(c *gin.Context) {
	orderID, ok := paramUUID(c, "id", "order")
	if !ok {
		return
	}

	var req request.PaymentActionRequest
	if !bindJSON(c, &req) {
		return
	}

	switch req.Action {
	case request.PaymentActionSplit:
		h.split(c, orderID, &req)
	default:
		h.pay(c, orderID, &req)
	}
}

func (h *PaymentHandler) pay(c *gin.Context, orderID uuid.UUID, req *request.PaymentActionRequest) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	provider, err := enum.ParsePaymentProvider(strings.ToUpper(req.Provider))
	if err != nil {
		fieldError(c, "provider", err.Error())
		return
	}

	result, err := h.settlementService.Pay(c.Request.Context(), orderID, &service.PayInput{
		OperatorID:  userID,
		Provider:    provider,
		AmountCents: req.AmountCents,
		TipCents:    req.TipCents,
		SplitIndex:  req.SplitIndex,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Payment captured successfully", result)
}

func (h *PaymentHandler) split(c *gin.Context, orderID uuid.UUID, req *request.PaymentActionRequest) {
	kind, err := billsplit.ParseKind(strings.ToLower(req.Type))
	if err != nil {
		fieldError(c, "type", err.Error())
		return
	}

	preview, err := h.settlementService.PreviewSplit(c.Request.Context(), orderID, billsplit.Request{
		Kind:    kind,
		Parts:   req.Parts,
		Amounts: req.Amounts,
		Items:   req.Items,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Split calculated", preview)
}
