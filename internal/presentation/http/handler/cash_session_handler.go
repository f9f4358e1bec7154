package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/tabsettle-api/internal/application/service"
	"github.com/sangkips/tabsettle-api/internal/presentation/http/dto/request"
	"github.com/sangkips/tabsettle-api/internal/presentation/http/dto/response"
	"github.com/sangkips/tabsettle-api/pkg/pagination"
)

// CashSessionHandler handles cash drawer sessions
type CashSessionHandler struct {
	cashSessionService *service.CashSessionService
}

// NewCashSessionHandler creates a new cash session handler
func NewCashSessionHandler(cashSessionService *service.CashSessionService) *CashSessionHandler {
	return &CashSessionHandler{cashSessionService: cashSessionService}
}

// List returns past and current sessions, newest first
func (h *CashSessionHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "15"))

	sessions, meta, err := h.cashSessionService.List(c.Request.Context(), &pagination.PaginationParams{
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Cash sessions retrieved successfully", pagination.NewPaginatedResult(sessions, meta))
}

// Current returns the open session
func (h *CashSessionHandler) Current(c *gin.Context) {
	session, err := h.cashSessionService.Current(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Cash session retrieved successfully", session)
}

// Open starts a session with the counted float
func (h *CashSessionHandler) Open(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req request.OpenCashSessionRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.cashSessionService.Open(c.Request.Context(), &service.OpenSessionInput{
		OperatorID:       userID,
		OpeningCashCents: req.OpeningCashCents,
		Notes:            req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Cash session opened", session)
}

// Close reconciles and closes the open session
func (h *CashSessionHandler) Close(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req request.CloseCashSessionRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.cashSessionService.Close(c.Request.Context(), &service.CloseSessionInput{
		OperatorID:       userID,
		ClosingCashCents: *req.ClosingCashCents,
		ClosingNotes:     req.ClosingNotes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Cash session closed", result)
}
