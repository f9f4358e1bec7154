package response

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/tabsettle-api/pkg/apperror"
	"github.com/sangkips/tabsettle-api/pkg/pagination"
)

// APIResponse is the envelope every endpoint answers with. Failures carry a
// stable machine-readable code next to the human message.
type APIResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Code    string                `json:"code,omitempty"`
	Data    any                   `json:"data,omitempty"`
	Errors  []apperror.FieldError `json:"errors,omitempty"`
	Meta    Meta                  `json:"meta"`
}

// Meta identifies the request a response belongs to
type Meta struct {
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id,omitempty"`
}

// Error codes clients can switch on
const (
	CodeBadRequest       = "bad_request"
	CodeUnauthorized     = "unauthorized"
	CodeForbidden        = "forbidden"
	CodeNotFound         = "not_found"
	CodeConflict         = "conflict"
	CodeBusy             = "busy"
	CodeValidationFailed = "validation_failed"
	CodeTooManyRequests  = "too_many_requests"
	CodeUnavailable      = "unavailable"
	CodeInternal         = "internal_error"
)

func meta(c *gin.Context) Meta {
	return Meta{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: c.GetString("request_id"),
	}
}

// codeFor maps an application error to its client code
func codeFor(appErr *apperror.AppError) string {
	if appErr == apperror.ErrConcurrency {
		return CodeBusy
	}
	switch appErr.Code {
	case http.StatusBadRequest:
		return CodeBadRequest
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusUnprocessableEntity:
		return CodeValidationFailed
	case http.StatusTooManyRequests:
		return CodeTooManyRequests
	case http.StatusServiceUnavailable:
		return CodeUnavailable
	}
	return CodeInternal
}

// Success sends a success response
func Success(c *gin.Context, statusCode int, message string, data any) {
	c.JSON(statusCode, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta(c),
	})
}

// SuccessWithPagination sends one page of results
func SuccessWithPagination[T any](c *gin.Context, statusCode int, message string, result *pagination.PaginatedResult[T]) {
	Success(c, statusCode, message, result)
}

// Created sends a 201 Created response
func Created(c *gin.Context, message string, data any) {
	Success(c, http.StatusCreated, message, data)
}

// OK sends a 200 OK response
func OK(c *gin.Context, message string, data any) {
	Success(c, http.StatusOK, message, data)
}

// Error writes err and aborts the chain. Anything that is not an AppError is
// logged and reported as a bare 500. A busy store asks the client to retry.
func Error(c *gin.Context, err error) {
	appErr := apperror.GetAppError(err)
	if appErr == apperror.ErrInternalServer {
		log.Printf("[%s] %s %s: %v", c.GetString("request_id"), c.Request.Method, c.FullPath(), err)
	}
	if appErr == apperror.ErrConcurrency {
		c.Header("Retry-After", "1")
	}
	c.AbortWithStatusJSON(appErr.Code, APIResponse{
		Success: false,
		Message: appErr.Message,
		Code:    codeFor(appErr),
		Errors:  appErr.Errors,
		Meta:    meta(c),
	})
}

// Unauthorized sends a 401 and aborts
func Unauthorized(c *gin.Context, message string) {
	Error(c, apperror.NewAppError(http.StatusUnauthorized, message))
}

// Forbidden sends a 403 and aborts
func Forbidden(c *gin.Context, message string) {
	Error(c, apperror.NewAppError(http.StatusForbidden, message))
}

// BadRequest sends a 400 and aborts
func BadRequest(c *gin.Context, message string) {
	Error(c, apperror.NewBadRequestError(message))
}
