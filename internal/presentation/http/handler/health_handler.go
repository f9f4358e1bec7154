package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing store is reachable
type Pinger func(ctx context.Context) error

// HealthHandler answers liveness probes
type HealthHandler struct {
	service string
	ping    Pinger
}

// NewHealthHandler creates a health handler. ping may be nil.
func NewHealthHandler(service string, ping Pinger) *HealthHandler {
	return &HealthHandler{service: service, ping: ping}
}

// Check reports "ok", or 503 when the store does not answer
func (h *HealthHandler) Check(c *gin.Context) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unavailable",
				"service": h.service,
				"error":   err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": h.service,
	})
}
