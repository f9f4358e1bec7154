package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/domain/entity"
	"github.com/sangkips/tabsettle-api/internal/domain/repository"
	"github.com/sangkips/tabsettle-api/internal/presentation/http/dto/response"
	"github.com/sangkips/tabsettle-api/pkg/apperror"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayedHeader marks a response served from the cache
	IdempotencyReplayedHeader = "X-Idempotency-Replayed"
	// IdempotencyKeyTTL is how long a completed response is replayed
	IdempotencyKeyTTL = 24 * time.Hour
	// IdempotencyPendingTTL bounds how long a reservation whose request never
	// finished keeps blocking the key
	IdempotencyPendingTTL = time.Minute
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Repo repository.IdempotencyRepository
	Now  func() time.Time
}

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// storable reports whether a response is final for its key. Server errors,
// conflicts and rate limiting may succeed on retry.
func storable(status int) bool {
	return status < http.StatusInternalServerError &&
		status != http.StatusConflict &&
		status != http.StatusTooManyRequests
}

// Idempotency reserves the Idempotency-Key before the handler runs, so a
// repeat of a request that is still executing gets 409 and a repeat of a
// finished one gets the stored response. Requests without the header pass
// through.
func Idempotency(config IdempotencyConfig) gin.HandlerFunc {
	now := config.Now
	if now == nil {
		now = time.Now
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
		if idempotencyKey == "" {
			c.Next()
			return
		}

		userIDValue, exists := c.Get("user_id")
		if !exists {
			c.Next()
			return
		}
		userID, ok := userIDValue.(uuid.UUID)
		if !ok {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.BadRequest(c, "Unable to read request body")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		sum := sha256.Sum256(body)
		requestHash := hex.EncodeToString(sum[:])
		endpoint := c.Request.Method + " " + c.Request.URL.Path

		started := now()
		ikey := &entity.IdempotencyKey{
			Key:         idempotencyKey,
			UserID:      userID,
			TenantID:    GetTenantID(c),
			Endpoint:    endpoint,
			RequestHash: requestHash,
			ExpiresAt:   started.Add(IdempotencyPendingTTL),
		}
		existing, err := config.Repo.Reserve(c.Request.Context(), ikey, started)
		if err != nil {
			log.Printf("[idempotency] reserve failed for key %s: %v", idempotencyKey, err)
			response.Error(c, err)
			return
		}

		if existing != nil {
			switch {
			case !existing.Matches(endpoint, requestHash):
				response.Error(c, apperror.NewFieldError(IdempotencyKeyHeader, "key was already used for a different request"))
			case existing.IsPending():
				c.Header("Retry-After", "1")
				response.Error(c, apperror.NewConflictError("A request with this Idempotency-Key is still in progress"))
			default:
				c.Header(IdempotencyReplayedHeader, "true")
				c.Data(existing.ResponseCode, "application/json; charset=utf-8", []byte(existing.ResponseBody))
				c.Abort()
			}
			return
		}

		// The outcome is recorded even if the client has gone away
		storeCtx := context.WithoutCancel(c.Request.Context())
		done := false
		defer func() {
			if !done {
				if err := config.Repo.Release(storeCtx, idempotencyKey, userID); err != nil {
					log.Printf("[idempotency] release failed for key %s: %v", idempotencyKey, err)
				}
			}
		}()

		blw := &responseWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		status := c.Writer.Status()
		if !storable(status) {
			return
		}

		ikey.ResponseCode = status
		ikey.ResponseBody = blw.body.String()
		ikey.ExpiresAt = now().Add(IdempotencyKeyTTL)
		if err := config.Repo.Complete(storeCtx, ikey); err != nil {
			log.Printf("[idempotency] store failed for key %s: %v", idempotencyKey, err)
			return
		}
		done = true
	}
}
