package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/presentation/http/dto/response"
	"github.com/sangkips/tabsettle-api/pkg/apperror"
	"golang.org/x/time/rate"
)

// TenantRateLimiter gives every tenant its own token bucket, so one busy
// venue cannot starve the others
type TenantRateLimiter struct {
	mu      sync.Mutex
	buckets map[uuid.UUID]*bucket
	cfg     RateLimiterConfig
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterConfig holds configuration for the rate limiter
type RateLimiterConfig struct {
	RequestsPerSecond float64       // Rate of requests allowed per second
	BurstSize         int           // Maximum burst size
	CleanupInterval   time.Duration // How often to clean up stale entries
	EntryTTL          time.Duration // How long to keep unused entries
}

// LimiterStats describes the limiter's current state
type LimiterStats struct {
	ActiveTenants   int           `json:"active_tenants"`
	RatePerSecond   float64       `json:"rate_per_second"`
	BurstSize       int           `json:"burst_size"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
	EntryTTL        time.Duration `json:"entry_ttl"`
}

// DefaultRateLimiterConfig returns sensible defaults
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 10,
		BurstSize:         20,
		CleanupInterval:   5 * time.Minute,
		EntryTTL:          10 * time.Minute,
	}
}

func (cfg RateLimiterConfig) withDefaults() RateLimiterConfig {
	def := DefaultRateLimiterConfig()
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = def.BurstSize
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	if cfg.EntryTTL <= 0 {
		cfg.EntryTTL = def.EntryTTL
	}
	return cfg
}

// NewTenantRateLimiter creates a new per-tenant rate limiter. Idle buckets
// are swept until ctx is done.
func NewTenantRateLimiter(ctx context.Context, cfg RateLimiterConfig) *TenantRateLimiter {
	rl := &TenantRateLimiter{
		buckets: make(map[uuid.UUID]*bucket),
		cfg:     cfg.withDefaults(),
		now:     time.Now,
	}
	go rl.sweepLoop(ctx)
	return rl
}

// Allow takes one token from the tenant's bucket and reports what is left
func (rl *TenantRateLimiter) Allow(tenantID uuid.UUID) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[tenantID]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.BurstSize)}
		rl.buckets[tenantID] = b
	}
	b.lastSeen = now

	allowed := b.limiter.AllowN(now, 1)
	return allowed, int(b.limiter.TokensAt(now))
}

func (rl *TenantRateLimiter) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

// sweep drops buckets idle for longer than EntryTTL
func (rl *TenantRateLimiter) sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.cfg.EntryTTL)
	removed := 0
	for tenantID, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, tenantID)
			removed++
		}
	}
	return removed
}

// Middleware rate limits by the tenant TenantMiddleware resolved. Requests
// without a tenant pass through.
func (rl *TenantRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := GetTenantID(c)
		if tenantID == uuid.Nil {
			c.Next()
			return
		}

		allowed, remaining := rl.Allow(tenantID)
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.cfg.BurstSize))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(remaining, 0)))
		if !allowed {
			c.Header("Retry-After", "1")
			response.Error(c, apperror.NewAppError(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later."))
			return
		}
		c.Next()
	}
}

// Stats returns current statistics about the rate limiter
func (rl *TenantRateLimiter) Stats() LimiterStats {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return LimiterStats{
		ActiveTenants:   len(rl.buckets),
		RatePerSecond:   rl.cfg.RequestsPerSecond,
		BurstSize:       rl.cfg.BurstSize,
		CleanupInterval: rl.cfg.CleanupInterval,
		EntryTTL:        rl.cfg.EntryTTL,
	}
}
