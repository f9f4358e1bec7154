package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/tabsettle-api/internal/config"
	domainRepo "github.com/sangkips/tabsettle-api/internal/domain/repository"
	"github.com/sangkips/tabsettle-api/internal/presentation/http/handler"
	"github.com/sangkips/tabsettle-api/internal/presentation/http/middleware"
	"github.com/sangkips/tabsettle-api/pkg/utils"
)

// Roles carried in the access token
const (
	RoleOwner   = "owner"
	RoleManager = "manager"
	RoleCashier = "cashier"
	RoleKitchen = "kitchen"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Order       *handler.OrderHandler
	Kitchen     *handler.KitchenHandler
	Payment     *handler.PaymentHandler
	CashSession *handler.CashSessionHandler
	Printer     *handler.PrinterHandler
	Tenant      *handler.TenantHandler
	Product     *handler.ProductHandler
	Health      *handler.HealthHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	TenantRepo      domainRepo.TenantRepository
	IdempotencyRepo domainRepo.IdempotencyRepository
}

// Setup creates the Gin router and registers all routes. Background work
// owned by the router stops when ctx is done.
func Setup(ctx context.Context, h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", h.Health.Check)

	v1 := router.Group("/api/v1")
	{
		// Browsers cannot send headers on the websocket handshake
		ws := v1.Group("")
		ws.Use(middleware.WebSocketAuthMiddleware(deps.JWTManager))
		ws.Use(middleware.TenantMiddleware(deps.TenantRepo))
		ws.GET("/kitchen/ws", h.Kitchen.Stream)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		protected.Use(middleware.TenantMiddleware(deps.TenantRepo))

		// Per-tenant rate limiter
		duration := deps.Cfg.RateLimit.Duration
		if duration <= 0 {
			duration = 1
		}
		rateLimiter := middleware.NewTenantRateLimiter(ctx, middleware.RateLimiterConfig{
			RequestsPerSecond: float64(deps.Cfg.RateLimit.Requests) / float64(duration),
			BurstSize:         deps.Cfg.RateLimit.Requests,
			CleanupInterval:   5 * time.Minute,
			EntryTTL:          10 * time.Minute,
		})
		protected.Use(rateLimiter.Middleware())

		idempotent := middleware.Idempotency(middleware.IdempotencyConfig{Repo: deps.IdempotencyRepo})

		registerOrderRoutes(protected, h, idempotent)
		registerKitchenRoutes(protected, h)
		registerCashSessionRoutes(protected, h, idempotent)
		registerPrinterRoutes(protected, h)
		registerTenantRoutes(protected, h)
		registerProductRoutes(protected, h)
	}

	return router
}

func registerOrderRoutes(protected *gin.RouterGroup, h *Handlers, idempotent gin.HandlerFunc) {
	orders := protected.Group("/orders")
	{
		orders.GET("", h.Order.List)
		orders.POST("", h.Order.Create)
		orders.GET("/:id", h.Order.Get)
		orders.POST("/:id/items", h.Order.AddItem)
		orders.PATCH("/:id/items/:item_id", h.Kitchen.UpdateItemStatus)
		orders.POST("/:id/items/ready", h.Kitchen.MarkAllReady)
		orders.POST("/:id/items/served", h.Kitchen.MarkAllServed)
		orders.PUT("/:id/discount", middleware.RequireRole(RoleOwner, RoleManager, RoleCashier), h.Order.SetDiscount)
		orders.POST("/:id/send", h.Order.SendToKitchen)
		orders.POST("/:id/bill", h.Order.RequestBill)
		orders.POST("/:id/cancel", h.Order.Cancel)
		orders.GET("/:id/payments", h.Order.Payments)
		orders.POST("/:id/payments", middleware.RequireRole(RoleOwner, RoleManager, RoleCashier), idempotent, h.Payment.Action)
		orders.POST("/:id/receipt", h.Printer.PrintReceipt)
	}
}

func registerKitchenRoutes(protected *gin.RouterGroup, h *Handlers) {
	protected.GET("/kitchen/queue", h.Kitchen.Queue)
}

func registerCashSessionRoutes(protected *gin.RouterGroup, h *Handlers, idempotent gin.HandlerFunc) {
	sessions := protected.Group("/cash-sessions")
	sessions.Use(middleware.RequireRole(RoleOwner, RoleManager, RoleCashier))
	{
		sessions.GET("", h.CashSession.List)
		sessions.GET("/current", h.CashSession.Current)
		sessions.POST("", idempotent, h.CashSession.Open)
		sessions.PATCH("/current", h.CashSession.Close)
	}
}

func registerPrinterRoutes(protected *gin.RouterGroup, h *Handlers) {
	printer := protected.Group("/printer")
	{
		printer.GET("/status", h.Printer.GetStatus)
		printer.POST("/test", h.Printer.TestPrint)
	}
}

func registerTenantRoutes(protected *gin.RouterGroup, h *Handlers) {
	protected.GET("/tenant", h.Tenant.GetCurrentTenant)
	protected.PUT("/tenant/settings", middleware.RequireRole(RoleOwner, RoleManager), h.Tenant.UpdateSettings)
}

func registerProductRoutes(protected *gin.RouterGroup, h *Handlers) {
	products := protected.Group("/products")
	{
		products.GET("", h.Product.List)
		products.GET("/:id", h.Product.Get)
		products.POST("", middleware.RequireRole(RoleOwner, RoleManager), h.Product.Create)
		products.PUT("/:id", middleware.RequireRole(RoleOwner, RoleManager), h.Product.Update)
	}
}
