package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/application/service"
	"github.com/sangkips/tabsettle-api/internal/config"
	"github.com/sangkips/tabsettle-api/internal/domain/entity"
	"github.com/sangkips/tabsettle-api/internal/domain/event"
	domainRepo "github.com/sangkips/tabsettle-api/internal/domain/repository"
	"github.com/sangkips/tabsettle-api/internal/infrastructure/database"
	"github.com/sangkips/tabsettle-api/internal/infrastructure/messaging"
	"github.com/sangkips/tabsettle-api/internal/infrastructure/realtime"
	"github.com/sangkips/tabsettle-api/internal/infrastructure/repository"
	"github.com/sangkips/tabsettle-api/internal/presentation/http/handler"
	"github.com/sangkips/tabsettle-api/internal/presentation/http/routes"
	"github.com/sangkips/tabsettle-api/pkg/printer"
	"github.com/sangkips/tabsettle-api/pkg/utils"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// openStore connects the configured driver and applies the schema
func openStore(cfg *config.Config) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Database.Driver {
	case "postgres", "":
		db, err = database.NewPostgresDB(&cfg.Database, cfg.App.Env)
	case "sqlite":
		db, err = database.NewSQLiteDB(cfg.Database.Path, cfg.App.Env)
	case "memory":
		log.Println("Using an in-memory SQLite database; data is lost on restart")
		db, err = database.NewSQLiteDB(database.InMemoryPath, cfg.App.Env)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Database.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database handle: %v", err)
	}
	defer sqlDB.Close()
	st := repository.NewRepositories(db)

	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Issuer)

	if cfg.App.SeedDemo {
		seedDemo(ctx, st, jwtManager)
	}

	// Event sinks: the websocket hub always, AMQP when configured
	hub := realtime.NewHub()
	publishers := event.Publishers{hub}
	if cfg.Broker.URL != "" {
		amqpPublisher, err := messaging.Dial(cfg.Broker.URL, cfg.Broker.Exchange)
		if err != nil {
			log.Printf("Warning: AMQP publishing disabled: %v", err)
		} else {
			defer amqpPublisher.Close()
			publishers = append(publishers, amqpPublisher)
		}
	}

	// Initialize thermal printer
	thermalPrinter, err := printer.NewPrinterFromConfig(
		cfg.Printer.Type,
		cfg.Printer.USBPath,
		cfg.Printer.Address,
	)
	if err != nil {
		log.Printf("Warning: Failed to initialize printer: %v", err)
		thermalPrinter = printer.NewNullPrinter()
	}
	defer thermalPrinter.Close()

	// Initialize services
	maxAttempts := cfg.Settlement.MaxRetries
	printerService := service.NewPrinterService(thermalPrinter, st.Orders, st.Tenants, cfg.Printer.Type, cfg.Printer.CharWidth)
	orderService := service.NewOrderService(st.Tx, st.Orders, st.Payments, st.Products, st.Tenants, publishers, printerService, maxAttempts)
	kitchenService := service.NewKitchenService(st.Tx, st.Orders, st.Tenants, publishers, maxAttempts)
	settlementService := service.NewSettlementService(st.Tx, st.Orders, st.Payments, st.Tenants, publishers, printerService, maxAttempts)
	cashSessionService := service.NewCashSessionService(st.Tx, st.CashSessions, st.Payments, st.Tenants, publishers, printerService, maxAttempts)
	tenantService := service.NewTenantService(st.Tenants)
	productService := service.NewProductService(st.Products)

	// Initialize handlers
	handlers := &routes.Handlers{
		Order:       handler.NewOrderHandler(orderService),
		Kitchen:     handler.NewKitchenHandler(kitchenService, hub, realtime.Upgrader(cfg.Realtime.AllowedOrigins)),
		Payment:     handler.NewPaymentHandler(settlementService),
		CashSession: handler.NewCashSessionHandler(cashSessionService),
		Printer:     handler.NewPrinterHandler(printerService),
		Tenant:      handler.NewTenantHandler(tenantService),
		Product:     handler.NewProductHandler(productService),
		Health:      handler.NewHealthHandler(cfg.App.Name, sqlDB.PingContext),
	}

	router := routes.Setup(ctx, handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		TenantRepo:      st.Tenants,
		IdempotencyRepo: st.Idempotency,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Starting %s server on port %s...", cfg.App.Name, port)
		log.Printf("Environment: %s", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return hub.Run(gctx)
	})

	g.Go(func() error {
		sweepIdempotencyKeys(gctx, st.Idempotency, time.Hour)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server stopped with error: %v", err)
	}
	log.Println("Server stopped")
}

// sweepIdempotencyKeys deletes expired keys every interval until ctx is done
func sweepIdempotencyKeys(ctx context.Context, repo domainRepo.IdempotencyRepository, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := repo.DeleteExpired(ctx, now)
			if err != nil {
				log.Printf("Warning: idempotency sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("Removed %d expired idempotency keys", n)
			}
		}
	}
}

// seedDemo creates the demo tenant and logs a development token for its owner
func seedDemo(ctx context.Context, st *repository.Repositories, jwtManager *utils.JWTManager) {
	ownerID := uuid.New()
	tenant, err := database.SeedDemoData(ctx, st.Tenants, st.Products, ownerID)
	if err != nil {
		log.Printf("Warning: Failed to seed demo data: %v", err)
		return
	}
	// An existing demo tenant does not know this owner yet
	member, err := st.Tenants.IsMember(ctx, tenant.ID, ownerID)
	if err == nil && !member {
		err = st.Tenants.AddMember(ctx, &entity.TenantMembership{TenantID: tenant.ID, UserID: ownerID, Role: routes.RoleOwner})
	}
	if err != nil {
		log.Printf("Warning: Failed to add demo owner: %v", err)
		return
	}
	token, err := jwtManager.GenerateAccessToken(ownerID, tenant.ID, []string{routes.RoleOwner}, 12*time.Hour)
	if err != nil {
		log.Printf("Warning: Failed to issue demo token: %v", err)
		return
	}
	log.Printf("Demo owner token (12h): %s", token)
}
