package database

import (
	"fmt"
	"log"

	"github.com/sangkips/tabsettle-api/internal/config"
	"github.com/sangkips/tabsettle-api/internal/domain/entity"
	"github.com/sangkips/tabsettle-api/internal/domain/enum"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig, env string) (*gorm.DB, error) {
	logLevel := logger.Info
	if env == "production" {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB to set connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	log.Println("Successfully connected to PostgreSQL database")
	return db, nil
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		// Tenancy
		&entity.Tenant{},
		&entity.TenantMembership{},

		// Catalog
		&entity.Product{},

		// Settlement core
		&entity.Order{},
		&entity.OrderItem{},
		&entity.Payment{},
		&entity.OrderTip{},
		&entity.CashSession{},

		// System entities
		&entity.IdempotencyKey{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// At most one OPEN drawer per tenant. GORM tags cannot express a partial index.
	oneOpen := fmt.Sprintf(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_cash_sessions_one_open ON cash_sessions (tenant_id) WHERE status = %d",
		int(enum.CashSessionStatusOpen),
	)
	if err := db.Exec(oneOpen).Error; err != nil {
		return fmt.Errorf("failed to create cash session index: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}
