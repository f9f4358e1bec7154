package database

import (
	"fmt"
	"log"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InMemoryPath opens a private database that lives as long as its connection
const InMemoryPath = ":memory:"

// NewSQLiteDB opens an embedded SQLite database at path. SQLite allows one
// writer at a time, so the pool is held to a single connection and
// transactions queue behind each other instead of failing with SQLITE_BUSY.
// Row locks are dropped by the dialect; the single connection serializes
// settlements instead.
func NewSQLiteDB(path, env string) (*gorm.DB, error) {
	logLevel := logger.Info
	switch env {
	case "production":
		logLevel = logger.Warn
	case "test":
		logLevel = logger.Silent
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	log.Printf("Opened SQLite database %s", path)
	return db, nil
}

// NewInMemoryDB opens a throwaway SQLite database with the schema applied
func NewInMemoryDB(env string) (*gorm.DB, error) {
	db, err := NewSQLiteDB(InMemoryPath, env)
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
