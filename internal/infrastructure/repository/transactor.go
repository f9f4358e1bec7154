package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	domainRepo "github.com/sangkips/tabsettle-api/internal/domain/repository"
	"github.com/sangkips/tabsettle-api/pkg/apperror"
	"gorm.io/gorm"
)

type txKey struct{}

// Postgres error codes the settlement core reacts to
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgUniqueViolation      = "23505"
)

// SQLite extended result codes
const (
	sqliteBusy             = 5
	sqliteLocked           = 6
	sqliteUniqueViolation  = 2067
	sqlitePrimaryKeyFailed = 1555
)

// sqliteError matches the driver error without importing the driver
type sqliteError interface {
	error
	Code() int
}

type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor creates a transactor backed by db
func NewTransactor(db *gorm.DB) domainRepo.Transactor {
	return &gormTransactor{db: db}
}

// WithinTx opens a transaction and hands fn a ctx carrying it. A nested call
// joins the outer transaction.
func (t *gormTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
	return translateError(err)
}

// conn returns the transaction carried by ctx, or db
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// translateError maps store failures that a fresh transaction may get past
// to retryable errors. Everything else is returned unchanged.
func translateError(err error) error {
	if err == nil || apperror.IsAppError(err) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return apperror.NewRetryableError(err)
		}
	}
	var liteErr sqliteError
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqliteBusy, sqliteLocked:
			return apperror.NewRetryableError(err)
		}
	}
	return err
}

// isUniqueViolation reports whether err is a unique violation on the named constraint
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
	}
	// SQLite does not report the index name
	var liteErr sqliteError
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqliteUniqueViolation || code == sqlitePrimaryKeyFailed
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
