package repository

import (
	domainRepo "github.com/sangkips/tabsettle-api/internal/domain/repository"
	"gorm.io/gorm"
)

// Repositories bundles every port over one database handle
type Repositories struct {
	DB           *gorm.DB
	Tx           domainRepo.Transactor
	Orders       domainRepo.OrderRepository
	Payments     domainRepo.PaymentRepository
	CashSessions domainRepo.CashSessionRepository
	Tenants      domainRepo.TenantRepository
	Products     domainRepo.ProductRepository
	Idempotency  domainRepo.IdempotencyRepository
}

// NewRepositories wires every repository to db
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:           db,
		Tx:           NewTransactor(db),
		Orders:       NewOrderRepository(db),
		Payments:     NewPaymentRepository(db),
		CashSessions: NewCashSessionRepository(db),
		Tenants:      NewTenantRepository(db),
		Products:     NewProductRepository(db),
		Idempotency:  NewIdempotencyRepository(db),
	}
}
