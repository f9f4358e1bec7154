package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/domain/entity"
	"github.com/sangkips/tabsettle-api/internal/domain/enum"
	"github.com/sangkips/tabsettle-api/internal/domain/event"
	"github.com/sangkips/tabsettle-api/internal/domain/repository"
	infraRepo "github.com/sangkips/tabsettle-api/internal/infrastructure/repository"
	"github.com/sangkips/tabsettle-api/pkg/apperror"
)

// DefaultMaxAttempts bounds how often a transaction is retried after a
// serialization failure, deadlock or lock timeout.
const DefaultMaxAttempts = 3

// txRunner wraps a Transactor with bounded retries
type txRunner struct {
	tx          repository.Transactor
	maxAttempts int
}

func newTxRunner(tx repository.Transactor, maxAttempts int) txRunner {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return txRunner{tx: tx, maxAttempts: maxAttempts}
}

// run executes fn in a fresh transaction per attempt. fn must rebuild all of
// its state from the store on every call.
func (r txRunner) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	for attempt := 1; ; attempt++ {
		err := r.tx.WithinTx(ctx, fn)
		if err == nil || !apperror.IsRetryable(err) {
			return err
		}
		if attempt >= r.maxAttempts {
			log.Printf("[tx] %s: giving up after %d attempts: %v", op, attempt, err)
			return apperror.ErrConcurrency
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.Printf("[tx] %s: retrying after %v (attempt %d/%d)", op, err, attempt, r.maxAttempts)
	}
}

// tenantFromContext returns the tenant the request was authorized for
func tenantFromContext(ctx context.Context) (uuid.UUID, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return uuid.Nil, apperror.NewBadRequestError("Tenant context required")
	}
	return tenantID, nil
}

// loadTenant returns the tenant in ctx with its money settings filled in
func loadTenant(ctx context.Context, tenants repository.TenantRepository) (*entity.Tenant, error) {
	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	tenant, err := tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, apperror.NewNotFoundError("Tenant")
	}

	defaults := entity.DefaultTenantSettings()
	if tenant.Settings.Currency == "" {
		tenant.Settings.Currency = defaults.Currency
		tenant.Settings.CurrencyExponent = defaults.CurrencyExponent
	}
	if tenant.Settings.TaxLabel == "" {
		tenant.Settings.TaxLabel = defaults.TaxLabel
	}
	if tenant.Settings.OrderPrefix == "" {
		tenant.Settings.OrderPrefix = defaults.OrderPrefix
	}
	if tenant.Settings.ReceiptHeader.StoreName == "" {
		tenant.Settings.ReceiptHeader.StoreName = tenant.Name
	}
	return tenant, nil
}

// getOrder loads an order or reports it as not found
func getOrder(ctx context.Context, orders repository.OrderRepository, id uuid.UUID, forUpdate bool) (*entity.Order, error) {
	var (
		order *entity.Order
		err   error
	)
	if forUpdate {
		order, err = orders.GetForUpdate(ctx, id)
	} else {
		order, err = orders.GetByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	return order, nil
}

// outbox collects events while a transaction runs; they are only published
// once it has committed.
type outbox struct {
	events []event.Event
}

func (o *outbox) reset() { o.events = o.events[:0] }

func (o *outbox) add(t event.Type, tenantID uuid.UUID, payload interface{}, now time.Time) {
	o.events = append(o.events, event.New(t, tenantID, payload, now))
}

func (o *outbox) orderStatus(order *entity.Order, from enum.OrderStatus, now time.Time) {
	if from == order.Status {
		return
	}
	o.add(event.OrderStatusChanged, order.TenantID, event.OrderStatusPayload{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		From:        from.String(),
		To:          order.Status.String(),
	}, now)
}

// flush publishes collected events. Failures are logged and dropped.
func (o *outbox) flush(ctx context.Context, p event.Publisher) {
	if p == nil {
		return
	}
	for _, evt := range o.events {
		if err := p.Publish(ctx, evt); err != nil {
			log.Printf("[events] publish %s %s failed: %v", evt.Type, evt.ID, err)
		}
	}
	o.reset()
}
