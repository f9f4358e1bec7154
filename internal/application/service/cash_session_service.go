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
	"github.com/sangkips/tabsettle-api/pkg/apperror"
	"github.com/sangkips/tabsettle-api/pkg/pagination"
)

// ErrNoOpenSession is returned when closing or reading a drawer that is not open
var ErrNoOpenSession = apperror.NewConflictError("No cash session is open")

// CashSessionService opens and reconciles cash drawer sessions
type CashSessionService struct {
	tx          txRunner
	sessionRepo repository.CashSessionRepository
	paymentRepo repository.PaymentRepository
	tenantRepo  repository.TenantRepository
	publisher   event.Publisher
	printer     *PrinterService
	now         func() time.Time
}

// NewCashSessionService creates a new cash session service. printer may be nil.
func NewCashSessionService(
	tx repository.Transactor,
	sessionRepo repository.CashSessionRepository,
	paymentRepo repository.PaymentRepository,
	tenantRepo repository.TenantRepository,
	publisher event.Publisher,
	printer *PrinterService,
	maxAttempts int,
) *CashSessionService {
	return &CashSessionService{
		tx:          newTxRunner(tx, maxAttempts),
		sessionRepo: sessionRepo,
		paymentRepo: paymentRepo,
		tenantRepo:  tenantRepo,
		publisher:   publisher,
		printer:     printer,
		now:         time.Now,
	}
}

// OpenSessionInput records the float a drawer starts with
type OpenSessionInput struct {
	OperatorID       uuid.UUID
	OpeningCashCents int64
	Notes            string
}

// CloseSessionInput records the operator's count at the end of a shift
type CloseSessionInput struct {
	OperatorID       uuid.UUID
	ClosingCashCents int64
	ClosingNotes     string
}

// CloseResult is a closed session with its reconciliation
type CloseResult struct {
	Session        *entity.CashSession     `json:"session"`
	CashSalesCents int64                   `json:"cash_sales_cents"`
	Report         *entity.CashCloseReport `json:"report"`
}

// Open starts a drawer session. Only one session per tenant may be open; the
// store enforces it so two concurrent opens cannot both succeed.
func (s *CashSessionService) Open(ctx context.Context, input *OpenSessionInput) (*entity.CashSession, error) {
	if input.OpeningCashCents < 0 {
		return nil, apperror.NewFieldError("opening_cash_cents", "must not be negative")
	}
	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := s.sessionRepo.GetOpen(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, repository.ErrSessionAlreadyOpen
	}

	now := s.now()
	session := &entity.CashSession{
		TenantID:         tenantID,
		Status:           enum.CashSessionStatusOpen,
		OpeningCashCents: input.OpeningCashCents,
		OpenedBy:         input.OperatorID,
		OpenedAt:         now,
		Notes:            input.Notes,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	log.Printf("cash session %s opened by %s with %d", session.ID, input.OperatorID, input.OpeningCashCents)
	var out outbox
	out.add(event.CashSessionOpened, tenantID, event.CashSessionPayload{
		SessionID:    session.ID,
		OpeningCents: session.OpeningCashCents,
	}, now)
	out.flush(ctx, s.publisher)
	return session, nil
}

// Close counts the drawer against opening float plus CASH payments captured
// while it was open and records the signed variance.
func (s *CashSessionService) Close(ctx context.Context, input *CloseSessionInput) (*CloseResult, error) {
	if input.ClosingCashCents < 0 {
		return nil, apperror.NewFieldError("closing_cash_cents", "must not be negative")
	}
	tenant, err := loadTenant(ctx, s.tenantRepo)
	if err != nil {
		return nil, err
	}

	var (
		result CloseResult
		out    outbox
	)
	err = s.tx.run(ctx, "close cash session", func(ctx context.Context) error {
		out.reset()
		session, err := s.sessionRepo.GetOpenForUpdate(ctx)
		if err != nil {
			return err
		}
		if session == nil {
			return ErrNoOpenSession
		}

		now := s.now()
		cashSales, err := s.paymentRepo.SumCaptured(ctx, enum.PaymentProviderCash, session.OpenedAt, now)
		if err != nil {
			return err
		}
		expected := session.OpeningCashCents + cashSales
		if err := session.Close(input.ClosingCashCents, expected, input.OperatorID, input.ClosingNotes, now); err != nil {
			return err
		}
		if err := s.sessionRepo.Update(ctx, session); err != nil {
			return err
		}

		out.add(event.CashSessionClosed, session.TenantID, event.CashSessionPayload{
			SessionID:     session.ID,
			OpeningCents:  session.OpeningCashCents,
			ExpectedCents: session.ExpectedCashCents,
			ClosingCents:  session.ClosingCashCents,
			VarianceCents: session.VarianceCents,
		}, now)
		result = CloseResult{Session: session, CashSalesCents: cashSales}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("cash session %s closed: expected %d counted %d variance %d",
		result.Session.ID, *result.Session.ExpectedCashCents, input.ClosingCashCents, *result.Session.VarianceCents)
	out.flush(ctx, s.publisher)

	if s.printer != nil {
		report, err := s.printer.PrintCashCloseReport(ctx, tenant, result.Session, result.CashSalesCents)
		if err != nil {
			log.Printf("Printer error (cash session %s): %v", result.Session.ID, err)
		}
		result.Report = report
	} else {
		result.Report = BuildCashCloseReport(tenant, result.Session, result.CashSalesCents)
	}
	return &result, nil
}

// Current returns the tenant's open session
func (s *CashSessionService) Current(ctx context.Context) (*entity.CashSession, error) {
	if _, err := tenantFromContext(ctx); err != nil {
		return nil, err
	}
	session, err := s.sessionRepo.GetOpen(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.NewNotFoundError("Open cash session")
	}
	return session, nil
}

// List returns a page of sessions, newest first
func (s *CashSessionService) List(ctx context.Context, params *pagination.PaginationParams) ([]entity.CashSession, *pagination.Pagination, error) {
	if _, err := tenantFromContext(ctx); err != nil {
		return nil, nil, err
	}
	if params == nil {
		params = pagination.DefaultPagination()
	}
	params.Validate()

	sessions, total, err := s.sessionRepo.List(ctx, params)
	if err != nil {
		return nil, nil, err
	}
	return sessions, pagination.NewPagination(params.Page, params.PerPage, total), nil
}
