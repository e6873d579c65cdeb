package production

import (
	"context"

	"github.com/erp/production/internal/domain/production"
	"github.com/erp/production/internal/domain/shared"
	"github.com/erp/production/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LedgerService records production output against process ledger records
type LedgerService struct {
	txScope        TransactionScope
	ledgerRepo     production.LedgerRepository
	gating         production.GatingMode
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(txScope TransactionScope, ledgerRepo production.LedgerRepository, gating production.GatingMode, logger *zap.Logger) *LedgerService {
	if !gating.IsValid() {
		gating = production.GatingStrict
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		txScope:    txScope,
		ledgerRepo: ledgerRepo,
		gating:     gating,
		logger:     logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Report applies a production report to one step. The item's whole chain is
// locked so that releasing output to the next step cannot interleave with
// another report.
func (s *LedgerService) Report(ctx context.Context, recordID uuid.UUID, req ReportProductionRequest) (_ []LedgerRecordResponse, retErr error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "report")
	defer func() {
		telemetry.RecordError(span, retErr)
		span.End()
	}()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrLedgerID, recordID.String(),
		telemetry.SpanAttrQuantity, req.Achieved+req.Rejected+req.Recycled,
	)

	rep := production.ProductionReport{Achieved: req.Achieved, Rejected: req.Rejected, Recycled: req.Recycled}
	if err := rep.Validate(); err != nil {
		return nil, err
	}

	var (
		dirty  []*production.ProcessLedgerRecord
		target *production.ProcessLedgerRecord
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		rec, err := repos.LedgerRepo().FindByID(ctx, recordID)
		if err != nil {
			return err
		}
		chain, err := repos.LedgerRepo().FindChainForUpdate(ctx, rec.IWOID, rec.SemiFinishedID)
		if err != nil {
			return shared.WrapTransactionAborted(err)
		}
		dirty, err = production.ReportOnChain(chain, recordID, rep, req.Actor, s.gating)
		if err != nil {
			return err
		}
		target = dirty[0]
		if err := repos.LedgerRepo().UpdateBatch(ctx, dirty); err != nil {
			return shared.WrapTransactionAborted(err)
		}
		return nil
	})
	if err != nil {
		return nil, abortError(err)
	}

	publishDomainEvents(ctx, s.eventPublisher, target)
	s.logger.Info("production reported",
		zap.String("record_id", recordID.String()),
		zap.String("semi_finished_id", target.SemiFinishedID),
		zap.String("process", target.ProcessName),
		zap.Int64("achieved", rep.Achieved),
		zap.Int64("rejected", rep.Rejected),
		zap.Int64("recycled", rep.Recycled),
		zap.String("status", target.Status.String()),
	)
	return ToLedgerRecordResponses(dirty), nil
}

// GetByID returns a single ledger record
func (s *LedgerService) GetByID(ctx context.Context, id uuid.UUID) (*LedgerRecordResponse, error) {
	rec, err := s.ledgerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToLedgerRecordResponse(rec)
	return &resp, nil
}

// List lists ledger records matching the filter
func (s *LedgerService) List(ctx context.Context, filter production.LedgerFilter) ([]LedgerRecordResponse, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, shared.NewValidationError(shared.ValidationError{Field: "status", Message: "must be one of pending, blocked, completed"})
	}
	records, err := s.ledgerRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ToLedgerRecordResponses(records), nil
}
