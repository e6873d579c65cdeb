package production

import (
	"context"
	"errors"

	"github.com/erp/production/internal/domain/production"
	"github.com/erp/production/internal/domain/shared"
	"github.com/erp/production/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobOrderService keeps the local copy of job orders in sync with the work order system
type JobOrderService struct {
	txScope      TransactionScope
	jobOrderRepo production.JobOrderRepository
	iwoRepo      production.IWORepository
	logger       *zap.Logger
}

// NewJobOrderService creates a new JobOrderService
func NewJobOrderService(txScope TransactionScope, jobOrderRepo production.JobOrderRepository, iwoRepo production.IWORepository, logger *zap.Logger) *JobOrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobOrderService{
		txScope:      txScope,
		jobOrderRepo: jobOrderRepo,
		iwoRepo:      iwoRepo,
		logger:       logger,
	}
}

// Sync creates or refreshes a job order. Existing allocations bound how far
// ordered quantities may shrink.
func (s *JobOrderService) Sync(ctx context.Context, req SyncJobOrderRequest) (_ *JobOrderResponse, retErr error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "job_order", "sync")
	defer func() {
		telemetry.RecordError(span, retErr)
		span.End()
	}()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrJobOrderNumber, req.Number,
		telemetry.SpanAttrLineCount, len(req.Products),
	)

	if req.ID == uuid.Nil {
		return nil, shared.NewValidationError(shared.ValidationError{Field: "id", Message: "is required"})
	}

	var (
		jo      *production.JobOrder
		totals  map[production.ProductKey]int64
		created bool
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.JobOrderRepo().FindByIDForUpdate(ctx, req.ID)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			jo, err = production.NewJobOrder(req.ID, req.Number, req.Products)
			if err != nil {
				return err
			}
			totals = map[production.ProductKey]int64{}
			created = true
		case err != nil:
			return shared.WrapTransactionAborted(err)
		default:
			totals, err = repos.IWORepo().AllocationTotals(ctx, req.ID)
			if err != nil {
				return shared.WrapTransactionAborted(err)
			}
			if err := existing.Resync(req.Number, req.Products, totals); err != nil {
				return err
			}
			jo = existing
		}

		jo.SetWorkOrder(req.WorkOrderID, req.WorkOrderNumber)
		jo.SetParties(req.ClientName, req.ProjectName)
		if err := repos.JobOrderRepo().Save(ctx, jo); err != nil {
			return shared.WrapTransactionAborted(err)
		}
		return nil
	})
	if err != nil {
		return nil, abortError(err)
	}

	s.logger.Info("job order synced",
		zap.String("job_order_id", jo.ID.String()),
		zap.String("number", jo.Number),
		zap.Bool("created", created),
		zap.Int("products", len(jo.Products)),
	)
	resp := ToJobOrderResponse(jo, totals)
	return &resp, nil
}

// GetByID returns a job order with its allocation summary
func (s *JobOrderService) GetByID(ctx context.Context, id uuid.UUID) (*JobOrderResponse, error) {
	jo, err := s.jobOrderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	totals, err := s.iwoRepo.AllocationTotals(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToJobOrderResponse(jo, totals)
	return &resp, nil
}
