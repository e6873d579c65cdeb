package production

import (
	"context"
	"fmt"

	"github.com/erp/production/internal/domain/document"
	"github.com/erp/production/internal/domain/production"
	"github.com/erp/production/internal/domain/shared"
	"github.com/erp/production/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AllocationService creates, revises and deletes internal work orders and
// keeps their process ledger in step
type AllocationService struct {
	txScope        TransactionScope
	iwoRepo        production.IWORepository
	ledgerRepo     production.LedgerRepository
	jobOrderRepo   production.JobOrderRepository
	docs           document.Store
	graph          *production.ProcessGraph
	gating         production.GatingMode
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// AllocationOption configures an AllocationService
type AllocationOption func(*AllocationService)

// WithProcessGraph replaces the default process catalog
func WithProcessGraph(g *production.ProcessGraph) AllocationOption {
	return func(s *AllocationService) {
		if g != nil {
			s.graph = g
		}
	}
}

// WithGatingMode sets how later process steps are gated
func WithGatingMode(mode production.GatingMode) AllocationOption {
	return func(s *AllocationService) {
		if mode.IsValid() {
			s.gating = mode
		}
	}
}

// NewAllocationService creates a new AllocationService
func NewAllocationService(
	txScope TransactionScope,
	iwoRepo production.IWORepository,
	ledgerRepo production.LedgerRepository,
	jobOrderRepo production.JobOrderRepository,
	docs document.Store,
	logger *zap.Logger,
	opts ...AllocationOption,
) *AllocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AllocationService{
		txScope:      txScope,
		iwoRepo:      iwoRepo,
		ledgerRepo:   ledgerRepo,
		jobOrderRepo: jobOrderRepo,
		docs:         docs,
		graph:        production.DefaultProcessGraph(),
		gating:       production.GatingStrict,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *AllocationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GatingMode returns the configured gating mode
func (s *AllocationService) GatingMode() production.GatingMode {
	return s.gating
}

// Create allocates part of a job order's pool into a new internal work order
// and creates its process ledger in the same transaction
func (s *AllocationService) Create(ctx context.Context, req CreateIWORequest) (_ *IWOResponse, retErr error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "iwo", "create")
	defer func() {
		telemetry.RecordError(span, retErr)
		span.End()
	}()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrJobOrderID, req.JobOrderID.String(),
		telemetry.SpanAttrLineCount, len(req.Products),
	)

	iwo, err := production.NewInternalWorkOrder(req.JobOrderID, req.DateFrom, req.DateTo, toDomainProducts(req.Products), s.graph, req.Actor)
	if err != nil {
		return nil, err
	}

	session := document.NewUploadSession(s.docs, document.FeatureIWO)
	if err := s.attachDocuments(ctx, session, iwo, req.Products, nil); err != nil {
		s.rollbackUploads(ctx, session)
		return nil, err
	}

	var ledger []*production.ProcessLedgerRecord
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		jo, err := repos.JobOrderRepo().FindByIDForUpdate(ctx, iwo.JobOrderID)
		if err != nil {
			return err
		}
		if err := s.checkAllocations(ctx, repos.IWORepo(), jo, iwo, nil); err != nil {
			return err
		}

		ledger = production.BuildLedger(iwo, s.gating)
		if err := repos.IWORepo().Save(ctx, iwo); err != nil {
			return shared.WrapTransactionAborted(err)
		}
		if err := repos.LedgerRepo().CreateBatch(ctx, ledger); err != nil {
			return shared.WrapTransactionAborted(err)
		}
		return nil
	})
	if err != nil {
		s.rollbackUploads(ctx, session)
		return nil, abortError(err)
	}

	s.publish(ctx, iwo)
	s.logger.Info("internal work order created",
		zap.String("iwo_id", iwo.ID.String()),
		zap.String("job_order_id", iwo.JobOrderID.String()),
		zap.Int("products", len(iwo.Products)),
		zap.Int("ledger_records", len(ledger)),
	)

	resp := ToIWOResponse(iwo, ledger)
	return &resp, nil
}

// Update revises an internal work order. Allocations are re-validated with the
// work order's own prior share left out, and the ledger is reconciled so that
// unchanged steps keep their counters.
func (s *AllocationService) Update(ctx context.Context, id uuid.UUID, req UpdateIWORequest) (_ *IWOResponse, retErr error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "iwo", "update")
	defer func() {
		telemetry.RecordError(span, retErr)
		span.End()
	}()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrIWOID, id.String(),
		telemetry.SpanAttrLineCount, len(req.Products),
	)

	current, err := s.iwoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	loadedVersion := current.Version
	previousDocs := current.DocumentLocators()

	inputs := req.Products
	if inputs == nil {
		inputs = toProductInputs(current.Products)
	}
	from, to := current.DateFrom, current.DateTo
	if req.DateFrom != nil {
		from = *req.DateFrom
	}
	if req.DateTo != nil {
		to = *req.DateTo
	}

	revised := *current
	if err := revised.Revise(from, to, toDomainProducts(inputs), s.graph, req.Actor); err != nil {
		return nil, err
	}

	session := document.NewUploadSession(s.docs, document.FeatureIWO)
	if err := s.attachDocuments(ctx, session, &revised, inputs, previousDocs); err != nil {
		s.rollbackUploads(ctx, session)
		return nil, err
	}

	var ledger []*production.ProcessLedgerRecord
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		jo, err := repos.JobOrderRepo().FindByIDForUpdate(ctx, revised.JobOrderID)
		if err != nil {
			return err
		}
		stored, err := repos.IWORepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if stored.Version != loadedVersion {
			return shared.NewDomainErrorf(shared.CodeConflict,
				"Internal work order %s was modified concurrently; reload and retry", id)
		}
		if err := s.checkAllocations(ctx, repos.IWORepo(), jo, &revised, &id); err != nil {
			return err
		}

		existing, err := repos.LedgerRepo().FindByIWOForUpdate(ctx, id)
		if err != nil {
			return shared.WrapTransactionAborted(err)
		}
		plan, err := production.ReconcileLedger(&revised, existing, s.gating)
		if err != nil {
			return err
		}

		if err := repos.IWORepo().Update(ctx, &revised); err != nil {
			return shared.WrapTransactionAborted(err)
		}
		if err := s.applyPlan(ctx, repos.LedgerRepo(), plan); err != nil {
			return shared.WrapTransactionAborted(err)
		}

		ledger, err = repos.LedgerRepo().FindByIWO(ctx, id)
		if err != nil {
			return shared.WrapTransactionAborted(err)
		}
		s.logger.Debug("ledger reconciled",
			zap.String("iwo_id", id.String()),
			zap.Int("inserted", len(plan.Insert)),
			zap.Int("updated", len(plan.Update)),
			zap.Int("deleted", len(plan.Delete)),
		)
		return nil
	})
	if err != nil {
		s.rollbackUploads(ctx, session)
		return nil, abortError(err)
	}

	s.removeReplaced(ctx, previousDocs, revised.DocumentLocators())
	s.publish(ctx, &revised)
	s.logger.Info("internal work order updated",
		zap.String("iwo_id", id.String()),
		zap.Int("version", revised.Version),
	)

	resp := ToIWOResponse(&revised, ledger)
	return &resp, nil
}

// Delete removes internal work orders with their ledger records and documents.
// Any failure aborts the whole batch.
func (s *AllocationService) Delete(ctx context.Context, ids []uuid.UUID) (_ *DeleteIWOResponse, retErr error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "iwo", "delete")
	defer func() {
		telemetry.RecordError(span, retErr)
		span.End()
	}()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrLineCount, len(ids),
	)

	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, shared.NewValidationError(shared.ValidationError{Field: "ids", Message: "must contain at least one id"})
	}

	result := &DeleteIWOResponse{}
	var deleted []*production.InternalWorkOrder
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		iwos, err := repos.IWORepo().FindByIDs(ctx, ids)
		if err != nil {
			return shared.WrapTransactionAborted(err)
		}
		if missing := missingIDs(ids, iwos); len(missing) > 0 {
			return shared.NewDomainErrorf(shared.CodeNotFound, "Internal work orders not found: %v", missing)
		}

		var locators []string
		for _, iwo := range iwos {
			removed, err := repos.LedgerRepo().DeleteByIWO(ctx, iwo.ID)
			if err != nil {
				return shared.WrapTransactionAborted(err)
			}
			if err := repos.IWORepo().Delete(ctx, iwo.ID); err != nil {
				return shared.WrapTransactionAborted(err)
			}
			result.LedgerRemoved += removed
			locators = append(locators, iwo.DocumentLocators()...)
		}

		if err := document.RemoveAll(ctx, s.docs, locators); err != nil {
			return shared.WrapTransactionAborted(shared.NewStorageError("delete", err))
		}
		result.DocumentsRemoved = len(locators)
		result.Deleted = len(iwos)
		deleted = iwos
		return nil
	})
	if err != nil {
		return nil, abortError(err)
	}

	for _, iwo := range deleted {
		iwo.MarkDeleted()
		s.publish(ctx, iwo)
	}
	s.logger.Info("internal work orders deleted",
		zap.Int("count", result.Deleted),
		zap.Int64("ledger_removed", result.LedgerRemoved),
		zap.Int("documents_removed", result.DocumentsRemoved),
	)
	return result, nil
}

// GetByID returns an internal work order with job order context and production rollups
func (s *AllocationService) GetByID(ctx context.Context, id uuid.UUID) (*IWODetailResponse, error) {
	iwo, err := s.iwoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ledger, err := s.ledgerRepo.FindByIWO(ctx, id)
	if err != nil {
		return nil, err
	}
	jo, err := s.jobOrderRepo.FindByID(ctx, iwo.JobOrderID)
	if err != nil {
		return nil, err
	}

	detail := &IWODetailResponse{
		IWOResponse: ToIWOResponse(iwo, ledger),
		JobOrder:    ToJobOrderContext(jo),
		Rollups:     BuildRollups(iwo, ledger),
	}
	for _, r := range detail.Rollups {
		detail.Achieved += r.Achieved
		detail.Rejected += r.Rejected
		detail.Recycled += r.Recycled
	}
	return detail, nil
}

// List lists internal work orders without their ledger
func (s *AllocationService) List(ctx context.Context, filter production.IWOFilter) (*shared.Paginated[IWOResponse], error) {
	iwos, total, err := s.iwoRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]IWOResponse, len(iwos))
	for i, iwo := range iwos {
		items[i] = ToIWOResponse(iwo, nil)
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// checkAllocations validates every product line of iwo against the locked job order
// and copies the job order's product details into the lines
func (s *AllocationService) checkAllocations(ctx context.Context, repo production.IWORepository, jo *production.JobOrder, iwo *production.InternalWorkOrder, excludeID *uuid.UUID) error {
	for i := range iwo.Products {
		line := &iwo.Products[i]
		key := line.Key()
		already, err := repo.SumAllocated(ctx, jo.ID, key, excludeID)
		if err != nil {
			return shared.WrapTransactionAborted(err)
		}
		if _, err := production.CheckAllocation(jo, key, already, line.Quantity); err != nil {
			return err
		}
		if ordered, ok := jo.FindProduct(key); ok {
			line.ProductName = ordered.ProductName
			line.Dimensions = ordered.Dimensions
		}
	}
	return nil
}

func (s *AllocationService) applyPlan(ctx context.Context, repo production.LedgerRepository, plan production.LedgerPlan) error {
	if len(plan.Delete) > 0 {
		ids := make([]uuid.UUID, len(plan.Delete))
		for i, r := range plan.Delete {
			ids[i] = r.ID
		}
		if err := repo.DeleteByIDs(ctx, ids); err != nil {
			return err
		}
	}
	if len(plan.Update) > 0 {
		if err := repo.UpdateBatch(ctx, plan.Update); err != nil {
			return err
		}
	}
	if len(plan.Insert) > 0 {
		if err := repo.CreateBatch(ctx, plan.Insert); err != nil {
			return err
		}
	}
	return nil
}

// attachDocuments stores uploads for every slot of inputs and writes the
// resulting references into iwo. Inputs and iwo products share their order.
// Kept references must point at a document the work order already holds.
func (s *AllocationService) attachDocuments(ctx context.Context, session *document.UploadSession, iwo *production.InternalWorkOrder, inputs []IWOProductInput, existing []string) error {
	owned := make(map[string]bool, len(existing))
	for _, loc := range existing {
		owned[loc] = true
	}
	resolve := func(field string, slot *DocumentSlot) (*document.Ref, error) {
		if slot == nil {
			return nil, nil
		}
		if slot.Upload != nil {
			return session.Upload(ctx, *slot.Upload)
		}
		if slot.Keep != nil {
			if !owned[slot.Keep.Locator] {
				return nil, shared.NewValidationError(shared.ValidationError{Field: field, Message: "refers to a document this work order does not hold"})
			}
			ref := *slot.Keep
			return &ref, nil
		}
		return nil, nil
	}

	for i, in := range inputs {
		for j, itemIn := range in.SemiFinishedItems {
			field := fmt.Sprintf("products[%d].semi_finished_items[%d]", i, j)
			item := &iwo.Products[i].SemiFinishedItems[j]
			ref, err := resolve(field+".document", itemIn.Document)
			if err != nil {
				return err
			}
			item.Document = ref
			for k, stepIn := range itemIn.Steps {
				ref, err := resolve(fmt.Sprintf("%s.steps[%d].document", field, k), stepIn.Document)
				if err != nil {
					return err
				}
				item.Steps[k].Document = ref
			}
		}
	}
	return nil
}

func (s *AllocationService) rollbackUploads(ctx context.Context, session *document.UploadSession) {
	uploaded := session.Uploaded()
	if len(uploaded) == 0 {
		return
	}
	if err := session.Rollback(ctx); err != nil {
		s.logger.Warn("failed to remove uploaded documents after aborted write",
			zap.Strings("locators", uploaded),
			zap.Error(err),
		)
	}
}

// removeReplaced deletes documents the work order no longer refers to
func (s *AllocationService) removeReplaced(ctx context.Context, before, after []string) {
	keep := make(map[string]bool, len(after))
	for _, loc := range after {
		keep[loc] = true
	}
	var stale []string
	for _, loc := range before {
		if !keep[loc] {
			stale = append(stale, loc)
		}
	}
	if err := document.RemoveAll(ctx, s.docs, stale); err != nil {
		s.logger.Warn("failed to remove replaced documents", zap.Strings("locators", stale), zap.Error(err))
	}
}

func (s *AllocationService) publish(ctx context.Context, agg shared.AggregateRoot) {
	publishDomainEvents(ctx, s.eventPublisher, agg)
}

func toDomainProducts(inputs []IWOProductInput) []production.IWOProduct {
	products := make([]production.IWOProduct, len(inputs))
	for i, in := range inputs {
		items := make([]production.SemiFinishedItem, len(in.SemiFinishedItems))
		for j, itemIn := range in.SemiFinishedItems {
			steps := make([]production.ProcessStep, len(itemIn.Steps))
			for k, st := range itemIn.Steps {
				steps[k] = production.ProcessStep{Name: st.Name, Remarks: st.Remarks}
			}
			items[j] = production.SemiFinishedItem{ID: itemIn.ID, Steps: steps}
		}
		products[i] = production.IWOProduct{
			ProductID:         in.ProductID,
			VariantCode:       in.VariantCode,
			Quantity:          in.Quantity,
			SemiFinishedItems: items,
		}
	}
	return products
}

// toProductInputs turns stored product lines back into inputs that keep every document
func toProductInputs(products []production.IWOProduct) []IWOProductInput {
	keep := func(ref *document.Ref) *DocumentSlot {
		if ref == nil {
			return nil
		}
		r := *ref
		return &DocumentSlot{Keep: &r}
	}
	inputs := make([]IWOProductInput, len(products))
	for i, p := range products {
		items := make([]SemiFinishedItemInput, len(p.SemiFinishedItems))
		for j, s := range p.SemiFinishedItems {
			steps := make([]ProcessStepInput, len(s.Steps))
			for k, st := range s.Steps {
				steps[k] = ProcessStepInput{Name: st.Name, Remarks: st.Remarks, Document: keep(st.Document)}
			}
			items[j] = SemiFinishedItemInput{ID: s.ID, Document: keep(s.Document), Steps: steps}
		}
		inputs[i] = IWOProductInput{
			ProductID:         p.ProductID,
			VariantCode:       p.VariantCode,
			Quantity:          p.Quantity,
			SemiFinishedItems: items,
		}
	}
	return inputs
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func missingIDs(ids []uuid.UUID, found []*production.InternalWorkOrder) []uuid.UUID {
	have := make(map[uuid.UUID]bool, len(found))
	for _, iwo := range found {
		have[iwo.ID] = true
	}
	var missing []uuid.UUID
	for _, id := range ids {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
