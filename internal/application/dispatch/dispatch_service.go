package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/erp/production/internal/domain/dispatch"
	"github.com/erp/production/internal/domain/document"
	"github.com/erp/production/internal/domain/packing"
	"github.com/erp/production/internal/domain/production"
	"github.com/erp/production/internal/domain/shared"
	"github.com/erp/production/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DispatchService ships packed bundles and issues gate pass and delivery challan numbers
type DispatchService struct {
	txScope        TransactionScope
	dispatchRepo   dispatch.Repository
	bundleRepo     packing.BundleRepository
	iwoRepo        production.IWORepository
	jobOrderRepo   production.JobOrderRepository
	docs           document.Store
	numbers        *dispatch.NumberGenerator
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewDispatchService creates a new DispatchService
func NewDispatchService(
	txScope TransactionScope,
	dispatchRepo dispatch.Repository,
	bundleRepo packing.BundleRepository,
	iwoRepo production.IWORepository,
	jobOrderRepo production.JobOrderRepository,
	docs document.Store,
	numbers *dispatch.NumberGenerator,
	logger *zap.Logger,
) *DispatchService {
	if numbers == nil {
		numbers = dispatch.NewNumberGenerator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DispatchService{
		txScope:      txScope,
		dispatchRepo: dispatchRepo,
		bundleRepo:   bundleRepo,
		iwoRepo:      iwoRepo,
		jobOrderRepo: jobOrderRepo,
		docs:         docs,
		numbers:      numbers,
		logger:       logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *DispatchService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create resolves bundles by QR code, records the dispatch and moves every
// bundle to Dispatched in one transaction
func (s *DispatchService) Create(ctx context.Context, req CreateDispatchRequest) (_ *DispatchResponse, retErr error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dispatch", "create")
	defer func() {
		telemetry.RecordError(span, retErr)
		span.End()
	}()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrJobOrderID, req.JobOrderID.String(),
		telemetry.SpanAttrLineCount, len(req.QRCodes),
	)

	codes := uniqueCodes(req.QRCodes)
	if req.JobOrderID == uuid.Nil {
		return nil, shared.NewValidationError(shared.ValidationError{Field: "job_order_id", Message: "is required"})
	}
	if len(codes) == 0 {
		return nil, shared.NewValidationError(shared.ValidationError{Field: "qr_codes", Message: "must contain at least one code"})
	}

	session := document.NewUploadSession(s.docs, document.FeatureDispatch)
	refs, err := uploadAll(ctx, session, req.Documents)
	if err != nil {
		s.rollbackUploads(ctx, session)
		return nil, err
	}

	var created *dispatch.Dispatch
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		bundles, err := repos.BundleRepo().FindByQRIDsForUpdate(ctx, codes)
		if err != nil {
			return shared.WrapTransactionAborted(err)
		}
		if err := ensureSameJobOrder(req.JobOrderID, bundles); err != nil {
			return err
		}
		d, err := dispatch.NewDispatch(req.JobOrderID, bundles, req.Products, req.Metadata, req.Hardware, req.Actor)
		if err != nil {
			return err
		}

		gatePass, err := s.numbers.Next(ctx, repos.DispatchRepo().GatePassExists)
		if err != nil {
			return err
		}
		dcNumber, err := s.numbers.Next(ctx, repos.DispatchRepo().DCNumberExists)
		if err != nil {
			return err
		}
		d.AssignNumbers(gatePass, dcNumber)
		d.Documents = refs

		if err := repos.DispatchRepo().Save(ctx, d); err != nil {
			return shared.WrapTransactionAborted(err)
		}
		moved, err := repos.BundleRepo().TransitionStage(ctx, d.BundleIDs, packing.DeliveryStagePacked, packing.DeliveryStageDispatched)
		if err != nil {
			return shared.WrapTransactionAborted(err)
		}
		if moved != int64(len(d.BundleIDs)) {
			return shared.WrapTransactionAborted(shared.NewDomainErrorf(shared.CodeAlreadyDispatched,
				"Bundles were dispatched concurrently: %d of %d still packed", moved, len(d.BundleIDs)))
		}
		for _, b := range bundles {
			if err := b.MarkDispatched(req.Actor); err != nil {
				return err
			}
		}
		created = d
		return nil
	})
	if err != nil {
		s.rollbackUploads(ctx, session)
		return nil, abortError(err)
	}

	publishDomainEvents(ctx, s.eventPublisher, created)
	s.logger.Info("dispatch created",
		zap.String("dispatch_id", created.ID.String()),
		zap.String("gate_pass_number", created.GatePassNumber),
		zap.String("dc_number", created.DCNumber),
		zap.Int("bundles", len(created.BundleIDs)),
		zap.Int64("quantity", created.TotalQuantity()),
	)
	resp := ToDispatchResponse(created)
	return &resp, nil
}

// Update changes metadata, hardware, status and documents of a dispatch.
// Quantities and bundle stages are never touched.
func (s *DispatchService) Update(ctx context.Context, id uuid.UUID, req UpdateDispatchRequest) (_ *DispatchResponse, retErr error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dispatch", "update")
	defer func() {
		telemetry.RecordError(span, retErr)
		span.End()
	}()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrDispatchID, id.String(),
	)

	d, err := s.dispatchRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	session := document.NewUploadSession(s.docs, document.FeatureDispatch)
	refs, err := uploadAll(ctx, session, req.Documents)
	if err != nil {
		s.rollbackUploads(ctx, session)
		return nil, err
	}
	if err := d.Apply(dispatch.Patch{
		Metadata:  req.Metadata,
		Hardware:  req.Hardware,
		Status:    req.Status,
		Documents: refs,
	}, req.Actor); err != nil {
		s.rollbackUploads(ctx, session)
		return nil, err
	}
	if err := s.dispatchRepo.Update(ctx, d); err != nil {
		s.rollbackUploads(ctx, session)
		return nil, err
	}

	s.logger.Info("dispatch updated",
		zap.String("dispatch_id", d.ID.String()),
		zap.String("status", d.Status.String()),
		zap.Int("documents_added", len(refs)),
	)
	resp := ToDispatchResponse(d)
	return &resp, nil
}

// GetByID returns a dispatch
func (s *DispatchService) GetByID(ctx context.Context, id uuid.UUID) (*DispatchResponse, error) {
	d, err := s.dispatchRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToDispatchResponse(d)
	return &resp, nil
}

// List lists dispatches matching the filter
func (s *DispatchService) List(ctx context.Context, filter dispatch.Filter) (*shared.Paginated[DispatchResponse], error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, shared.NewValidationError(shared.ValidationError{Field: "status", Message: "must be Approved or Rejected"})
	}
	items, total, err := s.dispatchRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]DispatchResponse, len(items))
	for i, d := range items {
		out[i] = ToDispatchResponse(d)
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.PageSize)
	return &page, nil
}

// ScanQR returns the context of the bundle sealed with qrID, rejecting bundles
// that already left the factory
func (s *DispatchService) ScanQR(ctx context.Context, qrID string) (_ *ScanResponse, retErr error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dispatch", "scan_qr")
	defer func() {
		telemetry.RecordError(span, retErr)
		span.End()
	}()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrQRID, qrID,
	)

	qrID = strings.TrimSpace(qrID)
	if qrID == "" {
		return nil, shared.NewValidationError(shared.ValidationError{Field: "id", Message: "is required"})
	}
	b, err := s.bundleRepo.FindByQRID(ctx, qrID)
	if err != nil {
		return nil, err
	}
	if err := b.EnsureDispatchable(); err != nil {
		return nil, err
	}

	var iwo *production.InternalWorkOrder
	if b.IWOID != nil {
		iwo, err = s.iwoRepo.FindByID(ctx, *b.IWOID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}
	var jo *production.JobOrder
	if b.JobOrderID != nil {
		jo, err = s.jobOrderRepo.FindByID(ctx, *b.JobOrderID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}
	resp := toScanResponse(b, iwo, jo)
	return &resp, nil
}

func (s *DispatchService) rollbackUploads(ctx context.Context, session *document.UploadSession) {
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

func uploadAll(ctx context.Context, session *document.UploadSession, uploads []document.Upload) ([]document.Ref, error) {
	refs := make([]document.Ref, 0, len(uploads))
	for _, u := range uploads {
		ref, err := session.Upload(ctx, u)
		if err != nil {
			return nil, err
		}
		refs = append(refs, *ref)
	}
	return refs, nil
}

func uniqueCodes(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// ensureSameJobOrder rejects bundles packed for a different job order
func ensureSameJobOrder(jobOrderID uuid.UUID, bundles []*packing.PackingBundle) error {
	var foreign []string
	for _, b := range bundles {
		if b.JobOrderID != nil && *b.JobOrderID != jobOrderID {
			foreign = append(foreign, b.QRID)
		}
	}
	if len(foreign) > 0 {
		return shared.NewValidationError(shared.ValidationError{
			Field:   "qr_codes",
			Message: fmt.Sprintf("bundles belong to another job order: %s", strings.Join(foreign, ", ")),
		})
	}
	return nil
}
