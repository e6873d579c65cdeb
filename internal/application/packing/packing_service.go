package packing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/erp/production/internal/domain/document"
	"github.com/erp/production/internal/domain/packing"
	"github.com/erp/production/internal/domain/shared"
	"github.com/erp/production/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PackingService packs finished output into bundles and seals them with QR identities
type PackingService struct {
	txScope        TransactionScope
	bundleRepo     packing.BundleRepository
	docs           document.Store
	encoder        document.BarcodeEncoder
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewPackingService creates a new PackingService
func NewPackingService(
	txScope TransactionScope,
	bundleRepo packing.BundleRepository,
	docs document.Store,
	encoder document.BarcodeEncoder,
	logger *zap.Logger,
) *PackingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PackingService{
		txScope:    txScope,
		bundleRepo: bundleRepo,
		docs:       docs,
		encoder:    encoder,
		logger:     logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PackingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateBundles packs every item in one transaction. Each item is bounded by
// the achieved output of its semi-finished item's finishing step minus what
// has already been packed, including earlier items of the same request.
func (s *PackingService) CreateBundles(ctx context.Context, req CreateBundlesRequest) (_ []BundleResponse, retErr error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "packing", "create_bundles")
	defer func() {
		telemetry.RecordError(span, retErr)
		span.End()
	}()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrLineCount, len(req.Items),
	)

	if len(req.Items) == 0 {
		return nil, shared.NewValidationError(shared.ValidationError{Field: "items", Message: "must contain at least one bundle"})
	}
	bundles := make([]*packing.PackingBundle, len(req.Items))
	for i, item := range req.Items {
		b, err := packing.NewPackingBundle(item.ProductID, item.SemiFinishedID, item.Quantity, item.RejectedQuantity, req.Actor)
		if err != nil {
			return nil, prefixFields(err, fmt.Sprintf("items[%d]", i))
		}
		b.ProductName = strings.TrimSpace(item.ProductName)
		bundles[i] = b
	}

	session := document.NewUploadSession(s.docs, document.FeaturePacking)
	var refs []document.Ref
	for _, u := range req.Documents {
		ref, err := session.Upload(ctx, u)
		if err != nil {
			s.rollbackUploads(ctx, session)
			return nil, err
		}
		refs = append(refs, *ref)
	}

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		packedInRequest := make(map[string]int64)
		for _, b := range bundles {
			terminal, err := repos.LedgerRepo().FindTerminalForUpdate(ctx, b.SemiFinishedID)
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return shared.WrapTransactionAborted(err)
			}
			if err := packing.CheckReadiness(b.SemiFinishedID, terminal); err != nil {
				return err
			}
			if terminal.Product.ProductID != b.ProductID {
				return shared.NewValidationError(shared.ValidationError{
					Field:   "product_id",
					Message: fmt.Sprintf("semi-finished item %s belongs to product %s", b.SemiFinishedID, terminal.Product.ProductID),
				})
			}
			already, err := repos.BundleRepo().SumPacked(ctx, b.SemiFinishedID)
			if err != nil {
				return shared.WrapTransactionAborted(err)
			}
			already += packedInRequest[b.SemiFinishedID]
			if err := packing.CheckPackingBound(b.SemiFinishedID, terminal.AchievedQuantity, already, b.PackedQuantity); err != nil {
				return err
			}
			packedInRequest[b.SemiFinishedID] += b.PackedQuantity

			var workOrderID *uuid.UUID
			if jo, err := repos.JobOrderRepo().FindByID(ctx, terminal.JobOrderID); err == nil {
				workOrderID = jo.WorkOrderID
			}
			b.LinkSource(terminal, workOrderID)
			b.AttachDocuments(refs...)
			if err := repos.BundleRepo().Save(ctx, b); err != nil {
				return shared.WrapTransactionAborted(err)
			}
		}
		return nil
	})
	if err != nil {
		s.rollbackUploads(ctx, session)
		return nil, abortError(err)
	}

	for _, b := range bundles {
		publishDomainEvents(ctx, s.eventPublisher, b)
	}
	s.logger.Info("bundles packed",
		zap.Int("count", len(bundles)),
		zap.Int("documents", len(refs)),
	)
	return ToBundleResponses(bundles), nil
}

// SealBatch seals each pair independently and reports per-item outcomes.
// A failure of one pair never affects the others.
func (s *PackingService) SealBatch(ctx context.Context, req SealRequest) (*SealReport, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewValidationError(shared.ValidationError{Field: "items", Message: "must contain at least one bundle"})
	}
	report := &SealReport{Succeeded: []BundleResponse{}, Failed: []SealFailure{}}
	for _, item := range req.Items {
		b, err := s.Seal(ctx, item.BundleID, item.QRCodeID, req.Actor)
		if err != nil {
			report.Failed = append(report.Failed, sealFailure(item, err))
			s.logger.Warn("bundle not sealed",
				zap.String("bundle_id", item.BundleID.String()),
				zap.String("qr_code_id", item.QRCodeID),
				zap.Error(err),
			)
			continue
		}
		report.Succeeded = append(report.Succeeded, *b)
	}
	s.logger.Info("seal batch processed",
		zap.Int("succeeded", len(report.Succeeded)),
		zap.Int("failed", len(report.Failed)),
	)
	return report, nil
}

// Seal encodes qrID as a barcode image, stores it and moves the bundle to Packed.
// Readiness of the source production is checked again at sealing time.
func (s *PackingService) Seal(ctx context.Context, bundleID uuid.UUID, qrID, actor string) (_ *BundleResponse, retErr error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "packing", "seal")
	defer func() {
		telemetry.RecordError(span, retErr)
		span.End()
	}()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrBundleID, bundleID.String(),
		telemetry.SpanAttrQRID, qrID,
	)

	qrID = strings.TrimSpace(qrID)
	if qrID == "" {
		return nil, shared.NewValidationError(shared.ValidationError{Field: "qr_code_id", Message: "is required"})
	}

	session := document.NewUploadSession(s.docs, document.FeatureQRCode)
	var sealed *packing.PackingBundle
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		b, err := repos.BundleRepo().FindByIDForUpdate(ctx, bundleID)
		if err != nil {
			return err
		}
		if b.IsSealed() {
			return shared.NewDomainErrorf(shared.CodeAlreadyPacked,
				"Bundle %s is already sealed with QR %s", b.ID, b.QRID)
		}
		taken, err := repos.BundleRepo().QRIDTaken(ctx, qrID, b.ID)
		if err != nil {
			return shared.WrapTransactionAborted(err)
		}
		if taken {
			return shared.NewValidationError(shared.ValidationError{
				Field:   "qr_code_id",
				Message: fmt.Sprintf("%s is already used by another bundle", qrID),
			})
		}
		terminal, err := repos.LedgerRepo().FindTerminal(ctx, b.SemiFinishedID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return shared.WrapTransactionAborted(err)
		}
		if err := packing.CheckReadiness(b.SemiFinishedID, terminal); err != nil {
			return err
		}

		image, err := s.encoder.Encode(qrID)
		if err != nil {
			return shared.NewStorageError("encode", err)
		}
		ref, err := session.Upload(ctx, document.Upload{
			FileName:    qrID + ".png",
			ContentType: s.encoder.ContentType(),
			Content:     image,
		})
		if err != nil {
			return err
		}
		if err := b.Seal(qrID, ref.Locator, actor); err != nil {
			return err
		}
		if err := repos.BundleRepo().Update(ctx, b); err != nil {
			return shared.WrapTransactionAborted(err)
		}
		sealed = b
		return nil
	})
	if err != nil {
		s.rollbackUploads(ctx, session)
		return nil, abortError(err)
	}

	publishDomainEvents(ctx, s.eventPublisher, sealed)
	s.logger.Info("bundle sealed",
		zap.String("bundle_id", sealed.ID.String()),
		zap.String("qr_id", sealed.QRID),
	)
	resp := ToBundleResponse(sealed)
	return &resp, nil
}

// GetByID returns a bundle
func (s *PackingService) GetByID(ctx context.Context, id uuid.UUID) (*BundleResponse, error) {
	b, err := s.bundleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToBundleResponse(b)
	return &resp, nil
}

// List lists bundles matching the filter
func (s *PackingService) List(ctx context.Context, filter packing.BundleFilter) (*shared.Paginated[BundleResponse], error) {
	if filter.Stage != nil && !filter.Stage.IsValid() {
		return nil, shared.NewValidationError(shared.ValidationError{Field: "stage", Message: "must be one of Packed, Dispatched, Delivered"})
	}
	bundles, total, err := s.bundleRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToBundleResponses(bundles), total, filter.Page, filter.PageSize)
	return &page, nil
}

func (s *PackingService) rollbackUploads(ctx context.Context, session *document.UploadSession) {
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

func sealFailure(item SealItem, err error) SealFailure {
	f := SealFailure{BundleID: item.BundleID, QRCodeID: item.QRCodeID, Code: shared.CodeInternal, Message: err.Error()}
	var de *shared.DomainError
	if errors.As(err, &de) {
		if inner := de.Cause(); de.Code == shared.CodeTransactionAborted && inner != nil {
			de = inner
		}
		f.Code = de.Code
		f.Message = de.Message
	}
	return f
}
