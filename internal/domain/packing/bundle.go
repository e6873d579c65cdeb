// Package packing models sealed, QR-identified bundles of finished quantity.
package packing

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/production/internal/domain/document"
	"github.com/erp/production/internal/domain/production"
	"github.com/erp/production/internal/domain/shared"
	"github.com/google/uuid"
)

// DeliveryStage is where a bundle is on its way to the client.
// The zero value means the bundle has not been sealed yet.
type DeliveryStage string

// Delivery stages
const (
	DeliveryStageUnsealed   DeliveryStage = ""
	DeliveryStagePacked     DeliveryStage = "Packed"
	DeliveryStageDispatched DeliveryStage = "Dispatched"
	DeliveryStageDelivered  DeliveryStage = "Delivered"
)

// IsValid checks if the stage is a known value
func (s DeliveryStage) IsValid() bool {
	switch s {
	case DeliveryStageUnsealed, DeliveryStagePacked, DeliveryStageDispatched, DeliveryStageDelivered:
		return true
	}
	return false
}

// CanTransitionTo checks if the stage can move to target
func (s DeliveryStage) CanTransitionTo(target DeliveryStage) bool {
	switch s {
	case DeliveryStageUnsealed:
		return target == DeliveryStagePacked
	case DeliveryStagePacked:
		return target == DeliveryStageDispatched
	case DeliveryStageDispatched:
		return target == DeliveryStageDelivered
	}
	return false
}

// String returns the string representation
func (s DeliveryStage) String() string {
	if s == DeliveryStageUnsealed {
		return "Unsealed"
	}
	return string(s)
}

// PackingBundle is a group of finished units of one semi-finished item ready for shipment.
// References to work order, job order and product are lookups only.
type PackingBundle struct {
	shared.BaseAggregateRoot
	WorkOrderID      *uuid.UUID
	JobOrderID       *uuid.UUID
	IWOID            *uuid.UUID
	ProductID        uuid.UUID
	ProductName      string
	SemiFinishedID   string
	PackedQuantity   int64
	RejectedQuantity int64
	Documents        []document.Ref
	DeliveryStage    DeliveryStage
	QRID             string
	QRCode           string
	SealedAt         *time.Time
	shared.Actors
}

// NewPackingBundle creates an unsealed bundle
func NewPackingBundle(productID uuid.UUID, semiFinishedID string, packed, rejected int64, actor string) (*PackingBundle, error) {
	var details []shared.ValidationError
	if productID == uuid.Nil {
		details = append(details, shared.ValidationError{Field: "product_id", Message: "is required"})
	}
	if strings.TrimSpace(semiFinishedID) == "" {
		details = append(details, shared.ValidationError{Field: "semi_finished_id", Message: "is required"})
	}
	if packed <= 0 {
		details = append(details, shared.ValidationError{Field: "quantity", Message: "must be positive"})
	}
	if rejected < 0 {
		details = append(details, shared.ValidationError{Field: "rejected_quantity", Message: "must not be negative"})
	}
	if len(details) > 0 {
		return nil, shared.NewValidationError(details...)
	}

	b := &PackingBundle{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		SemiFinishedID:    strings.TrimSpace(semiFinishedID),
		PackedQuantity:    packed,
		RejectedQuantity:  rejected,
		DeliveryStage:     DeliveryStageUnsealed,
		Actors:            shared.Actors{CreatedBy: actor, UpdatedBy: actor},
	}
	b.AddDomainEvent(NewBundleCreatedEvent(b))
	return b, nil
}

// LinkSource records the work order, job order and IWO the bundle's production came from
func (b *PackingBundle) LinkSource(rec *production.ProcessLedgerRecord, workOrderID *uuid.UUID) {
	jobOrderID := rec.JobOrderID
	iwoID := rec.IWOID
	b.JobOrderID = &jobOrderID
	b.IWOID = &iwoID
	b.WorkOrderID = workOrderID
	if b.ProductName == "" {
		b.ProductName = rec.Product.ProductName
	}
}

// AttachDocuments adds stored documents to the bundle
func (b *PackingBundle) AttachDocuments(refs ...document.Ref) {
	b.Documents = append(b.Documents, refs...)
}

// IsSealed reports whether the bundle has a QR identity
func (b *PackingBundle) IsSealed() bool {
	return b.DeliveryStage != DeliveryStageUnsealed
}

// Seal gives the bundle its QR identity and moves it to Packed
func (b *PackingBundle) Seal(qrID, imageLocator, actor string) error {
	if strings.TrimSpace(qrID) == "" {
		return shared.NewValidationError(shared.ValidationError{Field: "qr_code_id", Message: "is required"})
	}
	if !b.DeliveryStage.CanTransitionTo(DeliveryStagePacked) {
		return shared.NewDomainErrorf(shared.CodeAlreadyPacked,
			"Bundle %s is already sealed with QR %s (stage %s)", b.ID, b.QRID, b.DeliveryStage)
	}
	now := time.Now()
	b.QRID = strings.TrimSpace(qrID)
	b.QRCode = imageLocator
	b.DeliveryStage = DeliveryStagePacked
	b.SealedAt = &now
	b.UpdatedBy = actor
	b.UpdatedAt = now
	b.IncrementVersion()
	b.AddDomainEvent(NewBundleSealedEvent(b))
	return nil
}

// EnsureDispatchable fails unless the bundle is sealed and not yet shipped
func (b *PackingBundle) EnsureDispatchable() error {
	switch b.DeliveryStage {
	case DeliveryStagePacked:
		return nil
	case DeliveryStageUnsealed:
		return shared.NewDomainErrorf(shared.CodeProductionNotReady, "Bundle %s has not been sealed", b.ID)
	}
	return shared.NewDomainErrorf(shared.CodeAlreadyDispatched,
		"Bundle with QR %s is already %s", b.QRID, strings.ToLower(string(b.DeliveryStage)))
}

// MarkDispatched moves a packed bundle to Dispatched
func (b *PackingBundle) MarkDispatched(actor string) error {
	if !b.DeliveryStage.CanTransitionTo(DeliveryStageDispatched) {
		return shared.NewDomainErrorf(shared.CodeAlreadyDispatched,
			"Bundle with QR %s cannot be dispatched from stage %s", b.QRID, b.DeliveryStage)
	}
	b.DeliveryStage = DeliveryStageDispatched
	b.UpdatedBy = actor
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
	return nil
}

// CheckReadiness fails with PRODUCTION_NOT_READY unless the finishing step has output
func CheckReadiness(semiFinishedID string, terminal *production.ProcessLedgerRecord) error {
	if terminal == nil || terminal.AchievedQuantity <= 0 {
		return shared.NewDomainErrorf(shared.CodeProductionNotReady,
			"Semi-finished item %s has no achieved production to pack", semiFinishedID)
	}
	return nil
}

// CheckPackingBound verifies requested fits into the achieved quantity not yet packed
func CheckPackingBound(semiFinishedID string, achieved, alreadyPacked, requested int64) error {
	remaining := achieved - alreadyPacked
	if remaining < 0 {
		remaining = 0
	}
	if requested > remaining {
		return shared.NewDomainErrorf(shared.CodeQuantityExceeded,
			"Packing quantity exceeded for %s: achieved %d, already packed %d, requested %d, remaining %d",
			semiFinishedID, achieved, alreadyPacked, requested, remaining)
	}
	return nil
}

// String renders the bundle for logs
func (b *PackingBundle) String() string {
	return fmt.Sprintf("bundle %s (%s x%d, %s)", b.ID, b.SemiFinishedID, b.PackedQuantity, b.DeliveryStage)
}
