package packing

import (
	"github.com/erp/production/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypePackingBundle = "PackingBundle"

// Event type constants
const (
	EventTypeBundleCreated = "BundleCreated"
	EventTypeBundleSealed  = "BundleSealed"
)

// BundleCreatedEvent is raised when a bundle is packed
type BundleCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID      uuid.UUID `json:"product_id"`
	SemiFinishedID string    `json:"semi_finished_id"`
	Quantity       int64     `json:"quantity"`
}

// NewBundleCreatedEvent creates a new BundleCreatedEvent
func NewBundleCreatedEvent(b *PackingBundle) *BundleCreatedEvent {
	return &BundleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBundleCreated, AggregateTypePackingBundle, b.ID),
		ProductID:       b.ProductID,
		SemiFinishedID:  b.SemiFinishedID,
		Quantity:        b.PackedQuantity,
	}
}

// BundleSealedEvent is raised when a bundle receives its QR identity
type BundleSealedEvent struct {
	shared.BaseDomainEvent
	QRID           string `json:"qr_id"`
	SemiFinishedID string `json:"semi_finished_id"`
	Quantity       int64  `json:"quantity"`
}

// NewBundleSealedEvent creates a new BundleSealedEvent
func NewBundleSealedEvent(b *PackingBundle) *BundleSealedEvent {
	return &BundleSealedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBundleSealed, AggregateTypePackingBundle, b.ID),
		QRID:            b.QRID,
		SemiFinishedID:  b.SemiFinishedID,
		Quantity:        b.PackedQuantity,
	}
}
