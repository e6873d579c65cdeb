package models

import (
	"time"

	"github.com/erp/production/internal/domain/packing"
	"github.com/google/uuid"
)

// PackingBundleModel is the persistence model for the PackingBundle aggregate.
// qr_id stays NULL until the bundle is sealed so the unique index only covers sealed bundles.
type PackingBundleModel struct {
	AggregateModel
	WorkOrderID      *uuid.UUID            `gorm:"type:uuid"`
	JobOrderID       *uuid.UUID            `gorm:"type:uuid;index"`
	IWOID            *uuid.UUID            `gorm:"column:iwo_id;type:uuid;index"`
	ProductID        uuid.UUID             `gorm:"type:uuid;not null"`
	ProductName      string                `gorm:"type:varchar(200)"`
	SemiFinishedID   string                `gorm:"type:varchar(100);not null;index"`
	PackedQuantity   int64                 `gorm:"not null"`
	RejectedQuantity int64                 `gorm:"not null;default:0"`
	DocumentsJSON    string                `gorm:"column:documents;type:jsonb;not null;default:'[]'"`
	DeliveryStage    packing.DeliveryStage `gorm:"type:varchar(20);not null;default:'';index"`
	QRID             *string               `gorm:"column:qr_id;type:varchar(100);uniqueIndex"`
	QRCode           string                `gorm:"column:qr_code;type:varchar(500)"`
	SealedAt         *time.Time
	ActorColumns
}

// TableName returns the table name for GORM
func (PackingBundleModel) TableName() string {
	return "packing_bundles"
}

// ToDomain converts the persistence model to a domain PackingBundle
func (m *PackingBundleModel) ToDomain() *packing.PackingBundle {
	var docs []documentRefJSON
	unmarshalJSON(m.DocumentsJSON, &docs, "packing_bundles.documents", m.ID)

	b := &packing.PackingBundle{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		WorkOrderID:       m.WorkOrderID,
		JobOrderID:        m.JobOrderID,
		IWOID:             m.IWOID,
		ProductID:         m.ProductID,
		ProductName:       m.ProductName,
		SemiFinishedID:    m.SemiFinishedID,
		PackedQuantity:    m.PackedQuantity,
		RejectedQuantity:  m.RejectedQuantity,
		Documents:         refsFromJSON(docs),
		DeliveryStage:     m.DeliveryStage,
		QRCode:            m.QRCode,
		SealedAt:          m.SealedAt,
		Actors:            m.ActorColumns.ToDomain(),
	}
	if m.QRID != nil {
		b.QRID = *m.QRID
	}
	return b
}

// PackingBundleModelFromDomain creates a persistence model from a domain PackingBundle
func PackingBundleModelFromDomain(b *packing.PackingBundle) *PackingBundleModel {
	m := &PackingBundleModel{
		WorkOrderID:      b.WorkOrderID,
		JobOrderID:       b.JobOrderID,
		IWOID:            b.IWOID,
		ProductID:        b.ProductID,
		ProductName:      b.ProductName,
		SemiFinishedID:   b.SemiFinishedID,
		PackedQuantity:   b.PackedQuantity,
		RejectedQuantity: b.RejectedQuantity,
		DocumentsJSON:    marshalJSON(refsToJSON(b.Documents), "[]"),
		DeliveryStage:    b.DeliveryStage,
		QRCode:           b.QRCode,
		SealedAt:         b.SealedAt,
		ActorColumns:     actorColumnsFromDomain(b.Actors),
	}
	if b.QRID != "" {
		qr := b.QRID
		m.QRID = &qr
	}
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	return m
}
