package models

import (
	"time"

	"github.com/erp/production/internal/domain/dispatch"
	"github.com/google/uuid"
)

// DispatchModel is the persistence model for the Dispatch aggregate
type DispatchModel struct {
	AggregateModel
	JobOrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	WorkOrderID    *uuid.UUID      `gorm:"type:uuid"`
	BundleIDsJSON  string          `gorm:"column:bundle_ids;type:jsonb;not null;default:'[]'"`
	QRCodesJSON    string          `gorm:"column:qr_codes;type:jsonb;not null;default:'[]'"`
	ProductsJSON   string          `gorm:"column:products;type:jsonb;not null;default:'[]'"`
	HardwareJSON   string          `gorm:"column:hardware;type:jsonb;not null;default:'[]'"`
	VehicleNumber  string          `gorm:"type:varchar(50)"`
	DriverName     string          `gorm:"type:varchar(100)"`
	DriverContact  string          `gorm:"type:varchar(50)"`
	ContactPerson  string          `gorm:"type:varchar(100)"`
	InvoiceNumber  string          `gorm:"type:varchar(64)"`
	InvoiceDate    *time.Time      `gorm:"type:date"`
	Remarks        string          `gorm:"type:text"`
	GatePassNumber string          `gorm:"type:varchar(32);not null;uniqueIndex"`
	DCNumber       string          `gorm:"column:dc_number;type:varchar(32);not null;uniqueIndex"`
	DocumentsJSON  string          `gorm:"column:documents;type:jsonb;not null;default:'[]'"`
	Status         dispatch.Status `gorm:"type:varchar(20);not null;index"`
	ActorColumns
}

// TableName returns the table name for GORM
func (DispatchModel) TableName() string {
	return "dispatches"
}

// ToDomain converts the persistence model to a domain Dispatch
func (m *DispatchModel) ToDomain() *dispatch.Dispatch {
	d := &dispatch.Dispatch{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		JobOrderID:        m.JobOrderID,
		WorkOrderID:       m.WorkOrderID,
		Metadata: dispatch.Metadata{
			VehicleNumber: m.VehicleNumber,
			DriverName:    m.DriverName,
			DriverContact: m.DriverContact,
			ContactPerson: m.ContactPerson,
			InvoiceNumber: m.InvoiceNumber,
			InvoiceDate:   m.InvoiceDate,
			Remarks:       m.Remarks,
		},
		GatePassNumber: m.GatePassNumber,
		DCNumber:       m.DCNumber,
		Status:         m.Status,
		Actors:         m.ActorColumns.ToDomain(),
	}
	unmarshalJSON(m.BundleIDsJSON, &d.BundleIDs, "dispatches.bundle_ids", m.ID)
	unmarshalJSON(m.QRCodesJSON, &d.QRCodes, "dispatches.qr_codes", m.ID)
	unmarshalJSON(m.ProductsJSON, &d.Products, "dispatches.products", m.ID)
	unmarshalJSON(m.HardwareJSON, &d.Hardware, "dispatches.hardware", m.ID)

	var docs []documentRefJSON
	unmarshalJSON(m.DocumentsJSON, &docs, "dispatches.documents", m.ID)
	d.Documents = refsFromJSON(docs)
	return d
}

// DispatchModelFromDomain creates a persistence model from a domain Dispatch
func DispatchModelFromDomain(d *dispatch.Dispatch) *DispatchModel {
	m := &DispatchModel{
		JobOrderID:     d.JobOrderID,
		WorkOrderID:    d.WorkOrderID,
		BundleIDsJSON:  marshalJSON(nonNil(d.BundleIDs), "[]"),
		QRCodesJSON:    marshalJSON(nonNil(d.QRCodes), "[]"),
		ProductsJSON:   marshalJSON(nonNil(d.Products), "[]"),
		HardwareJSON:   marshalJSON(nonNil(d.Hardware), "[]"),
		VehicleNumber:  d.Metadata.VehicleNumber,
		DriverName:     d.Metadata.DriverName,
		DriverContact:  d.Metadata.DriverContact,
		ContactPerson:  d.Metadata.ContactPerson,
		InvoiceNumber:  d.Metadata.InvoiceNumber,
		InvoiceDate:    d.Metadata.InvoiceDate,
		Remarks:        d.Metadata.Remarks,
		GatePassNumber: d.GatePassNumber,
		DCNumber:       d.DCNumber,
		DocumentsJSON:  marshalJSON(refsToJSON(d.Documents), "[]"),
		Status:         d.Status,
		ActorColumns:   actorColumnsFromDomain(d.Actors),
	}
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	return m
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
