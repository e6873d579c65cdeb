package dispatch

import (
	"time"

	"github.com/erp/production/internal/domain/dispatch"
	"github.com/erp/production/internal/domain/document"
	"github.com/erp/production/internal/domain/packing"
	"github.com/erp/production/internal/domain/production"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateDispatchRequest ships the bundles identified by QR codes
type CreateDispatchRequest struct {
	JobOrderID uuid.UUID
	QRCodes    []string
	Products   []dispatch.PriceLine
	Hardware   []dispatch.HardwareItem
	Metadata   dispatch.Metadata
	Documents  []document.Upload
	Actor      string
}

// UpdateDispatchRequest changes metadata and documents of a dispatch
type UpdateDispatchRequest struct {
	Metadata  *dispatch.Metadata
	Hardware  []dispatch.HardwareItem
	Status    *dispatch.Status
	Documents []document.Upload
	Actor     string
}

// MetadataResponse is the vehicle, contact and invoice part of a dispatch
type MetadataResponse struct {
	VehicleNumber string     `json:"vehicle_number,omitempty"`
	DriverName    string     `json:"driver_name,omitempty"`
	DriverContact string     `json:"driver_contact,omitempty"`
	ContactPerson string     `json:"contact_person,omitempty"`
	InvoiceNumber string     `json:"invoice_number,omitempty"`
	InvoiceDate   *time.Time `json:"invoice_date,omitempty"`
	Remarks       string     `json:"remarks,omitempty"`
}

// DispatchResponse represents a dispatch in API responses
type DispatchResponse struct {
	ID             uuid.UUID               `json:"id"`
	JobOrderID     uuid.UUID               `json:"job_order_id"`
	WorkOrderID    *uuid.UUID              `json:"work_order_id,omitempty"`
	BundleIDs      []uuid.UUID             `json:"bundle_ids"`
	QRCodes        []string                `json:"qr_codes"`
	Products       []dispatch.ProductLine  `json:"products"`
	Hardware       []dispatch.HardwareItem `json:"hardware"`
	Metadata       MetadataResponse        `json:"metadata"`
	GatePassNumber string                  `json:"gate_pass_number"`
	DCNumber       string                  `json:"dc_number"`
	Documents      []document.Ref          `json:"documents"`
	Status         string                  `json:"status"`
	TotalQuantity  int64                   `json:"total_quantity"`
	TotalAmount    decimal.Decimal         `json:"total_amount"`
	Version        int                     `json:"version"`
	CreatedBy      string                  `json:"created_by,omitempty"`
	UpdatedBy      string                  `json:"updated_by,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

// ScanResponse is the context shown when a bundle's QR code is scanned at the gate
type ScanResponse struct {
	BundleID        uuid.UUID  `json:"bundle_id"`
	QRID            string     `json:"qr_id"`
	DeliveryStage   string     `json:"delivery_stage"`
	ProductID       uuid.UUID  `json:"product_id"`
	ProductName     string     `json:"product_name,omitempty"`
	VariantCode     string     `json:"variant_code,omitempty"`
	Dimensions      string     `json:"dimensions,omitempty"`
	SemiFinishedID  string     `json:"semi_finished_id"`
	PackedQuantity  int64      `json:"packed_quantity"`
	IWOID           *uuid.UUID `json:"iwo_id,omitempty"`
	IWODateFrom     *time.Time `json:"iwo_date_from,omitempty"`
	IWODateTo       *time.Time `json:"iwo_date_to,omitempty"`
	JobOrderID      *uuid.UUID `json:"job_order_id,omitempty"`
	JobOrderNumber  string     `json:"job_order_number,omitempty"`
	WorkOrderID     *uuid.UUID `json:"work_order_id,omitempty"`
	WorkOrderNumber string     `json:"work_order_number,omitempty"`
	ClientName      string     `json:"client_name,omitempty"`
	ProjectName     string     `json:"project_name,omitempty"`
}

// ToDispatchResponse converts a domain dispatch to a response
func ToDispatchResponse(d *dispatch.Dispatch) DispatchResponse {
	resp := DispatchResponse{
		ID:          d.ID,
		JobOrderID:  d.JobOrderID,
		WorkOrderID: d.WorkOrderID,
		BundleIDs:   d.BundleIDs,
		QRCodes:     d.QRCodes,
		Products:    d.Products,
		Hardware:    d.Hardware,
		Metadata: MetadataResponse{
			VehicleNumber: d.Metadata.VehicleNumber,
			DriverName:    d.Metadata.DriverName,
			DriverContact: d.Metadata.DriverContact,
			ContactPerson: d.Metadata.ContactPerson,
			InvoiceNumber: d.Metadata.InvoiceNumber,
			InvoiceDate:   d.Metadata.InvoiceDate,
			Remarks:       d.Metadata.Remarks,
		},
		GatePassNumber: d.GatePassNumber,
		DCNumber:       d.DCNumber,
		Documents:      d.Documents,
		Status:         d.Status.String(),
		TotalQuantity:  d.TotalQuantity(),
		TotalAmount:    d.TotalAmount(),
		Version:        d.Version,
		CreatedBy:      d.CreatedBy,
		UpdatedBy:      d.UpdatedBy,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	if resp.Hardware == nil {
		resp.Hardware = []dispatch.HardwareItem{}
	}
	if resp.Documents == nil {
		resp.Documents = []document.Ref{}
	}
	return resp
}

func toScanResponse(b *packing.PackingBundle, iwo *production.InternalWorkOrder, jo *production.JobOrder) ScanResponse {
	resp := ScanResponse{
		BundleID:       b.ID,
		QRID:           b.QRID,
		DeliveryStage:  b.DeliveryStage.String(),
		ProductID:      b.ProductID,
		ProductName:    b.ProductName,
		SemiFinishedID: b.SemiFinishedID,
		PackedQuantity: b.PackedQuantity,
		IWOID:          b.IWOID,
		JobOrderID:     b.JobOrderID,
		WorkOrderID:    b.WorkOrderID,
	}
	if iwo != nil {
		from, to := iwo.DateFrom, iwo.DateTo
		resp.IWODateFrom = &from
		resp.IWODateTo = &to
		for _, p := range iwo.Products {
			if p.ProductID != b.ProductID {
				continue
			}
			for _, s := range p.SemiFinishedItems {
				if s.ID == b.SemiFinishedID {
					resp.VariantCode = p.VariantCode
					resp.Dimensions = p.Dimensions
					if resp.ProductName == "" {
						resp.ProductName = p.ProductName
					}
				}
			}
		}
	}
	if jo != nil {
		resp.JobOrderNumber = jo.Number
		resp.WorkOrderNumber = jo.WorkOrderNumber
		resp.ClientName = jo.ClientName
		resp.ProjectName = jo.ProjectName
		if resp.WorkOrderID == nil {
			resp.WorkOrderID = jo.WorkOrderID
		}
	}
	return resp
}
