package packing

import (
	"time"

	"github.com/erp/production/internal/domain/document"
	"github.com/erp/production/internal/domain/packing"
	"github.com/google/uuid"
)

// BundleItemInput is one bundle to pack
type BundleItemInput struct {
	ProductID        uuid.UUID
	ProductName      string
	SemiFinishedID   string
	Quantity         int64
	RejectedQuantity int64
}

// CreateBundlesRequest packs several bundles at once. Documents are attached to every created bundle.
type CreateBundlesRequest struct {
	Items     []BundleItemInput
	Documents []document.Upload
	Actor     string
}

// SealItem pairs a bundle with the QR identifier to seal it with
type SealItem struct {
	BundleID uuid.UUID
	QRCodeID string
}

// SealRequest seals a batch of bundles
type SealRequest struct {
	Items []SealItem
	Actor string
}

// BundleResponse represents a packing bundle in API responses
type BundleResponse struct {
	ID               uuid.UUID      `json:"id"`
	WorkOrderID      *uuid.UUID     `json:"work_order_id,omitempty"`
	JobOrderID       *uuid.UUID     `json:"job_order_id,omitempty"`
	IWOID            *uuid.UUID     `json:"iwo_id,omitempty"`
	ProductID        uuid.UUID      `json:"product_id"`
	ProductName      string         `json:"product_name,omitempty"`
	SemiFinishedID   string         `json:"semi_finished_id"`
	PackedQuantity   int64          `json:"packed_quantity"`
	RejectedQuantity int64          `json:"rejected_quantity"`
	Documents        []document.Ref `json:"documents"`
	DeliveryStage    string         `json:"delivery_stage,omitempty"`
	QRID             string         `json:"qr_id,omitempty"`
	QRCode           string         `json:"qr_code,omitempty"`
	SealedAt         *time.Time     `json:"sealed_at,omitempty"`
	Version          int            `json:"version"`
	CreatedBy        string         `json:"created_by,omitempty"`
	UpdatedBy        string         `json:"updated_by,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// SealFailure describes one pair of a seal batch that could not be sealed
type SealFailure struct {
	BundleID uuid.UUID `json:"bundle_id"`
	QRCodeID string    `json:"qr_code_id"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
}

// SealReport is the partial-success result of a seal batch
type SealReport struct {
	Succeeded []BundleResponse `json:"succeeded"`
	Failed    []SealFailure    `json:"failed"`
}

// ToBundleResponse converts a domain bundle to a response
func ToBundleResponse(b *packing.PackingBundle) BundleResponse {
	docs := b.Documents
	if docs == nil {
		docs = []document.Ref{}
	}
	return BundleResponse{
		ID:               b.ID,
		WorkOrderID:      b.WorkOrderID,
		JobOrderID:       b.JobOrderID,
		IWOID:            b.IWOID,
		ProductID:        b.ProductID,
		ProductName:      b.ProductName,
		SemiFinishedID:   b.SemiFinishedID,
		PackedQuantity:   b.PackedQuantity,
		RejectedQuantity: b.RejectedQuantity,
		Documents:        docs,
		DeliveryStage:    string(b.DeliveryStage),
		QRID:             b.QRID,
		QRCode:           b.QRCode,
		SealedAt:         b.SealedAt,
		Version:          b.Version,
		CreatedBy:        b.CreatedBy,
		UpdatedBy:        b.UpdatedBy,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

// ToBundleResponses converts a list of domain bundles
func ToBundleResponses(bundles []*packing.PackingBundle) []BundleResponse {
	out := make([]BundleResponse, len(bundles))
	for i, b := range bundles {
		out[i] = ToBundleResponse(b)
	}
	return out
}
