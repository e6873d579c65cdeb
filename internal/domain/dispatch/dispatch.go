// Package dispatch models shipment events that consume packed bundles.
package dispatch

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/erp/production/internal/domain/document"
	"github.com/erp/production/internal/domain/packing"
	"github.com/erp/production/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the approval state of a dispatch
type Status string

// Dispatch statuses
const (
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// IsValid checks if the status is a known value
func (s Status) IsValid() bool {
	return s == StatusApproved || s == StatusRejected
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// ProductLine is the shipped quantity of one semi-finished item with its pricing
type ProductLine struct {
	ProductID      uuid.UUID       `json:"product_id"`
	SemiFinishedID string          `json:"semi_finished_id"`
	Quantity       int64           `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Amount         decimal.Decimal `json:"amount"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
}

// LineKey identifies a product line
type LineKey struct {
	ProductID      uuid.UUID
	SemiFinishedID string
}

// Key returns the line key
func (l ProductLine) Key() LineKey {
	return LineKey{ProductID: l.ProductID, SemiFinishedID: l.SemiFinishedID}
}

// PriceLine is a caller supplied breakdown for one product line.
// Zero quantity means "use the bundle total".
type PriceLine struct {
	ProductID      uuid.UUID
	SemiFinishedID string
	Quantity       int64
	UnitPrice      decimal.Decimal
	Amount         *decimal.Decimal
	TaxRate        decimal.Decimal
}

// HardwareItem is an accessory line shipped with the dispatch
type HardwareItem struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
	Unit     string `json:"unit,omitempty"`
}

// Metadata is the vehicle, contact and invoice information of a dispatch
type Metadata struct {
	VehicleNumber string
	DriverName    string
	DriverContact string
	ContactPerson string
	InvoiceNumber string
	InvoiceDate   *time.Time
	Remarks       string
}

// Dispatch is one shipment event subsuming a set of packed bundles
type Dispatch struct {
	shared.BaseAggregateRoot
	JobOrderID     uuid.UUID
	WorkOrderID    *uuid.UUID
	BundleIDs      []uuid.UUID
	QRCodes        []string
	Products       []ProductLine
	Hardware       []HardwareItem
	Metadata       Metadata
	GatePassNumber string
	DCNumber       string
	Documents      []document.Ref
	Status         Status
	shared.Actors
}

// NewDispatch creates an approved dispatch from resolved bundles.
// Bundles must all be Packed; offending QR codes are listed in the error.
func NewDispatch(jobOrderID uuid.UUID, bundles []*packing.PackingBundle, breakdown []PriceLine, meta Metadata, hardware []HardwareItem, actor string) (*Dispatch, error) {
	if jobOrderID == uuid.Nil {
		return nil, shared.NewValidationError(shared.ValidationError{Field: "job_order_id", Message: "is required"})
	}
	if len(bundles) == 0 {
		return nil, shared.NewDomainError(shared.CodeNotFound, "No packed bundles match the scanned QR codes")
	}
	if err := EnsureAllPacked(bundles); err != nil {
		return nil, err
	}
	if err := validateHardware(hardware); err != nil {
		return nil, err
	}
	lines, err := AggregateLines(bundles, breakdown)
	if err != nil {
		return nil, err
	}

	d := &Dispatch{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		JobOrderID:        jobOrderID,
		Products:          lines,
		Hardware:          hardware,
		Metadata:          meta,
		Status:            StatusApproved,
		Actors:            shared.Actors{CreatedBy: actor, UpdatedBy: actor},
	}
	for _, b := range bundles {
		d.BundleIDs = append(d.BundleIDs, b.ID)
		d.QRCodes = append(d.QRCodes, b.QRID)
		if d.WorkOrderID == nil && b.WorkOrderID != nil {
			d.WorkOrderID = b.WorkOrderID
		}
	}
	return d, nil
}

// AssignNumbers sets the gate pass and delivery challan numbers and raises the creation event
func (d *Dispatch) AssignNumbers(gatePass, dcNumber string) {
	d.GatePassNumber = gatePass
	d.DCNumber = dcNumber
	d.AddDomainEvent(NewDispatchCreatedEvent(d))
}

// Patch is a metadata and document change to an existing dispatch
type Patch struct {
	Metadata  *Metadata
	Hardware  []HardwareItem
	Status    *Status
	Documents []document.Ref
}

// Apply changes metadata, hardware, status and documents only; quantities and bundles never change
func (d *Dispatch) Apply(p Patch, actor string) error {
	if p.Status != nil && !p.Status.IsValid() {
		return shared.NewValidationError(shared.ValidationError{Field: "status", Message: "must be Approved or Rejected"})
	}
	if p.Hardware != nil {
		if err := validateHardware(p.Hardware); err != nil {
			return err
		}
		d.Hardware = p.Hardware
	}
	if p.Metadata != nil {
		d.Metadata = *p.Metadata
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	d.Documents = append(d.Documents, p.Documents...)
	d.UpdatedBy = actor
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
	return nil
}

// TotalQuantity sums shipped quantity across product lines
func (d *Dispatch) TotalQuantity() int64 {
	var total int64
	for _, l := range d.Products {
		total += l.Quantity
	}
	return total
}

// TotalAmount sums line amounts
func (d *Dispatch) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, l := range d.Products {
		total = total.Add(l.Amount)
	}
	return total
}

// EnsureAllPacked fails with ALREADY_DISPATCHED listing every bundle not in Packed stage
func EnsureAllPacked(bundles []*packing.PackingBundle) error {
	var offending []string
	for _, b := range bundles {
		if b.DeliveryStage != packing.DeliveryStagePacked {
			label := b.QRID
			if label == "" {
				label = b.ID.String()
			}
			offending = append(offending, label)
		}
	}
	if len(offending) > 0 {
		return shared.NewDomainErrorf(shared.CodeAlreadyDispatched,
			"Bundles not available for dispatch: %s", strings.Join(offending, ", "))
	}
	return nil
}

// AggregateLines sums bundle quantities per (product, semi-finished item).
// A breakdown line matching an aggregated key supplies pricing and may ship
// less than the bundle total, never more.
func AggregateLines(bundles []*packing.PackingBundle, breakdown []PriceLine) ([]ProductLine, error) {
	totals := make(map[LineKey]int64)
	var order []LineKey
	for _, b := range bundles {
		key := LineKey{ProductID: b.ProductID, SemiFinishedID: b.SemiFinishedID}
		if _, ok := totals[key]; !ok {
			order = append(order, key)
		}
		totals[key] += b.PackedQuantity
	}
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].ProductID != order[j].ProductID {
			return order[i].ProductID.String() < order[j].ProductID.String()
		}
		return order[i].SemiFinishedID < order[j].SemiFinishedID
	})

	prices := make(map[LineKey]PriceLine, len(breakdown))
	for _, p := range breakdown {
		prices[LineKey{ProductID: p.ProductID, SemiFinishedID: strings.TrimSpace(p.SemiFinishedID)}] = p
	}

	lines := make([]ProductLine, 0, len(order))
	for _, key := range order {
		line := ProductLine{ProductID: key.ProductID, SemiFinishedID: key.SemiFinishedID, Quantity: totals[key]}
		if p, ok := prices[key]; ok {
			if p.Quantity < 0 || p.Quantity > totals[key] {
				return nil, shared.NewDomainErrorf(shared.CodeQuantityExceeded,
					"Dispatch quantity for %s exceeds packed bundles: packed %d, requested %d",
					key.SemiFinishedID, totals[key], p.Quantity)
			}
			if p.Quantity > 0 {
				line.Quantity = p.Quantity
			}
			line.UnitPrice = p.UnitPrice
			line.TaxRate = p.TaxRate
			if p.Amount != nil {
				line.Amount = *p.Amount
			} else {
				line.Amount = p.UnitPrice.Mul(decimal.NewFromInt(line.Quantity))
			}
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func validateHardware(items []HardwareItem) error {
	var details []shared.ValidationError
	for i, h := range items {
		if strings.TrimSpace(h.Name) == "" {
			details = append(details, shared.ValidationError{Field: fmt.Sprintf("hardware[%d].name", i), Message: "is required"})
		}
		if h.Quantity <= 0 {
			details = append(details, shared.ValidationError{Field: fmt.Sprintf("hardware[%d].quantity", i), Message: "must be positive"})
		}
	}
	if len(details) > 0 {
		return shared.NewValidationError(details...)
	}
	return nil
}
