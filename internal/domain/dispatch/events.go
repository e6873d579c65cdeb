package dispatch

import (
	"github.com/erp/production/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeDispatch = "Dispatch"

// Event type constants
const (
	EventTypeDispatchCreated = "DispatchCreated"
)

// DispatchCreatedEvent is raised when bundles leave the factory
type DispatchCreatedEvent struct {
	shared.BaseDomainEvent
	JobOrderID     uuid.UUID   `json:"job_order_id"`
	BundleIDs      []uuid.UUID `json:"bundle_ids"`
	GatePassNumber string      `json:"gate_pass_number"`
	DCNumber       string      `json:"dc_number"`
	TotalQuantity  int64       `json:"total_quantity"`
}

// NewDispatchCreatedEvent creates a new DispatchCreatedEvent
func NewDispatchCreatedEvent(d *Dispatch) *DispatchCreatedEvent {
	return &DispatchCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDispatchCreated, AggregateTypeDispatch, d.ID),
		JobOrderID:      d.JobOrderID,
		BundleIDs:       d.BundleIDs,
		GatePassNumber:  d.GatePassNumber,
		DCNumber:        d.DCNumber,
		TotalQuantity:   d.TotalQuantity(),
	}
}
