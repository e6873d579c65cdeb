package production

import (
	"github.com/erp/production/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constants
const (
	AggregateTypeInternalWorkOrder = "InternalWorkOrder"
	AggregateTypeProcessLedger     = "ProcessLedgerRecord"
)

// Event type constants
const (
	EventTypeIWOCreated         = "IWOCreated"
	EventTypeIWOUpdated         = "IWOUpdated"
	EventTypeIWODeleted         = "IWODeleted"
	EventTypeProductionReported = "ProductionReported"
)

// AllocationLine summarizes one allocated product line for events
type AllocationLine struct {
	ProductID   uuid.UUID `json:"product_id"`
	VariantCode string    `json:"variant_code"`
	Quantity    int64     `json:"quantity"`
}

func allocationLines(iwo *InternalWorkOrder) []AllocationLine {
	lines := make([]AllocationLine, len(iwo.Products))
	for i, p := range iwo.Products {
		lines[i] = AllocationLine{ProductID: p.ProductID, VariantCode: p.VariantCode, Quantity: p.Quantity}
	}
	return lines
}

// IWOCreatedEvent is raised when an internal work order is created
type IWOCreatedEvent struct {
	shared.BaseDomainEvent
	JobOrderID uuid.UUID        `json:"job_order_id"`
	Lines      []AllocationLine `json:"lines"`
}

// NewIWOCreatedEvent creates a new IWOCreatedEvent
func NewIWOCreatedEvent(iwo *InternalWorkOrder) *IWOCreatedEvent {
	return &IWOCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeIWOCreated, AggregateTypeInternalWorkOrder, iwo.ID),
		JobOrderID:      iwo.JobOrderID,
		Lines:           allocationLines(iwo),
	}
}

// IWOUpdatedEvent is raised when an internal work order is revised
type IWOUpdatedEvent struct {
	shared.BaseDomainEvent
	JobOrderID uuid.UUID        `json:"job_order_id"`
	Lines      []AllocationLine `json:"lines"`
}

// NewIWOUpdatedEvent creates a new IWOUpdatedEvent
func NewIWOUpdatedEvent(iwo *InternalWorkOrder) *IWOUpdatedEvent {
	return &IWOUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeIWOUpdated, AggregateTypeInternalWorkOrder, iwo.ID),
		JobOrderID:      iwo.JobOrderID,
		Lines:           allocationLines(iwo),
	}
}

// IWODeletedEvent is raised when an internal work order and its ledger are removed
type IWODeletedEvent struct {
	shared.BaseDomainEvent
	JobOrderID uuid.UUID `json:"job_order_id"`
}

// NewIWODeletedEvent creates a new IWODeletedEvent
func NewIWODeletedEvent(iwo *InternalWorkOrder) *IWODeletedEvent {
	return &IWODeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeIWODeleted, AggregateTypeInternalWorkOrder, iwo.ID),
		JobOrderID:      iwo.JobOrderID,
	}
}

// ProductionReportedEvent is raised when an operator reports output for a step
type ProductionReportedEvent struct {
	shared.BaseDomainEvent
	IWOID          uuid.UUID `json:"iwo_id"`
	SemiFinishedID string    `json:"semi_finished_id"`
	ProcessName    string    `json:"process_name"`
	Achieved       int64     `json:"achieved"`
	Rejected       int64     `json:"rejected"`
	Recycled       int64     `json:"recycled"`
}

// NewProductionReportedEvent creates a new ProductionReportedEvent
func NewProductionReportedEvent(r *ProcessLedgerRecord, rep ProductionReport) *ProductionReportedEvent {
	return &ProductionReportedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductionReported, AggregateTypeProcessLedger, r.ID),
		IWOID:           r.IWOID,
		SemiFinishedID:  r.SemiFinishedID,
		ProcessName:     r.ProcessName,
		Achieved:        rep.Achieved,
		Rejected:        rep.Rejected,
		Recycled:        rep.Recycled,
	}
}
