package event

import (
	"github.com/erp/production/internal/domain/dispatch"
	"github.com/erp/production/internal/domain/packing"
	"github.com/erp/production/internal/domain/production"
)

// PipelineEventTypes lists every event raised by pipeline aggregates
var PipelineEventTypes = []string{
	production.EventTypeIWOCreated,
	production.EventTypeIWOUpdated,
	production.EventTypeIWODeleted,
	production.EventTypeProductionReported,
	packing.EventTypeBundleCreated,
	packing.EventTypeBundleSealed,
	dispatch.EventTypeDispatchCreated,
}

// RegisterPipelineEvents registers the pipeline event types with the serializer
func RegisterPipelineEvents(serializer *EventSerializer) {
	serializer.Register(production.EventTypeIWOCreated, &production.IWOCreatedEvent{})
	serializer.Register(production.EventTypeIWOUpdated, &production.IWOUpdatedEvent{})
	serializer.Register(production.EventTypeIWODeleted, &production.IWODeletedEvent{})
	serializer.Register(production.EventTypeProductionReported, &production.ProductionReportedEvent{})

	serializer.Register(packing.EventTypeBundleCreated, &packing.BundleCreatedEvent{})
	serializer.Register(packing.EventTypeBundleSealed, &packing.BundleSealedEvent{})

	serializer.Register(dispatch.EventTypeDispatchCreated, &dispatch.DispatchCreatedEvent{})
}
