package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/erp/production/internal/domain/dispatch"
	"github.com/erp/production/internal/domain/packing"
	"github.com/erp/production/internal/domain/production"
	"github.com/erp/production/internal/domain/shared"
)

// ErrMeterNil is returned when PipelineMetrics is built without a meter.
var ErrMeterNil = errors.New("telemetry: meter is nil")

// PipelineMetrics turns pipeline domain events into counters.
// It subscribes to the event bus like any other handler.
type PipelineMetrics struct {
	logger *zap.Logger

	eventsTotal       *Counter
	allocatedPieces   *Counter
	achievedPieces    *Counter
	rejectedPieces    *Counter
	recycledPieces    *Counter
	reportSize        *Histogram
	bundlesCreated    *Counter
	bundlesSealed     *Counter
	sealedPieces      *Counter
	dispatchesCreated *Counter
	dispatchedPieces  *Counter
}

// NewPipelineMetrics creates the pipeline instruments on meter.
func NewPipelineMetrics(meter metric.Meter, logger *zap.Logger) (*PipelineMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pm := &PipelineMetrics{logger: logger}
	counters := []struct {
		target      **Counter
		name        string
		description string
		unit        string
	}{
		{&pm.eventsTotal, "pipeline_events_total", "Domain events observed by type", "{event}"},
		{&pm.allocatedPieces, "pipeline_allocated_pieces_total", "Pieces allocated to internal work orders", "{piece}"},
		{&pm.achievedPieces, "pipeline_achieved_pieces_total", "Pieces reported as achieved per process", "{piece}"},
		{&pm.rejectedPieces, "pipeline_rejected_pieces_total", "Pieces reported as rejected per process", "{piece}"},
		{&pm.recycledPieces, "pipeline_recycled_pieces_total", "Pieces reported as recycled per process", "{piece}"},
		{&pm.bundlesCreated, "pipeline_bundles_created_total", "Packing bundles created", "{bundle}"},
		{&pm.bundlesSealed, "pipeline_bundles_sealed_total", "Packing bundles sealed with a QR code", "{bundle}"},
		{&pm.sealedPieces, "pipeline_sealed_pieces_total", "Pieces inside sealed bundles", "{piece}"},
		{&pm.dispatchesCreated, "pipeline_dispatches_created_total", "Dispatch records created", "{dispatch}"},
		{&pm.dispatchedPieces, "pipeline_dispatched_pieces_total", "Pieces leaving the factory", "{piece}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(meter, c.name, c.description, c.unit)
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	var err error
	pm.reportSize, err = NewHistogram(meter, HistogramOpts{
		Name:        "pipeline_report_pieces",
		Description: "Pieces covered by a single production report",
		Unit:        "{piece}",
		Boundaries:  QuantityBuckets,
	})
	if err != nil {
		return nil, err
	}
	return pm, nil
}

// EventTypes returns the pipeline event types this handler counts.
func (m *PipelineMetrics) EventTypes() []string {
	return []string{
		production.EventTypeIWOCreated,
		production.EventTypeIWOUpdated,
		production.EventTypeIWODeleted,
		production.EventTypeProductionReported,
		packing.EventTypeBundleCreated,
		packing.EventTypeBundleSealed,
		dispatch.EventTypeDispatchCreated,
	}
}

// Handle records the event. It never fails so metrics cannot block the bus.
func (m *PipelineMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	m.eventsTotal.Inc(ctx, AttrEventType.String(event.EventType()))

	switch e := event.(type) {
	case *production.IWOCreatedEvent:
		for _, line := range e.Lines {
			m.allocatedPieces.Add(ctx, line.Quantity, AttrVariantCode.String(line.VariantCode))
		}
	case *production.ProductionReportedEvent:
		process := AttrProcessName.String(e.ProcessName)
		m.achievedPieces.Add(ctx, e.Achieved, process)
		m.rejectedPieces.Add(ctx, e.Rejected, process)
		m.recycledPieces.Add(ctx, e.Recycled, process)
		m.reportSize.Record(ctx, float64(e.Achieved+e.Rejected+e.Recycled), process)
	case *packing.BundleCreatedEvent:
		m.bundlesCreated.Inc(ctx)
	case *packing.BundleSealedEvent:
		m.bundlesSealed.Inc(ctx)
		m.sealedPieces.Add(ctx, e.Quantity)
	case *dispatch.DispatchCreatedEvent:
		m.dispatchesCreated.Inc(ctx)
		m.dispatchedPieces.Add(ctx, e.TotalQuantity)
	default:
		m.logger.Debug("No pipeline metric for event", zap.String("event_type", event.EventType()))
	}
	return nil
}

var _ shared.EventHandler = (*PipelineMetrics)(nil)
