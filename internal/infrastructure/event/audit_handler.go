package event

import (
	"context"

	"github.com/erp/production/internal/domain/shared"
	"github.com/erp/production/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AuditLogHandler writes every pipeline event to the structured log.
// The payload is serialized so log pipelines can reconstruct the change.
type AuditLogHandler struct {
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewAuditLogHandler creates an audit handler
func NewAuditLogHandler(serializer *EventSerializer, logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{serializer: serializer, logger: logger.Named("audit")}
}

// EventTypes returns the event types registered with the serializer
func (h *AuditLogHandler) EventTypes() []string {
	return h.serializer.RegisteredTypes()
}

// Handle logs the event with its request context
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := h.serializer.Serialize(event)
	if err != nil {
		return err
	}
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
		zap.ByteString("payload", payload),
	}
	if requestID := logger.GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if actor := logger.GetActor(ctx); actor != "" {
		fields = append(fields, zap.String("actor", actor))
	}
	h.logger.Info("pipeline event", fields...)
	return nil
}

// Ensure AuditLogHandler implements EventHandler
var _ shared.EventHandler = (*AuditLogHandler)(nil)
