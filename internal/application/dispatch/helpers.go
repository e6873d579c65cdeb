package dispatch

import (
	"context"
	"errors"

	"github.com/erp/production/internal/domain/shared"
)

// abortError keeps domain errors as they are and reports anything else as TRANSACTION_ABORTED
func abortError(err error) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	return shared.WrapTransactionAborted(err)
}

func publishDomainEvents(ctx context.Context, publisher shared.EventPublisher, aggs ...shared.AggregateRoot) {
	if publisher == nil {
		return
	}
	for _, agg := range aggs {
		events := agg.GetDomainEvents()
		if len(events) == 0 {
			continue
		}
		_ = publisher.Publish(ctx, events...)
		agg.ClearDomainEvents()
	}
}
