package production

import (
	"context"
	"errors"

	"github.com/erp/production/internal/domain/shared"
)

// abortError surfaces a failed multi-write operation. Domain errors raised
// by validation keep their kind; anything else (a failed write or commit)
// is reported as TRANSACTION_ABORTED wrapping the cause.
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

// publishDomainEvents publishes and clears the pending events of each aggregate.
// Publishing happens after commit; handler failures are logged by the bus.
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
