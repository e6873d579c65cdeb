package production

import (
	"context"

	"github.com/erp/production/internal/domain/shared"
	"github.com/google/uuid"
)

// JobOrderRepository defines persistence operations for job orders
type JobOrderRepository interface {
	// FindByID finds a job order by ID
	FindByID(ctx context.Context, id uuid.UUID) (*JobOrder, error)
	// FindByIDForUpdate finds a job order and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*JobOrder, error)
	// Save creates or replaces a job order
	Save(ctx context.Context, jo *JobOrder) error
}

// IWOFilter narrows internal work order listings
type IWOFilter struct {
	shared.Filter
	JobOrderID *uuid.UUID
}

// IWORepository defines persistence operations for internal work orders
type IWORepository interface {
	// FindByID finds an internal work order by ID
	FindByID(ctx context.Context, id uuid.UUID) (*InternalWorkOrder, error)
	// FindByIDs finds every internal work order among ids
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*InternalWorkOrder, error)
	// FindAll lists internal work orders with the total count
	FindAll(ctx context.Context, filter IWOFilter) ([]*InternalWorkOrder, int64, error)
	// SumAllocated sums the allocated quantity for key across the job order's work orders,
	// leaving out excludeID when it is not nil
	SumAllocated(ctx context.Context, jobOrderID uuid.UUID, key ProductKey, excludeID *uuid.UUID) (int64, error)
	// AllocationTotals sums allocated quantity per key across the job order's work orders
	AllocationTotals(ctx context.Context, jobOrderID uuid.UUID) (map[ProductKey]int64, error)
	// Save creates a new internal work order
	Save(ctx context.Context, iwo *InternalWorkOrder) error
	// Update replaces an existing internal work order
	Update(ctx context.Context, iwo *InternalWorkOrder) error
	// Delete removes an internal work order
	Delete(ctx context.Context, id uuid.UUID) error
}

// LedgerFilter narrows process ledger listings
type LedgerFilter struct {
	IWOID          *uuid.UUID
	SemiFinishedID string
	Status         LedgerStatus
}

// LedgerRepository defines persistence operations for process ledger records
type LedgerRepository interface {
	// FindByID finds a record by ID
	FindByID(ctx context.Context, id uuid.UUID) (*ProcessLedgerRecord, error)
	// FindByIWO lists all records of a work order ordered by item and step index
	FindByIWO(ctx context.Context, iwoID uuid.UUID) ([]*ProcessLedgerRecord, error)
	// FindByIWOForUpdate is FindByIWO holding row locks until the transaction ends
	FindByIWOForUpdate(ctx context.Context, iwoID uuid.UUID) ([]*ProcessLedgerRecord, error)
	// FindChainForUpdate locks and returns one item's records ordered by step index
	FindChainForUpdate(ctx context.Context, iwoID uuid.UUID, semiFinishedID string) ([]*ProcessLedgerRecord, error)
	// FindTerminal finds the most recent finishing-step record of a semi-finished item
	FindTerminal(ctx context.Context, semiFinishedID string) (*ProcessLedgerRecord, error)
	// FindTerminalForUpdate is FindTerminal holding a row lock
	FindTerminalForUpdate(ctx context.Context, semiFinishedID string) (*ProcessLedgerRecord, error)
	// FindAll lists records matching the filter
	FindAll(ctx context.Context, filter LedgerFilter) ([]*ProcessLedgerRecord, error)
	// CreateBatch inserts new records
	CreateBatch(ctx context.Context, records []*ProcessLedgerRecord) error
	// UpdateBatch writes changed records
	UpdateBatch(ctx context.Context, records []*ProcessLedgerRecord) error
	// DeleteByIDs removes records by ID
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) error
	// DeleteByIWO removes every record of a work order and returns how many were removed
	DeleteByIWO(ctx context.Context, iwoID uuid.UUID) (int64, error)
}
