package handler

import (
	"context"

	dispatchapp "github.com/erp/production/internal/application/dispatch"
	packingapp "github.com/erp/production/internal/application/packing"
	productionapp "github.com/erp/production/internal/application/production"
	"github.com/erp/production/internal/domain/dispatch"
	"github.com/erp/production/internal/domain/packing"
	"github.com/erp/production/internal/domain/production"
	"github.com/erp/production/internal/domain/shared"
	"github.com/google/uuid"
)

// JobOrderService is the job order surface used by JobOrderHandler
type JobOrderService interface {
	Sync(ctx context.Context, req productionapp.SyncJobOrderRequest) (*productionapp.JobOrderResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*productionapp.JobOrderResponse, error)
}

// AllocationService is the internal work order surface used by IWOHandler
type AllocationService interface {
	Create(ctx context.Context, req productionapp.CreateIWORequest) (*productionapp.IWOResponse, error)
	Update(ctx context.Context, id uuid.UUID, req productionapp.UpdateIWORequest) (*productionapp.IWOResponse, error)
	Delete(ctx context.Context, ids []uuid.UUID) (*productionapp.DeleteIWOResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*productionapp.IWODetailResponse, error)
	List(ctx context.Context, filter production.IWOFilter) (*shared.Paginated[productionapp.IWOResponse], error)
}

// LedgerService is the process ledger surface used by LedgerHandler
type LedgerService interface {
	Report(ctx context.Context, recordID uuid.UUID, req productionapp.ReportProductionRequest) ([]productionapp.LedgerRecordResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*productionapp.LedgerRecordResponse, error)
	List(ctx context.Context, filter production.LedgerFilter) ([]productionapp.LedgerRecordResponse, error)
}

// PackingService is the packing surface used by PackingHandler
type PackingService interface {
	CreateBundles(ctx context.Context, req packingapp.CreateBundlesRequest) ([]packingapp.BundleResponse, error)
	SealBatch(ctx context.Context, req packingapp.SealRequest) (*packingapp.SealReport, error)
	GetByID(ctx context.Context, id uuid.UUID) (*packingapp.BundleResponse, error)
	List(ctx context.Context, filter packing.BundleFilter) (*shared.Paginated[packingapp.BundleResponse], error)
}

// DispatchService is the dispatch surface used by DispatchHandler
type DispatchService interface {
	Create(ctx context.Context, req dispatchapp.CreateDispatchRequest) (*dispatchapp.DispatchResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dispatchapp.UpdateDispatchRequest) (*dispatchapp.DispatchResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dispatchapp.DispatchResponse, error)
	List(ctx context.Context, filter dispatch.Filter) (*shared.Paginated[dispatchapp.DispatchResponse], error)
	ScanQR(ctx context.Context, qrID string) (*dispatchapp.ScanResponse, error)
}

var (
	_ JobOrderService   = (*productionapp.JobOrderService)(nil)
	_ AllocationService = (*productionapp.AllocationService)(nil)
	_ LedgerService     = (*productionapp.LedgerService)(nil)
	_ PackingService    = (*packingapp.PackingService)(nil)
	_ DispatchService   = (*dispatchapp.DispatchService)(nil)
)
