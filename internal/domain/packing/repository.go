package packing

import (
	"context"

	"github.com/erp/production/internal/domain/shared"
	"github.com/google/uuid"
)

// BundleFilter narrows bundle listings
type BundleFilter struct {
	shared.Filter
	SemiFinishedID string
	Stage          *DeliveryStage
	JobOrderID     *uuid.UUID
}

// BundleRepository defines persistence operations for packing bundles
type BundleRepository interface {
	// FindByID finds a bundle by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PackingBundle, error)
	// FindByIDForUpdate finds a bundle and locks its row
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*PackingBundle, error)
	// FindByQRID finds the bundle sealed with qrID
	FindByQRID(ctx context.Context, qrID string) (*PackingBundle, error)
	// FindByQRIDsForUpdate locks and returns every bundle sealed with one of qrIDs
	FindByQRIDsForUpdate(ctx context.Context, qrIDs []string) ([]*PackingBundle, error)
	// QRIDTaken reports whether another bundle than excludeID already uses qrID
	QRIDTaken(ctx context.Context, qrID string, excludeID uuid.UUID) (bool, error)
	// SumPacked sums packed quantity over all bundles of a semi-finished item
	SumPacked(ctx context.Context, semiFinishedID string) (int64, error)
	// FindAll lists bundles with the total count
	FindAll(ctx context.Context, filter BundleFilter) ([]*PackingBundle, int64, error)
	// Save creates a new bundle
	Save(ctx context.Context, b *PackingBundle) error
	// Update writes a changed bundle
	Update(ctx context.Context, b *PackingBundle) error
	// TransitionStage moves bundles from one stage to another and returns how many rows moved
	TransitionStage(ctx context.Context, ids []uuid.UUID, from, to DeliveryStage) (int64, error)
}
