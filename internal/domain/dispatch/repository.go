package dispatch

import (
	"context"

	"github.com/erp/production/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter narrows dispatch listings
type Filter struct {
	shared.Filter
	JobOrderID *uuid.UUID
	Status     *Status
}

// Repository defines persistence operations for dispatches
type Repository interface {
	// FindByID finds a dispatch by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Dispatch, error)
	// FindAll lists dispatches with the total count
	FindAll(ctx context.Context, filter Filter) ([]*Dispatch, int64, error)
	// GatePassExists reports whether a gate pass number is in use
	GatePassExists(ctx context.Context, number string) (bool, error)
	// DCNumberExists reports whether a delivery challan number is in use
	DCNumberExists(ctx context.Context, number string) (bool, error)
	// Save creates a new dispatch
	Save(ctx context.Context, d *Dispatch) error
	// Update writes changed metadata of a dispatch
	Update(ctx context.Context, d *Dispatch) error
}
