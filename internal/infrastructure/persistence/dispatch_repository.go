package persistence

import (
	"context"
	"errors"

	"github.com/erp/production/internal/domain/dispatch"
	"github.com/erp/production/internal/domain/shared"
	"github.com/erp/production/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDispatchRepository implements dispatch.Repository using GORM
type GormDispatchRepository struct {
	db *gorm.DB
}

// NewGormDispatchRepository creates a new GormDispatchRepository
func NewGormDispatchRepository(db *gorm.DB) *GormDispatchRepository {
	return &GormDispatchRepository{db: db}
}

// FindByID finds a dispatch by its ID
func (r *GormDispatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*dispatch.Dispatch, error) {
	var model models.DispatchModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists dispatches matching the filter
func (r *GormDispatchRepository) FindAll(ctx context.Context, filter dispatch.Filter) ([]*dispatch.Dispatch, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.DispatchModel{})
	if filter.JobOrderID != nil {
		query = query.Where("job_order_id = ?", *filter.JobOrderID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.DispatchModel
	if err := applyPaging(query, filter.Filter, DispatchSortFields).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]*dispatch.Dispatch, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

// GatePassExists reports whether a dispatch already uses the gate pass number
func (r *GormDispatchRepository) GatePassExists(ctx context.Context, number string) (bool, error) {
	return r.exists(ctx, "gate_pass_number = ?", number)
}

// DCNumberExists reports whether a dispatch already uses the delivery challan number
func (r *GormDispatchRepository) DCNumberExists(ctx context.Context, number string) (bool, error) {
	return r.exists(ctx, "dc_number = ?", number)
}

func (r *GormDispatchRepository) exists(ctx context.Context, cond string, value string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.DispatchModel{}).Where(cond, value).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save inserts a new dispatch. A unique index violation on either number
// surfaces as CONFLICT so callers can tell it from other failures.
func (r *GormDispatchRepository) Save(ctx context.Context, d *dispatch.Dispatch) error {
	if err := r.db.WithContext(ctx).Create(models.DispatchModelFromDomain(d)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewDomainErrorf(shared.CodeConflict,
				"Gate pass %s or delivery challan %s is already in use", d.GatePassNumber, d.DCNumber)
		}
		return err
	}
	return nil
}

// Update writes metadata, hardware, status and documents with an optimistic
// version check. Bundles, numbers and product lines never change.
func (r *GormDispatchRepository) Update(ctx context.Context, d *dispatch.Dispatch) error {
	m := models.DispatchModelFromDomain(d)
	result := r.db.WithContext(ctx).Model(&models.DispatchModel{}).
		Where("id = ? AND version = ?", d.ID, d.Version-1).
		Updates(map[string]any{
			"hardware":       m.HardwareJSON,
			"vehicle_number": m.VehicleNumber,
			"driver_name":    m.DriverName,
			"driver_contact": m.DriverContact,
			"contact_person": m.ContactPerson,
			"invoice_number": m.InvoiceNumber,
			"invoice_date":   m.InvoiceDate,
			"remarks":        m.Remarks,
			"documents":      m.DocumentsJSON,
			"status":         m.Status,
			"updated_by":     m.UpdatedBy,
			"version":        m.Version,
			"updated_at":     updatedAt(m.UpdatedAt),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainErrorf(shared.CodeConflict, "Dispatch %s was modified concurrently", d.ID)
	}
	return nil
}

// Ensure GormDispatchRepository implements the interface
var _ dispatch.Repository = (*GormDispatchRepository)(nil)

