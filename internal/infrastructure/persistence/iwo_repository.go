package persistence

import (
	"context"
	"errors"

	"github.com/erp/production/internal/domain/production"
	"github.com/erp/production/internal/domain/shared"
	"github.com/erp/production/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormIWORepository implements production.IWORepository using GORM.
// Every write keeps iwo_products in line with the product tree.
type GormIWORepository struct {
	db *gorm.DB
}

// NewGormIWORepository creates a new GormIWORepository
func NewGormIWORepository(db *gorm.DB) *GormIWORepository {
	return &GormIWORepository{db: db}
}

// FindByID finds an internal work order by its ID
func (r *GormIWORepository) FindByID(ctx context.Context, id uuid.UUID) (*production.InternalWorkOrder, error) {
	var model models.InternalWorkOrderModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds every work order in ids; missing ids are skipped
func (r *GormIWORepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*production.InternalWorkOrder, error) {
	if len(ids) == 0 {
		return []*production.InternalWorkOrder{}, nil
	}
	var rows []models.InternalWorkOrderModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return iwosToDomain(rows), nil
}

// FindAll lists work orders, optionally for one job order
func (r *GormIWORepository) FindAll(ctx context.Context, filter production.IWOFilter) ([]*production.InternalWorkOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InternalWorkOrderModel{})
	if filter.JobOrderID != nil {
		query = query.Where("job_order_id = ?", *filter.JobOrderID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.InternalWorkOrderModel
	if err := applyPaging(query, filter.Filter, IWOSortFields).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return iwosToDomain(rows), total, nil
}

// SumAllocated totals the quantity allocated for key across the job order's
// work orders, leaving out excludeID when set
func (r *GormIWORepository) SumAllocated(ctx context.Context, jobOrderID uuid.UUID, key production.ProductKey, excludeID *uuid.UUID) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.IWOProductModel{}).
		Where("job_order_id = ? AND product_id = ? AND variant_code = ?", jobOrderID, key.ProductID, key.VariantCode)
	if excludeID != nil {
		query = query.Where("iwo_id <> ?", *excludeID)
	}

	var sum int64
	if err := query.Select("COALESCE(SUM(quantity), 0)").Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum, nil
}

// AllocationTotals returns the allocated quantity per product key of a job order
func (r *GormIWORepository) AllocationTotals(ctx context.Context, jobOrderID uuid.UUID) (map[production.ProductKey]int64, error) {
	var rows []struct {
		ProductID   uuid.UUID
		VariantCode string
		Total       int64
	}
	if err := r.db.WithContext(ctx).Model(&models.IWOProductModel{}).
		Select("product_id, variant_code, COALESCE(SUM(quantity), 0) AS total").
		Where("job_order_id = ?", jobOrderID).
		Group("product_id, variant_code").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make(map[production.ProductKey]int64, len(rows))
	for _, row := range rows {
		totals[production.NewProductKey(row.ProductID, row.VariantCode)] = row.Total
	}
	return totals, nil
}

// Save inserts a new work order with its allocation rows
func (r *GormIWORepository) Save(ctx context.Context, iwo *production.InternalWorkOrder) error {
	db := r.db.WithContext(ctx)
	if err := db.Create(models.InternalWorkOrderModelFromDomain(iwo)).Error; err != nil {
		return err
	}
	return r.writeAllocations(db, iwo)
}

// Update overwrites a stored work order and replaces its allocation rows
func (r *GormIWORepository) Update(ctx context.Context, iwo *production.InternalWorkOrder) error {
	db := r.db.WithContext(ctx)
	model := models.InternalWorkOrderModelFromDomain(iwo)
	result := db.Model(&models.InternalWorkOrderModel{}).
		Where("id = ?", iwo.ID).
		Updates(map[string]any{
			"date_from":  model.DateFrom,
			"date_to":    model.DateTo,
			"products":   model.ProductsJSON,
			"updated_by": model.UpdatedBy,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}

	if err := db.Where("iwo_id = ?", iwo.ID).Delete(&models.IWOProductModel{}).Error; err != nil {
		return err
	}
	return r.writeAllocations(db, iwo)
}

// Delete removes a work order and its allocation rows
func (r *GormIWORepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("iwo_id = ?", id).Delete(&models.IWOProductModel{}).Error; err != nil {
		return err
	}
	result := db.Delete(&models.InternalWorkOrderModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormIWORepository) writeAllocations(db *gorm.DB, iwo *production.InternalWorkOrder) error {
	rows := models.IWOProductModelsFromDomain(iwo)
	if len(rows) == 0 {
		return nil
	}
	return db.Create(&rows).Error
}

func iwosToDomain(rows []models.InternalWorkOrderModel) []*production.InternalWorkOrder {
	out := make([]*production.InternalWorkOrder, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

// Ensure GormIWORepository implements the interface
var _ production.IWORepository = (*GormIWORepository)(nil)
