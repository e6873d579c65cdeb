package persistence

import (
	"context"
	"errors"

	"github.com/erp/production/internal/domain/production"
	"github.com/erp/production/internal/domain/shared"
	"github.com/erp/production/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormJobOrderRepository implements production.JobOrderRepository using GORM
type GormJobOrderRepository struct {
	db *gorm.DB
}

// NewGormJobOrderRepository creates a new GormJobOrderRepository
func NewGormJobOrderRepository(db *gorm.DB) *GormJobOrderRepository {
	return &GormJobOrderRepository{db: db}
}

// FindByID finds a job order by its ID
func (r *GormJobOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*production.JobOrder, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a job order and locks its row until the transaction ends.
// Allocation checks hold this lock so concurrent work orders cannot over-allocate.
func (r *GormJobOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*production.JobOrder, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormJobOrderRepository) find(query *gorm.DB, id uuid.UUID) (*production.JobOrder, error) {
	var model models.JobOrderModel
	if err := query.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save inserts the job order or overwrites the stored copy
func (r *GormJobOrderRepository) Save(ctx context.Context, jo *production.JobOrder) error {
	model := models.JobOrderModelFromDomain(jo)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"number", "work_order_id", "work_order_number", "client_name",
				"project_name", "products", "version", "updated_at",
			}),
		}).
		Create(model).Error
}

// Ensure GormJobOrderRepository implements the interface
var _ production.JobOrderRepository = (*GormJobOrderRepository)(nil)
