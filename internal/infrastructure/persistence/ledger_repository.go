package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/production/internal/domain/production"
	"github.com/erp/production/internal/domain/shared"
	"github.com/erp/production/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const ledgerBatchSize = 200

// GormLedgerRepository implements production.LedgerRepository using GORM
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// FindByID finds a ledger record by its ID
func (r *GormLedgerRepository) FindByID(ctx context.Context, id uuid.UUID) (*production.ProcessLedgerRecord, error) {
	var model models.ProcessLedgerRecordModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIWO returns every record of a work order ordered by chain and step
func (r *GormLedgerRepository) FindByIWO(ctx context.Context, iwoID uuid.UUID) ([]*production.ProcessLedgerRecord, error) {
	return r.findByIWO(r.db.WithContext(ctx), iwoID)
}

// FindByIWOForUpdate locks every record of a work order so that production
// reports cannot commit between a reconcile read and its write
func (r *GormLedgerRepository) FindByIWOForUpdate(ctx context.Context, iwoID uuid.UUID) ([]*production.ProcessLedgerRecord, error) {
	return r.findByIWO(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), iwoID)
}

func (r *GormLedgerRepository) findByIWO(query *gorm.DB, iwoID uuid.UUID) ([]*production.ProcessLedgerRecord, error) {
	var rows []models.ProcessLedgerRecordModel
	if err := query.
		Where("iwo_id = ?", iwoID).
		Order("product_id, variant_code, semi_finished_id, step_index").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return ledgerToDomain(rows), nil
}

// FindChainForUpdate locks and returns one semi-finished chain in step order
func (r *GormLedgerRepository) FindChainForUpdate(ctx context.Context, iwoID uuid.UUID, semiFinishedID string) ([]*production.ProcessLedgerRecord, error) {
	var rows []models.ProcessLedgerRecordModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("iwo_id = ? AND semi_finished_id = ?", iwoID, semiFinishedID).
		Order("step_index").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return ledgerToDomain(rows), nil
}

// FindTerminal returns the finishing step record of a semi-finished item, or nil when none exists
func (r *GormLedgerRepository) FindTerminal(ctx context.Context, semiFinishedID string) (*production.ProcessLedgerRecord, error) {
	return r.findTerminal(r.db.WithContext(ctx), semiFinishedID)
}

// FindTerminalForUpdate is FindTerminal holding a row lock until the transaction ends
func (r *GormLedgerRepository) FindTerminalForUpdate(ctx context.Context, semiFinishedID string) (*production.ProcessLedgerRecord, error) {
	return r.findTerminal(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), semiFinishedID)
}

func (r *GormLedgerRepository) findTerminal(query *gorm.DB, semiFinishedID string) (*production.ProcessLedgerRecord, error) {
	var rows []models.ProcessLedgerRecordModel
	if err := query.
		Where("semi_finished_id = ? AND is_terminal = ?", semiFinishedID, true).
		Order("created_at DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].ToDomain(), nil
}

// FindAll lists records matching the filter
func (r *GormLedgerRepository) FindAll(ctx context.Context, filter production.LedgerFilter) ([]*production.ProcessLedgerRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.ProcessLedgerRecordModel{})
	if filter.IWOID != nil {
		query = query.Where("iwo_id = ?", *filter.IWOID)
	}
	if filter.SemiFinishedID != "" {
		query = query.Where("semi_finished_id = ?", filter.SemiFinishedID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var rows []models.ProcessLedgerRecordModel
	if err := query.Order("iwo_id, semi_finished_id, step_index").Find(&rows).Error; err != nil {
		return nil, err
	}
	return ledgerToDomain(rows), nil
}

// CreateBatch inserts records in batches
func (r *GormLedgerRepository) CreateBatch(ctx context.Context, records []*production.ProcessLedgerRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]*models.ProcessLedgerRecordModel, len(records))
	for i, rec := range records {
		rows[i] = models.ProcessLedgerRecordModelFromDomain(rec)
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, ledgerBatchSize).Error
}

// UpdateBatch writes counters, status, snapshot and sequence of each record.
// Callers hold the chain lock, so rows are matched by id only.
func (r *GormLedgerRepository) UpdateBatch(ctx context.Context, records []*production.ProcessLedgerRecord) error {
	db := r.db.WithContext(ctx)
	for _, rec := range records {
		m := models.ProcessLedgerRecordModelFromDomain(rec)
		result := db.Model(&models.ProcessLedgerRecordModel{}).
			Where("id = ?", rec.ID).
			Updates(map[string]any{
				"product_name":       m.ProductName,
				"dimensions":         m.Dimensions,
				"allocated_quantity": m.AllocatedQuantity,
				"step_index":         m.StepIndex,
				"is_terminal":        m.IsTerminal,
				"sequence":           m.SequenceJSON,
				"available_quantity": m.AvailableQuantity,
				"achieved_quantity":  m.AchievedQuantity,
				"rejected_quantity":  m.RejectedQuantity,
				"recycled_quantity":  m.RecycledQuantity,
				"status":             m.Status,
				"updated_by":         m.UpdatedBy,
				"version":            m.Version,
				"updated_at":         updatedAt(m.UpdatedAt),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainErrorf(shared.CodeNotFound, "Ledger record %s not found", rec.ID)
		}
	}
	return nil
}

// DeleteByIDs removes the given records
func (r *GormLedgerRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.ProcessLedgerRecordModel{}).Error
}

// DeleteByIWO removes every record of a work order and returns how many were removed
func (r *GormLedgerRepository) DeleteByIWO(ctx context.Context, iwoID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("iwo_id = ?", iwoID).Delete(&models.ProcessLedgerRecordModel{})
	return result.RowsAffected, result.Error
}

func ledgerToDomain(rows []models.ProcessLedgerRecordModel) []*production.ProcessLedgerRecord {
	out := make([]*production.ProcessLedgerRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

func updatedAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

// Ensure GormLedgerRepository implements the interface
var _ production.LedgerRepository = (*GormLedgerRepository)(nil)
