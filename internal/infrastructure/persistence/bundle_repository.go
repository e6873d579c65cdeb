package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/production/internal/domain/packing"
	"github.com/erp/production/internal/domain/shared"
	"github.com/erp/production/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBundleRepository implements packing.BundleRepository using GORM
type GormBundleRepository struct {
	db *gorm.DB
}

// NewGormBundleRepository creates a new GormBundleRepository
func NewGormBundleRepository(db *gorm.DB) *GormBundleRepository {
	return &GormBundleRepository{db: db}
}

// FindByID finds a bundle by its ID
func (r *GormBundleRepository) FindByID(ctx context.Context, id uuid.UUID) (*packing.PackingBundle, error) {
	return r.findOne(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByIDForUpdate finds a bundle and locks its row until the transaction ends
func (r *GormBundleRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*packing.PackingBundle, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

// FindByQRID finds the bundle sealed with qrID
func (r *GormBundleRepository) FindByQRID(ctx context.Context, qrID string) (*packing.PackingBundle, error) {
	return r.findOne(r.db.WithContext(ctx).Where("qr_id = ?", qrID))
}

func (r *GormBundleRepository) findOne(query *gorm.DB) (*packing.PackingBundle, error) {
	var model models.PackingBundleModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByQRIDsForUpdate locks and returns every bundle sealed with one of qrIDs.
// Unknown codes are skipped; the caller decides whether that is an error.
func (r *GormBundleRepository) FindByQRIDsForUpdate(ctx context.Context, qrIDs []string) ([]*packing.PackingBundle, error) {
	if len(qrIDs) == 0 {
		return []*packing.PackingBundle{}, nil
	}
	var rows []models.PackingBundleModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("qr_id IN ?", qrIDs).
		Order("qr_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return bundlesToDomain(rows), nil
}

// QRIDTaken reports whether another bundle already carries qrID
func (r *GormBundleRepository) QRIDTaken(ctx context.Context, qrID string, excludeID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PackingBundleModel{}).
		Where("qr_id = ? AND id <> ?", qrID, excludeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SumPacked totals the packed quantity of every bundle of a semi-finished item
func (r *GormBundleRepository) SumPacked(ctx context.Context, semiFinishedID string) (int64, error) {
	var sum int64
	if err := r.db.WithContext(ctx).Model(&models.PackingBundleModel{}).
		Select("COALESCE(SUM(packed_quantity), 0)").
		Where("semi_finished_id = ?", semiFinishedID).
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum, nil
}

// FindAll lists bundles matching the filter
func (r *GormBundleRepository) FindAll(ctx context.Context, filter packing.BundleFilter) ([]*packing.PackingBundle, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PackingBundleModel{})
	if filter.SemiFinishedID != "" {
		query = query.Where("semi_finished_id = ?", filter.SemiFinishedID)
	}
	if filter.Stage != nil {
		query = query.Where("delivery_stage = ?", *filter.Stage)
	}
	if filter.JobOrderID != nil {
		query = query.Where("job_order_id = ?", *filter.JobOrderID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.PackingBundleModel
	if err := applyPaging(query, filter.Filter, BundleSortFields).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return bundlesToDomain(rows), total, nil
}

// Save inserts a new bundle.
// A QR id already bound to another bundle surfaces as CONFLICT.
func (r *GormBundleRepository) Save(ctx context.Context, b *packing.PackingBundle) error {
	if err := r.db.WithContext(ctx).Create(models.PackingBundleModelFromDomain(b)).Error; err != nil {
		return qrConflict(err, b)
	}
	return nil
}

func qrConflict(err error, b *packing.PackingBundle) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) && b.QRID != "" {
		return shared.NewDomainErrorf(shared.CodeConflict, "QR %s is already bound to another bundle", b.QRID)
	}
	return err
}

// Update writes the seal, stage and documents of a bundle
func (r *GormBundleRepository) Update(ctx context.Context, b *packing.PackingBundle) error {
	m := models.PackingBundleModelFromDomain(b)
	result := r.db.WithContext(ctx).Model(&models.PackingBundleModel{}).
		Where("id = ?", b.ID).
		Updates(map[string]any{
			"work_order_id":  m.WorkOrderID,
			"job_order_id":   m.JobOrderID,
			"iwo_id":         m.IWOID,
			"product_name":   m.ProductName,
			"documents":      m.DocumentsJSON,
			"delivery_stage": m.DeliveryStage,
			"qr_id":          m.QRID,
			"qr_code":        m.QRCode,
			"sealed_at":      m.SealedAt,
			"updated_by":     m.UpdatedBy,
			"version":        m.Version,
			"updated_at":     updatedAt(m.UpdatedAt),
		})
	if result.Error != nil {
		return qrConflict(result.Error, b)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// TransitionStage moves the bundles in ids from one stage to another.
// Only rows still in from are changed; the returned count lets callers
// detect bundles that moved concurrently.
func (r *GormBundleRepository) TransitionStage(ctx context.Context, ids []uuid.UUID, from, to packing.DeliveryStage) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&models.PackingBundleModel{}).
		Where("id IN ? AND delivery_stage = ?", ids, from).
		Updates(map[string]any{
			"delivery_stage": to,
			"version":        gorm.Expr("version + 1"),
			"updated_at":     time.Now(),
		})
	return result.RowsAffected, result.Error
}

func bundlesToDomain(rows []models.PackingBundleModel) []*packing.PackingBundle {
	out := make([]*packing.PackingBundle, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

// Ensure GormBundleRepository implements the interface
var _ packing.BundleRepository = (*GormBundleRepository)(nil)
