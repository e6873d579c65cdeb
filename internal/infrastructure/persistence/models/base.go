package models

import (
	"encoding/json"
	"time"

	"github.com/erp/production/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var modelLogger = zap.L().Named("persistence.models")

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel provides common persistence fields for aggregate roots.
// It extends BaseModel with version for optimistic locking.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// ToDomainAggregateRoot rebuilds the aggregate root header without pending events
func (m *AggregateModel) ToDomainAggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Version: m.Version,
	}
}

// ActorColumns stores who created and last modified a row
type ActorColumns struct {
	CreatedBy string `gorm:"type:varchar(100)"`
	UpdatedBy string `gorm:"type:varchar(100)"`
}

// ToDomain converts ActorColumns to domain Actors
func (a ActorColumns) ToDomain() shared.Actors {
	return shared.Actors{CreatedBy: a.CreatedBy, UpdatedBy: a.UpdatedBy}
}

func actorColumnsFromDomain(a shared.Actors) ActorColumns {
	return ActorColumns{CreatedBy: a.CreatedBy, UpdatedBy: a.UpdatedBy}
}

// marshalJSON serializes v, falling back to fallback when encoding fails
func marshalJSON(v any, fallback string) string {
	b, err := json.Marshal(v)
	if err != nil {
		modelLogger.Warn("failed to encode JSON column", zap.Error(err))
		return fallback
	}
	return string(b)
}

// unmarshalJSON decodes a JSON column into v, logging and leaving v untouched on failure
func unmarshalJSON(raw string, v any, column string, id uuid.UUID) {
	if raw == "" || raw == "null" {
		return
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		modelLogger.Warn("failed to parse JSON column",
			zap.String("column", column),
			zap.String("id", id.String()),
			zap.Error(err))
	}
}
