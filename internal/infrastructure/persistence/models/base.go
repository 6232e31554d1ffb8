// Package models contains GORM persistence models. Domain entities stay free of
// ORM tags; each model converts to and from its entity with ToDomain/FromDomain.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/shared"
)

// BaseModel provides the identity and audit columns shared by every table.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// All lists every model in dependency order, for AutoMigrate in tests and local sqlite runs
func All() []any {
	return []any{
		&ProductTemplateModel{},
		&ProductVariantModel{},
		&DesignAreaModel{},
		&CartModel{},
		&CartLineModel{},
		&PersonalizationModel{},
	}
}
