package models

import (
	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/personalization"
)

// PersonalizationModel is the persistence model for personalization.Personalization.
// The scene is stored as plain text rather than a JSON column: stored text may be
// malformed and must still load so it can degrade to the empty scene.
type PersonalizationModel struct {
	BaseModel
	LineID       uuid.UUID  `gorm:"column:line_id;type:uuid;not null;uniqueIndex:idx_personalizations_line_area_key,priority:1"`
	OrderID      uuid.UUID  `gorm:"column:order_id;type:uuid;index"`
	AreaKey      string     `gorm:"column:area_key;type:varchar(64);not null;uniqueIndex:idx_personalizations_line_area_key,priority:2"`
	Title        string     `gorm:"column:title;type:varchar(200)"`
	DesignAreaID *uuid.UUID `gorm:"column:design_area_id;type:uuid"`
	Scene        string     `gorm:"column:scene;type:text"`
	Preview      []byte     `gorm:"column:preview;type:bytea"`
	FinalImage   []byte     `gorm:"column:final_image;type:bytea"`
}

// TableName returns the table name for GORM
func (PersonalizationModel) TableName() string {
	return "personalizations"
}

// ToDomain converts the model to a domain record
func (m *PersonalizationModel) ToDomain() *personalization.Personalization {
	return &personalization.Personalization{
		BaseEntity:   m.BaseModel.ToDomain(),
		LineID:       m.LineID,
		OrderID:      m.OrderID,
		AreaKey:      m.AreaKey,
		Title:        m.Title,
		DesignAreaID: m.DesignAreaID,
		Scene:        m.Scene,
		Preview:      m.Preview,
		FinalImage:   m.FinalImage,
	}
}

// PersonalizationModelFromDomain creates a persistence model from a domain record
func PersonalizationModelFromDomain(p *personalization.Personalization) *PersonalizationModel {
	m := &PersonalizationModel{
		LineID:       p.LineID,
		OrderID:      p.OrderID,
		AreaKey:      p.AreaKey,
		Title:        p.Title,
		DesignAreaID: p.DesignAreaID,
		Scene:        p.Scene,
		Preview:      p.Preview,
		FinalImage:   p.FinalImage,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}
