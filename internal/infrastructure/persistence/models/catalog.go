package models

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ProductTemplateModel is the persistence model for catalog.ProductTemplate
type ProductTemplateModel struct {
	BaseModel
	Name        string                `gorm:"type:varchar(200);not null"`
	Description string                `gorm:"type:text"`
	Variants    []ProductVariantModel `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (ProductTemplateModel) TableName() string {
	return "product_templates"
}

// ToDomain converts the model, including loaded variants
func (m *ProductTemplateModel) ToDomain() *catalog.ProductTemplate {
	p := &catalog.ProductTemplate{
		BaseEntity:  m.BaseModel.ToDomain(),
		Name:        m.Name,
		Description: m.Description,
		Variants:    make([]catalog.ProductVariant, 0, len(m.Variants)),
	}
	for i := range m.Variants {
		p.Variants = append(p.Variants, *m.Variants[i].ToDomain())
	}
	return p
}

// ProductTemplateModelFromDomain creates a persistence model, variants included
func ProductTemplateModelFromDomain(p *catalog.ProductTemplate) *ProductTemplateModel {
	m := &ProductTemplateModel{
		Name:        p.Name,
		Description: p.Description,
		Variants:    make([]ProductVariantModel, 0, len(p.Variants)),
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	for i := range p.Variants {
		m.Variants = append(m.Variants, *ProductVariantModelFromDomain(&p.Variants[i]))
	}
	return m
}

// ProductVariantModel is the persistence model for catalog.ProductVariant.
// AttributeValues is a JSON array of strings.
type ProductVariantModel struct {
	BaseModel
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name            string          `gorm:"type:varchar(200);not null"`
	AttributeValues datatypes.JSON  `gorm:"column:attribute_values"`
	ImageKey        string          `gorm:"column:image_key;type:varchar(500)"`
	Price           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SortOrder       int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductVariantModel) TableName() string {
	return "product_variants"
}

// ToDomain converts the model to a domain variant
func (m *ProductVariantModel) ToDomain() *catalog.ProductVariant {
	var values []string
	if len(m.AttributeValues) > 0 {
		// a corrupt column only costs the display suffix
		_ = json.Unmarshal(m.AttributeValues, &values)
	}
	return &catalog.ProductVariant{
		BaseEntity:      m.BaseModel.ToDomain(),
		ProductID:       m.ProductID,
		Name:            m.Name,
		AttributeValues: values,
		ImageKey:        m.ImageKey,
		Price:           m.Price,
		SortOrder:       m.SortOrder,
	}
}

// ProductVariantModelFromDomain creates a persistence model from a domain variant
func ProductVariantModelFromDomain(v *catalog.ProductVariant) *ProductVariantModel {
	values := v.AttributeValues
	if values == nil {
		values = []string{}
	}
	raw, _ := json.Marshal(values)
	m := &ProductVariantModel{
		ProductID:       v.ProductID,
		Name:            v.Name,
		AttributeValues: datatypes.JSON(raw),
		ImageKey:        v.ImageKey,
		Price:           v.Price,
		SortOrder:       v.SortOrder,
	}
	m.FromDomainBaseEntity(v.BaseEntity)
	return m
}

// DesignAreaModel is the persistence model for catalog.DesignArea.
// Bounds are four nullable columns; they are all set or all null.
type DesignAreaModel struct {
	BaseModel
	VariantID   uuid.UUID `gorm:"type:uuid;not null;index"`
	AreaKey     string    `gorm:"column:area_key;type:varchar(64)"`
	Label       string    `gorm:"type:varchar(200)"`
	ImageKey    string    `gorm:"column:image_key;type:varchar(500)"`
	ImageName   string    `gorm:"column:image_name;type:varchar(255)"`
	Restricted  bool      `gorm:"column:is_restricted;not null;default:false"`
	BoundX      *int      `gorm:"column:bound_x"`
	BoundY      *int      `gorm:"column:bound_y"`
	BoundWidth  *int      `gorm:"column:bound_width"`
	BoundHeight *int      `gorm:"column:bound_height"`
	SortOrder   int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (DesignAreaModel) TableName() string {
	return "design_areas"
}

// ToDomain converts the model to a domain design area
func (m *DesignAreaModel) ToDomain() *catalog.DesignArea {
	a := &catalog.DesignArea{
		BaseEntity: m.BaseModel.ToDomain(),
		VariantID:  m.VariantID,
		Key:        m.AreaKey,
		Label:      m.Label,
		ImageKey:   m.ImageKey,
		ImageName:  m.ImageName,
		Restricted: m.Restricted,
		SortOrder:  m.SortOrder,
	}
	if m.BoundX != nil || m.BoundY != nil || m.BoundWidth != nil || m.BoundHeight != nil {
		a.Bounds = &catalog.Rect{
			X:      derefInt(m.BoundX),
			Y:      derefInt(m.BoundY),
			Width:  derefInt(m.BoundWidth),
			Height: derefInt(m.BoundHeight),
		}
	}
	return a
}

// DesignAreaModelFromDomain creates a persistence model from a domain design area
func DesignAreaModelFromDomain(a *catalog.DesignArea) *DesignAreaModel {
	m := &DesignAreaModel{
		VariantID:  a.VariantID,
		AreaKey:    a.Key,
		Label:      a.Label,
		ImageKey:   a.ImageKey,
		ImageName:  a.ImageName,
		Restricted: a.Restricted,
		SortOrder:  a.SortOrder,
	}
	m.FromDomainBaseEntity(a.BaseEntity)
	if a.Bounds != nil {
		x, y, w, h := a.Bounds.X, a.Bounds.Y, a.Bounds.Width, a.Bounds.Height
		m.BoundX, m.BoundY, m.BoundWidth, m.BoundHeight = &x, &y, &w, &h
	}
	return m
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
