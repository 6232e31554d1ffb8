package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductTemplate is the sellable product a shopper personalizes.
// Variants carry the concrete options (color, size) and the catalog image.
type ProductTemplate struct {
	shared.BaseEntity
	Name        string
	Description string
	Variants    []ProductVariant
}

// ProductVariant is one concrete option of a product template
type ProductVariant struct {
	shared.BaseEntity
	ProductID       uuid.UUID
	Name            string
	AttributeValues []string
	ImageKey        string // object storage key, empty when the variant has no image
	Price           decimal.Decimal
	SortOrder       int
}

// NewProductTemplate creates a product template without variants
func NewProductTemplate(name, description string) (*ProductTemplate, error) {
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	return &ProductTemplate{
		BaseEntity:  shared.NewBaseEntity(),
		Name:        strings.TrimSpace(name),
		Description: description,
	}, nil
}

// AddVariant appends a new variant to the template
func (p *ProductTemplate) AddVariant(attributeValues []string, price decimal.Decimal) (*ProductVariant, error) {
	if price.IsNegative() {
		return nil, shared.ErrInvalidInput.WithMessage("Variant price cannot be negative")
	}
	values := make([]string, 0, len(attributeValues))
	for _, v := range attributeValues {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	p.Variants = append(p.Variants, ProductVariant{
		BaseEntity:      shared.NewBaseEntity(),
		ProductID:       p.ID,
		Name:            p.Name,
		AttributeValues: values,
		Price:           price,
		SortOrder:       len(p.Variants),
	})
	return &p.Variants[len(p.Variants)-1], nil
}

// FirstVariant returns the variant with the lowest sort order, or nil when there is none
func (p *ProductTemplate) FirstVariant() *ProductVariant {
	var first *ProductVariant
	for i := range p.Variants {
		if first == nil || p.Variants[i].SortOrder < first.SortOrder {
			first = &p.Variants[i]
		}
	}
	return first
}

// FindVariant returns the variant with the given ID, or nil when it does not belong to the template
func (p *ProductTemplate) FindVariant(id uuid.UUID) *ProductVariant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}

// DisplayName renders the variant as "Name (v1, v2)", or just the name without attributes
func (v *ProductVariant) DisplayName() string {
	if len(v.AttributeValues) == 0 {
		return v.Name
	}
	return v.Name + " (" + strings.Join(v.AttributeValues, ", ") + ")"
}

// SetImage records the object storage key of the variant image
func (v *ProductVariant) SetImage(key string) {
	v.ImageKey = key
	v.Touch()
}

func validateProductName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.ErrMissingInput.WithMessage("Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.ErrInvalidInput.WithMessage("Product name cannot exceed 200 characters")
	}
	return nil
}
