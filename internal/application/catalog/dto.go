package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CreateProductRequest creates a product template together with its variants
type CreateProductRequest struct {
	Name        string                 `json:"name" binding:"required,min=1,max=200"`
	Description string                 `json:"description" binding:"max=2000"`
	Variants    []CreateVariantRequest `json:"variants" binding:"required,min=1,dive"`
}

// CreateVariantRequest describes one variant of a new product
type CreateVariantRequest struct {
	AttributeValues []string        `json:"attribute_values" binding:"max=10"`
	Price           decimal.Decimal `json:"price"`
}

// ProductResponse represents a product template in API responses
type ProductResponse struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Variants    []VariantResponse `json:"variants"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// VariantResponse represents a product variant in API responses
type VariantResponse struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	DisplayName     string          `json:"display_name"`
	AttributeValues []string        `json:"attribute_values"`
	ImageURL        string          `json:"image_url"`
	Price           decimal.Decimal `json:"price"`
	SortOrder       int             `json:"sort_order"`
}

// DesignAreaRequest holds the administrator-editable fields of a design area
type DesignAreaRequest struct {
	Key        string        `json:"key" binding:"max=64"`
	Label      string        `json:"label" binding:"max=200"`
	Restricted bool          `json:"is_restricted"`
	Bounds     *catalog.Rect `json:"bounds"`
	SortOrder  int           `json:"sort_order"`
}

func (r DesignAreaRequest) toInput() catalog.DesignAreaInput {
	return catalog.DesignAreaInput{
		Key:        r.Key,
		Label:      r.Label,
		Restricted: r.Restricted,
		Bounds:     r.Bounds,
		SortOrder:  r.SortOrder,
	}
}

// DesignAreaResponse represents a design area in admin API responses
type DesignAreaResponse struct {
	ID         uuid.UUID     `json:"id"`
	VariantID  uuid.UUID     `json:"variant_id"`
	Key        string        `json:"key"`
	Label      string        `json:"label"`
	ImageURL   string        `json:"image_url"`
	ImageName  string        `json:"image_name"`
	Restricted bool          `json:"is_restricted"`
	Bounds     *catalog.Rect `json:"bounds"`
	SortOrder  int           `json:"sort_order"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// ResolvedArea is a design area as the storefront editor consumes it.
// ImageURL is the area background, else the variant image, else empty.
type ResolvedArea struct {
	ID         uuid.UUID
	Key        string
	Label      string
	ImageURL   string
	Restricted bool
	Bounds     *catalog.Rect
}
