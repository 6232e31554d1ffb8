package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductReader provides read access to product templates
type ProductReader interface {
	// FindByID loads a product template with its variants ordered by sort order
	FindByID(ctx context.Context, id uuid.UUID) (*ProductTemplate, error)

	// FindVariant loads a single variant
	FindVariant(ctx context.Context, variantID uuid.UUID) (*ProductVariant, error)
}

// ProductWriter provides write access to product templates
type ProductWriter interface {
	// Save creates or updates a template together with its variants
	Save(ctx context.Context, product *ProductTemplate) error

	// SaveVariant updates a single variant
	SaveVariant(ctx context.Context, variant *ProductVariant) error
}

// ProductRepository combines product read and write access
type ProductRepository interface {
	ProductReader
	ProductWriter
}

// DesignAreaReader provides read access to design areas
type DesignAreaReader interface {
	// FindByID loads one design area
	FindByID(ctx context.Context, id uuid.UUID) (*DesignArea, error)

	// FindByVariant returns the areas of a variant ordered by sort order then creation time
	FindByVariant(ctx context.Context, variantID uuid.UUID) ([]DesignArea, error)
}

// DesignAreaWriter provides write access to design areas
type DesignAreaWriter interface {
	Save(ctx context.Context, area *DesignArea) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// DesignAreaRepository combines design area read and write access
type DesignAreaRepository interface {
	DesignAreaReader
	DesignAreaWriter
}
