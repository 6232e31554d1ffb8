package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/catalog"
	"github.com/printshop/personalizer/internal/domain/shared"
	"github.com/printshop/personalizer/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID loads a template with variants in sort order
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.ProductTemplate, error) {
	var model models.ProductTemplateModel
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, created_at ASC")
		}).
		First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound.WithMessage("Product not found")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindVariant loads a single variant
func (r *GormProductRepository) FindVariant(ctx context.Context, variantID uuid.UUID) (*catalog.ProductVariant, error) {
	var model models.ProductVariantModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", variantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound.WithMessage("Product variant not found")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a template and its variants
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.ProductTemplate) error {
	model := models.ProductTemplateModelFromDomain(product)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		variants := model.Variants
		model.Variants = nil
		if err := tx.Save(model).Error; err != nil {
			return err
		}
		for i := range variants {
			if err := tx.Save(&variants[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveVariant updates a single variant
func (r *GormProductRepository) SaveVariant(ctx context.Context, variant *catalog.ProductVariant) error {
	return r.db.WithContext(ctx).Save(models.ProductVariantModelFromDomain(variant)).Error
}

// GormDesignAreaRepository implements catalog.DesignAreaRepository using GORM
type GormDesignAreaRepository struct {
	db *gorm.DB
}

// NewGormDesignAreaRepository creates a new GormDesignAreaRepository
func NewGormDesignAreaRepository(db *gorm.DB) *GormDesignAreaRepository {
	return &GormDesignAreaRepository{db: db}
}

// FindByID loads one design area
func (r *GormDesignAreaRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.DesignArea, error) {
	var model models.DesignAreaModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound.WithMessage("Design area not found")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByVariant returns the areas of a variant in display order
func (r *GormDesignAreaRepository) FindByVariant(ctx context.Context, variantID uuid.UUID) ([]catalog.DesignArea, error) {
	var areaModels []models.DesignAreaModel
	if err := r.db.WithContext(ctx).
		Where("variant_id = ?", variantID).
		Order("sort_order ASC, created_at ASC").
		Find(&areaModels).Error; err != nil {
		return nil, err
	}

	areas := make([]catalog.DesignArea, len(areaModels))
	for i := range areaModels {
		areas[i] = *areaModels[i].ToDomain()
	}
	return areas, nil
}

// Save creates or updates a design area
func (r *GormDesignAreaRepository) Save(ctx context.Context, area *catalog.DesignArea) error {
	return r.db.WithContext(ctx).Save(models.DesignAreaModelFromDomain(area)).Error
}

// Delete removes a design area. Personalizations keep their dangling reference.
func (r *GormDesignAreaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.DesignAreaModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound.WithMessage("Design area not found")
	}
	return nil
}

// Compile-time interface checks
var (
	_ catalog.ProductRepository    = (*GormProductRepository)(nil)
	_ catalog.DesignAreaRepository = (*GormDesignAreaRepository)(nil)
)
