package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/catalog"
	"github.com/printshop/personalizer/internal/domain/shared"
	"github.com/printshop/personalizer/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// DesignAreaRegistry answers which design areas a variant offers and what they look like
type DesignAreaRegistry struct {
	products catalog.ProductReader
	areas    catalog.DesignAreaReader
	storage  ObjectStorageService
}

// NewDesignAreaRegistry creates a new DesignAreaRegistry
func NewDesignAreaRegistry(products catalog.ProductReader, areas catalog.DesignAreaReader, storage ObjectStorageService) *DesignAreaRegistry {
	return &DesignAreaRegistry{products: products, areas: areas, storage: storage}
}

// ListForVariant resolves the areas of a variant in display order.
// An unknown variant is shared.ErrNotFound; a variant without areas yields an empty list.
func (r *DesignAreaRegistry) ListForVariant(ctx context.Context, variantID uuid.UUID) ([]ResolvedArea, error) {
	variant, err := r.products.FindVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}
	return r.ResolveForVariant(ctx, variant)
}

// ResolveForVariant is ListForVariant for a variant the caller already loaded
func (r *DesignAreaRegistry) ResolveForVariant(ctx context.Context, variant *catalog.ProductVariant) ([]ResolvedArea, error) {
	areas, err := r.areas.FindByVariant(ctx, variant.ID)
	if err != nil {
		return nil, err
	}

	variantURL := r.ImageURL(ctx, variant.ImageKey)
	resolved := make([]ResolvedArea, 0, len(areas))
	for i := range areas {
		area := &areas[i]
		url := r.ImageURL(ctx, area.ImageKey)
		if url == "" {
			url = variantURL
		}
		resolved = append(resolved, ResolvedArea{
			ID:         area.ID,
			Key:        area.AreaKey(),
			Label:      area.DisplayLabel(),
			ImageURL:   url,
			Restricted: area.Restricted,
			Bounds:     area.Bounds,
		})
	}
	return resolved, nil
}

// AreasForVariant returns the raw areas of a variant in display order
func (r *DesignAreaRegistry) AreasForVariant(ctx context.Context, variantID uuid.UUID) ([]catalog.DesignArea, error) {
	return r.areas.FindByVariant(ctx, variantID)
}

// ImageURL returns a client URL for a storage key, or "" when the key is empty or
// no URL can be produced. URL failures only cost the image, so they are logged.
func (r *DesignAreaRegistry) ImageURL(ctx context.Context, storageKey string) string {
	if storageKey == "" {
		return ""
	}
	url, _, err := r.storage.GenerateDownloadURL(ctx, storageKey, 0)
	if err != nil {
		logger.L(ctx).Warn("Failed to generate image URL",
			zap.String("storage_key", storageKey),
			zap.Error(err),
		)
		return ""
	}
	return url
}

// AreaImage loads the background image of an area. Areas without an image, or
// whose image is gone from storage, return nil without error.
func (r *DesignAreaRegistry) AreaImage(ctx context.Context, area *catalog.DesignArea) ([]byte, error) {
	if !area.HasImage() {
		return nil, nil
	}
	data, err := r.storage.GetObject(ctx, area.ImageKey)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}
