package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/catalog"
	"github.com/printshop/personalizer/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// maxImageNameLength matches the image_name column
const maxImageNameLength = 255

// DesignAreaService handles design area administration
type DesignAreaService struct {
	products   catalog.ProductReader
	areas      catalog.DesignAreaRepository
	registry   *DesignAreaRegistry
	storage    ObjectStorageService
	normalizer ImageNormalizer
}

// NewDesignAreaService creates a new DesignAreaService
func NewDesignAreaService(
	products catalog.ProductReader,
	areas catalog.DesignAreaRepository,
	registry *DesignAreaRegistry,
	storage ObjectStorageService,
	normalizer ImageNormalizer,
) *DesignAreaService {
	return &DesignAreaService{
		products:   products,
		areas:      areas,
		registry:   registry,
		storage:    storage,
		normalizer: normalizer,
	}
}

// ListByVariant returns the areas of a variant in display order
func (s *DesignAreaService) ListByVariant(ctx context.Context, variantID uuid.UUID) ([]DesignAreaResponse, error) {
	if _, err := s.products.FindVariant(ctx, variantID); err != nil {
		return nil, err
	}
	areas, err := s.areas.FindByVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}
	out := make([]DesignAreaResponse, 0, len(areas))
	for i := range areas {
		out = append(out, s.toResponse(ctx, &areas[i]))
	}
	return out, nil
}

// Create adds a design area to a variant
func (s *DesignAreaService) Create(ctx context.Context, variantID uuid.UUID, req DesignAreaRequest) (*DesignAreaResponse, error) {
	if _, err := s.products.FindVariant(ctx, variantID); err != nil {
		return nil, err
	}
	area, err := catalog.NewDesignArea(variantID, req.toInput())
	if err != nil {
		return nil, err
	}
	if err := s.areas.Save(ctx, area); err != nil {
		return nil, err
	}
	resp := s.toResponse(ctx, area)
	return &resp, nil
}

// Update replaces the editable fields of a design area
func (s *DesignAreaService) Update(ctx context.Context, id uuid.UUID, req DesignAreaRequest) (*DesignAreaResponse, error) {
	area, err := s.areas.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := area.Update(req.toInput()); err != nil {
		return nil, err
	}
	if err := s.areas.Save(ctx, area); err != nil {
		return nil, err
	}
	resp := s.toResponse(ctx, area)
	return &resp, nil
}

// Delete removes a design area and its background image. Stored personalizations
// keep their scene; their design area reference is left dangling.
func (s *DesignAreaService) Delete(ctx context.Context, id uuid.UUID) error {
	area, err := s.areas.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.areas.Delete(ctx, id); err != nil {
		return err
	}
	if area.HasImage() {
		if err := s.storage.DeleteObject(ctx, area.ImageKey); err != nil {
			logger.L(ctx).Warn("Failed to delete design area image",
				zap.String("design_area_id", id.String()),
				zap.String("storage_key", area.ImageKey),
				zap.Error(err),
			)
		}
	}
	return nil
}

// UploadImage normalizes an uploaded background image to PNG and attaches it to the area
func (s *DesignAreaService) UploadImage(ctx context.Context, id uuid.UUID, data []byte, fileName string) (*DesignAreaResponse, error) {
	area, err := s.areas.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	png, err := s.normalizer.NormalizePNG(data)
	if err != nil {
		return nil, err
	}

	key := catalog.ImageStorageKey(area.ID)
	if err := s.storage.Upload(ctx, key, png, pngContentType); err != nil {
		return nil, fmt.Errorf("store design area image: %w", err)
	}

	area.SetImage(key, cleanImageName(fileName))
	if err := s.areas.Save(ctx, area); err != nil {
		return nil, err
	}
	resp := s.toResponse(ctx, area)
	return &resp, nil
}

func cleanImageName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if len(name) > maxImageNameLength {
		name = name[:maxImageNameLength]
	}
	return name
}

func (s *DesignAreaService) toResponse(ctx context.Context, a *catalog.DesignArea) DesignAreaResponse {
	return DesignAreaResponse{
		ID:         a.ID,
		VariantID:  a.VariantID,
		Key:        a.AreaKey(),
		Label:      a.Label,
		ImageURL:   s.registry.ImageURL(ctx, a.ImageKey),
		ImageName:  a.ImageName,
		Restricted: a.Restricted,
		Bounds:     a.Bounds,
		SortOrder:  a.SortOrder,
		UpdatedAt:  a.UpdatedAt,
	}
}
