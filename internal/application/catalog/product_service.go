package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/catalog"
	"github.com/printshop/personalizer/internal/domain/shared"
)

// ProductService handles product template administration
type ProductService struct {
	products   catalog.ProductRepository
	registry   *DesignAreaRegistry
	storage    ObjectStorageService
	normalizer ImageNormalizer
}

// NewProductService creates a new ProductService
func NewProductService(
	products catalog.ProductRepository,
	registry *DesignAreaRegistry,
	storage ObjectStorageService,
	normalizer ImageNormalizer,
) *ProductService {
	return &ProductService{
		products:   products,
		registry:   registry,
		storage:    storage,
		normalizer: normalizer,
	}
}

// Create creates a product template with its variants
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	if len(req.Variants) == 0 {
		return nil, shared.ErrMissingInput.WithMessage("A product needs at least one variant")
	}

	product, err := catalog.NewProductTemplate(req.Name, req.Description)
	if err != nil {
		return nil, err
	}
	for _, v := range req.Variants {
		if _, err := product.AddVariant(v.AttributeValues, v.Price); err != nil {
			return nil, err
		}
	}

	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}
	return s.toProductResponse(ctx, product), nil
}

// GetByID returns a product template with its variants
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toProductResponse(ctx, product), nil
}

// UploadVariantImage normalizes an uploaded image to PNG and makes it the variant's catalog image
func (s *ProductService) UploadVariantImage(ctx context.Context, variantID uuid.UUID, data []byte) (*VariantResponse, error) {
	variant, err := s.products.FindVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}

	png, err := s.normalizer.NormalizePNG(data)
	if err != nil {
		return nil, err
	}

	key := catalog.VariantImageStorageKey(variant.ID)
	if err := s.storage.Upload(ctx, key, png, pngContentType); err != nil {
		return nil, fmt.Errorf("store variant image: %w", err)
	}

	variant.SetImage(key)
	if err := s.products.SaveVariant(ctx, variant); err != nil {
		return nil, err
	}
	resp := s.toVariantResponse(ctx, variant)
	return &resp, nil
}

func (s *ProductService) toProductResponse(ctx context.Context, p *catalog.ProductTemplate) *ProductResponse {
	resp := &ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Variants:    make([]VariantResponse, 0, len(p.Variants)),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	for i := range p.Variants {
		resp.Variants = append(resp.Variants, s.toVariantResponse(ctx, &p.Variants[i]))
	}
	return resp
}

func (s *ProductService) toVariantResponse(ctx context.Context, v *catalog.ProductVariant) VariantResponse {
	values := v.AttributeValues
	if values == nil {
		values = []string{}
	}
	return VariantResponse{
		ID:              v.ID,
		ProductID:       v.ProductID,
		DisplayName:     v.DisplayName(),
		AttributeValues: values,
		ImageURL:        s.registry.ImageURL(ctx, v.ImageKey),
		Price:           v.Price,
		SortOrder:       v.SortOrder,
	}
}
