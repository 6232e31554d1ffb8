package personalization

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/catalog"
	"github.com/printshop/personalizer/internal/domain/personalization"
)

// MetadataRequest asks for the editor configuration of a product
type MetadataRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
}

// MetadataResponse is everything the editor needs to render a product's design areas
type MetadataResponse struct {
	ProductID         uuid.UUID                   `json:"product_id"`
	Variants          []VariantOption             `json:"variants"`
	ActiveVariantID   uuid.UUID                   `json:"active_variant_id"`
	DesignTypes       []string                    `json:"design_types"`
	DefaultDesignType *string                     `json:"default_design_type"`
	Designs           map[string]DesignAreaConfig `json:"designs"`
	FallbackImageURL  *string                     `json:"fallback_image_url"`
}

// VariantOption is a selectable variant of the product
type VariantOption struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	ImageURL    *string   `json:"image_url"`
}

// DesignAreaConfig describes one design area to the editor
type DesignAreaConfig struct {
	ID         uuid.UUID     `json:"id"`
	DesignType string        `json:"design_type"`
	Label      string        `json:"label"`
	ImageURL   *string       `json:"image_url"`
	Restricted bool          `json:"is_restricted_area"`
	Bounds     *catalog.Rect `json:"bounds"`
}

// AddToCartRequest adds a personalized variant to the cart.
// Designs is loosely typed on purpose, see NormalizeDesigns.
type AddToCartRequest struct {
	VariantID           string          `json:"variant_id"`
	Designs             json.RawMessage `json:"designs"`
	PersonalizationJSON string          `json:"personalization_json"`
	AddQty              int             `json:"add_qty" binding:"omitempty,min=1,max=10000"`
}

// AddToCartResponse reports the new line and its personalization records
type AddToCartResponse struct {
	LineID                    uuid.UUID   `json:"line_id"`
	CreatedPersonalizationIDs []uuid.UUID `json:"created_personalization_ids"`
	CartQuantity              int         `json:"cart_quantity"`
}

// LineRequest identifies a cart line
type LineRequest struct {
	LineID string `json:"line_id"`
}

// UpdateLineRequest replaces the designs of a cart line
type UpdateLineRequest struct {
	LineID              string          `json:"line_id"`
	Designs             json.RawMessage `json:"designs"`
	PersonalizationJSON string          `json:"personalization_json"`
	AddQty              int             `json:"add_qty" binding:"omitempty,min=1,max=10000"`
}

// UpdateLineResponse lists the records that now make up the line's designs
type UpdateLineResponse struct {
	LineID                    uuid.UUID   `json:"line_id"`
	UpdatedPersonalizationIDs []uuid.UUID `json:"updated_personalization_ids"`
}

// LinePreviewResponse summarizes the designs of a cart line
type LinePreviewResponse struct {
	LineID      uuid.UUID     `json:"line_id"`
	ProductName string        `json:"product_name"`
	Previews    []LinePreview `json:"previews"`
}

// LinePreview is one design of a line. PreviewURL is nil when no image is stored.
type LinePreview struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	PreviewURL *string   `json:"preview_url"`
}

// LineDesignsResponse is a line's designs ready to load back into the editor
type LineDesignsResponse struct {
	LineID  uuid.UUID                 `json:"line_id"`
	Designs map[string]EditableDesign `json:"designs"`
}

// EditableDesign is the scene of one area plus whether anything is placed on it
type EditableDesign struct {
	ID         uuid.UUID             `json:"id"`
	Scene      personalization.Scene `json:"json"`
	HasContent bool                  `json:"has_content"`
}

// SaveDraftRequest stores an in-progress area design in the session
type SaveDraftRequest struct {
	ProductID      string          `json:"product_id"`
	DesignType     string          `json:"design_type"`
	CanvasJSON     json.RawMessage `json:"canvas_json"`
	PreviewDataURL string          `json:"preview_dataurl"`
}

// RecordResponse describes a stored personalization for fulfillment
type RecordResponse struct {
	ID           uuid.UUID             `json:"id"`
	LineID       uuid.UUID             `json:"line_id"`
	OrderID      uuid.UUID             `json:"order_id"`
	AreaKey      string                `json:"area_key"`
	Title        string                `json:"title"`
	DesignAreaID *uuid.UUID            `json:"design_area_id"`
	Scene        personalization.Scene `json:"scene"`
	HasPreview   bool                  `json:"has_preview"`
	HasFinal     bool                  `json:"has_final_image"`
	ImageURL     *string               `json:"image_url"`
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
