package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/shared"
)

// Rect is an edit-bounding rectangle in canvas pixel units
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DesignArea is one customizable zone (front, back, sleeve...) of a product variant.
//
// Area keys are expected to be unique within a variant but this is not enforced.
// When Restricted is set the caller is responsible for providing Bounds.
type DesignArea struct {
	shared.BaseEntity
	VariantID  uuid.UUID
	Key        string
	Label      string
	ImageKey   string // object storage key of the background image
	ImageName  string
	Restricted bool
	Bounds     *Rect
	SortOrder  int
}

// DesignAreaInput holds the administrator-editable fields of a design area
type DesignAreaInput struct {
	Key        string
	Label      string
	Restricted bool
	Bounds     *Rect
	SortOrder  int
}

// NewDesignArea creates a design area on a variant
func NewDesignArea(variantID uuid.UUID, in DesignAreaInput) (*DesignArea, error) {
	if variantID == uuid.Nil {
		return nil, shared.ErrMissingInput.WithMessage("Variant ID is required")
	}
	area := &DesignArea{
		BaseEntity: shared.NewBaseEntity(),
		VariantID:  variantID,
	}
	if err := area.Update(in); err != nil {
		return nil, err
	}
	return area, nil
}

// Update replaces the editable fields of the area
func (a *DesignArea) Update(in DesignAreaInput) error {
	key := strings.TrimSpace(in.Key)
	label := strings.TrimSpace(in.Label)
	if key == "" && label == "" {
		return shared.ErrMissingInput.WithMessage("Design area needs a key or a label")
	}
	if len(key) > 64 {
		return shared.ErrInvalidInput.WithMessage("Design area key cannot exceed 64 characters")
	}
	if in.Bounds != nil && (in.Bounds.Width < 0 || in.Bounds.Height < 0) {
		return shared.ErrInvalidInput.WithMessage("Design area bounds cannot have negative size")
	}
	a.Key = key
	a.Label = label
	a.Restricted = in.Restricted
	a.Bounds = in.Bounds
	a.SortOrder = in.SortOrder
	a.Touch()
	return nil
}

// AreaKey is the key personalizations are filed under: the trimmed key,
// else the trimmed label, else the area ID.
func (a *DesignArea) AreaKey() string {
	if k := strings.TrimSpace(a.Key); k != "" {
		return k
	}
	if l := strings.TrimSpace(a.Label); l != "" {
		return l
	}
	return a.ID.String()
}

// DisplayLabel returns the label shown to shoppers
func (a *DesignArea) DisplayLabel() string {
	if a.Label != "" {
		return a.Label
	}
	return a.AreaKey()
}

// HasImage reports whether a background image is configured
func (a *DesignArea) HasImage() bool {
	return a.ImageKey != ""
}

// SetImage records the stored background image
func (a *DesignArea) SetImage(key, name string) {
	a.ImageKey = key
	a.ImageName = name
	a.Touch()
}

// ImageStorageKey returns the object storage key used for an area's background image
func ImageStorageKey(areaID uuid.UUID) string {
	return "design-areas/" + areaID.String() + ".png"
}

// VariantImageStorageKey returns the object storage key used for a variant image
func VariantImageStorageKey(variantID uuid.UUID) string {
	return "variants/" + variantID.String() + ".png"
}
