package personalization

import (
	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/catalog"
	"github.com/printshop/personalizer/internal/domain/shared"
)

// Personalization is the saved design of one design area for one cart line.
// It is owned by the cart line and removed with it. DesignAreaID is a
// non-owning reference that may dangle once the area is deleted; the scene
// stays authoritative.
type Personalization struct {
	shared.BaseEntity
	LineID       uuid.UUID
	OrderID      uuid.UUID
	AreaKey      string
	Title        string
	DesignAreaID *uuid.UUID
	Scene        string
	Preview      []byte
	FinalImage   []byte
}

// New builds the record for one area from a resolved design
func New(lineID, orderID uuid.UUID, area catalog.DesignArea, design Resolved) *Personalization {
	areaID := area.ID
	p := &Personalization{
		BaseEntity: shared.NewBaseEntity(),
		LineID:     lineID,
		OrderID:    orderID,
		AreaKey:    area.AreaKey(),
		Title:      area.Label,
		Scene:      design.Scene.String(),
		Preview:    design.Preview,
	}
	if areaID != uuid.Nil {
		p.DesignAreaID = &areaID
	}
	return p
}

// DisplayTitle returns the stored title, falling back to the area key
func (p *Personalization) DisplayTitle() string {
	if p.Title != "" {
		return p.Title
	}
	return p.AreaKey
}

// ParsedScene re-parses the stored scene text. On error the empty scene is returned.
func (p *Personalization) ParsedScene() (Scene, error) {
	return ParseScene(p.Scene)
}

// Image returns the final rendered image when present, else the preview
func (p *Personalization) Image() ([]byte, bool) {
	if len(p.FinalImage) > 0 {
		return p.FinalImage, true
	}
	if len(p.Preview) > 0 {
		return p.Preview, true
	}
	return nil, false
}

// HasImage reports whether the record has anything to serve
func (p *Personalization) HasImage() bool {
	_, ok := p.Image()
	return ok
}
