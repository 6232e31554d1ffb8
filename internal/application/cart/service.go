// Package cart serves the shopper's view of the active cart.
package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/cart"
	"github.com/printshop/personalizer/internal/domain/personalization"
	"github.com/printshop/personalizer/internal/domain/shared"
	"github.com/printshop/personalizer/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartResponse is the active cart of a session
type CartResponse struct {
	ID            *uuid.UUID      `json:"id"`
	Lines         []LineResponse  `json:"lines"`
	TotalQuantity int             `json:"total_quantity"`
	Total         decimal.Decimal `json:"total"`
}

// LineResponse is one cart line with links to its design images
type LineResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"product_id"`
	VariantID        uuid.UUID       `json:"variant_id"`
	ProductName      string          `json:"product_name"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	Personalizations []LineDesign    `json:"personalizations"`
}

// LineDesign references one personalization record of a line
type LineDesign struct {
	ID       uuid.UUID `json:"id"`
	AreaKey  string    `json:"area_key"`
	Title    string    `json:"title"`
	ImageURL *string   `json:"image_url"`
}

// ImageURLFunc builds the public URL of a record image
type ImageURLFunc func(recordID uuid.UUID) string

// Service reads and trims the session's cart
type Service struct {
	carts    cart.Repository
	records  personalization.Repository
	imageURL ImageURLFunc
}

// NewService creates a new cart Service
func NewService(carts cart.Repository, records personalization.Repository, imageURL ImageURLFunc) *Service {
	return &Service{carts: carts, records: records, imageURL: imageURL}
}

// GetCart returns the session's cart. A session without a cart gets an empty one.
func (s *Service) GetCart(ctx context.Context, sessionID string) (*CartResponse, error) {
	if sessionID == "" {
		return nil, shared.ErrMissingInput.WithMessage("Session ID is required")
	}
	c, err := s.carts.FindBySession(ctx, sessionID)
	if errors.Is(err, shared.ErrNotFound) {
		return &CartResponse{Lines: []LineResponse{}, Total: decimal.Zero}, nil
	}
	if err != nil {
		return nil, err
	}

	resp := &CartResponse{
		ID:            &c.ID,
		Lines:         make([]LineResponse, 0, len(c.Lines)),
		TotalQuantity: c.TotalQuantity(),
		Total:         c.Total(),
	}
	for i := range c.Lines {
		resp.Lines = append(resp.Lines, s.toLineResponse(ctx, &c.Lines[i]))
	}
	return resp, nil
}

// RemoveLine deletes a line of the session's cart together with its personalizations.
// Lines of other sessions are reported as not found.
func (s *Service) RemoveLine(ctx context.Context, sessionID string, lineID uuid.UUID) error {
	c, err := s.carts.FindBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	line, err := s.carts.FindLine(ctx, lineID)
	if err != nil {
		return err
	}
	if line.CartID != c.ID {
		return shared.ErrNotFound.WithMessage("Cart line not found")
	}
	if err := s.carts.DeleteLine(ctx, lineID); err != nil {
		return err
	}
	logger.L(ctx).Info("Cart line removed", zap.String("cart_line_id", lineID.String()))
	return nil
}

func (s *Service) toLineResponse(ctx context.Context, l *cart.Line) LineResponse {
	resp := LineResponse{
		ID:               l.ID,
		ProductID:        l.ProductID,
		VariantID:        l.VariantID,
		ProductName:      l.ProductName,
		Quantity:         l.Quantity,
		UnitPrice:        l.UnitPrice,
		Subtotal:         l.Subtotal(),
		Personalizations: []LineDesign{},
	}

	records, err := s.records.FindByLine(ctx, l.ID)
	if err != nil {
		logger.L(ctx).Warn("Cannot list line personalizations",
			zap.String("cart_line_id", l.ID.String()),
			zap.Error(err),
		)
		return resp
	}
	for i := range records {
		design := LineDesign{ID: records[i].ID, AreaKey: records[i].AreaKey, Title: records[i].DisplayTitle()}
		if records[i].HasImage() && s.imageURL != nil {
			url := s.imageURL(records[i].ID)
			design.ImageURL = &url
		}
		resp.Personalizations = append(resp.Personalizations, design)
	}
	return resp
}
