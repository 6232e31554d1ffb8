package cart

import (
	"strings"

	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Cart is the active order of a shopper session
type Cart struct {
	shared.BaseEntity
	SessionID string
	Lines     []Line
}

// Line is one product variant and quantity in a cart.
// Personalized adds always get their own line since each carries distinct designs.
type Line struct {
	shared.BaseEntity
	CartID      uuid.UUID
	ProductID   uuid.UUID
	VariantID   uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// New creates an empty cart bound to a session
func New(sessionID string) (*Cart, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, shared.ErrMissingInput.WithMessage("Session ID is required")
	}
	return &Cart{
		BaseEntity: shared.NewBaseEntity(),
		SessionID:  sessionID,
	}, nil
}

// AddLine appends a new line for a variant
func (c *Cart) AddLine(productID, variantID uuid.UUID, productName string, quantity int, unitPrice decimal.Decimal) (*Line, error) {
	if variantID == uuid.Nil {
		return nil, shared.ErrMissingInput.WithMessage("Variant ID is required")
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	c.Lines = append(c.Lines, Line{
		BaseEntity:  shared.NewBaseEntity(),
		CartID:      c.ID,
		ProductID:   productID,
		VariantID:   variantID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
	})
	c.Touch()
	return &c.Lines[len(c.Lines)-1], nil
}

// TotalQuantity sums the quantities of all lines
func (c *Cart) TotalQuantity() int {
	total := 0
	for _, l := range c.Lines {
		total += l.Quantity
	}
	return total
}

// Total sums the line subtotals
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// SetQuantity replaces the line quantity
func (l *Line) SetQuantity(quantity int) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	l.Quantity = quantity
	l.Touch()
	return nil
}

// Subtotal is unit price times quantity
func (l *Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func validateQuantity(quantity int) error {
	if quantity <= 0 {
		return shared.ErrInvalidInput.WithMessage("Quantity must be positive")
	}
	if quantity > 10000 {
		return shared.ErrInvalidInput.WithMessage("Quantity cannot exceed 10000")
	}
	return nil
}
