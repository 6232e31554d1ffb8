package models

import (
	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/cart"
	"github.com/shopspring/decimal"
)

// CartModel is the persistence model for cart.Cart
type CartModel struct {
	BaseModel
	SessionID string          `gorm:"column:session_id;type:varchar(128);not null;uniqueIndex"`
	Lines     []CartLineModel `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (CartModel) TableName() string {
	return "carts"
}

// ToDomain converts the model, including loaded lines
func (m *CartModel) ToDomain() *cart.Cart {
	c := &cart.Cart{
		BaseEntity: m.BaseModel.ToDomain(),
		SessionID:  m.SessionID,
		Lines:      make([]cart.Line, 0, len(m.Lines)),
	}
	for i := range m.Lines {
		c.Lines = append(c.Lines, *m.Lines[i].ToDomain())
	}
	return c
}

// CartModelFromDomain creates a persistence model without lines
func CartModelFromDomain(c *cart.Cart) *CartModel {
	m := &CartModel{SessionID: c.SessionID}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

// CartLineModel is the persistence model for cart.Line
type CartLineModel struct {
	BaseModel
	CartID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	VariantID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(255);not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (CartLineModel) TableName() string {
	return "cart_lines"
}

// ToDomain converts the model to a domain cart line
func (m *CartLineModel) ToDomain() *cart.Line {
	return &cart.Line{
		BaseEntity:  m.BaseModel.ToDomain(),
		CartID:      m.CartID,
		ProductID:   m.ProductID,
		VariantID:   m.VariantID,
		ProductName: m.ProductName,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
	}
}

// CartLineModelFromDomain creates a persistence model from a domain cart line
func CartLineModelFromDomain(l *cart.Line) *CartLineModel {
	m := &CartLineModel{
		CartID:      l.CartID,
		ProductID:   l.ProductID,
		VariantID:   l.VariantID,
		ProductName: l.ProductName,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
	}
	m.FromDomainBaseEntity(l.BaseEntity)
	return m
}
