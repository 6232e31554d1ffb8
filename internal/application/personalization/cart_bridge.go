package personalization

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/cart"
	"github.com/printshop/personalizer/internal/domain/catalog"
	"github.com/printshop/personalizer/internal/domain/shared"
)

// CartBridge is the service's view of the cart subsystem.
// Every failure is reported as shared.ErrCartUpdateFailed and nothing is applied.
type CartBridge interface {
	// AddToCart adds a new line for the variant to the session's active cart
	AddToCart(ctx context.Context, sessionID string, variantID uuid.UUID, quantity int) (*cart.Line, error)

	// UpdateQuantity sets the quantity of an existing line
	UpdateQuantity(ctx context.Context, lineID uuid.UUID, quantity int) (*cart.Line, error)

	// CartQuantity returns the total quantity of a cart
	CartQuantity(ctx context.Context, cartID uuid.UUID) (int, error)
}

// CartLineBridge implements CartBridge on top of the cart repository
type CartLineBridge struct {
	carts    cart.Repository
	products catalog.ProductReader
}

// NewCartLineBridge creates a new CartLineBridge
func NewCartLineBridge(carts cart.Repository, products catalog.ProductReader) *CartLineBridge {
	return &CartLineBridge{carts: carts, products: products}
}

// AddToCart adds the variant as a new line. A session's first add stores the
// cart together with the line.
func (b *CartLineBridge) AddToCart(ctx context.Context, sessionID string, variantID uuid.UUID, quantity int) (*cart.Line, error) {
	variant, err := b.products.FindVariant(ctx, variantID)
	if err != nil {
		return nil, cartFailure(err)
	}

	c, isNew, err := b.activeCart(ctx, sessionID)
	if err != nil {
		return nil, cartFailure(err)
	}

	line, err := c.AddLine(variant.ProductID, variant.ID, variant.DisplayName(), quantity, variant.Price)
	if err != nil {
		return nil, cartFailure(err)
	}
	if isNew {
		err = b.carts.Create(ctx, c)
	} else {
		err = b.carts.CreateLine(ctx, line)
	}
	if err != nil {
		return nil, cartFailure(err)
	}
	return line, nil
}

// UpdateQuantity replaces the quantity of a line
func (b *CartLineBridge) UpdateQuantity(ctx context.Context, lineID uuid.UUID, quantity int) (*cart.Line, error) {
	line, err := b.carts.FindLine(ctx, lineID)
	if err != nil {
		return nil, cartFailure(err)
	}
	if err := line.SetQuantity(quantity); err != nil {
		return nil, cartFailure(err)
	}
	if err := b.carts.UpdateLine(ctx, line); err != nil {
		return nil, cartFailure(err)
	}
	return line, nil
}

// CartQuantity sums the line quantities of a cart
func (b *CartLineBridge) CartQuantity(ctx context.Context, cartID uuid.UUID) (int, error) {
	c, err := b.carts.FindByID(ctx, cartID)
	if err != nil {
		return 0, cartFailure(err)
	}
	return c.TotalQuantity(), nil
}

// activeCart loads the session's cart, or builds an unsaved one
func (b *CartLineBridge) activeCart(ctx context.Context, sessionID string) (*cart.Cart, bool, error) {
	c, err := b.carts.FindBySession(ctx, sessionID)
	if err == nil {
		return c, false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}

	c, err = cart.New(sessionID)
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

// cartFailure keeps the message of domain errors (bad quantity, unknown
// variant) so shoppers see why, while classifying them all as cart failures.
func cartFailure(err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) && de.Code != shared.CodeCartUpdateFailed {
		return shared.ErrCartUpdateFailed.WithMessage(de.Message).Wrap(err)
	}
	if de != nil {
		return err
	}
	return shared.ErrCartUpdateFailed.Wrap(err)
}

var _ CartBridge = (*CartLineBridge)(nil)
