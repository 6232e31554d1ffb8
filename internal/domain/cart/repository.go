package cart

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists carts and their lines
type Repository interface {
	// FindBySession returns the session's cart with lines. Missing carts return shared.ErrNotFound.
	FindBySession(ctx context.Context, sessionID string) (*Cart, error)

	// FindByID returns a cart with lines
	FindByID(ctx context.Context, id uuid.UUID) (*Cart, error)

	// FindLine returns one cart line
	FindLine(ctx context.Context, lineID uuid.UUID) (*Line, error)

	// Create stores a new cart and its lines atomically
	Create(ctx context.Context, c *Cart) error

	// CreateLine stores a new line
	CreateLine(ctx context.Context, line *Line) error

	// UpdateLine stores a changed line
	UpdateLine(ctx context.Context, line *Line) error

	// DeleteLine removes a line. Personalizations of the line cascade.
	DeleteLine(ctx context.Context, lineID uuid.UUID) error
}
