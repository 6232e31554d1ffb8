package personalization

import (
	"context"

	"github.com/google/uuid"
)

// SaveErrorFunc is told about a record that could not be stored
type SaveErrorFunc func(record *Personalization, err error)

// Repository persists personalization records
type Repository interface {
	// FindByID loads one record. Missing records return shared.ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*Personalization, error)

	// FindByLine returns the records of a cart line in creation order
	FindByLine(ctx context.Context, lineID uuid.UUID) ([]Personalization, error)

	// Create stores a new record
	Create(ctx context.Context, record *Personalization) error

	// ReplaceForLine deletes every record of the line and inserts the given ones
	// in a single transaction. A record that fails to insert is reported to
	// onError and skipped without undoing the others. The IDs of the stored
	// records are returned.
	ReplaceForLine(ctx context.Context, lineID uuid.UUID, records []*Personalization, onError SaveErrorFunc) ([]uuid.UUID, error)

	// DeleteByLine removes every record of a cart line
	DeleteByLine(ctx context.Context, lineID uuid.UUID) error
}

// DraftStore keeps in-progress designs per shopper session before they are
// attached to a cart line.
type DraftStore interface {
	// SaveDraft stores the design of one area, replacing any previous draft of that area
	SaveDraft(ctx context.Context, sessionID string, productID uuid.UUID, areaKey string, draft Draft) error

	// LoadDrafts returns the drafts of a product keyed by area
	LoadDrafts(ctx context.Context, sessionID string, productID uuid.UUID) (map[string]Draft, error)

	// ClearDrafts forgets the drafts of a product
	ClearDrafts(ctx context.Context, sessionID string, productID uuid.UUID) error
}

// Draft is an unsaved area design as the editor produced it
type Draft struct {
	SceneJSON  string `json:"json"`
	PreviewURL string `json:"preview"`
}

// LineLocker serializes replacement of one cart line's designs
type LineLocker interface {
	// Acquire takes the lock for a line. ok=false means another request holds it.
	Acquire(ctx context.Context, lineID uuid.UUID) (release func(), ok bool, err error)
}
