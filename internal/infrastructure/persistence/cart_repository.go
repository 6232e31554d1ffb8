package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/cart"
	"github.com/printshop/personalizer/internal/domain/shared"
	"github.com/printshop/personalizer/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCartRepository implements cart.Repository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

func (r *GormCartRepository) preloadLines() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}
}

// FindBySession returns the cart of a session with its lines
func (r *GormCartRepository) FindBySession(ctx context.Context, sessionID string) (*cart.Cart, error) {
	var model models.CartModel
	err := r.db.WithContext(ctx).
		Preload("Lines", r.preloadLines()).
		Where("session_id = ?", sessionID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound.WithMessage("Cart not found")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID returns a cart with its lines
func (r *GormCartRepository) FindByID(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	var model models.CartModel
	err := r.db.WithContext(ctx).
		Preload("Lines", r.preloadLines()).
		First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound.WithMessage("Cart not found")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindLine returns one cart line
func (r *GormCartRepository) FindLine(ctx context.Context, lineID uuid.UUID) (*cart.Line, error) {
	var model models.CartLineModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", lineID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound.WithMessage("Cart line not found")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create stores a new cart and its lines in one transaction
func (r *GormCartRepository) Create(ctx context.Context, c *cart.Cart) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.CartModelFromDomain(c)).Error; err != nil {
			return err
		}
		for i := range c.Lines {
			if err := tx.Create(models.CartLineModelFromDomain(&c.Lines[i])).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CreateLine stores a new line
func (r *GormCartRepository) CreateLine(ctx context.Context, line *cart.Line) error {
	return r.db.WithContext(ctx).Create(models.CartLineModelFromDomain(line)).Error
}

// UpdateLine stores the quantity and price of an existing line
func (r *GormCartRepository) UpdateLine(ctx context.Context, line *cart.Line) error {
	result := r.db.WithContext(ctx).
		Model(&models.CartLineModel{}).
		Where("id = ?", line.ID).
		Updates(map[string]any{
			"quantity":   line.Quantity,
			"unit_price": line.UnitPrice,
			"updated_at": line.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound.WithMessage("Cart line not found")
	}
	return nil
}

// DeleteLine removes a line together with its personalizations
func (r *GormCartRepository) DeleteLine(ctx context.Context, lineID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("line_id = ?", lineID).Delete(&models.PersonalizationModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.CartLineModel{}, "id = ?", lineID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound.WithMessage("Cart line not found")
		}
		return nil
	})
}

var _ cart.Repository = (*GormCartRepository)(nil)
