package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/personalization"
	"github.com/printshop/personalizer/internal/domain/shared"
	"github.com/printshop/personalizer/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPersonalizationRepository implements personalization.Repository using GORM
type GormPersonalizationRepository struct {
	db *gorm.DB
}

// NewGormPersonalizationRepository creates a new GormPersonalizationRepository
func NewGormPersonalizationRepository(db *gorm.DB) *GormPersonalizationRepository {
	return &GormPersonalizationRepository{db: db}
}

// FindByID loads one record
func (r *GormPersonalizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*personalization.Personalization, error) {
	var model models.PersonalizationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound.WithMessage("Personalization not found")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByLine returns the records of a cart line in creation order
func (r *GormPersonalizationRepository) FindByLine(ctx context.Context, lineID uuid.UUID) ([]personalization.Personalization, error) {
	var recordModels []models.PersonalizationModel
	if err := r.db.WithContext(ctx).
		Where("line_id = ?", lineID).
		Order("created_at ASC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}

	records := make([]personalization.Personalization, len(recordModels))
	for i := range recordModels {
		records[i] = *recordModels[i].ToDomain()
	}
	return records, nil
}

// Create stores a new record
func (r *GormPersonalizationRepository) Create(ctx context.Context, record *personalization.Personalization) error {
	return r.db.WithContext(ctx).Create(models.PersonalizationModelFromDomain(record)).Error
}

// ReplaceForLine deletes the line's records and inserts the new set in one transaction.
// Each insert runs behind a savepoint so a single failing record is rolled back alone.
func (r *GormPersonalizationRepository) ReplaceForLine(
	ctx context.Context,
	lineID uuid.UUID,
	records []*personalization.Personalization,
	onError personalization.SaveErrorFunc,
) ([]uuid.UUID, error) {
	var stored []uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored = make([]uuid.UUID, 0, len(records))
		if err := tx.Where("line_id = ?", lineID).Delete(&models.PersonalizationModel{}).Error; err != nil {
			return fmt.Errorf("delete personalizations of line %s: %w", lineID, err)
		}

		for i, rec := range records {
			savepoint := fmt.Sprintf("personalization_%d", i)
			if err := tx.SavePoint(savepoint).Error; err != nil {
				return err
			}
			if err := tx.Create(models.PersonalizationModelFromDomain(rec)).Error; err != nil {
				if rbErr := tx.RollbackTo(savepoint).Error; rbErr != nil {
					return rbErr
				}
				if onError != nil {
					onError(rec, err)
				}
				continue
			}
			stored = append(stored, rec.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// DeleteByLine removes every record of a cart line
func (r *GormPersonalizationRepository) DeleteByLine(ctx context.Context, lineID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("line_id = ?", lineID).Delete(&models.PersonalizationModel{}).Error
}

var _ personalization.Repository = (*GormPersonalizationRepository)(nil)
