package repository

import (
	"context"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormChecklistRepository is a GORM implementation of ChecklistRepository
type GormChecklistRepository struct {
	*GormCrudRepository[models.ChecklistItem]
	db *gorm.DB
}

// NewChecklistRepository creates a new ChecklistRepository
func NewChecklistRepository(db *gorm.DB) ChecklistRepository {
	return &GormChecklistRepository{
		GormCrudRepository: NewCrudRepository[models.ChecklistItem](db),
		db:                 db,
	}
}

// NextOrderIndex returns the slot after the task's last checklist item
func (r *GormChecklistRepository) NextOrderIndex(ctx context.Context, taskID string) (int, error) {
	var last struct{ Max *int }
	err := r.db.WithContext(ctx).Model(&models.ChecklistItem{}).
		Select("MAX(order_index) AS max").
		Where("task_id = ?", taskID).
		Scan(&last).Error
	if err != nil {
		return 0, err
	}
	if last.Max == nil {
		return 0, nil
	}
	return *last.Max + 1, nil
}

// Reorder moves every listed item of the task in one transaction. An item
// that does not belong to the task aborts the batch with gorm.ErrRecordNotFound.
func (r *GormChecklistRepository) Reorder(ctx context.Context, taskID string, order []ChecklistOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, o := range order {
			result := tx.Model(&models.ChecklistItem{}).
				Where("id = ? AND task_id = ?", o.ID, taskID).
				Update("order_index", o.OrderIndex)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		return nil
	})
}

// GormFieldValueRepository is a GORM implementation of FieldValueRepository
type GormFieldValueRepository struct {
	db *gorm.DB
}

// NewFieldValueRepository creates a new FieldValueRepository
func NewFieldValueRepository(db *gorm.DB) FieldValueRepository {
	return &GormFieldValueRepository{db: db}
}

// ListByTask lists a task's custom field values with their field definitions
func (r *GormFieldValueRepository) ListByTask(ctx context.Context, taskID string) ([]models.TaskCustomFieldValue, error) {
	values := []models.TaskCustomFieldValue{}
	err := r.db.WithContext(ctx).
		Preload("CustomField").
		Where("task_id = ?", taskID).
		Order("custom_field_id ASC").
		Find(&values).Error
	return values, err
}

// Upsert writes every value in one transaction, replacing the stored value
// of a field that already has one
func (r *GormFieldValueRepository) Upsert(ctx context.Context, values []models.TaskCustomFieldValue) error {
	if len(values) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}, {Name: "custom_field_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&values).Error
	})
}
